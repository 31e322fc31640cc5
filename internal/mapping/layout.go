package mapping

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/JeeerryZ/simuladordre/internal/workbook"
)

// ErrLayoutMismatch 输入表与工作簿布局不一致
var ErrLayoutMismatch = errors.New("workbook layout mismatch")

// LayoutError 布局校验失败详情
type LayoutError struct {
	Row      int // 0 起始
	Field    string
	Expected string
	Actual   string
	Detail   string
}

func (e *LayoutError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s", ErrLayoutMismatch, e.Detail)
	}
	return fmt.Sprintf("%v: row %d (%s) expected label %q, found %q", ErrLayoutMismatch, e.Row, e.Field, e.Expected, e.Actual)
}

func (e *LayoutError) Unwrap() error { return ErrLayoutMismatch }

// CheckRange 静态校验：写入区域必须是单列且恰好每个输入字段一行
func CheckRange(address string, rows int) error {
	rng, err := workbook.ParseRange(address)
	if err != nil {
		return err
	}
	if rng.Cols() != 1 {
		return &LayoutError{Detail: fmt.Sprintf("input range %s must be a single column, has %d", address, rng.Cols())}
	}
	if rng.Rows() != rows {
		return &LayoutError{Detail: fmt.Sprintf("input range %s has %d rows, input table has %d fields", address, rng.Rows(), rows)}
	}
	return nil
}

// LayoutCheck 运行期布局校验：写入前读取标签列，与期望标签逐行比对
type LayoutCheck struct {
	Sheet      string
	LabelRange string
	Labels     []string
}

// Enabled 是否配置了标签校验
func (c LayoutCheck) Enabled() bool {
	return c.LabelRange != "" && len(c.Labels) > 0
}

// Verify 执行标签校验，未配置时直接通过
func (c LayoutCheck) Verify(ctx context.Context, r workbook.RangeReader) error {
	if !c.Enabled() {
		return nil
	}
	if len(c.Labels) != len(InputRows) {
		return &LayoutError{Detail: fmt.Sprintf("%d expected labels configured for %d input fields", len(c.Labels), len(InputRows))}
	}

	rows, err := r.ReadRange(ctx, c.Sheet, c.LabelRange)
	if err != nil {
		return fmt.Errorf("read layout labels %s!%s: %w", c.Sheet, c.LabelRange, err)
	}
	if len(rows) != len(c.Labels) {
		return &LayoutError{Detail: fmt.Sprintf("label range %s returned %d rows, want %d", c.LabelRange, len(rows), len(c.Labels))}
	}

	for i, want := range c.Labels {
		got := ""
		if len(rows[i]) > 0 {
			got = fmt.Sprint(rows[i][0])
		}
		if NormalizeLabel(got) != NormalizeLabel(want) {
			return &LayoutError{Row: i, Field: InputRows[i].Field, Expected: want, Actual: got}
		}
	}
	return nil
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeLabel 规范化标签：Unicode NFC、去首尾空白与换行、压缩空格、忽略大小写与结尾冒号
func NormalizeLabel(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSuffix(s, ":")
	return strings.ToLower(strings.TrimSpace(s))
}
