package workbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// ErrSessionClosed 会话已关闭
var ErrSessionClosed = errors.New("workbook session closed")

// Local 本地工作簿引擎
//
// 每次 Open 都从模板字节重新打开一份内存副本，写入输入后用 excelize 公式引擎求值；
// 并发会话互不影响。用于离线开发、命令行与测试。
type Local struct {
	template []byte
	source   string
}

// NewLocal 从 .xlsx 模板文件创建本地引擎
func NewLocal(path string) (*Local, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取工作簿模板失败: %w", err)
	}
	// 提前校验模板可被解析
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析工作簿模板失败: %w", err)
	}
	_ = f.Close()

	return &Local{template: data, source: path}, nil
}

// NewLocalFromFile 从已打开的工作簿创建本地引擎（测试用）
func NewLocalFromFile(f *excelize.File) (*Local, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("序列化工作簿失败: %w", err)
	}
	return &Local{template: buf.Bytes(), source: "memory"}, nil
}

// Name 引擎名称
func (l *Local) Name() string { return "local:" + l.source }

// Open 打开新的会话
func (l *Local) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(l.template))
	if err != nil {
		return nil, fmt.Errorf("打开工作簿副本失败: %w", err)
	}
	return &localSession{f: f}, nil
}

type localSession struct {
	mu     sync.Mutex
	f      *excelize.File
	closed bool
}

func (s *localSession) WriteRange(ctx context.Context, sheet, address string, values [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rng, err := ParseRange(address)
	if err != nil {
		return err
	}
	if len(values) != rng.Rows() {
		return fmt.Errorf("range %s has %d rows, got %d", address, rng.Rows(), len(values))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	for ri, row := range values {
		if len(row) != rng.Cols() {
			return fmt.Errorf("range %s has %d cols, row %d got %d", address, rng.Cols(), ri, len(row))
		}
		for ci, v := range row {
			if v == nil {
				continue
			}
			cell, err := rng.CellName(ri, ci)
			if err != nil {
				return err
			}
			if err := s.f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("写入 %s!%s 失败: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func (s *localSession) ReadRange(ctx context.Context, sheet, address string) ([][]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng, err := ParseRange(address)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	out := make([][]any, 0, rng.Rows())
	for ri := 0; ri < rng.Rows(); ri++ {
		row := make([]any, 0, rng.Cols())
		for ci := 0; ci < rng.Cols(); ci++ {
			cell, err := rng.CellName(ri, ci)
			if err != nil {
				return nil, err
			}
			raw, err := s.cellValue(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("读取 %s!%s 失败: %w", sheet, cell, err)
			}
			row = append(row, convertCell(raw))
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *localSession) cellValue(sheet, cell string) (string, error) {
	formula, err := s.f.GetCellFormula(sheet, cell)
	if err != nil {
		return "", err
	}
	if formula != "" {
		return s.f.CalcCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	}
	return s.f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
}

func (s *localSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// convertCell 与 Graph 返回保持一致：数字为 float64，布尔为 bool，空单元格为 ""
func convertCell(raw string) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch strings.ToUpper(v) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return raw
}
