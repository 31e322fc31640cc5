package workbook

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RangeReader 读取工作表区域
//
// 返回按行组织的值，单元格值为 float64、string、bool 或 nil。
type RangeReader interface {
	ReadRange(ctx context.Context, sheet, address string) ([][]any, error)
}

// RangeWriter 写入工作表区域，nil 值表示保持单元格不变
type RangeWriter interface {
	WriteRange(ctx context.Context, sheet, address string, values [][]any) error
}

// Session 一次计算使用的工作簿会话（不复用、不共享）
type Session interface {
	RangeReader
	RangeWriter
	Close(ctx context.Context) error
}

// Opener 打开新的工作簿会话
type Opener interface {
	Open(ctx context.Context) (Session, error)
	Name() string
}

// Range 解析后的区域坐标（1 起始，含端点）
type Range struct {
	FromCol, FromRow int
	ToCol, ToRow     int
}

// Rows 行数
func (r Range) Rows() int { return r.ToRow - r.FromRow + 1 }

// Cols 列数
func (r Range) Cols() int { return r.ToCol - r.FromCol + 1 }

// ParseRange 解析 "C6:C27" 或 "AU56" 形式的地址
func ParseRange(address string) (Range, error) {
	address = strings.ReplaceAll(strings.TrimSpace(address), "$", "")
	if address == "" {
		return Range{}, fmt.Errorf("empty range address")
	}

	from, to, found := strings.Cut(address, ":")
	if !found {
		to = from
	}

	fc, fr, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", address, err)
	}
	tc, tr, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", address, err)
	}
	if tc < fc {
		fc, tc = tc, fc
	}
	if tr < fr {
		fr, tr = tr, fr
	}
	return Range{FromCol: fc, FromRow: fr, ToCol: tc, ToRow: tr}, nil
}

// CellName 区域内第 (row, col) 个单元格的名称（0 起始偏移）
func (r Range) CellName(rowOffset, colOffset int) (string, error) {
	return excelize.CoordinatesToCellName(r.FromCol+colOffset, r.FromRow+rowOffset)
}
