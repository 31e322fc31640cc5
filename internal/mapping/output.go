package mapping

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/workbook"
)

// 工作表名
const (
	SheetConcession   = "CONFIGURAÇÃO_CONCESSÃO"
	SheetGeneral      = "INPUTS GERAIS"
	SheetSizing       = "CONFIGURAÇÃO_PORTE"
	SheetCapex        = "CAPEX"
	SheetOrgChart     = "ORGANOGRAMA"
	DefaultInputRange = "C6:C27"
)

// OutputCell 输出表的一行：逻辑字段 <- (工作表, 地址)
type OutputCell struct {
	Key      string `toml:"key" json:"key"`
	Sheet    string `toml:"sheet" json:"sheet"`
	Address  string `toml:"address" json:"address"`
	Decimals int    `toml:"decimals" json:"decimals"` // 单值取整位数，默认 0
	Text     bool   `toml:"text" json:"text"`         // 文本单元格，保留字符串
}

// ChartRange 图表序列：标签区域 + 数值区域
type ChartRange struct {
	Key    string `toml:"key" json:"key"`
	Sheet  string `toml:"sheet" json:"sheet"`
	Labels string `toml:"labels" json:"labels"`
	Values string `toml:"values" json:"values"`
}

// DefaultOutputCells 默认输出映射表
func DefaultOutputCells() []OutputCell {
	return []OutputCell{
		{Key: model.KeyInvoiceCount, Sheet: SheetGeneral, Address: "AU56"},
		{Key: model.KeyInvoicesPerServiceUnit, Sheet: SheetGeneral, Address: "AU57"},
		{Key: model.KeyWasteCollectedPerMonth, Sheet: SheetConcession, Address: "C18"},
		{Key: model.KeyHousingUnits, Sheet: SheetConcession, Address: "C37"},
		{Key: model.KeyDuplicateInvoicesPerYear, Sheet: SheetGeneral, Address: "AU55"},
		{Key: model.KeyServiceUnits, Sheet: SheetSizing, Address: "D56"},
		{Key: model.KeyAreaPerServiceUnit, Sheet: SheetSizing, Address: "D46"},
		{Key: model.KeyTotalServiceArea, Sheet: SheetSizing, Address: "D66"},
		{Key: model.KeyClientsPerServiceUnit, Sheet: SheetSizing, Address: "E56"},
		{Key: model.KeyInvestmentPerServiceUnit, Sheet: SheetSizing, Address: "F56"},
		{Key: model.KeyCivilWorksInvestment, Sheet: SheetCapex, Address: "V33"},
		{Key: model.KeyLandAcquisitionInvestment, Sheet: SheetCapex, Address: "V34"},
		{Key: model.KeyInitialInvestment, Sheet: SheetCapex, Address: "V9", Decimals: 2},
		{Key: model.KeyAverageAnnualInvestment, Sheet: SheetCapex, Address: "AZ9", Decimals: 2},
		{Key: model.KeyAverageDelinquency, Sheet: SheetSizing, Address: "F13"},
		{Key: model.KeyStaffCommercial, Sheet: SheetOrgChart, Address: "K18"},
		{Key: model.KeyStaffBillingMetering, Sheet: SheetOrgChart, Address: "K30"},
		{Key: model.KeyStaffCollections, Sheet: SheetOrgChart, Address: "K43"},
		{Key: model.KeyStaffRegistry, Sheet: SheetOrgChart, Address: "K55"},
		{Key: model.KeyStaffControls, Sheet: SheetOrgChart, Address: "K65"},
		{Key: model.KeyStaffIT, Sheet: SheetOrgChart, Address: "K75"},
		{Key: model.KeyStaffCompliance, Sheet: SheetOrgChart, Address: "K83"},
		{Key: model.KeyStaffTraining, Sheet: SheetOrgChart, Address: "K92"},
	}
}

// DefaultChartRanges 默认图表序列
func DefaultChartRanges() []ChartRange {
	return []ChartRange{
		{Key: model.ChartUnitCostPerHousing, Sheet: SheetGeneral, Labels: "P6:AC6", Values: "P25:AC25"},
		{Key: model.ChartUnitCostPerResident, Sheet: SheetGeneral, Labels: "P6:AC6", Values: "P26:AC26"},
		{Key: model.ChartUnitCostPerTonne, Sheet: SheetGeneral, Labels: "P6:AC6", Values: "P27:AC27"},
	}
}

// CellError 读取单元格失败
type CellError struct {
	Key     string
	Sheet   string
	Address string
	Err     error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("read %s (%s!%s): %v", e.Key, e.Sheet, e.Address, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// OutputOptions 输出读取选项
type OutputOptions struct {
	Cells       []OutputCell
	Charts      []ChartRange
	Concurrency int // 并发读取数，<=0 时为 4
}

// ReadOutputs 读取计算结果
//
// 单元格规则：数值单元格按 Decimals 四舍五入，不是数值时不写入结果；Text 单元格保留非空字符串；
// 多单元格展开为数组；空单元格与错误值不写入结果。任一读取失败时返回 *CellError。
func ReadOutputs(ctx context.Context, r workbook.RangeReader, opts OutputOptions) (*model.Output, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	cellValues := make([][][]any, len(opts.Cells))
	labels := make([][][]any, len(opts.Charts))
	values := make([][][]any, len(opts.Charts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, c := range opts.Cells {
		g.Go(func() error {
			v, err := r.ReadRange(gctx, c.Sheet, c.Address)
			if err != nil {
				return &CellError{Key: c.Key, Sheet: c.Sheet, Address: c.Address, Err: err}
			}
			cellValues[i] = v
			return nil
		})
	}
	for i, ch := range opts.Charts {
		g.Go(func() error {
			v, err := r.ReadRange(gctx, ch.Sheet, ch.Labels)
			if err != nil {
				return &CellError{Key: ch.Key, Sheet: ch.Sheet, Address: ch.Labels, Err: err}
			}
			labels[i] = v
			return nil
		})
		g.Go(func() error {
			v, err := r.ReadRange(gctx, ch.Sheet, ch.Values)
			if err != nil {
				return &CellError{Key: ch.Key, Sheet: ch.Sheet, Address: ch.Values, Err: err}
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := model.NewOutput()
	for i, c := range opts.Cells {
		if v, ok := cellResult(cellValues[i], c); ok {
			out.Set(c.Key, v)
		}
	}
	for i, ch := range opts.Charts {
		out.Charts[ch.Key] = model.Series{firstRow(labels[i]), firstRow(values[i])}
	}
	return out, nil
}

func cellResult(values [][]any, c OutputCell) (any, bool) {
	if len(values) == 1 && len(values[0]) == 1 {
		v := values[0][0]
		if s, ok := v.(string); ok && (strings.TrimSpace(s) == "" || IsErrorValue(s)) {
			return nil, false
		}
		if c.Text {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
		f, ok := model.ToFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return RoundHalfUp(f, c.Decimals), true
	}

	flat := make([]any, 0)
	for _, row := range values {
		flat = append(flat, row...)
	}
	return flat, true
}

// IsErrorValue 是否为 Excel 错误值（#DIV/0!、#N/A 等）
func IsErrorValue(s string) bool {
	switch s {
	case "#NULL!", "#DIV/0!", "#VALUE!", "#REF!", "#NAME?", "#NUM!", "#N/A", "#GETTING_DATA", "#SPILL!", "#CALC!":
		return true
	}
	return false
}

func firstRow(values [][]any) []any {
	if len(values) == 0 {
		return []any{}
	}
	row := make([]any, len(values[0]))
	copy(row, values[0])
	return row
}

// RoundHalfUp 按指定小数位四舍五入（.5 向正无穷方向进位）
func RoundHalfUp(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Floor(v + 0.5)
	}
	p := math.Pow(10, float64(decimals))
	return math.Floor(v*p+0.5) / p
}
