// Package exporter 把计算结果导出为 .xlsx
package exporter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JeeerryZ/simuladordre/internal/format"
	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/service/summary"
)

// 工作表名
const (
	SheetSummary = "Resumo"
	SheetCharts  = "Gráficos"
	SheetInputs  = "Entradas"
)

// ContentType xlsx MIME
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Exporter 结果导出器
//
// 配置了模板时在模板副本上追加工作表（保留模板已有的封面等内容），否则新建工作簿。
type Exporter struct {
	templatePath string
}

// NewExporter 创建导出器
func NewExporter(templatePath string) *Exporter {
	return &Exporter{templatePath: strings.TrimSpace(templatePath)}
}

// ExportOptions 导出选项
type ExportOptions struct {
	GeneratedAt time.Time
	Progress    func(ProgressEvent)
}

// Export 导出结果工作簿
func (e *Exporter) Export(out *model.Output, formValues map[string]any, opts ExportOptions) (*excelize.File, error) {
	if out == nil {
		return nil, fmt.Errorf("没有可导出的计算结果")
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	reportProgress(opts.Progress, StageOpen)
	f, err := e.openWorkbook()
	if err != nil {
		return nil, err
	}

	dash := summary.Build(out, formValues)
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	steps := []struct {
		stage Stage
		fill  func() error
	}{
		{StageSummary, func() error { return fillSummarySheet(f, st, dash, opts.GeneratedAt) }},
		{StageCharts, func() error { return fillChartsSheet(f, st, dash.Charts) }},
		{StageInputs, func() error { return fillInputsSheet(f, st, formValues) }},
	}
	for _, s := range steps {
		if err := s.fill(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("写入 %s 失败: %w", s.stage, err)
		}
		reportProgress(opts.Progress, s.stage)
	}

	if idx, err := f.GetSheetIndex(SheetSummary); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	reportProgress(opts.Progress, StageDone)
	return f, nil
}

func (e *Exporter) openWorkbook() (*excelize.File, error) {
	if e.templatePath != "" {
		f, err := excelize.OpenFile(e.templatePath)
		if err != nil {
			return nil, fmt.Errorf("打开导出模板失败: %w", err)
		}
		return f, nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// ensureSheet 工作表不存在时新建
func ensureSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	_, err = f.NewSheet(name)
	return err
}

// Filename 导出文件名
func Filename(at time.Time) string {
	return fmt.Sprintf("simulacao-dre-%s.xlsx", at.Format("2006-01-02-1504"))
}

// ContentDisposition 附件响应头：ASCII 文件名 + RFC 5987 UTF-8 文件名
func ContentDisposition(at time.Time) string {
	ascii := Filename(at)
	utf8Name := fmt.Sprintf("Simulação DRE %s.xlsx", at.Format("2006-01-02 15h04"))
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(utf8Name))
}

type styles struct {
	header int
	title  int
	money  int
	number int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F6F43"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return st, err
	}
	st.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return st, err
	}
	moneyFmt := `"R$" #,##0.00`
	st.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return st, err
	}
	st.number, err = f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	return st, err
}

// rowWriter 按行写入并记录第一个错误
type rowWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *rowWriter) write(values ...any) int {
	if w.err != nil {
		return w.row
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return w.row
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.err = err
	}
	return w.row
}

func (w *rowWriter) style(row, cols, style int) {
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, fmt.Sprintf("A%d", row), last, style)
}

func (w *rowWriter) blank() { w.row++ }

func fillSummarySheet(f *excelize.File, st styles, d summary.Dashboard, at time.Time) error {
	if err := ensureSheet(f, SheetSummary); err != nil {
		return err
	}
	w := &rowWriter{f: f, sheet: SheetSummary}

	w.style(w.write("Simulação do Setor Comercial", at.Format("02/01/2006 15:04")), 2, st.title)
	w.blank()

	for _, g := range d.Groups {
		if len(g.Cards) == 0 {
			continue
		}
		w.style(w.write(g.Title, "Valor", "Valor bruto"), 3, st.header)
		for _, c := range g.Cards {
			row := w.write(c.Label, c.Value, rawCell(c.Raw))
			if isMoney(c.Key) {
				w.style(row, 3, st.money)
			}
		}
		w.blank()
	}

	w.style(w.write("Resumo da simulação", "Valor"), 2, st.header)
	for _, r := range d.Review {
		w.write(r.Label, r.Value)
	}
	w.blank()

	w.style(w.write("Análise", "Detalhe"), 2, st.header)
	for _, in := range d.Insights {
		w.write(in.Title, in.Text)
		if in.Detail != "" {
			w.write("", in.Detail)
		}
	}
	if w.err != nil {
		return w.err
	}

	if err := f.SetColWidth(SheetSummary, "A", "A", 42); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "C", 28)
}

func fillChartsSheet(f *excelize.File, st styles, charts []summary.Chart) error {
	if err := ensureSheet(f, SheetCharts); err != nil {
		return err
	}
	w := &rowWriter{f: f, sheet: SheetCharts}

	// 每个序列占 3 行：标题、横轴、数值；图表放在数据右侧
	for i, ch := range charts {
		titleRow := w.write(ch.Title)
		w.style(titleRow, 1, st.title)
		labelRow := w.write(append([]any{"Ano"}, ch.Labels...)...)
		w.style(labelRow, len(ch.Labels)+1, st.header)
		valueRow := w.write(append([]any{"R$"}, ch.Values...)...)
		w.blank()
		if w.err != nil {
			return w.err
		}
		if len(ch.Values) == 0 {
			continue
		}
		if err := f.SetCellStyle(SheetCharts, fmt.Sprintf("B%d", valueRow), cellName(len(ch.Values)+1, valueRow), st.number); err != nil {
			return err
		}
		if err := addLineChart(f, ch, labelRow, valueRow, i); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetCharts, "A", "A", 14)
}

func addLineChart(f *excelize.File, ch summary.Chart, labelRow, valueRow, index int) error {
	lastCol, err := excelize.ColumnNumberToName(len(ch.Values) + 1)
	if err != nil {
		return err
	}
	ref := "'" + SheetCharts + "'!"
	anchor := cellName(len(ch.Values)+3, 1+index*18)
	return f.AddChart(SheetCharts, anchor, &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       ref + "$A$" + fmt.Sprint(labelRow-1),
			Categories: fmt.Sprintf("%s$B$%d:$%s$%d", ref, labelRow, lastCol, labelRow),
			Values:     fmt.Sprintf("%s$B$%d:$%s$%d", ref, valueRow, lastCol, valueRow),
		}},
		Title:  []excelize.RichTextRun{{Text: ch.Title}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// inputLabels 表单字段导出顺序与标签
var inputLabels = []struct{ key, label string }{
	{"habitantes", "Habitantes"},
	{"regiao", "Região"},
	{"modeloCobrancaConcessao", "Modelo de cobrança da concessão"},
	{"taxaGeracaoResiduos", "Taxa de geração de resíduos (kg/hab.dia)"},
	{"taxaColetaResiduos", "Taxa de coleta de resíduos (%)"},
	{"anoInicio", "Ano de início"},
	{"crescimentoPopulacionalAnual", "Crescimento populacional anual (%)"},
	{"habitantesPorResidencia", "Habitantes por residência"},
	{"modeloInicialCobranca", "Modelo inicial de cobrança"},
	{"anosTransicaoModeloCobranca", "Transição do modelo de cobrança"},
	{"receitaRepassada", "Receita repassada à agência (%)"},
	{"setores", "Setores"},
	{"tipologiaFaturamento", "Tipologia de faturamento"},
	{"incrementoReceita", "Incremento de receita (%)"},
	{"basePrecoMedio", "Base de preço médio"},
}

func fillInputsSheet(f *excelize.File, st styles, formValues map[string]any) error {
	if err := ensureSheet(f, SheetInputs); err != nil {
		return err
	}
	w := &rowWriter{f: f, sheet: SheetInputs}
	w.style(w.write("Campo", "Valor"), 2, st.header)
	for _, it := range inputLabels {
		v, ok := formValues[it.key]
		if !ok || v == nil {
			continue
		}
		if it.key == "setores" {
			v = sectorNames(v)
		}
		w.write(it.label, v)
	}
	if w.err != nil {
		return w.err
	}
	return f.SetColWidth(SheetInputs, "A", "B", 40)
}

func sectorNames(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, model.Sector(fmt.Sprint(s)).Label())
	}
	return strings.Join(names, ", ")
}

// rawCell 数值保留为数字，数组合并为文本
func rawCell(v any) any {
	switch x := v.(type) {
	case []any:
		parts := make([]string, 0, len(x))
		for _, it := range x {
			parts = append(parts, fmt.Sprint(it))
		}
		return strings.Join(parts, ", ")
	default:
		return v
	}
}

func isMoney(key string) bool {
	for _, m := range format.FinanceMetrics {
		if m.Key == key {
			return true
		}
	}
	return false
}
