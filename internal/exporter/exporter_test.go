package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

func sampleOutput() *model.Output {
	out := model.NewOutput()
	out.Set(model.KeyInvoiceCount, 120000.0)
	out.Set(model.KeyServiceUnits, 3.0)
	out.Set(model.KeyInitialInvestment, 1234567.5)
	out.Set(model.KeyAverageDelinquency, 6.8)
	out.Charts[model.ChartUnitCostPerHousing] = model.Series{{2026.0, 2027.0, 2028.0}, {12.5, 12.1, 11.9}}
	out.Charts[model.ChartUnitCostPerTonne] = model.Series{{2026.0, 2027.0, 2028.0}, {310.5, 305.1, 300.0}}
	return out
}

func sampleForm() map[string]any {
	return map[string]any{
		"habitantes": 32000.0,
		"regiao":     "Sul",
		"setores":    []any{"atendimento-comercial", "tecnologia-informacao"},
		"extra":      "ignorado",
	}
}

func findRow(t *testing.T, f *excelize.File, sheet, first string) []string {
	t.Helper()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	for _, r := range rows {
		if len(r) > 0 && r[0] == first {
			return r
		}
	}
	t.Fatalf("row %q not found in %s", first, sheet)
	return nil
}

func TestExport_Sheets(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	at := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	f, err := NewExporter("").Export(sampleOutput(), sampleForm(), ExportOptions{
		GeneratedAt: at,
		Progress:    func(p ProgressEvent) { events = append(events, p) },
	})
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetSummary, SheetCharts, SheetInputs}, f.GetSheetList())

	row := findRow(t, f, SheetSummary, "Faturas Processadas/Ano")
	require.Equal(t, "120.000", row[1])
	row = findRow(t, f, SheetSummary, "Investimento Total Inicial")
	require.Equal(t, "R$ 1.234.567,50", row[1])
	row = findRow(t, f, SheetSummary, "Habitantes")
	require.Equal(t, "32.000", row[1])
	row = findRow(t, f, SheetSummary, "Gestão Comercial")
	require.Equal(t, "A inadimplência média foi reportada em 6,8%.", row[1])

	chartRows, err := f.GetRows(SheetCharts)
	require.NoError(t, err)
	require.Equal(t, "Custo unitário geral anual por UH (R$/UH)", chartRows[0][0])
	require.Equal(t, []string{"Ano", "2026", "2027", "2028"}, chartRows[1])
	require.Equal(t, "Custo unitário geral anual por Tonelada (R$/Ton)", chartRows[4][0])

	row = findRow(t, f, SheetInputs, "Setores")
	require.Equal(t, "Atendimento Comercial, Tecnologia de Informação", row[1])
	row = findRow(t, f, SheetInputs, "Região")
	require.Equal(t, "Sul", row[1])

	var stages []Stage
	for i, ev := range events {
		stages = append(stages, ev.Stage)
		require.Equal(t, ev.Stage.Percent(), ev.Percent)
		if i > 0 {
			require.Greater(t, ev.Percent, events[i-1].Percent)
		}
	}
	require.Equal(t, []Stage{StageOpen, StageSummary, StageCharts, StageInputs, StageDone}, stages)
	require.Equal(t, 100, events[len(events)-1].Percent)

	path := filepath.Join(t.TempDir(), Filename(at))
	require.NoError(t, f.SaveAs(path))
}

func TestExport_NilOutput(t *testing.T) {
	t.Parallel()

	_, err := NewExporter("").Export(nil, nil, ExportOptions{})
	require.Error(t, err)
}

func TestExport_Template(t *testing.T) {
	t.Parallel()

	tpl := excelize.NewFile()
	require.NoError(t, tpl.SetSheetName("Sheet1", "Capa"))
	require.NoError(t, tpl.SetCellValue("Capa", "A1", "Prefeitura"))
	path := filepath.Join(t.TempDir(), "modelo.xlsx")
	require.NoError(t, tpl.SaveAs(path))
	require.NoError(t, tpl.Close())

	f, err := NewExporter(path).Export(sampleOutput(), nil, ExportOptions{})
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Capa", SheetSummary, SheetCharts, SheetInputs}, f.GetSheetList())
	v, err := f.GetCellValue("Capa", "A1")
	require.NoError(t, err)
	require.Equal(t, "Prefeitura", v)

	_, err = NewExporter(filepath.Join(t.TempDir(), "missing.xlsx")).Export(sampleOutput(), nil, ExportOptions{})
	require.Error(t, err)
}

func TestContentDisposition(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	got := ContentDisposition(at)
	want := "attachment; filename=\"simulacao-dre-2026-03-01-1405.xlsx\"; filename*=UTF-8''Simula%C3%A7%C3%A3o%20DRE%202026-03-01%2014h05.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestStage_Percent(t *testing.T) {
	t.Parallel()

	require.Equal(t, 5, StageOpen.Percent())
	require.Equal(t, 100, StageDone.Percent())
	require.Equal(t, 0, Stage("desconhecido").Percent())
}
