package mapping

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

// fakeReader 以 "sheet!address" 为键的内存区域
type fakeReader struct {
	mu     sync.Mutex
	ranges map[string][][]any
	fail   map[string]error
	calls  int
}

func (f *fakeReader) ReadRange(_ context.Context, sheet, address string) ([][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	key := sheet + "!" + address
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	if v, ok := f.ranges[key]; ok {
		return v, nil
	}
	return [][]any{{""}}, nil
}

func TestReadOutputs_RoundingPolicy(t *testing.T) {
	t.Parallel()

	r := &fakeReader{ranges: map[string][][]any{
		"INPUTS GERAIS!AU56":         {{12345.6}},
		"CAPEX!V9":                   {{1234.5678}},
		"CAPEX!AZ9":                  {{99.995}},
		"CAPEX!V33":                  {{10.5}},
		"CONFIGURAÇÃO_PORTE!F13":     {{"#DIV/0!"}},
		"CONFIGURAÇÃO_CONCESSÃO!C18": {{"Sim"}},
	}}

	out, err := ReadOutputs(context.Background(), r, OutputOptions{Cells: DefaultOutputCells()})
	if err != nil {
		t.Fatalf("ReadOutputs: %v", err)
	}

	if got, _ := out.Number(model.KeyInvoiceCount); got != 12346 {
		t.Fatalf("%s want=12346 got=%v", model.KeyInvoiceCount, got)
	}
	if got, _ := out.Number(model.KeyInitialInvestment); got != 1234.57 {
		t.Fatalf("%s want=1234.57 got=%v", model.KeyInitialInvestment, got)
	}
	if got, _ := out.Number(model.KeyCivilWorksInvestment); got != 11 {
		t.Fatalf("%s want=11 got=%v", model.KeyCivilWorksInvestment, got)
	}
	if _, ok := out.Get(model.KeyAverageDelinquency); ok {
		t.Fatalf("error values must not be written")
	}
	if _, ok := out.Get(model.KeyHousingUnits); ok {
		t.Fatalf("empty cells must not be written")
	}
	if v, ok := out.Get(model.KeyWasteCollectedPerMonth); ok {
		t.Fatalf("numeric cell holding text must not be written, got %v", v)
	}
}

func TestReadOutputs_MultiCellFlattened(t *testing.T) {
	t.Parallel()

	cells := []OutputCell{{Key: "faixa", Sheet: "S", Address: "A1:B2"}}
	r := &fakeReader{ranges: map[string][][]any{
		"S!A1:B2": {{1.0, 2.0}, {3.0, "x"}},
	}}

	out, err := ReadOutputs(context.Background(), r, OutputOptions{Cells: cells})
	if err != nil {
		t.Fatalf("ReadOutputs: %v", err)
	}
	got, _ := out.Get("faixa")
	arr, ok := got.([]any)
	if !ok || len(arr) != 4 || arr[3] != "x" {
		t.Fatalf("unexpected flattened value: %#v", got)
	}
}

func TestReadOutputs_ChartsZipped(t *testing.T) {
	t.Parallel()

	r := &fakeReader{ranges: map[string][][]any{
		"INPUTS GERAIS!P6:AC6":   {{2026.0, 2027.0, 2028.0}},
		"INPUTS GERAIS!P25:AC25": {{10.0, 11.0, 12.0}},
		"INPUTS GERAIS!P26:AC26": {{1.0, 1.1, 1.2}},
		"INPUTS GERAIS!P27:AC27": {{100.0, 110.0, 120.0}},
	}}

	out, err := ReadOutputs(context.Background(), r, OutputOptions{Charts: DefaultChartRanges()})
	if err != nil {
		t.Fatalf("ReadOutputs: %v", err)
	}
	if len(out.Charts) != 3 {
		t.Fatalf("want 3 charts, got %d", len(out.Charts))
	}
	s := out.Charts[model.ChartUnitCostPerTonne]
	if len(s.Labels()) != 3 || s.Labels()[0] != 2026.0 {
		t.Fatalf("unexpected labels: %#v", s.Labels())
	}
	if s.Values()[2] != 120.0 {
		t.Fatalf("unexpected values: %#v", s.Values())
	}
}

func TestReadOutputs_FailureNamesCell(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := &fakeReader{fail: map[string]error{"CAPEX!V34": boom}}

	_, err := ReadOutputs(context.Background(), r, OutputOptions{Cells: DefaultOutputCells(), Concurrency: 1})
	var ce *CellError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CellError, got %v", err)
	}
	if ce.Key != model.KeyLandAcquisitionInvestment || ce.Address != "V34" {
		t.Fatalf("unexpected cell error: %+v", ce)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause should be preserved")
	}
}

func TestRoundHalfUp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{2.5, 0, 3},
		{-2.5, 0, -2},
		{1234.5, 0, 1235},
		{1234.4999, 0, 1234},
		{0.125, 2, 0.13},
		{1234.5678, 2, 1234.57},
	}
	for _, c := range cases {
		if got := RoundHalfUp(c.in, c.decimals); got != c.want {
			t.Fatalf("RoundHalfUp(%v,%d) want=%v got=%v", c.in, c.decimals, c.want, got)
		}
	}
}

func TestRoundHalfUp_Idempotent(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{0.005, 1.015, 1234.5678, 99.995, 1e7 / 3, 4_321_987.654321} {
		once := RoundHalfUp(v, 2)
		if twice := RoundHalfUp(once, 2); twice != once {
			t.Fatalf("re-rounding %v changed %v -> %v", v, once, twice)
		}
	}
}

func TestReadOutputs_TextCells(t *testing.T) {
	t.Parallel()

	cells := []OutputCell{
		{Key: model.KeyConcessionSize, Sheet: "S", Address: "A1", Text: true},
		{Key: "numeroComoTexto", Sheet: "S", Address: "A2"},
		{Key: "naoFinito", Sheet: "S", Address: "A3"},
		{Key: "textoVazio", Sheet: "S", Address: "A4", Text: true},
		{Key: "textoNumerico", Sheet: "S", Address: "A5", Text: true},
	}
	r := &fakeReader{ranges: map[string][][]any{
		"S!A1": {{"Médio"}},
		"S!A2": {{"42.4"}},
		"S!A3": {{"NaN"}},
		"S!A4": {{"  "}},
		"S!A5": {{7.6}},
	}}

	out, err := ReadOutputs(context.Background(), r, OutputOptions{Cells: cells})
	if err != nil {
		t.Fatalf("ReadOutputs: %v", err)
	}
	if got, _ := out.String(model.KeyConcessionSize); got != "Médio" {
		t.Fatalf("text cell want=Médio got=%q", got)
	}
	if got, _ := out.Number("numeroComoTexto"); got != 42 {
		t.Fatalf("numeric string want=42 got=%v", got)
	}
	if _, ok := out.Get("naoFinito"); ok {
		t.Fatalf("non-finite values must not be written")
	}
	if _, ok := out.Get("textoVazio"); ok {
		t.Fatalf("blank text must not be written")
	}
	if got, _ := out.Number("textoNumerico"); got != 8 {
		t.Fatalf("numbers in text cells are still rounded, got %v", got)
	}
}
