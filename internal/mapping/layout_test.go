package mapping

import (
	"context"
	"errors"
	"testing"
)

func labelsFixture() []string {
	labels := make([]string, len(InputRows))
	for i, row := range InputRows {
		labels[i] = "Campo " + row.Field
	}
	return labels
}

func labelRows(labels []string) [][]any {
	rows := make([][]any, len(labels))
	for i, l := range labels {
		rows[i] = []any{l}
	}
	return rows
}

func TestLayoutCheck_DisabledPasses(t *testing.T) {
	t.Parallel()

	r := &fakeReader{}
	if err := (LayoutCheck{}).Verify(context.Background(), r); err != nil {
		t.Fatalf("unconfigured check should pass: %v", err)
	}
	if r.calls != 0 {
		t.Fatalf("unconfigured check should not read the workbook")
	}
}

func TestLayoutCheck_MatchIgnoresFormatting(t *testing.T) {
	t.Parallel()

	want := labelsFixture()
	got := make([]string, len(want))
	for i, l := range want {
		got[i] = "  " + l + " :\n"
	}
	got[0] = "CAMPO   habitantes"

	r := &fakeReader{ranges: map[string][][]any{"CONFIGURAÇÃO_CONCESSÃO!B6:B27": labelRows(got)}}
	check := LayoutCheck{Sheet: SheetConcession, LabelRange: "B6:B27", Labels: want}
	if err := check.Verify(context.Background(), r); err != nil {
		t.Fatalf("labels should match after normalization: %v", err)
	}
}

func TestLayoutCheck_ShiftedRowFails(t *testing.T) {
	t.Parallel()

	want := labelsFixture()
	got := append([]string{"Linha inserida"}, want[:len(want)-1]...)

	r := &fakeReader{ranges: map[string][][]any{"CONFIGURAÇÃO_CONCESSÃO!B6:B27": labelRows(got)}}
	check := LayoutCheck{Sheet: SheetConcession, LabelRange: "B6:B27", Labels: want}

	err := check.Verify(context.Background(), r)
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("expected ErrLayoutMismatch, got %v", err)
	}
	var le *LayoutError
	if !errors.As(err, &le) || le.Row != 0 || le.Field != "habitantes" {
		t.Fatalf("unexpected layout error: %+v", le)
	}
}

func TestLayoutCheck_WrongLabelCount(t *testing.T) {
	t.Parallel()

	check := LayoutCheck{Sheet: SheetConcession, LabelRange: "B6:B27", Labels: []string{"a", "b"}}
	err := check.Verify(context.Background(), &fakeReader{})
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("expected ErrLayoutMismatch, got %v", err)
	}
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Habitantes:  ":           "habitantes",
		"Taxa de\nColeta":           "taxa de coleta",
		"Regia\u0303o":              "região",
		"Modelo  Inicial  Cobrança": "modelo inicial cobrança",
	}
	for in, want := range cases {
		if got := NormalizeLabel(in); got != want {
			t.Fatalf("NormalizeLabel(%q) want=%q got=%q", in, want, got)
		}
	}
}
