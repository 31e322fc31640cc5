package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JeeerryZ/simuladordre/internal/config"
	"github.com/JeeerryZ/simuladordre/internal/mapping"
	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/store"
	"github.com/JeeerryZ/simuladordre/internal/workbook"
	"github.com/JeeerryZ/simuladordre/internal/workbook/demo"
)

type trackingOpener struct {
	inner     workbook.Opener
	opened    atomic.Int32
	closed    atomic.Int32
	failWrite error
}

func (o *trackingOpener) Name() string { return o.inner.Name() }

func (o *trackingOpener) Open(ctx context.Context) (workbook.Session, error) {
	s, err := o.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	o.opened.Add(1)
	return &trackingSession{Session: s, owner: o}, nil
}

type trackingSession struct {
	workbook.Session
	owner *trackingOpener
}

func (s *trackingSession) WriteRange(ctx context.Context, sheet, address string, values [][]any) error {
	if s.owner.failWrite != nil {
		return s.owner.failWrite
	}
	return s.Session.WriteRange(ctx, sheet, address, values)
}

func (s *trackingSession) Close(ctx context.Context) error {
	s.owner.closed.Add(1)
	return s.Session.Close(ctx)
}

type failingOpener struct{ err error }

func (o failingOpener) Name() string { return "failing" }

func (o failingOpener) Open(context.Context) (workbook.Session, error) { return nil, o.err }

func demoOpener(t *testing.T) *trackingOpener {
	t.Helper()
	f, err := demo.Template()
	require.NoError(t, err)
	defer f.Close()
	l, err := workbook.NewLocalFromFile(f)
	require.NoError(t, err)
	return &trackingOpener{inner: l}
}

func demoOptions() Options {
	return Options{Layout: demo.LayoutCheck()}
}

func scenario(population float64) *model.ScenarioInput {
	return &model.ScenarioInput{
		Population:             model.NewNumber(population),
		Region:                 "Sul",
		ConcessionBillingModel: "Cobrança Direta",
		CollectionRate:         model.NewNumber(85),
		StartYear:              "2026",
		PopulationGrowth:       model.NewNumber(1),
		PeoplePerHousehold:     model.NewNumber(3),
		InitialBillingModel:    "Taxa",
		TransitionYear:         "5º ano",
		RevenueShare:           model.NewNumber(2),
		Sectors:                []model.Sector{model.SectorCustomerService, model.SectorIT},
		BillingTypology:        "Ambas",
		AveragePriceBasis:      "UVS São Carlos",
	}
}

func TestCalculate_DemoWorkbook(t *testing.T) {
	t.Parallel()

	op := demoOpener(t)
	runs, err := store.New(store.MemoryPath)
	require.NoError(t, err)
	defer runs.Close()

	c := New(op, demoOptions(), runs, nil)
	out, err := c.Calculate(context.Background(), scenario(90000))
	require.NoError(t, err)

	housing, ok := out.Number(model.KeyHousingUnits)
	require.True(t, ok)
	require.Equal(t, 30000.0, housing)

	units, _ := out.Number(model.KeyServiceUnits)
	require.Equal(t, 2.0, units)

	invoices, _ := out.Number(model.KeyInvoiceCount)
	require.Equal(t, 360000.0, invoices)

	commercial, _ := out.Number(model.KeyStaffCommercial)
	require.Equal(t, 8.0, commercial)
	collections, _ := out.Number(model.KeyStaffCollections)
	require.Equal(t, 0.0, collections)

	delinquency, _ := out.Number(model.KeyAverageDelinquency)
	require.Equal(t, 12.5, delinquency)

	for _, key := range model.ChartKeys {
		s, ok := out.Charts[key]
		require.True(t, ok, key)
		require.Len(t, s.Labels(), 14)
		require.Len(t, s.Values(), 14)
	}

	require.Equal(t, int32(1), op.opened.Load())
	require.Equal(t, int32(1), op.closed.Load())

	st, err := runs.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, st.Total)
	require.Equal(t, 1, st.Succeeded)
}

func TestCalculate_DemoWorkbookDeclaresEveryOutput(t *testing.T) {
	t.Parallel()

	c := New(demoOpener(t), demoOptions(), nil, nil)
	out, err := c.Calculate(context.Background(), scenario(90000))
	require.NoError(t, err)

	for _, cell := range mapping.DefaultOutputCells() {
		v, ok := out.Get(cell.Key)
		if cell.Key == model.KeyWasteCollectedPerMonth {
			// C18 是演示工作簿的部门标记行，文本值不写入结果
			require.False(t, ok, "%s = %v", cell.Key, v)
			continue
		}
		require.True(t, ok, cell.Key)
		require.IsType(t, float64(0), v, cell.Key)
	}
	for _, key := range model.ChartKeys {
		s := out.Charts[key]
		for _, v := range s.Values() {
			require.IsType(t, float64(0), v, key)
		}
	}
}

func TestCalculate_DifferentInputsDifferentOutputs(t *testing.T) {
	t.Parallel()

	c := New(demoOpener(t), demoOptions(), nil, nil)
	small, err := c.Calculate(context.Background(), scenario(90000))
	require.NoError(t, err)
	large, err := c.Calculate(context.Background(), scenario(250000))
	require.NoError(t, err)

	// 与人口无关或未选择部门的输出
	unchanged := map[string]bool{
		model.KeyWasteCollectedPerMonth:   true,
		model.KeyAverageDelinquency:       true,
		model.KeyAreaPerServiceUnit:       true,
		model.KeyInvestmentPerServiceUnit: true,
		model.KeyStaffBillingMetering:     true,
		model.KeyStaffCollections:         true,
		model.KeyStaffRegistry:            true,
		model.KeyStaffControls:            true,
		model.KeyStaffCompliance:          true,
		model.KeyStaffTraining:            true,
	}
	differing := 0
	for _, cell := range mapping.DefaultOutputCells() {
		if unchanged[cell.Key] {
			continue
		}
		a, okA := small.Number(cell.Key)
		b, okB := large.Number(cell.Key)
		require.True(t, okA && okB, cell.Key)
		require.NotEqual(t, a, b, cell.Key)
		differing++
	}
	require.GreaterOrEqual(t, differing, 13)

	for _, key := range model.ChartKeys {
		require.NotEqual(t, small.Charts[key].Values(), large.Charts[key].Values(), key)
	}
}

func TestCalculate_ValidationSkipsWorkbook(t *testing.T) {
	t.Parallel()

	op := demoOpener(t)
	c := New(op, demoOptions(), nil, nil)

	in := scenario(90000)
	in.CollectionRate = model.NewNumber(20)
	_, err := c.Calculate(context.Background(), in)

	var fe model.FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "taxaColetaResiduos")
	require.Equal(t, int32(0), op.opened.Load())

	_, err = c.Calculate(context.Background(), nil)
	require.ErrorAs(t, err, &fe)
}

func TestCalculate_LayoutMismatchClosesSession(t *testing.T) {
	t.Parallel()

	op := demoOpener(t)
	labels := append([]string(nil), demo.Labels...)
	labels[0], labels[1] = labels[1], labels[0]
	opts := Options{Layout: mapping.LayoutCheck{LabelRange: demo.LabelRange, Labels: labels}}

	runs, err := store.New(store.MemoryPath)
	require.NoError(t, err)
	defer runs.Close()

	c := New(op, opts, runs, nil)
	_, err = c.Calculate(context.Background(), scenario(90000))
	require.ErrorIs(t, err, mapping.ErrLayoutMismatch)

	var le *mapping.LayoutError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "habitantes", le.Field)
	require.Equal(t, int32(1), op.closed.Load())

	st, err := runs.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, st.Failed)
}

func TestCalculate_MisalignedRangeRejectedBeforeOpen(t *testing.T) {
	t.Parallel()

	op := demoOpener(t)
	c := New(op, Options{InputRange: "C6:C26"}, nil, nil)
	_, err := c.Calculate(context.Background(), scenario(90000))
	require.ErrorIs(t, err, mapping.ErrLayoutMismatch)
	require.Equal(t, int32(0), op.opened.Load())
}

func TestCalculate_UpstreamFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("503 service unavailable")

	c := New(failingOpener{err: boom}, demoOptions(), nil, nil)
	_, err := c.Calculate(context.Background(), scenario(90000))
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, StageOpen, ue.Stage)
	require.ErrorIs(t, err, boom)

	op := demoOpener(t)
	op.failWrite = boom
	c = New(op, demoOptions(), nil, nil)
	_, err = c.Calculate(context.Background(), scenario(90000))
	require.ErrorAs(t, err, &ue)
	require.Equal(t, StageWrite, ue.Stage)
	require.Equal(t, int32(1), op.closed.Load())
}

func TestCalculate_ConcurrentRunsAreIndependent(t *testing.T) {
	t.Parallel()

	op := demoOpener(t)
	c := New(op, demoOptions(), nil, nil)
	populations := []float64{12000, 48000, 90000, 250000, 730000, 1200000, 3100000, 4000000}

	want := make([]*model.Output, len(populations))
	for i, p := range populations {
		out, err := c.Calculate(context.Background(), scenario(p))
		require.NoError(t, err)
		want[i] = out
	}

	got := make([]*model.Output, len(populations))
	errs := make([]error, len(populations))
	var wg sync.WaitGroup
	for i, p := range populations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], errs[i] = c.Calculate(context.Background(), scenario(p))
		}()
	}
	wg.Wait()

	for i := range populations {
		require.NoError(t, errs[i])
		require.Equal(t, want[i].Fields, got[i].Fields, fmt.Sprintf("population %v", populations[i]))
		require.Equal(t, want[i].Charts, got[i].Charts)
	}
	require.Equal(t, op.opened.Load(), op.closed.Load())
}

func TestCheckLayout(t *testing.T) {
	t.Parallel()

	op := demoOpener(t)
	require.NoError(t, New(op, demoOptions(), nil, nil).CheckLayout(context.Background()))
	require.Equal(t, int32(1), op.closed.Load())

	// 未配置标签时只做静态检查
	require.NoError(t, New(op, Options{}, nil, nil).CheckLayout(context.Background()))
	require.Equal(t, int32(1), op.opened.Load())
}

func TestOptionsFromConfig_DemoLayout(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Workbook.Backend = config.BackendLocal
	opts := OptionsFromConfig(cfg.Workbook)
	require.True(t, opts.Layout.Enabled())
	require.Len(t, opts.Outputs, len(mapping.DefaultOutputCells()))

	cfg.Workbook.Backend = config.BackendGraph
	require.False(t, OptionsFromConfig(cfg.Workbook).Layout.Enabled())

	op, err := NewOpener(cfg, nil)
	require.NoError(t, err)
	require.Equal(t, "graph:"+cfg.Workbook.DrivePath, op.Name())

	cfg.Workbook.Backend = "sharepoint"
	_, err = NewOpener(cfg, nil)
	require.Error(t, err)
}
