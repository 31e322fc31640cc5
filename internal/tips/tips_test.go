package tips

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func requireNoEvent(t *testing.T, ch <-chan Event, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(wait):
	}
}

func TestForField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		field  string
		value  any
		wantID string
	}{
		{"habitantes", 99999.0, IDPopulationLow},
		{"habitantes", "50000", IDPopulationLow},
		{"habitantes", 100001.0, IDPopulationMedium},
		{"habitantes", 1000000.0, IDPopulationMedium},
		{"habitantes", 1000001.0, IDPopulationHigh},
		{"habitantes", 100000.0, ""},
		{"habitantes", "abc", ""},
		{"taxaColetaResiduos", 85.0, IDCollectionRate},
		{"setores", []any{"cobranca-negociacao"}, IDCommercialSectors},
		{"anosTransicaoModeloCobranca", "5º ano", IDTransitionYears},
		{"basePrecoMedio", "UVS São Carlos", ""},
	}
	for _, c := range cases {
		tip, ok := ForField(c.field, c.value)
		if c.wantID == "" {
			require.False(t, ok, "%s=%v", c.field, c.value)
			continue
		}
		require.True(t, ok, "%s=%v", c.field, c.value)
		require.Equal(t, c.wantID, tip.ID)
		require.Equal(t, int64(7000), tip.DurationMs())
	}
}

func TestCatalogueDurations(t *testing.T) {
	t.Parallel()

	welcome, ok := Lookup(IDWelcome)
	require.True(t, ok)
	require.Equal(t, int64(8000), welcome.DurationMs())

	help, ok := Lookup(IDClickHelp)
	require.True(t, ok)
	require.Equal(t, int64(5000), help.DurationMs())

	_, ok = Lookup("nope")
	require.False(t, ok)
}

func TestBus_ShowReplacesAndAutoHides(t *testing.T) {
	t.Parallel()

	b := NewBus()
	defer b.Close()
	ch, cancel := b.Subscribe()
	defer cancel()

	require.True(t, b.Show(Tip{ID: "a", Message: "primeira", Duration: time.Hour}))
	ev := recv(t, ch)
	require.Equal(t, EventShow, ev.Type)
	require.Equal(t, "a", ev.Tip.ID)

	require.True(t, b.Show(Tip{ID: "b", Message: "segunda", Duration: 30 * time.Millisecond}))
	ev = recv(t, ch)
	require.Equal(t, "b", ev.Tip.ID)
	require.Equal(t, int64(30), ev.DurationMs)

	// a 的计时已被替换，只会收到 b 到期后的 hide
	ev = recv(t, ch)
	require.Equal(t, EventHide, ev.Type)
	_, visible := b.Current()
	require.False(t, visible)
	requireNoEvent(t, ch, 50*time.Millisecond)
}

func TestBus_HideCancelsTimer(t *testing.T) {
	t.Parallel()

	b := NewBus()
	defer b.Close()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Show(Tip{ID: "a", Duration: 20 * time.Millisecond})
	recv(t, ch)
	b.Hide()
	require.Equal(t, EventHide, recv(t, ch).Type)

	// 已隐藏：再次 Hide 与计时到期都不产生事件
	b.Hide()
	requireNoEvent(t, ch, 60*time.Millisecond)
}

func TestBus_ShowOnce(t *testing.T) {
	t.Parallel()

	b := NewBus()
	defer b.Close()

	tip := Tip{ID: "section", Duration: time.Hour}
	require.True(t, b.ShowOnce(tip))
	require.False(t, b.ShowOnce(tip))
	b.Hide()
	require.False(t, b.ShowOnce(tip))
	require.True(t, b.Show(tip))
}

func TestBus_LateSubscriberSeesCurrent(t *testing.T) {
	t.Parallel()

	b := NewBus()
	defer b.Close()
	b.Show(Tip{ID: "welcome", Duration: time.Hour})

	ch, cancel := b.Subscribe()
	ev := recv(t, ch)
	require.Equal(t, "welcome", ev.Tip.ID)

	require.Equal(t, 1, b.Subscribers())
	cancel()
	cancel()
	require.Equal(t, 0, b.Subscribers())
	_, open := <-ch
	require.False(t, open)
}

func TestBus_CloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	b := NewBus()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	b.Show(Tip{ID: "x", Duration: time.Hour})
	b.Close()
	b.Close()

	for _, ch := range []<-chan Event{ch1, ch2} {
		for range ch {
		}
	}
	cancel1()
	cancel2()

	require.False(t, b.Show(Tip{ID: "y"}))
	ch3, cancel3 := b.Subscribe()
	defer cancel3()
	_, open := <-ch3
	require.False(t, open)
}

func TestHub(t *testing.T) {
	t.Parallel()

	h := NewHub()
	defer h.Close()

	id, b := h.Open()
	got, err := h.Get(id)
	require.NoError(t, err)
	require.Same(t, b, got)

	_, err = h.Get("missing")
	require.ErrorIs(t, err, ErrPageNotFound)

	ch, cancel := b.Subscribe()
	defer cancel()
	require.NoError(t, h.CloseBus(id))
	_, open := <-ch
	require.False(t, open)
	require.ErrorIs(t, h.CloseBus(id), ErrPageNotFound)
}

func TestHub_Prune(t *testing.T) {
	t.Parallel()

	h := NewHub()
	defer h.Close()

	idle, _ := h.Open()
	_, active := h.Open()
	_, cancel := active.Subscribe()
	defer cancel()

	require.Equal(t, 1, h.Prune(time.Now().Add(time.Hour), 30*time.Minute))
	require.Equal(t, 1, h.Len())
	_, err := h.Get(idle)
	require.ErrorIs(t, err, ErrPageNotFound)
	require.Equal(t, 0, h.Prune(time.Now(), 30*time.Minute))
}
