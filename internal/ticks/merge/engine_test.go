package merge

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"ticksession/internal/dto"
	"ticksession/internal/fixed"
	"ticksession/utils/async"
	"ticksession/utils/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteAt(t *testing.T, ts dto.UnixNanos, bid int64) dto.Data {
	t.Helper()
	q, err := dto.NewQuoteTick(
		token.EUR_USD_SIM,
		fixed.MustPrice(bid, 5),
		fixed.MustPrice(bid+2, 5),
		fixed.MustQuantity(1000000, 0),
		fixed.MustQuantity(1000000, 0),
		ts, ts,
	)
	require.NoError(t, err)
	return dto.FromQuote(q)
}

func tradeAt(ts dto.UnixNanos, id string) dto.Data {
	return dto.FromTrade(dto.NewTradeTick(
		token.BTC_USDT_BIN,
		fixed.MustPrice(6000000, 2),
		fixed.MustQuantity(1, 3),
		dto.Buyer,
		dto.TradeID(id),
		ts, ts,
	))
}

func ascending(t *testing.T, n int, rng *rand.Rand) []dto.Data {
	t.Helper()
	out := make([]dto.Data, n)
	ts := dto.UnixNanos(0)
	for i := range out {
		ts += dto.UnixNanos(rng.IntN(3))
		out[i] = quoteAt(t, ts, int64(100000+i))
	}
	return out
}

func collect(t *testing.T, e *Engine) []dto.Data {
	t.Helper()
	var out []dto.Data
	for d, err := range e.All(context.Background()) {
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func isAscendingByInit(ticks []dto.Data) bool {
	for i := 1; i < len(ticks); i++ {
		if ticks[i-1].TsInit() > ticks[i].TsInit() {
			return false
		}
	}
	return true
}

type failingSource struct {
	name    string
	records []dto.Data
	err     error
	pos     int
}

func (s *failingSource) Name() string { return s.name }

func (s *failingSource) Next(context.Context) (dto.Data, error) {
	if s.pos >= len(s.records) {
		return dto.Data{}, s.err
	}
	s.pos++
	return s.records[s.pos-1], nil
}

type panickingSource struct{}

func (panickingSource) Name() string { return "panics" }

func (panickingSource) Next(context.Context) (dto.Data, error) {
	panic("decoder bug")
}

type closingSource struct {
	*SliceSource
	closed bool
}

func (s *closingSource) Close() error {
	s.closed = true
	return nil
}

type countingObserver struct {
	mu      sync.Mutex
	emitted map[string]int
	failed  []string
}

func (o *countingObserver) RecordEmitted(source string, _ dto.DataKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emitted[source]++
}

func (o *countingObserver) SourceFailed(source string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, source)
}

func TestEngine_NoSources(t *testing.T) {
	e := NewEngine(Config{})
	_, err := e.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	_, err = e.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestEngine_SingleSourceUnchanged(t *testing.T) {
	records := ascending(t, 500, rand.New(rand.NewPCG(1, 2)))

	e := NewEngine(Config{})
	require.NoError(t, e.Add(NewSliceSource("only", records)))

	assert.Equal(t, records, collect(t, e))
}

func TestEngine_MergesAscending(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	counts := []int{1000, 0, 37, 512, 1}

	e := NewEngine(Config{})
	total := 0
	for i, n := range counts {
		require.NoError(t, e.Add(NewSliceSource(fmt.Sprintf("src-%d", i), ascending(t, n, rng))))
		total += n
	}

	merged := collect(t, e)
	assert.Len(t, merged, total)
	assert.True(t, isAscendingByInit(merged))
}

func TestEngine_TieBreakByRegistrationOrder(t *testing.T) {
	build := func() *Engine {
		e := NewEngine(Config{})
		require.NoError(t, e.Add(NewSliceSource("a", []dto.Data{quoteAt(t, 5, 1), quoteAt(t, 7, 2)})))
		require.NoError(t, e.Add(NewSliceSource("b", []dto.Data{quoteAt(t, 5, 3), quoteAt(t, 6, 4)})))
		require.NoError(t, e.Add(NewSliceSource("c", []dto.Data{quoteAt(t, 5, 5), quoteAt(t, 7, 6)})))
		return e
	}

	first := collect(t, build())
	second := collect(t, build())

	bids := make([]int64, len(first))
	for i, d := range first {
		q, ok := d.Quote()
		require.True(t, ok)
		bids[i] = q.Bid().Raw()
	}
	assert.Equal(t, []int64{1, 3, 5, 4, 2, 6}, bids)
	assert.Equal(t, first, second)
}

func TestEngine_MixedKinds(t *testing.T) {
	quotes := []dto.Data{quoteAt(t, 1, 1), quoteAt(t, 4, 2), quoteAt(t, 9, 3)}
	trades := []dto.Data{tradeAt(2, "t1"), tradeAt(4, "t2"), tradeAt(10, "t3")}

	e := NewEngine(Config{})
	require.NoError(t, e.Add(NewSliceSource("trades", trades)))
	require.NoError(t, e.Add(NewSliceSource("quotes", quotes)))

	merged := collect(t, e)
	kinds := make([]dto.DataKind, len(merged))
	for i, d := range merged {
		kinds[i] = d.Kind()
	}
	assert.Equal(t, []dto.DataKind{
		dto.KindQuote, dto.KindTrade, dto.KindTrade, dto.KindQuote, dto.KindQuote, dto.KindTrade,
	}, kinds)
}

func TestEngine_SameDataRegisteredTwice(t *testing.T) {
	records := ascending(t, 10000, rand.New(rand.NewPCG(5, 6)))

	e := NewEngine(Config{})
	require.NoError(t, e.Add(NewSliceSource("quote_tick", records)))
	require.NoError(t, e.Add(NewSliceSource("quote_tick_2", records)))

	merged := collect(t, e)
	require.Len(t, merged, len(records)*2)
	assert.True(t, isAscendingByInit(merged))
	assert.Equal(t, token.EUR_USD_SIM, merged[0].InstrumentID())

	// Equal timestamps keep registration order, which is a stable sort of A followed by B.
	expected := append(slices.Clone(records), records...)
	slices.SortStableFunc(expected, func(a, b dto.Data) int {
		return cmp.Compare(a.TsInit(), b.TsInit())
	})
	assert.Equal(t, expected, merged)
}

func TestEngine_SourceFailureHalts(t *testing.T) {
	cause := errors.New("corrupt row group")
	bad := &failingSource{name: "bad", records: []dto.Data{quoteAt(t, 2, 1)}, err: cause}
	obs := &countingObserver{emitted: map[string]int{}}

	e := NewEngine(Config{Observer: obs})
	require.NoError(t, e.Add(NewSliceSource("good", []dto.Data{quoteAt(t, 1, 1), quoteAt(t, 3, 1)})))
	require.NoError(t, e.Add(bad))

	ctx := context.Background()
	d, err := e.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.UnixNanos(1), d.TsInit())

	d, err = e.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.UnixNanos(2), d.TsInit(), "buffered record is emitted before the failing read")

	_, err = e.Next(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceRead)
	assert.ErrorIs(t, err, cause)

	var readErr *SourceReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "bad", readErr.Source)

	_, again := e.Next(ctx)
	assert.Equal(t, err, again)
	assert.Equal(t, []string{"bad"}, obs.failed)
	assert.Equal(t, 1, obs.emitted["good"])
	assert.Equal(t, 1, obs.emitted["bad"])
}

func TestEngine_FailureWhilePriming(t *testing.T) {
	cause := errors.New("no such file")
	e := NewEngine(Config{})
	require.NoError(t, e.Add(NewSliceSource("good", []dto.Data{quoteAt(t, 1, 1)})))
	require.NoError(t, e.Add(&failingSource{name: "missing", err: cause}))

	var errs []error
	for _, err := range e.All(context.Background()) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], cause)
}

func TestEngine_UnsortedSource(t *testing.T) {
	for _, sources := range [][]Source{
		{NewSliceSource("solo", []dto.Data{quoteAt(t, 5, 1), quoteAt(t, 4, 1)})},
		{
			NewSliceSource("ok", []dto.Data{quoteAt(t, 1, 1)}),
			NewSliceSource("backwards", []dto.Data{quoteAt(t, 5, 1), quoteAt(t, 4, 1)}),
		},
	} {
		e := NewEngine(Config{})
		for _, src := range sources {
			require.NoError(t, e.Add(src))
		}

		var err error
		for err == nil {
			_, err = e.Next(context.Background())
		}
		assert.ErrorIs(t, err, ErrUnsortedSource)
		assert.ErrorIs(t, err, ErrSourceRead)
	}
}

func TestEngine_Registration(t *testing.T) {
	e := NewEngine(Config{})
	require.NoError(t, e.Add(NewSliceSource("a", nil)))
	assert.ErrorIs(t, e.Add(NewSliceSource("a", nil)), ErrDuplicateSource)
	assert.Equal(t, 1, e.Len())

	_, err := e.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.ErrorIs(t, e.Add(NewSliceSource("b", nil)), ErrStarted)
}

func TestEngine_PrefetchMatchesDirect(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	inputs := make([][]dto.Data, 6)
	for i := range inputs {
		inputs[i] = ascending(t, 100+rng.IntN(400), rng)
	}

	run := func(prefetch int) []dto.Data {
		e := NewEngine(Config{PrefetchSize: prefetch})
		defer e.Close()
		for i, records := range inputs {
			require.NoError(t, e.Add(NewSliceSource(fmt.Sprintf("s%d", i), records)))
		}
		return collect(t, e)
	}

	direct := run(0)
	for _, size := range []int{1, 3, 64} {
		assert.Equal(t, direct, run(size), "prefetch %d", size)
	}
}

func TestEngine_PrefetchSurfacesPanic(t *testing.T) {
	e := NewEngine(Config{PrefetchSize: 4})
	defer e.Close()
	require.NoError(t, e.Add(NewSliceSource("fine", []dto.Data{quoteAt(t, 1, 1)})))
	require.NoError(t, e.Add(panickingSource{}))

	_, err := e.Next(context.Background())
	assert.ErrorIs(t, err, ErrSourceRead)
	assert.ErrorIs(t, err, async.ErrPanic)
}

func TestEngine_Close(t *testing.T) {
	for _, prefetch := range []int{0, 4} {
		t.Run(fmt.Sprintf("prefetch=%d", prefetch), func(t *testing.T) {
			a := &closingSource{SliceSource: NewSliceSource("a", []dto.Data{quoteAt(t, 1, 1), quoteAt(t, 2, 1)})}
			b := &closingSource{SliceSource: NewSliceSource("b", []dto.Data{quoteAt(t, 1, 1)})}
			e := NewEngine(Config{PrefetchSize: prefetch})
			require.NoError(t, e.Add(a))
			require.NoError(t, e.Add(b))

			_, err := e.Next(context.Background())
			require.NoError(t, err)

			require.NoError(t, e.Close())
			assert.True(t, a.closed)
			assert.True(t, b.closed)
			require.NoError(t, e.Close())

			_, err = e.Next(context.Background())
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestEngine_AllStopsEarly(t *testing.T) {
	e := NewEngine(Config{})
	require.NoError(t, e.Add(NewSliceSource("a", []dto.Data{quoteAt(t, 1, 1), quoteAt(t, 3, 1)})))
	require.NoError(t, e.Add(NewSliceSource("b", []dto.Data{quoteAt(t, 2, 1)})))

	ctx := context.Background()
	for d := range e.All(ctx) {
		assert.Equal(t, dto.UnixNanos(1), d.TsInit())
		break
	}

	rest := collect(t, e)
	require.Len(t, rest, 2)
	assert.Equal(t, dto.UnixNanos(2), rest[0].TsInit())
}

func TestEngine_CancelledContext(t *testing.T) {
	e := NewEngine(Config{})
	require.NoError(t, e.Add(NewSliceSource("a", []dto.Data{quoteAt(t, 1, 1)})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
