package report

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/event"
)

func priceUpdate(ts int64, sym string, px float64) event.Event {
	return event.Event{Timestamp: ts, Symbol: sym, Type: event.TypePriceUpdate, Price: px, Qty: 1, Side: event.SideBuy}
}

// sampleEngine feeds a small mixed stream with one alert and one parse error.
func sampleEngine(cfg engine.Config) *engine.Engine {
	eng := engine.New(cfg)
	eng.Process(priceUpdate(1, "AAPL", 100.0))
	eng.Process(priceUpdate(2, "AAPL", 100.2))
	eng.Process(event.Event{Timestamp: 3, Symbol: "MSFT", Type: event.TypeOrderNew, Qty: 5, Side: event.SideSell})
	eng.Process(event.Blank(4))
	return eng
}

func TestText_AlertsThenSummary(t *testing.T) {
	r := Build(sampleEngine(engine.Config{EmitSummary: true, EmitAlerts: true, PriceJumpBps: 10}))

	expected := "ALERT 2 AAPL Price jump: AAPL 20.0000 bps (100.0000 -> 100.2000)\n" +
		"\n" +
		r.Summary()
	assert.Equal(t, expected, r.Text())
}

func TestText_SummaryOnly(t *testing.T) {
	r := Build(sampleEngine(engine.Config{EmitSummary: true, PriceJumpBps: 10}))

	assert.Equal(t, r.Summary(), r.Text())
	assert.Empty(t, r.Alerts)
}

func TestText_AlertsWithoutAny(t *testing.T) {
	r := Build(sampleEngine(engine.Config{EmitAlerts: true, PriceJumpBps: 1000}))

	assert.Empty(t, r.Text())
}

func TestText_NothingEnabled(t *testing.T) {
	r := Build(sampleEngine(engine.DefaultConfig()))
	assert.Empty(t, r.Text())
}

func TestAlertLine(t *testing.T) {
	a := engine.Alert{Timestamp: -7, Symbol: "X", Message: "Price jump: X 1.0000 bps (1.0000 -> 1.0001)"}
	assert.Equal(t, "ALERT -7 X Price jump: X 1.0000 bps (1.0000 -> 1.0001)", AlertLine(a))
}

func TestJSON_Golden(t *testing.T) {
	r := Build(sampleEngine(engine.Config{EmitSummary: true, EmitAlerts: true, PriceJumpBps: 10}))

	data, err := r.JSON()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "sample_report_json", data)
}

func TestJSON_OmitsUnobservedPrice(t *testing.T) {
	r := Build(sampleEngine(engine.DefaultConfig()))

	data, err := r.JSON()
	require.NoError(t, err)

	assert.Contains(t, string(data), `"last_price":"100.2"`)
	assert.Contains(t, string(data), `{"counts":{"order_cancel":0,"order_fill":0,"order_new":1,"price_update":0},"last_ts":3,"symbol":"MSFT"}`)
}

func TestDigest_Deterministic(t *testing.T) {
	cfg := engine.Config{EmitAlerts: true, PriceJumpBps: 10}

	d1, err := Build(sampleEngine(cfg)).Digest()
	require.NoError(t, err)
	d2, err := Build(sampleEngine(cfg)).Digest()
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestDigest_ChangesWithOutcome(t *testing.T) {
	base, err := Build(sampleEngine(engine.Config{EmitAlerts: true, PriceJumpBps: 10})).Digest()
	require.NoError(t, err)

	eng := sampleEngine(engine.Config{EmitAlerts: true, PriceJumpBps: 10})
	eng.Process(priceUpdate(5, "AAPL", 100.3))
	changed, err := Build(eng).Digest()
	require.NoError(t, err)

	assert.NotEqual(t, base, changed)
}

func TestDigest_DomainSeparated(t *testing.T) {
	r := Build(sampleEngine(engine.DefaultConfig()))
	data, err := r.JSON()
	require.NoError(t, err)

	d, err := r.Digest()
	require.NoError(t, err)

	assert.Equal(t, hashWithDomain(DomainReport, data), d)
	assert.NotEqual(t, hashWithDomain("other/v1", data), d)
}

func TestPriceString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{100.2, "100.2"},
		{0.0001, "0.0001"},
		{1e21, "1000000000000000000000"},
		{-3.5, "-3.5"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceString(tt.in))
		})
	}
}

func TestSummary_MatchesEngine(t *testing.T) {
	eng := sampleEngine(engine.Config{EmitSummary: true})
	assert.Equal(t, eng.RenderSummary(), Build(eng).Summary())
}
