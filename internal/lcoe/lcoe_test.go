package lcoe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/windcost/internal/bos"
	"github.com/sells-group/windcost/internal/bos/mocks"
	"github.com/sells-group/windcost/internal/discount"
	"github.com/sells-group/windcost/internal/energy"
	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/region"
	"github.com/sells-group/windcost/internal/stats"
)

func TestSchedule_FactorsDecrease(t *testing.T) {
	s := NewSchedule(0.05, 0)
	require.Equal(t, DefaultLifetime, s.Years)

	f := s.Factors()
	require.Len(t, f, 21)
	assert.InDelta(t, 1.0, f[0], 0)
	for i := 1; i < len(f); i++ {
		assert.Less(t, f[i], f[i-1], "year %d", i)
	}
	assert.InDelta(t, 1/1.05, f[1], 1e-12)
}

func TestSchedule_Discount(t *testing.T) {
	s := NewSchedule(0.07, 20)

	base := s.Discount(1000, 100, 0, 50)
	withDecom := s.Discount(1000, 100, 500, 50)
	noCapex := s.Discount(0, 100, 0, 50)

	assert.InDelta(t, 1000, base.Cost-noCapex.Cost, 1e-9, "capex is not discounted")
	assert.InDelta(t, 500*s.Factor(20), withDecom.Cost-base.Cost, 1e-9, "decom counted once in the last year")
	assert.InDelta(t, base.Energy, withDecom.Energy, 0)

	want := 0.0
	for y := 1; y <= 20; y++ {
		want += 50 * s.Factor(y)
	}
	assert.InDelta(t, want, base.Energy, 1e-9)
}

func TestTotals_LCOE(t *testing.T) {
	assert.InDelta(t, 2000, Totals{Cost: 2, Energy: 1}.LCOE(), 1e-12)
	assert.Zero(t, Totals{Cost: 2}.LCOE())
}

type fakeStages struct {
	aep     float64
	rate    float64
	capex   float64
	opex    float64
	decom   float64
	failAt  string
	err     error
	gotSpec model.TurbineSpec
}

func (f *fakeStages) fail(stage string) error {
	if f.failAt == stage {
		return f.err
	}
	return nil
}

func (f *fakeStages) AnnualYield(context.Context, float64) (float64, error) {
	return f.aep, f.fail("energy")
}

func (f *fakeStages) Rate(context.Context, string) (float64, error) {
	return f.rate, f.fail("discount")
}

type fakeCapex struct{ *fakeStages }

func (f fakeCapex) Estimate(_ context.Context, spec model.TurbineSpec) (model.CapexBreakdown, error) {
	f.gotSpec = spec
	return model.CapexBreakdown{Total: model.Normalized(f.capex)}, f.fail("capex")
}

type fakeOpex struct{ *fakeStages }

func (f fakeOpex) Estimate(context.Context, model.TurbineSpec, float64) (model.OpexBreakdown, error) {
	return model.OpexBreakdown{Total: model.Normalized(f.opex)}, f.fail("opex")
}

type fakeDecom struct{ *fakeStages }

func (f fakeDecom) Estimate(context.Context, model.TurbineSpec) (model.DecomBreakdown, error) {
	return model.DecomBreakdown{Total: model.Normalized(f.decom)}, f.fail("decom")
}

func (f *fakeStages) builder(calls *int) Builder {
	return func(stats.Provider) Stages {
		*calls++
		return Stages{Yield: f, Rate: f, Capex: fakeCapex{f}, Opex: fakeOpex{f}, Decom: fakeDecom{f}}
	}
}

func validSpec() model.TurbineSpec {
	return model.TurbineSpec{RotorDiameter: 130, RatedPower: 3370, HubHeight: 110, Country: "usa", TurbineCount: 16}
}

func TestCompute_RejectsNonPositiveYield(t *testing.T) {
	for _, aep := range []float64{0, -5} {
		f := &fakeStages{aep: aep, rate: 0.05, capex: 4e6, opex: 1e5}
		calls := 0
		c := NewCalculator(stats.NewStaticProvider(), f.builder(&calls))

		res, err := c.Compute(context.Background(), validSpec())
		require.Error(t, err)
		assert.Nil(t, res)

		var se *model.StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "energy", se.Stage)
		assert.Equal(t, "annual yield", se.Lookup)
		assert.Zero(t, f.gotSpec.RotorDiameter, "capex not reached")
	}
}

func TestCompute_Formula(t *testing.T) {
	f := &fakeStages{aep: 1e7, rate: 0.05, capex: 4e6, opex: 1e5, decom: 2e5}
	calls := 0
	c := NewCalculator(stats.NewStaticProvider(), f.builder(&calls))

	res, err := c.Compute(context.Background(), validSpec())
	require.NoError(t, err)

	tot := NewSchedule(0.05, 20).Discount(4e6, 1e5, 2e5, 1e7)
	assert.InDelta(t, tot.Cost/tot.Energy*1000, res.LCOE, 1e-9)
	assert.Positive(t, res.LCOE)
	assert.Equal(t, 20, res.LifetimeYears)
	assert.Equal(t, "USA", res.Spec.Country)
	assert.Equal(t, model.VariantOriginal, res.Spec.Variant)
	assert.Equal(t, 1, calls)
}

func TestCompute_Lifetime(t *testing.T) {
	f := &fakeStages{aep: 1e7, rate: 0.05, capex: 4e6, opex: 1e5}
	calls := 0
	res, err := NewCalculator(stats.NewStaticProvider(), f.builder(&calls), WithLifetime(25)).
		Compute(context.Background(), validSpec())
	require.NoError(t, err)
	assert.Equal(t, 25, res.LifetimeYears)
}

func TestCompute_InvalidInputBeforeLookups(t *testing.T) {
	f := &fakeStages{}
	calls := 0
	c := NewCalculator(stats.NewStaticProvider(), f.builder(&calls))

	bad := []model.TurbineSpec{
		{RotorDiameter: 0, RatedPower: 3370, HubHeight: 110, Country: "USA", TurbineCount: 1},
		{RotorDiameter: 130, RatedPower: -1, HubHeight: 110, Country: "USA", TurbineCount: 1},
		{RotorDiameter: 130, RatedPower: 3370, HubHeight: 0, Country: "USA", TurbineCount: 1},
		{RotorDiameter: 130, RatedPower: 3370, HubHeight: 110, Country: "XOM", TurbineCount: 1},
		{RotorDiameter: 130, RatedPower: 3370, HubHeight: 110, Country: "USA", TurbineCount: 0},
		{RotorDiameter: 130, RatedPower: 3370, HubHeight: 110, Country: "USA", TurbineCount: 1, Variant: "tuned"},
	}
	for i, spec := range bad {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := c.Compute(context.Background(), spec)
			assert.True(t, errors.Is(err, model.ErrInvalidInput))
		})
	}
	assert.Zero(t, calls)
}

func TestCompute_StageFailures(t *testing.T) {
	for _, stage := range []string{"energy", "discount", "capex", "opex", "decom"} {
		t.Run(stage, func(t *testing.T) {
			f := &fakeStages{aep: 1, rate: 0.05, failAt: stage, err: model.Unavailable("lookup")}
			calls := 0
			_, err := NewCalculator(stats.NewStaticProvider(), f.builder(&calls)).Compute(context.Background(), validSpec())
			require.Error(t, err)
			var se *model.StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, stage, se.Stage)
			assert.True(t, model.IsUnavailable(err))
		})
	}
}

func TestCompute_KeepsInnerStage(t *testing.T) {
	f := &fakeStages{aep: 1, rate: 0.05, failAt: "capex", err: model.StageFailure("capex", "per diem", model.Unavailable("x"))}
	calls := 0
	_, err := NewCalculator(stats.NewStaticProvider(), f.builder(&calls)).Compute(context.Background(), validSpec())
	var se *model.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "per diem", se.Lookup)
}

func TestCompute_RejectsRateBelowMinusOne(t *testing.T) {
	f := &fakeStages{aep: 1, rate: -1}
	calls := 0
	_, err := NewCalculator(stats.NewStaticProvider(), f.builder(&calls)).Compute(context.Background(), validSpec())
	require.Error(t, err)
}

func TestCompute_RejectsUnnormalizedTotals(t *testing.T) {
	f := &fakeStages{aep: 1, rate: 0.05}
	calls := 0
	build := func(p stats.Provider) Stages {
		s := f.builder(&calls)(p)
		s.Capex = eurCapex{}
		return s
	}
	_, err := NewCalculator(stats.NewStaticProvider(), build).Compute(context.Background(), validSpec())
	assert.True(t, errors.Is(err, model.ErrCurrencyMismatch))
}

type eurCapex struct{}

func (eurCapex) Estimate(context.Context, model.TurbineSpec) (model.CapexBreakdown, error) {
	return model.CapexBreakdown{Total: model.NewAmount(1, model.EUR, 2019)}, nil
}

// countingProvider records every upstream lookup.
type countingProvider struct {
	stats.Provider
	mu    sync.Mutex
	calls map[string]int
}

func (p *countingProvider) hit(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[key]++
}

func (p *countingProvider) Value(ctx context.Context, ind, country string, year int) (float64, error) {
	p.hit(fmt.Sprintf("value|%s|%s|%d", ind, country, year))
	return p.Provider.Value(ctx, ind, country, year)
}

func (p *countingProvider) MostRecent(ctx context.Context, ind, country string) (stats.Observation, error) {
	p.hit(fmt.Sprintf("recent|%s|%s", ind, country))
	return p.Provider.MostRecent(ctx, ind, country)
}

func (p *countingProvider) Series(ctx context.Context, ind, country string, from, to int) ([]stats.Observation, error) {
	p.hit(fmt.Sprintf("series|%s|%s|%d|%d", ind, country, from, to))
	return p.Provider.Series(ctx, ind, country, from, to)
}

func baselineProvider() *countingProvider {
	p := stats.NewStaticProvider().
		Set(stats.IndicatorCPI, "USA", 2006, 91.93).
		Set(stats.IndicatorCPI, "USA", 2017, 112.41).
		Set(stats.IndicatorCPI, "USA", 2019, 117.24).
		Set(stats.IndicatorCPI, "GBR", 2019, 107.9).
		Set(stats.IndicatorCPI, "GBR", 2020, 108.9).
		Set(stats.IndicatorPriceLevel, "USA", 2019, 1).
		Set(stats.IndicatorRealInterest, "USA", 2023, 3.2)
	for y := discount.InflationFrom; y <= discount.InflationTo; y++ {
		p.Set(stats.IndicatorInflation, "USA", y, 2.5)
	}
	return &countingProvider{Provider: p, calls: make(map[string]int)}
}

func baselineDeps(t *testing.T, est bos.Estimator) Deps {
	t.Helper()
	layout, err := bos.DefaultLayout()
	require.NoError(t, err)

	tmpl := &bos.Template{CrewHourly: map[int]float64{}, Equipment: map[int]float64{}, Development: 10000}
	for _, c := range layout.Crew {
		tmpl.CrewHourly[c.Row] = 50
	}
	for _, r := range layout.EquipmentRows.Rows() {
		tmpl.Equipment[r] = 1000
	}

	tables := refdata.Empty()
	tables.Wages = refdata.NewWages(
		refdata.WageRow{Area: "USA", Skill: refdata.SkillTotal, Currency: refdata.WageUSD, Year: 2019, Value: 30},
	)
	tables.Tax = refdata.NewTax(map[string]float64{"USA": 21})
	tables.PerDiem = refdata.NewPerDiem(map[string]float64{"USA": 80})

	return Deps{
		Tables:   tables,
		Rates:    region.DefaultRates(),
		BOS:      est,
		Layout:   layout,
		Template: tmpl,
		Energy:   energy.NewEstimator(nil, energy.WithReferenceAEP(366941570)),
	}
}

func TestCompute_USABaseline(t *testing.T) {
	est := mocks.NewMockEstimator(t)
	est.On("Estimate", mock.Anything, mock.MatchedBy(func(in bos.Input) bool {
		return in.Project == bos.Project{RatingMW: 3, HubHeight: 110, RotorDiameter: 130, TurbineCount: 16} &&
			len(in.Crew) == 19 && in.DevelopmentUSD == 10000
	})).Return(&bos.Breakdown{Total: 1.2e6}, nil).Times(3)

	p := baselineProvider()
	c := NewCalculator(p, StandardBuilder(baselineDeps(t, est)))
	ctx := context.Background()

	res, err := c.Compute(ctx, validSpec())
	require.NoError(t, err)

	assert.InDelta(t, 22933848.125, res.AnnualYieldKWh, 1e-6)
	assert.InDelta(t, (1.032*1.025-1)*0.79, res.DiscountRate, 1e-12)
	assert.InEpsilon(t, 5815082.336405764, res.Capex.Total.Value, 1e-9)
	assert.InEpsilon(t, 434886.6250507872, res.Opex.Total.Value, 1e-9)
	assert.True(t, res.Decom.Fallback, "no US transport routes")
	assert.Zero(t, res.Decom.Total.Value)
	assert.InEpsilon(t, 38.56726368088656, res.LCOE, 1e-9)

	for key, n := range p.calls {
		assert.Equal(t, 1, n, "upstream lookup %s", key)
	}

	spec := validSpec()
	spec.Variant = model.VariantAdjusted
	adj, err := c.Compute(ctx, spec)
	require.NoError(t, err)
	assert.InEpsilon(t, 23.559285890791582, adj.LCOE, 1e-9)
	assert.Less(t, adj.LCOE, res.LCOE)

	spec.Variant = "Adjusted"
	mixed, err := c.Compute(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, model.VariantAdjusted, mixed.Spec.Variant)
	assert.InEpsilon(t, adj.LCOE, mixed.LCOE, 1e-12)
}

func TestCompute_UnknownCountry(t *testing.T) {
	est := mocks.NewMockEstimator(t)
	c := NewCalculator(baselineProvider(), StandardBuilder(baselineDeps(t, est)))

	spec := validSpec()
	spec.Country = "MNG"
	_, err := c.Compute(context.Background(), spec)
	require.Error(t, err)
	assert.True(t, model.IsUnavailable(err))
	est.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything)
}
