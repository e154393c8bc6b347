package capex

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/bos"
	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/stats"
)

// Price years of the regional inputs.
const (
	PerDiemYear    = 2017
	PriceLevelYear = 2019
)

// BuildInput assembles the regional balance-of-system input for spec.
// Crew rows without an occupation-specific wage fall back according to
// their layout policy.
func (e *Estimator) BuildInput(ctx context.Context, spec model.TurbineSpec) (bos.Input, error) {
	iso3 := spec.Country
	if e.template == nil {
		return bos.Input{}, model.StageFailure(stage, "template", bos.ErrTemplateMissing)
	}

	wf, err := e.adj.WageFactor(ctx, iso3)
	if err != nil {
		return bos.Input{}, model.StageFailure(stage, "wage factor", err)
	}

	in := bos.Input{
		Project: bos.Project{
			RatingMW:      int(spec.RatedPower / 1000),
			HubHeight:     int(spec.HubHeight),
			RotorDiameter: int(spec.RotorDiameter),
			TurbineCount:  spec.TurbineCount,
		},
		DevelopmentUSD: e.template.Development * wf,
	}

	available := 0
	for _, role := range e.layout.Crew {
		rate, err := e.crewRate(ctx, iso3, role, wf)
		if err != nil {
			return bos.Input{}, err
		}
		if rate.Source == bos.WageOccupation {
			available++
		}
		in.Crew = append(in.Crew, rate)
	}

	ppp, err := e.stats.Value(ctx, stats.IndicatorPriceLevel, iso3, PriceLevelYear)
	if err != nil {
		return bos.Input{}, model.StageFailure(stage, "price level ratio", err)
	}
	for _, row := range e.layout.EquipmentRows.Rows() {
		in.Equipment = append(in.Equipment, bos.EquipmentPrice{Row: row, PriceUSD: e.template.Equipment[row] * ppp})
	}

	perDiem, err := e.perDiem(ctx, iso3)
	if err != nil {
		return bos.Input{}, err
	}
	in.PerDiemUSD = perDiem
	in.PerDiemRows = e.layout.PerDiemRows.Rows()

	zap.L().Debug("capex: regional inputs",
		zap.String("country", iso3),
		zap.Float64("wage_factor", wf),
		zap.Int("occupation_wages", available),
		zap.Int("crew_rows", len(e.layout.Crew)),
		zap.Float64("price_level", ppp),
		zap.Float64("per_diem_usd", perDiem),
	)
	return in, nil
}

func (e *Estimator) crewRate(ctx context.Context, iso3 string, role bos.CrewRole, wf float64) (bos.CrewRate, error) {
	rate := bos.CrewRate{Row: role.Row, Name: role.Name, ISCO88: role.ISCO88}
	template := e.template.CrewHourly[role.Row]

	occ, err := e.tables.Occupations.MostRecent(iso3, role.ISCO88)
	if err == nil {
		v, err := e.adj.InflationAdjust(ctx, occ.HourlyUSD, iso3, occ.Year, model.ReferenceYear)
		if err == nil {
			rate.HourlyUSD = v
			rate.Source = bos.WageOccupation
			return rate, nil
		}
		if !model.IsUnavailable(err) {
			return rate, model.StageFailure(stage, "occupation wage CPI", err)
		}
	} else if !model.IsUnavailable(err) {
		return rate, model.StageFailure(stage, "occupation wage", err)
	}

	switch role.Policy {
	case bos.PolicyTemplate:
		rate.HourlyUSD = template
		rate.Source = bos.WageTemplate
	default:
		rate.HourlyUSD = template * wf
		rate.Source = bos.WageScaled
	}
	zap.L().Debug("capex: occupation wage fallback",
		zap.String("country", iso3),
		zap.String("isco88", role.ISCO88),
		zap.String("policy", role.Policy),
	)
	return rate, nil
}

// perDiem returns the per-diem rate in USD at the reference year.
func (e *Estimator) perDiem(ctx context.Context, iso3 string) (float64, error) {
	eur, err := e.tables.PerDiem.Rate(iso3)
	if err != nil {
		return 0, model.StageFailure(stage, "per diem", err)
	}
	usd, err := e.adj.CurrencyConvert(model.NewAmount(eur, model.EUR, PerDiemYear), model.USD)
	if err != nil {
		return 0, model.StageFailure(stage, "per diem exchange rate", err)
	}
	usd, err = e.adj.Inflate(ctx, usd, iso3, model.ReferenceYear)
	if err != nil {
		return 0, model.StageFailure(stage, "per diem CPI", err)
	}
	return usd.Value, nil
}
