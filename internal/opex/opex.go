// Package opex estimates the annual operating cost of a turbine.
package opex

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/region"
)

const stage = "opex"

// Land lease constants.
const (
	// LandIntensity is the land use in hectares per MW of rated power.
	LandIntensity = 34.5
	// AverageLandValue is the EU average arable land value in EUR/ha.
	AverageLandValue = 199.0
)

// Insurance projection: GBP per kW per year at 2020 prices.
const (
	InsurancePerKW = 37.0
	InsuranceYear  = 2020
)

// Maintenance regression coefficients, USD at MaintenanceYear prices.
const (
	MaintenancePerMWh = 7.0
	ReplacementPerKW  = 10.7
	MaintenanceYear   = 2006
)

// TransmissionYear is the price year of grid injection fees.
const TransmissionYear = 2019

// averageLandCountries have no usable arable land value in the land survey.
var averageLandCountries = map[string]bool{
	"AUT": true, "BEL": true, "DEU": true, "PRT": true, "ITA": true,
	"GRC": true, "CYP": true, "SRB": true, "TUR": true, "GBR": true,
	"CHE": true, "NOR": true, "ROU": true, "POL": true,
}

// injectionFeeCountries charge generators for feeding into the grid.
var injectionFeeCountries = map[string]bool{
	"DEU": true, "FIN": true, "NOR": true, "IRL": true, "LVA": true,
	"ROU": true, "PRT": true, "SVK": true, "SWE": true, "ESP": true,
}

// ChargesInjectionFee reports whether iso3 charges a grid injection fee.
func ChargesInjectionFee(iso3 string) bool {
	return injectionFeeCountries[iso3]
}

// Estimator computes annual operating cost breakdowns.
type Estimator struct {
	adj    *region.Adjuster
	tables *refdata.Tables
}

// NewEstimator creates an Estimator.
func NewEstimator(adj *region.Adjuster, tables *refdata.Tables) *Estimator {
	return &Estimator{adj: adj, tables: tables}
}

// Estimate returns the annual operating cost of one turbine producing
// aepKWh per year.
func (e *Estimator) Estimate(ctx context.Context, spec model.TurbineSpec, aepKWh float64) (model.OpexBreakdown, error) {
	var out model.OpexBreakdown
	country, err := model.ParseCountry(spec.Country)
	if err != nil {
		return out, err
	}

	if out.LandLease, err = e.LandLease(country, spec.RatedPower); err != nil {
		return out, err
	}
	if out.Insurance, err = e.Insurance(ctx, spec.RatedPower); err != nil {
		return out, err
	}
	if out.Transmission, err = e.Transmission(country, aepKWh); err != nil {
		return out, err
	}
	maint, err := e.Maintenance(ctx, country, spec.RatedPower, aepKWh)
	if err != nil {
		return out, err
	}
	out.Maintenance = maint.Scale(spec.Variant.Factor())

	if out.Total, err = model.Sum(out.LandLease, out.Insurance, out.Transmission, out.Maintenance); err != nil {
		return out, model.StageFailure(stage, "total", err)
	}

	zap.L().Info("opex: estimated",
		zap.String("country", country.ISO3),
		zap.String("variant", string(spec.Variant)),
		zap.Float64("land_lease_usd", out.LandLease.Value),
		zap.Float64("insurance_usd", out.Insurance.Value),
		zap.Float64("transmission_usd", out.Transmission.Value),
		zap.Float64("maintenance_usd", out.Maintenance.Value),
		zap.Float64("opex_usd", out.Total.Value),
	)
	return out, nil
}

// LandLease returns the annual land lease. Countries on the average list,
// or without a survey value, use the EU average.
func (e *Estimator) LandLease(c model.Country, ratedKW float64) (model.Amount, error) {
	value := AverageLandValue
	if !averageLandCountries[c.ISO3] {
		v, err := e.tables.Land.Value(c.NUTS(), refdata.LandYearRef)
		switch {
		case err == nil:
			value = v
		case model.IsUnavailable(err):
			zap.L().Warn("opex: land value fallback",
				zap.String("country", c.ISO3),
				zap.Float64("eur_per_ha", AverageLandValue),
			)
		default:
			return model.Amount{}, model.StageFailure(stage, "land value", err)
		}
	}

	eur := model.NewAmount(LandIntensity*ratedKW/1000*value, model.EUR, refdata.LandYearRef)
	usd, err := e.adj.CurrencyConvert(eur, model.USD)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "land lease exchange rate", err)
	}
	return usd, nil
}

// Insurance returns the annual insurance premium.
func (e *Estimator) Insurance(ctx context.Context, ratedKW float64) (model.Amount, error) {
	gbp := model.NewAmount(InsurancePerKW, model.GBP, InsuranceYear)
	usd, err := e.adj.CurrencyConvert(gbp, model.USD)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "insurance exchange rate", err)
	}
	usd, err = e.adj.Inflate(ctx, usd, "GBR", model.ReferenceYear)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "insurance CPI", err)
	}
	return usd.Scale(ratedKW), nil
}

// Transmission returns the annual grid injection fee, zero where none is
// charged.
func (e *Estimator) Transmission(c model.Country, aepKWh float64) (model.Amount, error) {
	if !ChargesInjectionFee(c.ISO3) {
		return model.Normalized(0), nil
	}
	fee, err := e.tables.Transmission.Fee(c.ISO3)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "transmission fee", err)
	}
	eur := model.NewAmount(fee*aepKWh/1000, model.EUR, TransmissionYear)
	usd, err := e.adj.CurrencyConvert(eur, model.USD)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "transmission exchange rate", err)
	}
	return usd, nil
}

// Maintenance returns the unscaled annual operation and maintenance cost,
// localized with the country wage factor.
func (e *Estimator) Maintenance(ctx context.Context, c model.Country, ratedKW, aepKWh float64) (model.Amount, error) {
	base := model.NewAmount(MaintenancePerMWh*aepKWh/1000+ReplacementPerKW*ratedKW, model.USD, MaintenanceYear)
	usd, err := e.adj.Inflate(ctx, base, region.ReferenceCountry, model.ReferenceYear)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "maintenance CPI", err)
	}
	wf, err := e.adj.WageFactor(ctx, c.ISO3)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "wage factor", err)
	}
	return usd.Scale(wf), nil
}
