// Package decom estimates the end-of-life cost of a turbine: crane work,
// blade treatment, and tower and nacelle scrapping net of metal resale.
package decom

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/capex"
	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/region"
)

const stage = "decom"

// Cost basis. Crane and severing rates are Swedish 2008 prices and are
// inflated with Sweden's CPI.
const (
	BasisCountry   = "SWE"
	BasisYear      = 2008
	TransportYear  = 2020
	LandfillYear   = 2012
	CraneCapacityT = 500.0
	CraneRouteKm   = 300.0

	craneSetupSEK       = 300000.0
	bladeSeveringSEKt   = 150.0
	metalSeveringSEKt   = 200.0
	disassemblyHours    = 8.0
	disassemblyBaseSEK  = 5000.0
	disassemblyPerTonne = 5.0
)

// Scrap metal prices in USD per tonne.
const (
	SteelPrice     = 783.0
	StainlessPrice = 1.5 * SteelPrice
	CopperPrice    = 9790.50
)

// Metal content in tonnes per MW of rated power.
const (
	towerMetalPerMW   = 66.0
	nacelleMetalPerMW = 17.0
	rotorMetalPerMW   = 4.8
)

// Estimator computes decommissioning cost breakdowns.
type Estimator struct {
	adj    *region.Adjuster
	tables *refdata.Tables
}

// NewEstimator creates an Estimator.
func NewEstimator(adj *region.Adjuster, tables *refdata.Tables) *Estimator {
	return &Estimator{adj: adj, tables: tables}
}

// Estimate returns the decommissioning cost of one turbine. When regional
// data is unavailable the total is zero, on the assumption that scrap
// revenue offsets cost; the breakdown records the fallback.
func (e *Estimator) Estimate(ctx context.Context, spec model.TurbineSpec) (model.DecomBreakdown, error) {
	out, err := e.estimate(ctx, spec)
	if err != nil {
		if !model.IsUnavailable(err) {
			return model.DecomBreakdown{}, err
		}
		zap.L().Warn("decom: regional data unavailable, assuming zero cost",
			zap.String("country", spec.Country),
			zap.Error(err),
		)
		zero := model.Normalized(0)
		return model.DecomBreakdown{
			Crane: zero, Blades: zero, Scrap: zero, Total: zero,
			Fallback: true,
			Reason:   err.Error(),
		}, nil
	}

	zap.L().Info("decom: estimated",
		zap.String("country", spec.Country),
		zap.Float64("crane_usd", out.Crane.Value),
		zap.Float64("blades_usd", out.Blades.Value),
		zap.Float64("scrap_usd", out.Scrap.Value),
		zap.Float64("decom_usd", out.Total.Value),
	)
	return out, nil
}

func (e *Estimator) estimate(ctx context.Context, spec model.TurbineSpec) (model.DecomBreakdown, error) {
	var out model.DecomBreakdown
	country, err := model.ParseCountry(spec.Country)
	if err != nil {
		return out, err
	}

	if out.Crane, err = e.Crane(ctx, country, spec.TurbineCount); err != nil {
		return out, err
	}
	if out.Blades, err = e.Blades(ctx, country, spec.RotorDiameter); err != nil {
		return out, err
	}
	if out.Scrap, err = e.Scrap(ctx, country, spec.RatedPower, spec.RotorDiameter); err != nil {
		return out, err
	}
	if out.Total, err = model.Sum(out.Crane, out.Blades, out.Scrap); err != nil {
		return out, model.StageFailure(stage, "total", err)
	}
	return out, nil
}

// Crane returns the per-turbine cost of transporting, setting up and
// disassembling the crane, shared across a project of n turbines.
func (e *Estimator) Crane(ctx context.Context, c model.Country, n int) (model.Amount, error) {
	if n < 1 {
		n = 1
	}
	route, err := e.tables.Transport.Closest(c.NUTS(), CraneRouteKm)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "crane transport route", err)
	}
	transport := model.NewAmount(((CraneCapacityT-200)*(2.0/50)+1)*route.TotalCost, model.EUR, TransportYear)
	if transport, err = e.adj.Inflate(ctx, transport, BasisCountry, model.ReferenceYear); err != nil {
		return model.Amount{}, model.StageFailure(stage, "crane transport CPI", err)
	}

	nf := float64(n)
	setup, err := e.basisEUR(ctx, craneSetupSEK*(1+(2.0/3)*(nf-1))/nf, "crane setup")
	if err != nil {
		return model.Amount{}, err
	}
	disassembly, err := e.basisEUR(ctx, (disassemblyPerTonne*(CraneCapacityT-200)+disassemblyBaseSEK)*disassemblyHours/nf, "crane disassembly")
	if err != nil {
		return model.Amount{}, err
	}

	total, err := model.Sum(transport, setup, disassembly)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "crane", err)
	}
	return e.toUSD(total, "crane")
}

// Blades returns the cost of severing the blades and landfilling them.
func (e *Estimator) Blades(ctx context.Context, c model.Country, rotorDiameter float64) (model.Amount, error) {
	tonnes := capex.BladeMass(rotorDiameter) / 1000

	severing, err := e.basisEUR(ctx, bladeSeveringSEKt, "blade severing")
	if err != nil {
		return model.Amount{}, err
	}
	disposal, err := e.landfill(ctx, c)
	if err != nil {
		return model.Amount{}, err
	}
	perTonne, err := severing.Add(disposal)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "blades", err)
	}
	return e.toUSD(perTonne.Scale(tonnes), "blades")
}

// Scrap returns the cost of severing the tower, nacelle and rotor and
// landfilling their organic content, net of scrap metal revenue. It is
// negative when revenue exceeds cost.
func (e *Estimator) Scrap(ctx context.Context, c model.Country, ratedKW, rotorDiameter float64) (model.Amount, error) {
	mw := ratedKW / 1000
	tower := towerMetalPerMW * mw
	metal := tower + nacelleMetalPerMW*mw + rotorMetalPerMW*mw

	severing, err := e.basisEUR(ctx, metalSeveringSEKt, "metal severing")
	if err != nil {
		return model.Amount{}, err
	}
	disposal, err := e.landfill(ctx, c)
	if err != nil {
		return model.Amount{}, err
	}
	cost, err := severing.Scale(metal).Add(disposal.Scale(0.1 * tower))
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "scrap", err)
	}
	costUSD, err := e.toUSD(cost, "scrap")
	if err != nil {
		return model.Amount{}, err
	}
	net, err := costUSD.Sub(model.Normalized(ScrapRevenue(ratedKW, rotorDiameter)))
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "scrap", err)
	}
	return net, nil
}

// ScrapRevenue returns the USD resale value of tower steel, nacelle
// stainless steel, copper and steel, and rotor steel.
func ScrapRevenue(ratedKW, rotorDiameter float64) float64 {
	tower := towerMetalPerMW * ratedKW / 1000
	nacelle := capex.NacelleMass(ratedKW) / 1000
	blades := capex.BladeMass(rotorDiameter) / 1000

	towerRevenue := 0.9 * SteelPrice * tower
	nacelleRevenue := nacelle*0.1*StainlessPrice +
		nacelle*0.1*0.2*CopperPrice +
		0.7*nacelle*(1-0.1-0.1*0.2)*SteelPrice
	rotorRevenue := blades * 0.9 * SteelPrice
	return towerRevenue + nacelleRevenue + rotorRevenue
}

// basisEUR converts a Swedish 2008 price to euros at the reference year.
func (e *Estimator) basisEUR(ctx context.Context, sek float64, lookup string) (model.Amount, error) {
	eur, err := e.adj.CurrencyConvert(model.NewAmount(sek, model.SEK, BasisYear), model.EUR)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, lookup+" exchange rate", err)
	}
	eur, err = e.adj.Inflate(ctx, eur, BasisCountry, model.ReferenceYear)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, lookup+" CPI", err)
	}
	return eur, nil
}

// landfill returns the country's landfill charge in EUR per tonne at the
// reference year.
func (e *Estimator) landfill(ctx context.Context, c model.Country) (model.Amount, error) {
	charge, err := e.tables.Landfill.Charge(c.ISO2)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "landfill charge", err)
	}
	amt, err := e.adj.Inflate(ctx, model.NewAmount(charge, model.EUR, LandfillYear), c.ISO3, model.ReferenceYear)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, "landfill CPI", err)
	}
	return amt, nil
}

func (e *Estimator) toUSD(eur model.Amount, lookup string) (model.Amount, error) {
	usd, err := e.adj.CurrencyConvert(eur, model.USD)
	if err != nil {
		return model.Amount{}, model.StageFailure(stage, lookup+" exchange rate", err)
	}
	return usd, nil
}
