package lcoe

import (
	"github.com/sells-group/windcost/internal/bos"
	"github.com/sells-group/windcost/internal/capex"
	"github.com/sells-group/windcost/internal/decom"
	"github.com/sells-group/windcost/internal/discount"
	"github.com/sells-group/windcost/internal/energy"
	"github.com/sells-group/windcost/internal/opex"
	"github.com/sells-group/windcost/internal/refdata"
	"github.com/sells-group/windcost/internal/region"
	"github.com/sells-group/windcost/internal/stats"
)

// Deps are the long-lived collaborators shared by every run.
type Deps struct {
	Tables       *refdata.Tables
	Rates        region.Rates
	BOS          bos.Estimator
	Layout       bos.Layout
	Template     *bos.Template
	Energy       *energy.Estimator
	EurozoneRate float64
}

// StandardBuilder wires the regional stages over the run's provider.
func StandardBuilder(d Deps) Builder {
	return func(p stats.Provider) Stages {
		adj := region.NewAdjuster(p, d.Rates, d.Tables.Wages)
		return Stages{
			Yield: d.Energy,
			Rate:  discount.NewCalculator(p, d.Tables.Tax, d.EurozoneRate),
			Capex: capex.NewEstimator(d.BOS, adj, p, d.Tables, d.Layout, d.Template),
			Opex:  opex.NewEstimator(adj, d.Tables),
			Decom: decom.NewEstimator(adj, d.Tables),
		}
	}
}
