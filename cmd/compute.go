package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/report"
	"github.com/sells-group/windcost/internal/store"
)

var (
	computeRotorDiameter float64
	computeRatedPower    float64
	computeHubHeight     float64
	computeCountry       string
	computeTurbines      int
	computeVariant       string
	computeFormat        string
	computeSave          bool
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute the LCOE of a turbine in a country",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(computeFormat)
		if err != nil {
			return err
		}
		spec, err := specFromFlags()
		if err != nil {
			return err
		}

		env, err := initCalculator(ctx, "compute", computeSave)
		if err != nil {
			return err
		}
		defer env.Close()

		var st store.Store
		if computeSave {
			st = env.Store
		}
		run, err := computeRun(ctx, env.Calculator, st, spec)
		if err != nil {
			return err
		}
		if run.ID != "" {
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		return report.Write(os.Stdout, run.Result, format)
	},
}

func init() {
	f := computeCmd.Flags()
	f.Float64Var(&computeRotorDiameter, "rotor-diameter", 130, "rotor diameter in meters")
	f.Float64Var(&computeRatedPower, "rated-power", 3370, "rated power in kilowatts")
	f.Float64Var(&computeHubHeight, "hub-height", 110, "hub height in meters")
	f.StringVar(&computeCountry, "country", "", "ISO 3166-1 alpha-3 country code")
	f.IntVar(&computeTurbines, "turbines", 16, "number of turbines in the project")
	f.StringVar(&computeVariant, "variant", string(model.VariantOriginal), "cost model calibration (original, adjusted)")
	f.StringVar(&computeFormat, "format", string(report.FormatTable), "output format (table, json, csv)")
	f.BoolVar(&computeSave, "save", false, "record the run in the store")
	_ = computeCmd.MarkFlagRequired("country")
	rootCmd.AddCommand(computeCmd)
}

// specFromFlags builds and validates a TurbineSpec from the compute flags.
func specFromFlags() (model.TurbineSpec, error) {
	variant, err := model.ParseVariant(computeVariant)
	if err != nil {
		return model.TurbineSpec{}, err
	}
	spec := model.TurbineSpec{
		RotorDiameter: computeRotorDiameter,
		RatedPower:    computeRatedPower,
		HubHeight:     computeHubHeight,
		Country:       computeCountry,
		TurbineCount:  computeTurbines,
		Variant:       variant,
	}.Normalize()
	if err := spec.Validate(); err != nil {
		return model.TurbineSpec{}, err
	}
	return spec, nil
}

// lcoeComputer computes one LCOE result.
type lcoeComputer interface {
	Compute(ctx context.Context, spec model.TurbineSpec) (*model.Result, error)
}

// computeRun computes spec and, when st is not nil, records the run. A
// failed computation is stored as a failed run and its error returned.
func computeRun(ctx context.Context, calc lcoeComputer, st store.Store, spec model.TurbineSpec) (*model.Run, error) {
	if st == nil {
		res, err := calc.Compute(ctx, spec)
		if err != nil {
			return nil, err
		}
		return &model.Run{Spec: res.Spec, Status: model.RunStatusComplete, Result: res}, nil
	}

	run, err := st.CreateRun(ctx, spec)
	if err != nil {
		return nil, eris.Wrap(err, "create run")
	}

	res, err := calc.Compute(ctx, spec)
	if err != nil {
		if ferr := st.FailRun(ctx, run.ID, err); ferr != nil {
			zap.L().Error("failed to record run failure",
				zap.String("run_id", run.ID),
				zap.Error(ferr),
			)
		}
		return nil, err
	}

	if err := st.CompleteRun(ctx, run.ID, res); err != nil {
		return nil, eris.Wrap(err, "complete run")
	}
	run.Status = model.RunStatusComplete
	run.Result = res
	return run, nil
}
