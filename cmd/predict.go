package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/predictor"
	"github.com/kilianp07/metrotraffic/qa/scenarios"
)

var (
	predictFlags    featureFlags
	predictAPI      string
	predictFile     string
	predictJSONMode bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the traffic volume for one set of conditions",
	Long: "Predict the traffic volume from flags, or run every scenario of a YAML file " +
		"with --file. Predictions use the configured pipeline unless --api is set.",
	RunE: runPredict,
}

func init() {
	predictFlags.register(predictCmd, true)
	predictCmd.Flags().StringVar(&predictAPI, "api", "", "prediction API base URL")
	predictCmd.Flags().StringVarP(&predictFile, "file", "f", "", "YAML scenario file")
	predictCmd.Flags().BoolVar(&predictJSONMode, "json", false, "print the prediction as JSON")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	p, closeFn, err := newPredictor(predictAPI)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	out := cmd.OutOrStdout()
	if predictFile != "" {
		return runScenarios(cmd, p, out)
	}
	pred, err := p.Predict(commandContext(cmd), predictFlags.features(cmd))
	if err != nil {
		return err
	}
	if predictJSONMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(pred)
	}
	_, err = fmt.Fprintf(out, "Predicted traffic volume: %s vehicles/hour\n%s\nmodel %s, request %s\n",
		humanize.Comma(int64(pred.Volume)), model.BandFor(pred.Volume).Message(), pred.ModelVersion, pred.RequestID)
	return err
}

func runScenarios(cmd *cobra.Command, p predictor.Predictor, out io.Writer) error {
	scs, err := scenarios.Load(predictFile)
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range scenarios.RunAll(commandContext(cmd), p, scs) {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
			failed++
		}
		vol := "-"
		if res.Err == nil {
			vol = humanize.Comma(int64(res.Prediction.Volume))
		}
		if _, err := fmt.Fprintf(out, "%s %-28s %8s\n", status, res.Scenario.Name, vol); err != nil {
			return err
		}
		for _, f := range res.Failures {
			if _, err := fmt.Fprintf(out, "     %s\n", f); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(scs))
	}
	return nil
}
