package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/predictor"
	"github.com/kilianp07/metrotraffic/pkg/export"
)

var (
	profileFlags  featureFlags
	profileAPI    string
	profileFormat string
	profileOut    string
	profileTitle  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Predict every hour of a day and export the profile",
	RunE:  runProfile,
}

func init() {
	profileFlags.register(profileCmd, false)
	profileCmd.Flags().StringVar(&profileAPI, "api", "", "prediction API base URL")
	profileCmd.Flags().StringVar(&profileFormat, "format", "json", "output format: json, csv or html")
	profileCmd.Flags().StringVarP(&profileOut, "out", "o", "", "output file (default stdout)")
	profileCmd.Flags().StringVar(&profileTitle, "title", "", "chart title for the html format")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	write, err := profileWriter(profileFormat)
	if err != nil {
		return err
	}
	p, closeFn, err := newPredictor(profileAPI)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	base := profileFlags.features(cmd)
	points, err := predictor.Profile(commandContext(cmd), p, base)
	if err != nil {
		return err
	}

	if profileOut == "" {
		err = write(cmd.OutOrStdout(), points)
	} else {
		err = writeProfileFile(profileOut, write, points)
	}
	if err != nil {
		return err
	}
	if peak, ok := predictor.Peak(points); ok {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "peak at %02d:00 on %s: %d vehicles/hour\n",
			peak.Hour, model.DayName(base.DayOfWeek), peak.Volume)
	}
	return nil
}

func writeProfileFile(path string, write func(io.Writer, []predictor.HourPoint) error, points []predictor.HourPoint) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f, points)
}

func profileWriter(format string) (func(io.Writer, []predictor.HourPoint) error, error) {
	switch format {
	case "json":
		return export.WriteJSON, nil
	case "csv":
		return export.WriteCSV, nil
	case "html":
		return func(w io.Writer, pts []predictor.HourPoint) error {
			return export.WriteHTMLChart(w, profileTitle, pts)
		}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
