package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/metrotraffic/app"
	"github.com/kilianp07/metrotraffic/client"
	"github.com/kilianp07/metrotraffic/ui"
)

var (
	uiMode string
	uiAPI  string
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Interactive traffic volume predictor",
	RunE:  runUI,
}

func init() {
	uiCmd.Flags().StringVar(&uiMode, "mode", "api", "backend: api or local")
	uiCmd.Flags().StringVar(&uiAPI, "api", "", "prediction API base URL (default client.api_url)")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var backend ui.Backend
	switch uiMode {
	case "api":
		url := uiAPI
		if url == "" {
			url = cfg.Client.APIURL
		}
		backend = ui.NewAPIBackend(client.New(url))
	case "local":
		svc, err := app.NewLocalPredictor(cfg)
		if err != nil {
			return fmt.Errorf("local mode unavailable: %w", err)
		}
		defer func() { _ = svc.Close() }()
		backend = ui.NewLocalBackend(svc)
	default:
		return fmt.Errorf("unknown mode %q (want api or local)", uiMode)
	}
	return ui.Run(commandContext(cmd), backend)
}
