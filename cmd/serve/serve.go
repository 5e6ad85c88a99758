package serve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greenest/greenest-go/internal/conf"
	"github.com/greenest/greenest-go/internal/service"
)

// Command creates the serve command, the long-running tracker service.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tray tracker HTTP service",
		Long:  "Start the GreeNest tracker: direct push endpoints, the bot webhook, the relay and the summary trigger.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return service.Run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Sheet.ID, "sheet", viper.GetString("sheet.id"), "Spreadsheet id backing the tray dashboard")
	cmd.Flags().StringVar(&settings.Sheet.Tab, "tab", viper.GetString("sheet.tab"), "Worksheet (tab) name")
	cmd.Flags().StringVar(&settings.Analyzer.Endpoint, "analyzer", viper.GetString("analyzer.endpoint"), "Image analysis service URL, empty for stub results")
	cmd.Flags().StringVar(&settings.Relay.BackendURL, "backend", viper.GetString("relay.backendurl"), "Downstream backend URL for the relay endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
