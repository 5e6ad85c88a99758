package summary

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greenest/greenest-go/internal/conf"
	"github.com/greenest/greenest-go/internal/service"
)

// Command creates the summary command, the one-shot scheduled summary push.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Build the dashboard summary and deliver it once",
		Long:  "Read the latest observation per tray, render the dashboard summary and push it to the configured chat. Intended for cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return service.PushSummary(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the summary command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Sheet.ID, "sheet", viper.GetString("sheet.id"), "Spreadsheet id backing the tray dashboard")
	cmd.Flags().Int64Var(&settings.Telegram.ChatID, "chat", viper.GetInt64("telegram.chatid"), "Chat id to deliver the summary to")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
