package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/greenest/greenest-go/cmd"
	"github.com/greenest/greenest-go/internal/conf"
	"github.com/greenest/greenest-go/internal/logging"
)

func main() {
	settings := conf.Setting()
	if settings == nil {
		fmt.Fprintln(os.Stderr, "unable to load configuration")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)
	if settings.Main.Log.Enabled {
		logging.EnableFileOutput(settings.Main.Log.Path, level)
	}

	rootCmd := cmd.RootCommand(settings)
	err := rootCmd.Execute()

	if closeErr := logging.CloseFileOutput(); closeErr != nil {
		logging.HumanReadable().Warn("closing log files", "error", closeErr)
	}
	if err != nil {
		logging.HumanReadable().Log(context.Background(), logging.LevelFatal, "command failed", "error", err)
		os.Exit(1)
	}
}
