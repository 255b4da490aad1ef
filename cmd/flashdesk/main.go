package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flashdesk/internal/app"
	"flashdesk/internal/config"
	"flashdesk/internal/logger"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flashdesk",
		Short:         "Flashcard collections with profiles, import and export",
		Version:       config.AppVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(cmd.Flags())
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringP("base", "b", "", "Storage folder (default "+config.DefaultBaseDir()+")")
	cmd.Flags().StringP("profile", "p", "", "Profile to open at startup")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

func run(cfg *config.Config) error {
	log := logger.New(logger.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)

	application, err := app.NewApplication(cfg, log)
	if err != nil {
		log.Error("main", err, map[string]interface{}{"base": cfg.BaseDir})
		app.ShowFatal(err)
		return err
	}
	defer application.Lock().Release()

	if err := application.Run(); err != nil {
		log.Error("main", err, nil)
		return err
	}

	log.Info("main", "application terminated", nil)
	return nil
}
