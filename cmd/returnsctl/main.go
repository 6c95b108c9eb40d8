// Command returnsctl imports returned-part and order spreadsheets from the
// command line, using the same mapping and validation as the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/returnsdesk/internal/application"
	"github.com/JonMunkholm/returnsdesk/internal/config"
	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/logging"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "returnsctl",
		Short: "Import returned-part and order spreadsheets",
		Long: `returnsctl reads .xlsx, .xlsm and .csv files, matches their columns to a
record type, validates every row, and stores the valid records.

Database settings come from the environment (DATABASE_URL) or a .env file.
Commands that only read files never connect to the database.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initRuntime,
	}

	root.PersistentFlags().String("env-file", "", "env file to load (default: .env if present)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(schemaCmd())
	root.AddCommand(templateCmd())
	root.AddCommand(importCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(rollbackCmd())
	root.AddCommand(resetCmd())
	root.AddCommand(versionCmd())
	return root
}

func initRuntime(cmd *cobra.Command, _ []string) error {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		application.LoadEnv(envFile)
	} else {
		application.LoadEnv()
	}

	level, _ := cmd.Flags().GetString("log-level")
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "text"))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "returnsctl %s\n", version)
		},
	}
}

// openApp loads the full configuration and connects to the database.
func openApp(ctx context.Context) (*application.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return application.Open(ctx, cfg)
}

// userError attaches the support message to err when one is known.
func userError(err error) error {
	if !core.IsUserFacing(err) {
		return err
	}
	return core.NewUserError(err)
}

// printError writes err for a terminal: the support message and code
// first, then the underlying cause.
func printError(w io.Writer, err error) {
	var ue *core.UserError
	if errors.As(err, &ue) {
		fmt.Fprintf(w, "%s (Code: %s). %s\n  %v\n", ue.User.Message, ue.User.Code, ue.User.Action, ue.Technical)
		return
	}
	fmt.Fprintln(w, err)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
