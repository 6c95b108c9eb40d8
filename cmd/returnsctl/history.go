package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored import batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			app, err := openApp(cmd.Context())
			if err != nil {
				return userError(err)
			}
			defer app.Close()

			batches, err := app.Store.Imports(cmd.Context(), limit)
			if err != nil {
				return userError(err)
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "TYPE", "FILE", "ROWS", "STATUS", "CREATED")
			for _, b := range batches {
				tw.row(b.ID, b.RecordType, b.FileName, b.RowCount, b.Status, b.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.flush()
		},
	}
	cmd.Flags().Int("limit", 50, "maximum batches to list")
	return cmd
}

func rollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <import-id>",
		Short: "Delete every record stored by one import batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return userError(err)
			}
			defer app.Close()

			res, err := app.Store.Rollback(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back import %s: %d %s records deleted\n",
				res.ImportID, res.RowsDeleted, res.RecordType)
			return nil
		},
	}
}
