package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/returnsdesk/internal/admin"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

var errResetNotConfirmed = errors.New("refusing to delete records without --yes")

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [record-type...]",
		Short: "Delete all stored records (every type when none is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errResetNotConfirmed
			}

			app, err := openApp(cmd.Context())
			if err != nil {
				return userError(err)
			}
			defer app.Close()

			var done []schema.RecordType
			if len(args) == 0 {
				done, err = admin.ResetAll(cmd.Context(), app.Store)
			} else {
				types := make([]schema.RecordType, len(args))
				for i, a := range args {
					types[i] = schema.RecordType(a)
				}
				done, err = admin.Reset(cmd.Context(), app.Store, types...)
			}
			for _, rt := range done {
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", rt)
			}
			if err != nil {
				return userError(err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm deleting records")
	return cmd
}
