package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [record-type]",
		Short: "List record types, or the fields of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				tw := newTable(out, "TYPE", "LABEL", "FIELDS", "REQUIRED")
				for _, s := range schema.All() {
					tw.row(s.Type, s.Label, len(s.Fields), strings.Join(s.Required(), ", "))
				}
				return tw.flush()
			}

			s, err := schema.Lookup(schema.RecordType(args[0]))
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(out, "%s (%s)\n\n", s.Label, s.Type)

			tw := newTable(out, "FIELD", "LABEL", "TYPE", "RULE", "VALUES")
			for _, f := range s.Fields {
				values := f.AllowedValues
				if f.Lifecycle != nil {
					values = f.Lifecycle.Stages
				}
				tw.row(f.Name, f.Label, f.Type, rule(f), strings.Join(values, ", "))
			}
			return tw.flush()
		},
	}
}

func rule(f schema.FieldSpec) string {
	switch {
	case f.Required:
		return "required"
	case f.Recommended:
		return "recommended"
	default:
		return "optional"
	}
}
