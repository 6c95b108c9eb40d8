package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
)

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template <record-type>",
		Short: "Write a starter spreadsheet for a record type",
		Args:  cobra.ExactArgs(1),
		RunE:  runTemplate,
	}
	cmd.Flags().String("format", "xlsx", "file format (xlsx, csv)")
	cmd.Flags().StringP("out", "o", "", `output path, "-" for stdout (default: <type>_template.<format>)`)
	return cmd
}

func runTemplate(cmd *cobra.Command, args []string) error {
	s, err := schema.Lookup(schema.RecordType(args[0]))
	if err != nil {
		return userError(err)
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := sheet.ParseFormat(formatFlag)
	if err != nil {
		return userError(err)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = fmt.Sprintf("%s_template.%s", s.Type, format)
	}

	if err := writeOutput(cmd, out, func(w io.Writer) error {
		return sheet.WriteTemplate(w, format, s)
	}); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	if out != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s template to %s\n", s.Label, out)
	}
	return nil
}

// writeOutput runs write against the named file, or stdout for "-".
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
