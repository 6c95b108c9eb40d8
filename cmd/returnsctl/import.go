package main

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/returnsdesk/internal/application"
	"github.com/JonMunkholm/returnsdesk/internal/config"
	"github.com/JonMunkholm/returnsdesk/internal/mapping"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/session"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
	"github.com/JonMunkholm/returnsdesk/internal/store"
)

type importOptions struct {
	mode       string
	maps       []string
	dryRun     bool
	invalidOut string
	show       int
}

func importCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <record-type> <file>",
		Short: "Validate a spreadsheet and store its valid rows",
		Long: `Import reads a spreadsheet, matches its columns to the record type, validates
every row, and stores the valid rows as one import batch.

In smart mode (the default) columns are matched by name similarity. Use
--map to correct a match: --map "Cust Name=customerName". An empty field
ignores the column: --map "Internal Ref=".

In strict mode every column header must be a field name or label.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", "smart", "column matching mode (smart, strict)")
	cmd.Flags().StringArrayVar(&opts.maps, "map", nil, `override a column match, "Header=field" (repeatable)`)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate only, do not store anything")
	cmd.Flags().StringVar(&opts.invalidOut, "invalid-out", "", "write rejected rows to this .csv or .xlsx file")
	cmd.Flags().IntVar(&opts.show, "show", 20, "number of issues to print")
	return cmd
}

func runImport(cmd *cobra.Command, args []string, opts *importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	rt, path := schema.RecordType(args[0]), args[1]

	mode, ok := session.ParseMode(opts.mode)
	if !ok {
		return fmt.Errorf("unknown mode %q (want smart or strict)", opts.mode)
	}
	assignments, err := parseAssignments(opts.maps)
	if err != nil {
		return err
	}
	if mode == session.ModeStrict && len(assignments) > 0 {
		return fmt.Errorf("--map cannot be used in strict mode")
	}

	var imp config.ImportConfig
	if err := config.LoadInto(&imp); err != nil {
		return err
	}

	sessOpts := application.SessionOptions(imp)
	sess, err := session.New(uuid.NewString(), rt, mode, sessOpts)
	if err != nil {
		return userError(err)
	}

	sh, err := sheet.ReadFile(ctx, path, sessOpts.ReadOptions)
	if err != nil {
		return userError(err)
	}
	if err := sess.Load(ctx, sh); err != nil {
		return userError(err)
	}

	if sess.Stage() == session.StageMapping {
		if err := sess.ApplyMappings(resolveHeaders(assignments, sess.Headers())); err != nil {
			return userError(err)
		}
		if err := printMappings(out, sess.Mappings()); err != nil {
			return err
		}
		if err := sess.Commit(ctx); err != nil {
			return userError(err)
		}
	}

	result := sess.Result()
	printSummary(out, result.Summary())
	if err := printIssues(out, result.IssuesByRow(), opts.show); err != nil {
		return err
	}

	if opts.invalidOut != "" && len(result.InvalidRows) > 0 {
		format, err := sheet.ParseFormat(strings.TrimPrefix(filepath.Ext(opts.invalidOut), "."))
		if err != nil {
			return userError(err)
		}
		if err := writeOutput(cmd, opts.invalidOut, func(w io.Writer) error {
			return sheet.WriteInvalidRows(w, format, sess.Headers(), result)
		}); err != nil {
			return fmt.Errorf("write invalid rows: %w", err)
		}
		fmt.Fprintf(out, "Wrote %d rejected rows to %s\n", len(result.InvalidRows), opts.invalidOut)
	}

	if opts.dryRun {
		fmt.Fprintln(out, "Dry run: nothing was stored.")
		return nil
	}

	app, err := openApp(ctx)
	if err != nil {
		return userError(err)
	}
	defer app.Close()

	ctx = store.WithSource(ctx, store.Source{
		SessionID: sess.ID,
		FileName:  filepath.Base(path),
		UserAgent: "returnsctl/" + version,
	})
	n, err := sess.Confirm(ctx, app.Store)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintf(out, "Imported %d %s records.\n", n, strings.ToLower(sess.Schema().Label))
	return nil
}

// parseAssignments turns "Header=field" pairs into a mapping. The header is
// everything before the last "=", so headers may contain "=".
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid --map %q: want Header=field", p)
		}
		out[p[:i]] = strings.TrimSpace(p[i+1:])
	}
	return out, nil
}

// resolveHeaders rewrites each assignment's header to the sheet header it
// names, comparing normalized text so "part #" finds "Part #". Headers with
// no match are kept as typed and rejected by the session.
func resolveHeaders(assignments map[string]string, headers []string) map[string]string {
	byNorm := make(map[string]string, len(headers))
	for _, h := range headers {
		n := mapping.Normalize(h)
		if _, dup := byNorm[n]; !dup {
			byNorm[n] = h
		}
	}

	out := make(map[string]string, len(assignments))
	for header, field := range assignments {
		if h, ok := byNorm[mapping.Normalize(header)]; ok && !slices.Contains(headers, header) {
			header = h
		}
		out[header] = field
	}
	return out
}
