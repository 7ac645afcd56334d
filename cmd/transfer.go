package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/importer"
)

var (
	flagImportDryRun bool
	flagExportOut    string
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import obligations and accounts from JSON/JSONL exports",
	Long: "Import every *.json and *.jsonl export under path. Each record is an object with a\n" +
		"\"kind\" (or legacy \"type\") field; accounts use kind \"account\". Bad records are skipped.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all obligations and accounts as JSONL",
	RunE:  runExport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportDryRun, "dry-run", false, "Parse and report without saving")
	exportCmd.Flags().StringVarP(&flagExportOut, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(importCmd, exportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%10 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := importer.Load(ctx, args[0], logger, progressFn)
	if err != nil {
		return err
	}
	if !flagQuiet && res.TotalFiles > 0 {
		fmt.Fprintln(os.Stderr)
	}

	for _, b := range res.Bad {
		logger.WithError(b.Err).Warnf("skipped %s:%d", b.File, b.Line)
	}

	if flagImportDryRun {
		fmt.Printf("  Would import %s and %s from %s (%d skipped)\n",
			cli.FormatCount(len(res.Obligations), "obligation"),
			cli.FormatCount(len(res.Accounts), "account"),
			cli.FormatCount(res.ParsedFiles, "file"), len(res.Bad))
		return nil
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if _, err := s.PutObligations(res.Obligations); err != nil {
		return fmt.Errorf("saving obligations: %w", err)
	}
	for _, a := range res.Accounts {
		if _, err := s.PutAccount(a); err != nil {
			return err
		}
	}

	fmt.Printf("  Imported %s and %s from %s\n",
		cli.FormatCount(len(res.Obligations), "obligation"),
		cli.FormatCount(len(res.Accounts), "account"),
		cli.FormatCount(res.ParsedFiles, "file"))
	if len(res.Bad) > 0 || res.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %s skipped, %d files unreadable\n", cli.FormatCount(len(res.Bad), "record"), res.FileErrors)
	}
	return nil
}

func runExport(_ *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	obligations, err := s.ListObligations()
	if err != nil {
		return err
	}
	accounts, err := s.ListAccounts()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if flagExportOut != "" {
		f, err := os.OpenFile(flagExportOut, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagExportOut, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := importer.Export(w, obligations, accounts); err != nil {
		return err
	}
	if flagExportOut != "" {
		fmt.Fprintf(os.Stderr, "  Exported %s and %s to %s\n",
			cli.FormatCount(len(obligations), "obligation"), cli.FormatCount(len(accounts), "account"), flagExportOut)
	}
	return nil
}
