package main

import (
	"github.com/dgallion1/docbuild/internal/pipeline"
	"github.com/dgallion1/docbuild/internal/report"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <root>",
	Short: "Check a documentation tree",
	Long: "Parses SUMMARY.md, loads every page, checks directive nesting and links, " +
		"then prints one line per issue. Exits 1 when any error was found; warnings do not fail.",
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var validateFormat string

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Report format (text, json, csv)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	root := args[0]
	format, err := report.ParseFormat(validateFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg, "text")

	res, err := pipeline.NewRunner(cfg, log).Validate(cmd.Context(), root)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout(), res.Report, format); err != nil {
		return err
	}
	if res.Report.HasErrors() {
		return errValidationFailed
	}
	return nil
}
