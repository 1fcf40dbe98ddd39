package main

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docbuild/internal/pipeline"
	"github.com/dgallion1/docbuild/internal/render"
	"github.com/dgallion1/docbuild/internal/report"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <root> <outDir>",
	Short: "Validate a documentation tree and write it as a static site",
	Long: "Runs the same checks as validate and refuses to write anything when an error is found. " +
		"Writes one HTML page per Markdown page, site.json and linked assets, plus book.docx with --docx.",
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

var renderDocx bool

func init() {
	renderCmd.Flags().BoolVar(&renderDocx, "docx", false, "Also export the book as book.docx")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	root, outDir := args[0], args[1]
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg, "text")
	runner := pipeline.NewRunner(cfg, log)

	res, err := runner.Validate(cmd.Context(), root)
	if err != nil {
		return err
	}
	if len(res.Report.Issues) > 0 {
		if err := report.WriteText(cmd.ErrOrStderr(), res.Report); err != nil {
			return err
		}
	}

	out, err := runner.Render(cmd.Context(), res, outDir, render.Options{Docx: renderDocx || cfg.Docx})
	if errors.Is(err, pipeline.ErrHasErrors) {
		return errValidationFailed
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files to %s\n", len(out.Files), outDir)
	return nil
}
