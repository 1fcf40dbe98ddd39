package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docbuild/internal/render"
)

// Worker processes a single build job.
type Worker struct {
	runner  *Runner
	log     *slog.Logger
	publish func(*Job)
}

func NewWorker(runner *Runner, log *slog.Logger, publish func(*Job)) *Worker {
	return &Worker{runner: runner, log: log, publish: publish}
}

// Process validates the job's root, renders it when clean and writes the
// output if the job names a directory.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("build_id", job.ID, "root", job.Root)

	// Phase 1: Validate
	job.SetStatus(StatusValidating, "validating")
	res, err := w.runner.Validate(ctx, job.Root)
	if err != nil {
		log.Error("validation failed", "error", err)
		job.AddError(fmt.Sprintf("validate: %s", err))
		job.SetStatus(StatusFailed, "validating")
		return
	}
	job.SetReport(res.Report)
	if res.Report.HasErrors() {
		c := res.Report.Counts()
		log.Info("build rejected", "errors", c.Errors, "warnings", c.Warnings)
		job.SetStatus(StatusRejected, "validating")
		return
	}

	if job.OutDir != "" {
		if err := CheckOutDir(job.Root, job.OutDir); err != nil {
			log.Error("build refused", "error", err)
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "validating")
			return
		}
	}

	// Phase 2: Render in memory
	job.SetStatus(StatusRendering, "rendering")
	out, err := w.runner.Render(ctx, res, "", render.Options{Docx: job.Docx})
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	job.SetOutput(out, res.Report.Pages)

	// Phase 3: Write
	if job.OutDir != "" {
		job.SetStatus(StatusWriting, "writing")
		if err := out.WriteDir(job.OutDir); err != nil {
			var rerr *render.RenderError
			if errors.As(err, &rerr) {
				log.Error("write failed", "path", rerr.Path, "error", rerr.Err)
			} else {
				log.Error("write failed", "error", err)
			}
			job.AddError(fmt.Sprintf("write: %s", err))
			job.SetStatus(StatusFailed, "writing")
			return
		}
		job.SetFilesWritten(len(out.Files))
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("build complete", "files", len(out.Files))
	if w.publish != nil {
		w.publish(job)
	}
}
