package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/docbuild/internal/render"
	"github.com/dgallion1/docbuild/internal/report"
	"github.com/google/uuid"
)

// JobStatus represents the state of a build.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusValidating JobStatus = "validating"
	StatusRendering  JobStatus = "rendering"
	StatusWriting    JobStatus = "writing"
	StatusCompleted  JobStatus = "completed"
	StatusRejected   JobStatus = "rejected" // validation found errors
	StatusFailed     JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// Job tracks the state of a single site build.
type Job struct {
	mu sync.Mutex

	ID     string `json:"build_id"`
	Root   string `json:"root"`
	OutDir string `json:"out_dir,omitempty"`
	Docx   bool   `json:"docx"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	report *report.Report
	output *render.Output
	errors []string
}

// Progress tracks build progress.
type Progress struct {
	PagesLoaded   int      `json:"pages_loaded"`
	PagesRendered int      `json:"pages_rendered"`
	FilesWritten  int      `json:"files_written"`
	Errors        int      `json:"errors"`
	Warnings      int      `json:"warnings"`
	Failures      []string `json:"failures"`
}

// NewJob creates a queued build of root. An empty outDir keeps the output in
// memory only.
func NewJob(root, outDir string, docx bool) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Root:      root,
		OutDir:    outDir,
		Docx:      docx,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs. Jobs that are still running are kept.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a failure that is not a validation issue.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Failures = j.errors
	j.UpdatedAt = time.Now()
}

// SetReport records the validation report and its counts.
func (j *Job) SetReport(r *report.Report) {
	c := r.Counts()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = r
	j.Progress.PagesLoaded = r.Pages
	j.Progress.Errors = c.Errors
	j.Progress.Warnings = c.Warnings
	j.UpdatedAt = time.Now()
}

// Report returns the validation report, or nil before validation finished.
func (j *Job) Report() *report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// SetOutput records the rendered site.
func (j *Job) SetOutput(out *render.Output, pages int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.output = out
	j.Progress.PagesRendered = pages
	j.UpdatedAt = time.Now()
}

// Output returns the rendered site, or nil when the build did not render.
func (j *Job) Output() *render.Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.output
}

// SetFilesWritten records how many files reached disk.
func (j *Job) SetFilesWritten(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesWritten = n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"build_id"`
	Root      string    `json:"root"`
	OutDir    string    `json:"out_dir,omitempty"`
	Docx      bool      `json:"docx"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	failures := make([]string, len(j.errors))
	copy(failures, j.errors)
	p := j.Progress
	p.Failures = failures
	return JobSnapshot{
		ID:        j.ID,
		Root:      j.Root,
		OutDir:    j.OutDir,
		Docx:      j.Docx,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
