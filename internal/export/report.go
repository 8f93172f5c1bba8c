package export

import "time"

// Status is the outcome of one planned copy.
type Status string

const (
	StatusCopied  Status = "copied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	// StatusPlanned marks a copy a dry run would have made.
	StatusPlanned Status = "planned"
)

// Skip and failure reasons recorded in FileResult.Reason.
const (
	ReasonExists        = "destination exists"
	ReasonUnsupported   = "unsupported file type"
	ReasonSourceMissing = "source file not found"
	ReasonNoSource      = "track has no file path"
	ReasonInterrupted   = "export interrupted"
)

// FileResult records what happened to one track.
type FileResult struct {
	Position    int    `json:"position"`
	Title       string `json:"title,omitempty"`
	Source      string `json:"source"`
	FileName    string `json:"file_name"`
	Destination string `json:"destination"`
	Status      Status `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Bytes       int64  `json:"bytes,omitempty"`
	Err         error  `json:"-"`
}

// Report summarizes an export run.
type Report struct {
	Playlist    string        `json:"playlist"`
	Destination string        `json:"destination"`
	DryRun      bool          `json:"dry_run,omitempty"`
	Interrupted bool          `json:"interrupted,omitempty"`
	Copied      int           `json:"copied"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Planned     int           `json:"planned,omitempty"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration_ns"`
	Files       []FileResult  `json:"files"`
}

func (r *Report) add(res FileResult) {
	switch res.Status {
	case StatusCopied:
		r.Copied++
		r.Bytes += res.Bytes
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	case StatusPlanned:
		r.Planned++
		r.Bytes += res.Bytes
	}
	r.Files = append(r.Files, res)
}

// Errors returns the per-file errors in playlist order.
func (r *Report) Errors() []error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}
