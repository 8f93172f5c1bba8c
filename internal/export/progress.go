package export

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress receives copied bytes. *progressbar.ProgressBar satisfies it.
type Progress interface {
	io.Writer
	Describe(description string)
	Finish() error
}

// ProgressFactory creates a Progress for a run copying total bytes.
type ProgressFactory func(total int64) Progress

// NewProgressBar returns a ProgressFactory that draws a byte progress bar
// on w.
func NewProgressBar(w io.Writer) ProgressFactory {
	return func(total int64) Progress {
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetTheme(themeASCII),
			progressbar.OptionFullWidth(),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetDescription("Copying tracks..."),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		)
	}
}

type nopProgress struct{}

func (nopProgress) Write(p []byte) (int, error) { return len(p), nil }

func (nopProgress) Describe(string) {}

func (nopProgress) Finish() error { return nil }

// themeASCII matches progressbar.ThemeASCII (v3.16+), which the Go 1.21
// compatible progressbar release does not export.
var themeASCII = progressbar.Theme{
	Saucer:        "=",
	SaucerHead:    ">",
	SaucerPadding: ".",
	BarStart:      "[",
	BarEnd:        "]",
}
