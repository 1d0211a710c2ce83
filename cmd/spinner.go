package cmd

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerDelay = 100 * time.Millisecond

// NewSpinner returns a spinner writing to w. Only a terminal file gets
// animation; any other writer, or disabled, yields a spinner that never draws.
func NewSpinner(w io.Writer, suffix string, disabled bool) *spinner.Spinner {
	opt := spinner.WithWriter(w)
	f, isFile := w.(*os.File)
	if isFile {
		opt = spinner.WithWriterFile(f)
	}

	s := spinner.New(spinner.CharSets[9], spinnerDelay, opt)
	s.Suffix = " " + suffix
	if disabled || !isFile {
		s.Disable()
	}
	return s
}
