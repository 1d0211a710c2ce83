package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerNeverDrawsIntoNonFileWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	s := NewSpinner(buf, "Uploading...", false)
	assert.False(t, s.Enabled())

	s.Start()
	s.Stop()
	assert.Empty(t, buf.String())
}

func TestSpinnerDisabledForFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "spinner-*")
	assert.NoError(t, err)
	defer f.Close()

	s := NewSpinner(f, "Uploading...", true)
	assert.False(t, s.Enabled())
	s.Start()
	s.Stop()

	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Zero(t, info.Size())
}
