package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonOptions_Deadline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{name: "bounded", timeout: time.Minute, wantDeadline: true},
		{name: "unbounded", timeout: 0, wantDeadline: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := CommonOptions{Timeout: tt.timeout}
			ctx, cancel := opts.ApplyToContext(context.Background())
			defer cancel()

			deadline, ok := ctx.Deadline()
			assert.Equal(t, tt.wantDeadline, ok)
			if ok {
				assert.WithinDuration(t, time.Now().Add(tt.timeout), deadline, time.Second)
			}
		})
	}
}

func TestCommonOptions_Formats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"table", "json", "yaml", "junit", "sarif"} {
		opts := DefaultCommonOptions()
		opts.Format = format
		assert.NoError(t, opts.ValidateFlags(), format)
	}

	tests := []struct {
		name   string
		opts   CommonOptions
		errMsg string
	}{
		{name: "unknown format", opts: CommonOptions{Format: "xml"}, errMsg: "invalid format: xml"},
		{name: "negative timeout", opts: CommonOptions{Format: "yaml", Timeout: -time.Second}, errMsg: "--timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.ValidateFlags()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCommonOptions_RegisterFlags(t *testing.T) {
	t.Parallel()

	opts := DefaultCommonOptions()
	cmd := &cobra.Command{Use: "test"}
	opts.RegisterFlags(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"--format", "junit", "-o", "out.xml", "--no-color", "--timeout", "5s"}))
	assert.Equal(t, CommonOptions{Format: "junit", OutFile: "out.xml", Timeout: 5 * time.Second, NoColor: true}, opts)
	assert.Equal(t, "table", DefaultCommonOptions().Format)
}

func TestCommonOptions_OpenOutput(t *testing.T) {
	t.Parallel()

	w, closeOutput, err := (&CommonOptions{}).OpenOutput()
	require.NoError(t, err)
	assert.Same(t, os.Stdout, w)
	closeOutput()

	path := filepath.Join(t.TempDir(), "report.txt")
	w, closeOutput, err = (&CommonOptions{OutFile: path}).OpenOutput()
	require.NoError(t, err)
	_, err = w.Write([]byte("ok"))
	require.NoError(t, err)
	closeOutput()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	_, _, err = (&CommonOptions{OutFile: filepath.Join(t.TempDir(), "missing", "report.txt")}).OpenOutput()
	require.Error(t, err)
}
