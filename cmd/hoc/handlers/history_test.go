package handlers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hoc/internal/record"
)

func TestHistory_Table(t *testing.T) {
	w := newWorkspace(t, "")
	require.NoError(t, w.run(t, RunOptions{Secrets: []string{"token=abc123"}}))
	w.out.Reset()

	err := History(context.Background(), w.procedure, HistoryOptions{ConfigPath: w.config})
	require.NoError(t, err)

	out := w.out.String()
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "succeeded")
}

func TestHistory_SingleRunAsYAML(t *testing.T) {
	w := newWorkspace(t, "")
	require.NoError(t, w.run(t, RunOptions{Secrets: []string{"token=abc123"}}))
	w.out.Reset()

	err := History(context.Background(), w.procedure, HistoryOptions{ConfigPath: w.config, Run: "run-1", Output: OutputYAML})
	require.NoError(t, err)

	out := w.out.String()
	assert.Contains(t, out, "run_id: run-1")
	assert.Contains(t, out, "step: alloc")
	assert.Contains(t, out, "<redacted>")
	assert.NotContains(t, out, "abc123")
}

func TestHistory_Empty(t *testing.T) {
	w := newWorkspace(t, "")

	err := History(context.Background(), w.procedure, HistoryOptions{ConfigPath: w.config, Target: "remote/root@node-1"})
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded for deploy on remote/root@node-1.\n", w.out.String())
}

func TestHistory_Archived(t *testing.T) {
	w := newWorkspace(t, "archive:\n  enabled: true\n  bucket: audit\n")
	useMemArchive(t)
	require.NoError(t, w.run(t, RunOptions{Secrets: []string{"token=abc123"}}))
	w.out.Reset()

	require.NoError(t, History(context.Background(), w.procedure, HistoryOptions{ConfigPath: w.config, Archived: true}))
	assert.Equal(t, "run-1\n", w.out.String())

	w.out.Reset()
	require.NoError(t, History(context.Background(), w.procedure, HistoryOptions{ConfigPath: w.config, Archived: true, Run: "run-1"}))
	entries, err := record.Decode(bytes.NewReader(w.out.Bytes()))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	assert.Equal(t, "run-1", entries[0].RunID)
}

func TestHistory_ArchivedWithoutBucket(t *testing.T) {
	w := newWorkspace(t, "")

	err := History(context.Background(), w.procedure, HistoryOptions{ConfigPath: w.config, Archived: true})
	assert.ErrorContains(t, err, "no archive bucket configured")
}

func TestPrintEntries(t *testing.T) {
	exit := 3
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	entries := []record.Entry{
		{Seq: 1, RunID: "a", Time: now, Kind: record.KindRun, Status: record.RunStarted},
		{Seq: 2, RunID: "a", Time: now, Kind: record.KindStep, Step: "flash", Status: record.StatusFailed, ExitCode: &exit, Error: "exit status 3\nmore"},
		{Seq: 3, RunID: "b", Time: now, Kind: record.KindRun, Status: record.RunStarted},
	}

	t.Run("runs", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printEntries(&out, entries, HistoryOptions{}))
		assert.Contains(t, out.String(), "interrupted")
		assert.Contains(t, out.String(), "b")
	})

	t.Run("steps of one run", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printEntries(&out, entries, HistoryOptions{Run: "a"}))
		assert.Contains(t, out.String(), "flash")
		assert.Contains(t, out.String(), "exit status 3")
		assert.NotContains(t, out.String(), "more")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printEntries(&out, entries, HistoryOptions{Output: OutputJSON}))
		assert.Contains(t, out.String(), `"run_id": "a"`)
	})

	t.Run("unknown run", func(t *testing.T) {
		err := printEntries(&bytes.Buffer{}, entries, HistoryOptions{Run: "zzz"})
		assert.ErrorContains(t, err, `run "zzz" not found`)
	})

	t.Run("unknown format", func(t *testing.T) {
		err := printEntries(&bytes.Buffer{}, entries, HistoryOptions{Output: "xml"})
		assert.ErrorContains(t, err, `unknown output format "xml"`)
	})
}
