package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/treewalk/internal/history"
	"github.com/harrison/treewalk/internal/models"
)

func TestHistoryEmpty(t *testing.T) {
	setupWorkspace(t)

	stdout, _, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No walks recorded yet.")
	assert.Contains(t, stdout, "history.db")
}

func seedHistory(t *testing.T, dir string) *history.Run {
	t.Helper()
	store, err := history.NewStore(filepath.Join(dir, "home", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	old := &history.Run{Root: "old", Source: "fs", Visitor: "list", StartedAt: time.Now().AddDate(0, 0, -60)}
	require.NoError(t, store.RecordRun(context.Background(), old))

	summary := models.WalkSummary{
		Root:      "docs",
		Visited:   3,
		Failed:    1,
		Cancelled: true,
		Failures: []models.VisitResult{
			{Node: "docs/x", Status: models.StatusFailed, Phase: "visit", Error: errors.New("denied")},
		},
	}
	run := history.NewRun(summary, "fs", "hash", "lifo", time.Now(), errors.New("walk cancelled after 3 visits: context canceled"))
	require.NoError(t, store.RecordRun(context.Background(), run))
	return run
}

func TestHistoryListAndShow(t *testing.T) {
	dir := setupWorkspace(t)
	run := seedHistory(t, dir)

	stdout, _, err := execute(t, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, run.ID)
	assert.NotContains(t, stdout, " old")

	stdout, _, err = execute(t, "history", run.ID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cancelled:     true")
	assert.Contains(t, stdout, "Outcome:       walk cancelled after 3 visits: context canceled")
	assert.Contains(t, stdout, "  - docs/x [visit]: denied")
}

func TestHistoryCleanup(t *testing.T) {
	dir := setupWorkspace(t)
	seedHistory(t, dir)

	stdout, _, err := execute(t, "history", "--cleanup-days", "30")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed 1 run(s) older than 30 days.")
	assert.Contains(t, stdout, "docs")
	assert.NotContains(t, stdout, " old\n")
}

func TestHistoryUnknownRun(t *testing.T) {
	dir := setupWorkspace(t)
	seedHistory(t, dir)

	_, _, err := execute(t, "history", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrRunNotFound)
}
