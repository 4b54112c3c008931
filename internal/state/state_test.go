package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingIsEmpty(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	_, ok := st.Last()
	assert.False(t, ok)
}

func TestRecordRoundTrip(t *testing.T) {
	path := DefaultPath(t.TempDir())
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := RunRecord{
		ID:        "01J0000000000000000000000A",
		Started:   started,
		Duration:  90 * time.Second,
		Succeeded: 2,
		Skipped:   1,
		Steps: []StepRecord{
			{ID: "package:fd", Title: "Fd", Outcome: "succeeded"},
			{ID: "package:docker", Title: "Docker", Outcome: "skipped", Detail: "already installed"},
		},
	}
	require.NoError(t, Record(path, rec))
	require.NoError(t, Record(path, RunRecord{ID: "second", Cancelled: true}))

	st, err := LoadState(path)
	require.NoError(t, err)
	require.Len(t, st.Runs, 2)
	assert.Equal(t, rec, st.Runs[0])
	last, ok := st.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.ID)
	assert.True(t, last.Cancelled)
}

func TestAppendKeepsNewest(t *testing.T) {
	var st State
	for i := 0; i < MaxRuns+5; i++ {
		st.Append(RunRecord{ID: fmt.Sprint(i)})
	}
	require.Len(t, st.Runs, MaxRuns)
	assert.Equal(t, "5", st.Runs[0].ID)
	assert.Equal(t, fmt.Sprint(MaxRuns+4), st.Runs[MaxRuns-1].ID)
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadState(path)
	assert.Error(t, err)

	require.NoError(t, Record(path, RunRecord{ID: "fresh"}))
	st, err := LoadState(path)
	require.NoError(t, err)
	require.Len(t, st.Runs, 1)
	assert.Equal(t, "fresh", st.Runs[0].ID)
}
