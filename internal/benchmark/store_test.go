package benchmark

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "runs.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	// Empty store
	runs, err := store.LoadAll()
	assert.NoError(t, err)
	assert.Empty(t, runs)
	latest, err := store.LoadLatest()
	assert.NoError(t, err)
	assert.Nil(t, latest)

	run1 := Run{
		ID:        "abc",
		Timestamp: time.Now().Add(-1 * time.Hour),
		Results:   []Summary{{Name: "B1", Duration: 100 * time.Millisecond, Status: StatusSuccess}},
	}
	require.NoError(t, store.Save(run1))

	prev, curr, err := store.LoadPair()
	assert.NoError(t, err)
	assert.Nil(t, prev)
	assert.Equal(t, "abc", curr.ID)

	run2 := Run{
		ID:        "def",
		Timestamp: time.Now(),
		Results:   []Summary{{Name: "B1", Duration: 110 * time.Millisecond, Status: StatusSuccess}},
	}
	require.NoError(t, store.Save(run2))

	runs, err = store.LoadAll()
	assert.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "abc", runs[0].ID)
	assert.Equal(t, "def", runs[1].ID)
	assert.Equal(t, 110*time.Millisecond, runs[1].Results[0].Duration)

	prev, curr, err = store.LoadPair()
	assert.NoError(t, err)
	assert.Equal(t, "abc", prev.ID)
	assert.Equal(t, "def", curr.ID)
	assert.NoFileExists(t, path+".tmp")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.LoadAll()
	assert.ErrorContains(t, err, "failed to unmarshal runs")
	assert.Error(t, store.Save(Run{ID: "x"}), "a corrupt history is never overwritten")
}
