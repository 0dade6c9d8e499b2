package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/stretchr/testify/require"
)

// StepClock is a fake clock that advances by a fixed step on every call.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepClock returns a clock whose first reading is start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{next: start, step: step}
}

// Now returns the current reading and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// NewFile builds an unsaved regular file entry.
func NewFile(owner, dir, name string, size int64) *metadata.FileEntry {
	return &metadata.FileEntry{
		Owner: owner,
		Path:  dir,
		Name:  name,
		Size:  size,
	}
}

// NewDirectory builds an unsaved directory entry.
func NewDirectory(owner, dir, name string) *metadata.FileEntry {
	return &metadata.FileEntry{
		Owner:       owner,
		Path:        dir,
		Name:        name,
		IsDirectory: true,
	}
}

// MustSave saves entry and fails the test on error.
func MustSave(t *testing.T, repo metadata.Repository, entry *metadata.FileEntry) *metadata.FileEntry {
	t.Helper()
	saved, err := repo.Save(context.Background(), entry)
	require.NoError(t, err)
	require.NotNil(t, saved)
	return saved
}

// Names extracts entry names in order.
func Names(entries []*metadata.FileEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
