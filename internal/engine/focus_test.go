package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFocusHistoryPushDeduplicates(t *testing.T) {
	h := NewFocusHistory()
	h.Push(1)
	h.Push(1)
	h.Push(2)

	assert.Equal(t, []int64{2, 1}, h.Entries())
}

func TestFocusHistoryRefocusMovesToFront(t *testing.T) {
	h := NewFocusHistory()
	h.Push(1)
	h.Push(2)
	h.Push(3)
	h.Push(1)

	assert.Equal(t, []int64{1, 3, 2}, h.Entries())
}

func TestFocusHistoryPreviousWalksBack(t *testing.T) {
	h := NewFocusHistory()
	h.Push(1)
	h.Push(2)
	h.Push(3)

	assert.Equal(t, int64(2), h.Previous())
	assert.Equal(t, int64(1), h.Previous())
	// Past the end.
	assert.Zero(t, h.Previous())
}

func TestFocusHistoryPushResetsNavigation(t *testing.T) {
	h := NewFocusHistory()
	h.Push(1)
	h.Push(2)
	assert.Equal(t, int64(1), h.Previous())

	h.Push(3)
	assert.Equal(t, int64(3), h.Current())
	assert.Equal(t, int64(2), h.Previous())
}

func TestFocusHistoryRemoveClampsIndex(t *testing.T) {
	h := NewFocusHistory()
	h.Push(1)
	h.Push(2)
	h.Previous()

	h.Remove(1)
	assert.Equal(t, int64(2), h.Current())

	h.Remove(2)
	assert.Zero(t, h.Current())
	assert.Zero(t, h.Len())
}

func TestFocusHistoryBounded(t *testing.T) {
	h := NewFocusHistory()
	for i := int64(1); i <= 30; i++ {
		h.Push(i)
	}

	assert.Equal(t, defaultFocusHistorySize, h.Len())
	assert.Equal(t, int64(30), h.Current())
}
