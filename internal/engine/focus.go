package engine

const defaultFocusHistorySize = 20

// FocusHistory tracks recently focused window ids for one workspace, most
// recent first. Repeated calls to Previous walk further back; any new focus
// resets the walk.
type FocusHistory struct {
	maxSize int
	history []int64
	index   int
}

func NewFocusHistory() *FocusHistory {
	return &FocusHistory{maxSize: defaultFocusHistorySize}
}

// Push records a focus. Consecutive focuses of the same window collapse
// into one entry; a window already in history moves to the front.
func (f *FocusHistory) Push(windowID int64) {
	if len(f.history) > 0 && f.history[0] == windowID {
		return
	}
	f.removeID(windowID)
	f.history = append([]int64{windowID}, f.history...)
	if len(f.history) > f.maxSize {
		f.history = f.history[:f.maxSize]
	}
	f.index = 0
}

// Previous returns the next window back in history, or 0 when the history
// is exhausted.
func (f *FocusHistory) Previous() int64 {
	target := f.index + 1
	if target >= len(f.history) {
		return 0
	}
	f.index = target
	return f.history[target]
}

// Current returns the window id the navigation currently points at, or 0.
func (f *FocusHistory) Current() int64 {
	if len(f.history) == 0 {
		return 0
	}
	return f.history[f.index]
}

// Remove drops a closed window from history.
func (f *FocusHistory) Remove(windowID int64) {
	f.removeID(windowID)
	if f.index >= len(f.history) {
		f.index = len(f.history) - 1
		if f.index < 0 {
			f.index = 0
		}
	}
}

func (f *FocusHistory) removeID(windowID int64) {
	for i, id := range f.history {
		if id == windowID {
			f.history = append(f.history[:i], f.history[i+1:]...)
			return
		}
	}
}

// ResetNavigation points the walk back at the most recent entry.
func (f *FocusHistory) ResetNavigation() {
	f.index = 0
}

func (f *FocusHistory) Len() int {
	return len(f.history)
}

// Entries returns the history most recent first.
func (f *FocusHistory) Entries() []int64 {
	return append([]int64(nil), f.history...)
}
