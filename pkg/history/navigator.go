package history

// Navigator walks a Log with up/down keys. Each input field owns its own Navigator.
//
// The index starts at -1 (nothing recalled). Older clamps at the oldest entry;
// Newer past the most recent entry returns to -1 and yields empty input.
type Navigator struct {
	log   *Log
	index int
}

// NewNavigator creates a navigator positioned before the most recent entry.
func NewNavigator(log *Log) *Navigator {
	return &Navigator{log: log, index: -1}
}

// Index returns the current position, -1 when nothing is recalled.
func (n *Navigator) Index() int {
	return n.index
}

// Older moves one entry back in time and returns it.
func (n *Navigator) Older() string {
	size := n.log.Len()
	if size == 0 {
		n.index = -1
		return ""
	}
	if n.index < size-1 {
		n.index++
	}
	return n.log.At(n.index)
}

// Newer moves one entry forward in time and returns it, or "" once past the newest.
func (n *Navigator) Newer() string {
	if n.index <= 0 {
		n.index = -1
		return ""
	}
	n.index--
	if n.index >= n.log.Len() {
		n.index = n.log.Len() - 1
	}
	return n.log.At(n.index)
}

// Reset forgets the position.
func (n *Navigator) Reset() {
	n.index = -1
}
