package inbox

import "sync"

// Navigation carries a pending deep-link payload between screens. Take hands
// the payload out at most once.
type Navigation struct {
	mu    sync.Mutex
	start *StartConversation
}

// NewNavigation returns a Navigation holding start, which may be nil
func NewNavigation(start *StartConversation) *Navigation {
	return &Navigation{start: start}
}

// Set replaces the pending payload
func (n *Navigation) Set(start StartConversation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.start = &start
}

// Take returns the pending payload and clears it
func (n *Navigation) Take() *StartConversation {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	start := n.start
	n.start = nil
	return start
}
