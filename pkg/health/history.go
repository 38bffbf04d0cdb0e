package health

import "sync"

// DefaultHistoryDepth is how many reports History retains per sync kind.
const DefaultHistoryDepth = 5

// History retains the most recent reports per sync kind. It is owned by
// whoever aggregates sync passes and is safe for concurrent use.
type History struct {
	mu     sync.Mutex
	depth  int
	byKind map[string][]Report
}

func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{
		depth:  depth,
		byKind: map[string][]Report{},
	}
}

// Add records a report, evicting the oldest one for its kind once the
// retained window is full.
func (h *History) Add(rep Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports := append(h.byKind[rep.SyncKind], rep)
	if len(reports) > h.depth {
		reports = reports[len(reports)-h.depth:]
	}
	h.byKind[rep.SyncKind] = reports
}

// Recent returns the retained reports for a kind, oldest first.
func (h *History) Recent(kind string) []Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Report, len(h.byKind[kind]))
	copy(out, h.byKind[kind])
	return out
}

// Latest returns the newest report for a kind, if any.
func (h *History) Latest(kind string) (Report, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports := h.byKind[kind]
	if len(reports) == 0 {
		return Report{}, false
	}
	return reports[len(reports)-1], true
}
