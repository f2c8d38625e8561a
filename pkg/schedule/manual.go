// Package schedule provides a virtual-time action queue for single-threaded
// hosts. Nothing runs on its own: the host advances the clock from its event
// loop (or a test advances it directly) and due actions fire on that call.
package schedule

import "time"

type entry struct {
	at     time.Duration
	seq    uint64
	action func()
}

// Manual is a deferred-action queue driven by explicit clock advances.
// It is not safe for concurrent use.
type Manual struct {
	now     time.Duration
	seq     uint64
	pending []entry
}

// NewManual returns a queue with its clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// ScheduleAfter registers action to run once d has elapsed. Negative delays
// are treated as zero; a zero delay fires on the next Advance.
func (m *Manual) ScheduleAfter(d time.Duration, action func()) {
	if action == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	m.seq++
	m.pending = append(m.pending, entry{at: m.now + d, seq: m.seq, action: action})
}

// CancelAll drops every pending action. Calling it from inside an action
// also stops actions that were due in the same Advance.
func (m *Manual) CancelAll() {
	m.pending = nil
}

// Advance moves the clock forward by d, firing every action that comes due
// in due-time order, ties in scheduling order. The clock reads each action's
// due time while it runs.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	target := m.now + d

	for {
		idx := m.nextDue(target)
		if idx < 0 {
			break
		}
		e := m.pending[idx]
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
		m.now = e.at
		e.action()
	}

	m.now = target
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of actions waiting to fire.
func (m *Manual) Pending() int {
	return len(m.pending)
}

func (m *Manual) nextDue(target time.Duration) int {
	idx := -1
	for i, e := range m.pending {
		if e.at > target {
			continue
		}
		if idx < 0 || e.at < m.pending[idx].at || (e.at == m.pending[idx].at && e.seq < m.pending[idx].seq) {
			idx = i
		}
	}
	return idx
}
