package angles

// Transition is an edge between two consecutive frame states.
type Transition struct {
	From State
	To   State
}

// Changed reports whether the state differs across the edge.
func (t Transition) Changed() bool { return t.From != t.To }

// Tracker remembers the previous frame's state so callers can react to
// Occluded->Visible and Visible->Occluded edges. The state itself is not
// sticky: every frame is judged on its own by Derive.
type Tracker struct {
	last   State
	primed bool
}

// Observe records the state of the current frame and returns the edge from
// the previous one. The first observation is reported as coming from
// Occluded.
func (t *Tracker) Observe(s State) Transition {
	from := t.last
	if !t.primed {
		from = Occluded
		t.primed = true
	}
	t.last = s
	return Transition{From: from, To: s}
}

// Last returns the most recently observed state.
func (t *Tracker) Last() State { return t.last }
