package engine

// FieldState is the tracked validity of one field.
type FieldState int

const (
	FieldUnchecked FieldState = iota
	FieldValid
	FieldInvalid
)

// Tracker maps field names to their validity and aggregates them into the
// single submit-enabled decision. An invalid verdict disables submission
// immediately; a valid one re-aggregates; a skip never touches the map.
type Tracker struct {
	states  map[string]FieldState
	enabled bool
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Reset clears the whole map. With nothing tracked the aggregate is
// vacuously true, which is exactly what an existing record opens with.
func (t *Tracker) Reset() {
	t.states = make(map[string]FieldState)
	t.enabled = true
}

// Seed plants a field state without the fast path, re-aggregating after.
func (t *Tracker) Seed(field string, s FieldState) {
	t.states[field] = s
	t.aggregate()
}

// Apply records a check result for a field.
func (t *Tracker) Apply(field string, r Result) {
	switch r.Verdict {
	case VerdictSkip:
		// No verdict: debounced feedback, leave the aggregate alone.
	case VerdictInvalid:
		t.states[field] = FieldInvalid
		t.enabled = false
	case VerdictValid:
		t.states[field] = FieldValid
		t.aggregate()
	}
}

// State returns the tracked validity of a field.
func (t *Tracker) State(field string) FieldState {
	return t.states[field]
}

// SubmitEnabled reports whether every tracked field is valid.
func (t *Tracker) SubmitEnabled() bool {
	return t.enabled
}

func (t *Tracker) aggregate() {
	for _, s := range t.states {
		if s != FieldValid {
			t.enabled = false
			return
		}
	}
	t.enabled = true
}
