package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/record"
	"github.com/curator/console/internal/refdata"
)

// Phase is the edit session's position in its state machine:
// closed → open(new|editing) → submitting → open|closed.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseOpen
	PhaseSubmitting
)

var (
	ErrSessionLocked  = errors.New("a submission is in flight")
	ErrSessionClosed  = errors.New("no edit session is open")
	ErrSubmitDisabled = errors.New("the form still has invalid fields")
)

// Session is the transient editing context, bound to at most one record at a
// time. It owns the validation state and the submission lock; the display
// tree is a pure projection of it. All validation runs synchronously on the
// caller's goroutine.
type Session struct {
	ref     *refdata.Config
	checker *Checker
	tracker *Tracker

	phase  Phase
	openID int64 // 0 while creating
	isNew  bool
	form   *record.Form

	// changed caches the last entered value per field, so a mode flip away
	// from mute and back does not lose the typed duration.
	changed map[string]string
}

// NewSession wires a session with its own checker and tracker. now is
// injectable for tests and defaults to time.Now.
func NewSession(ref *refdata.Config, resolver *identity.Resolver, now func() time.Time) *Session {
	return &Session{
		ref:     ref,
		checker: NewChecker(ref, resolver, now),
		tracker: NewTracker(),
		changed: make(map[string]string),
	}
}

// OpenNew starts a creating session. Re-opening while a creating session is
// already up is a no-op; while a submission is in flight nothing happens
// either. Every field starts invalid except the id (assigned by the store)
// and the duration (disabled until the mode asks for one).
func (s *Session) OpenNew() bool {
	if s.phase == PhaseSubmitting {
		return false
	}
	if s.phase == PhaseOpen && s.isNew {
		return false
	}

	s.phase = PhaseOpen
	s.isNew = true
	s.openID = 0
	s.form = record.NewForm()
	s.changed = make(map[string]string)

	s.tracker.Reset()
	for _, field := range record.Fields {
		s.tracker.Seed(field, FieldInvalid)
	}
	s.tracker.Seed(record.FieldID, FieldValid)
	s.tracker.Seed(record.FieldDuration, FieldValid)
	return true
}

// Open hydrates the session from a stored row. Re-opening the record that is
// already open is a no-op (idempotent focus); opening a different record
// tears down and rebuilds the validation state. A stored record passed
// validation once, so its tracked state starts empty and the aggregate is
// vacuously enabled.
func (s *Session) Open(row models.TableRow) bool {
	if s.phase == PhaseSubmitting {
		return false
	}
	if s.phase == PhaseOpen && !s.isNew && s.openID == row.ID {
		return false
	}

	s.phase = PhaseOpen
	s.isNew = false
	s.openID = row.ID
	s.form = record.Unpack(row, s.ref)
	s.changed = make(map[string]string)
	s.tracker.Reset()
	return true
}

// Close tears the session down. It fails while the submission lock is held.
func (s *Session) Close() error {
	if s.phase == PhaseSubmitting {
		return ErrSessionLocked
	}
	s.phase = PhaseClosed
	s.openID = 0
	s.isNew = false
	s.form = nil
	return nil
}

// SetField updates one field of the edit surface and validates it. A valid
// mode change additionally re-derives the duration field's state.
func (s *Session) SetField(field, value string) Result {
	if s.phase != PhaseOpen {
		return skip()
	}
	if !s.assign(field, value) {
		return skip()
	}
	s.changed[field] = value

	res := s.checker.Check(field, s.form)
	if field == record.FieldMode && res.Verdict == VerdictValid {
		s.applyDurationRule()
	}

	// Nickname companions report on their base field.
	s.tracker.Apply(strings.TrimSuffix(field, "_nickname"), res)
	return res
}

// AddImages runs a batch of proposed files through the format screen and
// returns the batch verdict plus the aggregated rejection notice, if any.
func (s *Session) AddImages(files []ProposedFile) (Result, string) {
	if s.phase != PhaseOpen {
		return skip(), ""
	}
	res, notice := s.checker.ScreenImages(s.form, files)
	s.tracker.Apply(record.FieldImage, res)
	return res, notice
}

// RemoveImage drops the image at a 1-based position from the preview list.
// Emptying the list blocks submission until a new image arrives.
func (s *Session) RemoveImage(pos int) {
	if s.phase != PhaseOpen || pos < 1 || pos > len(s.form.Images) {
		return
	}
	s.form.Images = append(s.form.Images[:pos-1], s.form.Images[pos:]...)
	if len(s.form.Images) == 0 {
		s.tracker.Apply(record.FieldImage, invalid(s.ref.Messages.ImageRequired))
	}
}

// SubmitEnabled is the aggregate submit decision.
func (s *Session) SubmitEnabled() bool {
	return s.phase == PhaseOpen && s.tracker.SubmitEnabled()
}

// BeginSubmit packs the edit surface into a transport-ready record and takes
// the submission lock. While the lock is held both close and a second
// submit fail.
func (s *Session) BeginSubmit() (*models.Submission, error) {
	if s.phase == PhaseSubmitting {
		return nil, ErrSessionLocked
	}
	if s.phase != PhaseOpen {
		return nil, ErrSessionClosed
	}
	if !s.tracker.SubmitEnabled() {
		return nil, ErrSubmitDisabled
	}

	s.phase = PhaseSubmitting
	s.tracker.Apply(record.FieldUpload, invalid(""))
	return record.Pack(s.form), nil
}

// Resolve releases the submission lock once the transport answered, either
// way. Acceptance closes the session; rejection reopens it for another try.
func (s *Session) Resolve(accepted bool) {
	if s.phase != PhaseSubmitting {
		return
	}
	s.tracker.Apply(record.FieldUpload, valid())
	if accepted {
		s.phase = PhaseClosed
		s.openID = 0
		s.isNew = false
		s.form = nil
		s.changed = make(map[string]string)
		return
	}
	s.phase = PhaseOpen
}

// Phase exposes the state machine's position.
func (s *Session) Phase() Phase { return s.phase }

// IsNew reports whether the open session creates a record.
func (s *Session) IsNew() bool { return s.isNew }

// OpenID is the id of the record being edited, zero while creating.
func (s *Session) OpenID() int64 { return s.openID }

// Form exposes the edit surface, nil while closed.
func (s *Session) Form() *record.Form { return s.form }

// FieldState returns the tracked validity of a field.
func (s *Session) FieldState(field string) FieldState {
	return s.tracker.State(field)
}

// durationRule is the derived-field rule invoked on every mode change. It
// returns the duration field's next value and requiredness plus the new
// cache content: entering mute restores the cached value, leaving mute
// stashes the current one and clears the field.
func durationRule(isMute bool, current, cached string) (value string, required bool, newCache string) {
	if isMute {
		return cached, true, cached
	}
	return "", false, current
}

func (s *Session) applyDurationRule() {
	isMute := s.form.Mode == s.ref.MuteMode
	value, required, cache := durationRule(isMute, s.form.Duration, s.changed[record.FieldDuration])

	s.form.Duration = value
	s.form.DurationRequired = required
	s.form.DurationEnabled = required
	s.changed[record.FieldDuration] = cache

	if required {
		// A restored value still has to pass its own check before submit.
		s.tracker.Seed(record.FieldDuration, FieldInvalid)
	} else {
		s.tracker.Seed(record.FieldDuration, FieldValid)
	}
}

// assign writes a raw value into the form slot named by field. Unknown
// fields and the read-only duration slot report false.
func (s *Session) assign(field, value string) bool {
	f := s.form
	switch field {
	case record.FieldTarget:
		f.Target = value
	case record.FieldTarget + "_nickname":
		f.TargetNickname = value
	case record.FieldMode:
		f.Mode = value
	case record.FieldReason:
		f.Reason = value
	case record.FieldGroup:
		f.Group = value
	case record.FieldGroup + "_nickname":
		f.GroupNickname = value
	case record.FieldDuration:
		if !f.DurationEnabled {
			return false
		}
		f.Duration = value
	case record.FieldOperator:
		f.Operator = value
	case record.FieldOperator + "_nickname":
		f.OperatorNickname = value
	case record.FieldTime:
		f.Time = value
	default:
		return false
	}
	return true
}
