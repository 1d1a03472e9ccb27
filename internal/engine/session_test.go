package engine

import (
	"errors"
	"testing"

	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/record"
	"github.com/curator/console/internal/refdata"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	ref := refdata.Default()
	return NewSession(ref, identity.NewResolver(ref), fixedNow)
}

// fillValid drives a fresh creating session to a fully valid, submittable
// form.
func fillValid(t *testing.T, s *Session) {
	t.Helper()
	steps := []struct{ field, value string }{
		{record.FieldTarget, "123456789"},
		{record.FieldMode, "kick"},
		{record.FieldReason, "spamming invite links"},
		{record.FieldGroup, "833970143"},
		{record.FieldOperator, "3875039665"},
		{record.FieldTime, "2025-06-01T10:00:00"},
	}
	for _, st := range steps {
		if res := s.SetField(st.field, st.value); res.Verdict != VerdictValid {
			t.Fatalf("SetField(%s, %q) = %v (%s)", st.field, st.value, res.Verdict, res.Message)
		}
	}
	res, _ := s.AddImages([]ProposedFile{
		{Name: "shot.png", ContentType: "image/png", DataURL: "data:image/png;base64,aaaa"},
	})
	if res.Verdict != VerdictValid {
		t.Fatalf("AddImages rejected: %v", res.Message)
	}
}

func TestOpenNewSeeding(t *testing.T) {
	s := newTestSession(t)
	if !s.OpenNew() {
		t.Fatal("OpenNew failed on a closed session")
	}
	if s.Phase() != PhaseOpen || !s.IsNew() || s.OpenID() != 0 {
		t.Fatal("creating session in the wrong state")
	}

	// Only the id and the (disabled) duration start valid.
	for _, field := range record.Fields {
		want := FieldInvalid
		if field == record.FieldID || field == record.FieldDuration {
			want = FieldValid
		}
		if got := s.FieldState(field); got != want {
			t.Errorf("seed state of %s = %v, want %v", field, got, want)
		}
	}
	if s.SubmitEnabled() {
		t.Error("fresh creating session should not be submittable")
	}

	// Re-opening while already creating is a no-op.
	if s.OpenNew() {
		t.Error("second OpenNew should report false")
	}
}

func TestMuteRequiresDuration(t *testing.T) {
	s := newTestSession(t)
	s.OpenNew()

	// Duration is read-only while no mode asks for one.
	if res := s.SetField(record.FieldDuration, "30m"); res.Verdict != VerdictSkip {
		t.Fatal("duration accepted while disabled")
	}

	if res := s.SetField(record.FieldMode, "mute"); res.Verdict != VerdictValid {
		t.Fatalf("mute rejected: %v", res.Message)
	}
	if !s.Form().DurationRequired || !s.Form().DurationEnabled {
		t.Fatal("mute did not enable the duration")
	}
	if s.FieldState(record.FieldDuration) != FieldInvalid {
		t.Error("enabled duration should start invalid")
	}

	if res := s.SetField(record.FieldDuration, ""); res.Verdict != VerdictInvalid {
		t.Error("empty required duration accepted")
	}
	if res := s.SetField(record.FieldDuration, "30m"); res.Verdict != VerdictValid {
		t.Errorf("30m rejected: %v", res.Message)
	}
	if s.FieldState(record.FieldDuration) != FieldValid {
		t.Error("valid duration not tracked")
	}
}

func TestModeFlipRestoresCachedDuration(t *testing.T) {
	s := newTestSession(t)
	s.OpenNew()
	s.SetField(record.FieldMode, "mute")
	s.SetField(record.FieldDuration, "30m")

	// Leaving mute clears and disables the field but keeps the typed value.
	s.SetField(record.FieldMode, "kick")
	if s.Form().Duration != "" || s.Form().DurationEnabled {
		t.Fatal("leaving mute did not clear the duration")
	}
	if s.FieldState(record.FieldDuration) != FieldValid {
		t.Error("disabled duration should not block submission")
	}
	if res := s.SetField(record.FieldDuration, "5m"); res.Verdict != VerdictSkip {
		t.Error("disabled duration accepted a write")
	}

	// Coming back restores the cached value, pending revalidation.
	s.SetField(record.FieldMode, "mute")
	if s.Form().Duration != "30m" {
		t.Errorf("cached duration not restored, got %q", s.Form().Duration)
	}
	if s.FieldState(record.FieldDuration) != FieldInvalid {
		t.Error("restored duration must revalidate before submit")
	}
}

func TestSubmitLockAndResolve(t *testing.T) {
	s := newTestSession(t)
	s.OpenNew()

	if _, err := s.BeginSubmit(); !errors.Is(err, ErrSubmitDisabled) {
		t.Fatalf("submit on an invalid form: %v", err)
	}

	fillValid(t, s)
	if !s.SubmitEnabled() {
		t.Fatal("fully valid form not submittable")
	}

	sub, err := s.BeginSubmit()
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if !sub.IsNew() {
		t.Error("creating session should pack a new submission")
	}
	if s.Phase() != PhaseSubmitting {
		t.Error("submission lock not taken")
	}
	if err := s.Close(); !errors.Is(err, ErrSessionLocked) {
		t.Error("close succeeded while locked")
	}
	if _, err := s.BeginSubmit(); !errors.Is(err, ErrSessionLocked) {
		t.Error("double submit not rejected")
	}

	// Rejection reopens for another try.
	s.Resolve(false)
	if s.Phase() != PhaseOpen {
		t.Fatal("rejected submission did not reopen")
	}
	if !s.SubmitEnabled() {
		t.Error("reopened form should still be submittable")
	}

	// Acceptance closes everything down.
	if _, err := s.BeginSubmit(); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	s.Resolve(true)
	if s.Phase() != PhaseClosed || s.Form() != nil {
		t.Error("accepted submission did not close the session")
	}
}

func TestOpenExistingIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	row := models.TableRow{
		ID:       7,
		Target:   "123456789（troll）",
		Mode:     "kick",
		Reason:   "spam",
		GroupID:  "833970143（main hall）",
		Operator: "3875039665（curator）",
		Time:     "2025-06-01 10:00:00",
	}

	if !s.Open(row) {
		t.Fatal("Open failed")
	}
	if s.IsNew() || s.OpenID() != 7 {
		t.Fatal("editing session in the wrong state")
	}
	// A stored record passed validation once, so it opens submittable.
	if !s.SubmitEnabled() {
		t.Error("stored record should open with submit enabled")
	}

	if s.Open(row) {
		t.Error("re-opening the focused record should be a no-op")
	}

	other := row
	other.ID = 8
	if !s.Open(other) {
		t.Error("opening a different record should rebuild the session")
	}
	if s.OpenID() != 8 {
		t.Errorf("OpenID = %d, want 8", s.OpenID())
	}
}

func TestLegacyRowWithoutTargetStaysSubmittable(t *testing.T) {
	s := newTestSession(t)
	row := models.TableRow{
		ID:       11,
		Target:   "",
		Mode:     "warn",
		Reason:   "imported note",
		GroupID:  models.GroupNone,
		Operator: "3875039665（curator）",
		Time:     "2025-06-01 10:00:00",
	}
	s.Open(row)

	if s.Form().TargetRequired {
		t.Fatal("legacy row without a target should relax the requirement")
	}
	// Re-touching the empty target must not invalidate the form.
	if res := s.SetField(record.FieldTarget, ""); res.Verdict != VerdictValid {
		t.Fatalf("empty optional target rejected: %v", res.Message)
	}
	if res := s.SetField(record.FieldReason, "imported note, reviewed"); res.Verdict != VerdictValid {
		t.Fatalf("reason edit rejected: %v", res.Message)
	}
	if !s.SubmitEnabled() {
		t.Fatal("legacy edit should stay submittable")
	}

	sub, err := s.BeginSubmit()
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if sub.Target.ID != "" {
		t.Errorf("packed target = %q, want empty", sub.Target.ID)
	}
}

func TestRemoveLastImageBlocksSubmit(t *testing.T) {
	s := newTestSession(t)
	s.OpenNew()
	fillValid(t, s)

	s.RemoveImage(1)
	if len(s.Form().Images) != 0 {
		t.Fatal("image not removed")
	}
	if s.SubmitEnabled() {
		t.Error("empty evidence list should block submission")
	}
}
