package engine

import "testing"

func TestTrackerFastDisable(t *testing.T) {
	tr := NewTracker()
	tr.Seed("a", FieldValid)
	tr.Seed("b", FieldValid)
	if !tr.SubmitEnabled() {
		t.Fatal("all-valid tracker should enable submit")
	}

	tr.Apply("a", invalid("nope"))
	if tr.SubmitEnabled() {
		t.Error("invalid verdict did not disable immediately")
	}
	if tr.State("a") != FieldInvalid {
		t.Error("state not recorded")
	}

	tr.Apply("a", valid())
	if !tr.SubmitEnabled() {
		t.Error("valid verdict did not re-aggregate")
	}
}

func TestTrackerSkipLeavesStateAlone(t *testing.T) {
	tr := NewTracker()
	tr.Seed("a", FieldInvalid)
	tr.Apply("a", skip())
	if tr.State("a") != FieldInvalid {
		t.Error("skip overwrote the tracked state")
	}
	if tr.SubmitEnabled() {
		t.Error("skip re-enabled submission")
	}
}

func TestTrackerResetIsVacuouslyEnabled(t *testing.T) {
	tr := NewTracker()
	tr.Seed("a", FieldInvalid)
	tr.Reset()
	if !tr.SubmitEnabled() {
		t.Error("empty tracker should enable submit")
	}
	if tr.State("a") != FieldUnchecked {
		t.Error("reset did not clear the map")
	}
}
