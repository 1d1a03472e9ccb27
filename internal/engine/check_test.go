package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/record"
	"github.com/curator/console/internal/refdata"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestChecker(t *testing.T) *Checker {
	t.Helper()
	ref := refdata.Default()
	return NewChecker(ref, identity.NewResolver(ref), fixedNow)
}

func TestValidateQQ(t *testing.T) {
	tests := []struct {
		qq   string
		want bool
	}{
		{"12345", true},
		{"12345678901", true},
		{"1234", false},
		{"123456789012", false},
		{"12a45", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateQQ(tt.qq); got != tt.want {
			t.Errorf("ValidateQQ(%q) = %v, want %v", tt.qq, got, tt.want)
		}
	}
}

func TestValidateDuration(t *testing.T) {
	c := newTestChecker(t)

	tests := []struct {
		name     string
		value    string
		required bool
		want     Verdict
	}{
		{"empty optional", "", false, VerdictValid},
		{"empty required", "", true, VerdictInvalid},
		{"minutes max", "60m", true, VerdictValid},
		{"minutes over", "61m", true, VerdictInvalid},
		{"minutes zero", "0m", true, VerdictInvalid},
		{"seconds", "45s", true, VerdictValid},
		{"hours max", "720h", true, VerdictValid},
		{"hours over", "721h", true, VerdictInvalid},
		{"days max", "30d", true, VerdictValid},
		{"days over", "31d", true, VerdictInvalid},
		{"weeks fractional", "4.2w", true, VerdictValid},
		{"weeks over", "4.3w", true, VerdictInvalid},
		{"one month", "1M", true, VerdictValid},
		{"two months", "2M", true, VerdictInvalid},
		{"no unit", "30", true, VerdictInvalid},
		{"unknown unit", "10x", true, VerdictInvalid},
		{"two decimals", "1.25h", true, VerdictInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.ValidateDuration(tt.value, tt.required)
			if res.Verdict != tt.want {
				t.Errorf("ValidateDuration(%q, %v) = %v, want %v", tt.value, tt.required, res.Verdict, tt.want)
			}
			if res.Verdict == VerdictInvalid && res.Message == "" {
				t.Errorf("ValidateDuration(%q, %v) invalid without a message", tt.value, tt.required)
			}
		})
	}
}

func TestCheckReason(t *testing.T) {
	c := newTestChecker(t)

	tests := []struct {
		reason string
		want   Verdict
	}{
		{"spamming invite links", VerdictValid},
		{"", VerdictInvalid},
		{"   ", VerdictInvalid},
		{"123", VerdictInvalid},
		{"3.5", VerdictInvalid},
		{"rule 3 violation", VerdictValid},
	}
	for _, tt := range tests {
		f := &record.Form{Reason: tt.reason}
		if res := c.Check(record.FieldReason, f); res.Verdict != tt.want {
			t.Errorf("reason %q = %v, want %v", tt.reason, res.Verdict, tt.want)
		}
	}
}

func TestCheckMode(t *testing.T) {
	c := newTestChecker(t)

	f := &record.Form{Mode: "silence"}
	if res := c.Check(record.FieldMode, f); res.Verdict != VerdictValid {
		t.Fatalf("alias mode rejected: %v", res.Message)
	}
	if f.Mode != "mute" {
		t.Errorf("mode not canonicalized, got %q", f.Mode)
	}

	f = &record.Form{Mode: "obliterate"}
	if res := c.Check(record.FieldMode, f); res.Verdict != VerdictInvalid {
		t.Error("unknown mode accepted")
	}
	f = &record.Form{}
	if res := c.Check(record.FieldMode, f); res.Verdict != VerdictInvalid {
		t.Error("empty mode accepted")
	}
}

func TestCheckTime(t *testing.T) {
	c := newTestChecker(t)

	tests := []struct {
		name string
		time string
		want Verdict
	}{
		{"within window", "2025-06-01T10:00:00", VerdictValid},
		{"without seconds", "2025-06-01T10:00", VerdictValid},
		{"future", "2030-01-01T00:00:00", VerdictInvalid},
		{"before the floor", "2025-01-01T00:00:00", VerdictInvalid},
		{"garbage", "yesterday", VerdictInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &record.Form{Time: tt.time}
			if res := c.Check(record.FieldTime, f); res.Verdict != tt.want {
				t.Errorf("time %q = %v, want %v (%s)", tt.time, res.Verdict, tt.want, res.Message)
			}
		})
	}
}

func TestCheckOperatorAutofill(t *testing.T) {
	c := newTestChecker(t)

	f := &record.Form{Operator: "3875039665"}
	if res := c.Check(record.FieldOperator, f); res.Verdict != VerdictValid {
		t.Fatalf("listed operator rejected: %v", res.Message)
	}
	if f.OperatorNickname != "curator" {
		t.Errorf("nickname not autofilled, got %q", f.OperatorNickname)
	}

	// Off-list id without a nickname is unresolvable.
	f = &record.Form{Operator: "55555555"}
	if res := c.Check(record.FieldOperator, f); res.Verdict != VerdictInvalid {
		t.Error("off-list operator without nickname accepted")
	}

	// A user-supplied nickname resolves it.
	f = &record.Form{Operator: "55555555", OperatorNickname: "guest admin"}
	if res := c.Check(record.FieldOperator, f); res.Verdict != VerdictValid {
		t.Errorf("off-list operator with nickname rejected: %v", res.Message)
	}

	f = &record.Form{Operator: "123"}
	if res := c.Check(record.FieldOperator, f); res.Verdict != VerdictInvalid {
		t.Error("short id accepted")
	}
}

func TestCheckGroupOptional(t *testing.T) {
	c := newTestChecker(t)

	// Legacy rows relax the group requirement.
	f := &record.Form{GroupRequired: false}
	if res := c.Check(record.FieldGroup, f); res.Verdict != VerdictValid {
		t.Error("optional empty group rejected")
	}
	f = &record.Form{GroupRequired: true}
	if res := c.Check(record.FieldGroup, f); res.Verdict != VerdictInvalid {
		t.Error("required empty group accepted")
	}
}

func TestCheckNicknameFragment(t *testing.T) {
	c := newTestChecker(t)

	// A resolvable fragment fills both halves of the pair.
	f := &record.Form{GroupNickname: "main"}
	res := c.Check(record.FieldGroup+"_nickname", f)
	if res.Verdict != VerdictValid {
		t.Fatalf("fragment lookup failed: %v", res.Message)
	}
	if f.Group != "833970143" || f.GroupNickname != "main hall" {
		t.Errorf("pair not filled, got %q / %q", f.Group, f.GroupNickname)
	}

	// Below the match threshold there is no verdict at all.
	f = &record.Form{GroupNickname: "m"}
	if res := c.Check(record.FieldGroup+"_nickname", f); res.Verdict != VerdictSkip {
		t.Errorf("short fragment yielded a verdict: %v", res.Verdict)
	}
}

func TestScreenImages(t *testing.T) {
	c := newTestChecker(t)

	f := &record.Form{}
	res, notice := c.ScreenImages(f, []ProposedFile{
		{Name: "shot.png", ContentType: "image/png", DataURL: "data:image/png;base64,aaaa"},
		{Name: "notes.txt", ContentType: "text/plain", DataURL: "data:text/plain;base64,bbbb"},
	})
	if res.Verdict != VerdictValid {
		t.Fatalf("batch with one good file rejected: %v", res.Message)
	}
	if len(f.Images) != 1 {
		t.Fatalf("expected 1 accepted image, got %d", len(f.Images))
	}
	if !strings.Contains(notice, "notes.txt") {
		t.Errorf("rejection notice does not name the file: %q", notice)
	}

	f = &record.Form{}
	res, notice = c.ScreenImages(f, []ProposedFile{
		{Name: "a.txt", ContentType: "text/plain"},
		{Name: "b.exe", ContentType: "application/octet-stream"},
	})
	if res.Verdict != VerdictInvalid {
		t.Error("all-rejected batch passed")
	}
	if !strings.Contains(notice, "a.txt") || !strings.Contains(notice, "b.exe") {
		t.Errorf("notice should aggregate every rejected name: %q", notice)
	}
}
