package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/record"
	"github.com/curator/console/internal/refdata"
)

// Verdict is the tri-state outcome of a field check. Skip means the check
// could not decide yet (a nickname fragment below the match threshold) and
// must not touch the aggregate state.
type Verdict int

const (
	VerdictInvalid Verdict = iota
	VerdictValid
	VerdictSkip
)

// Result carries a verdict and, for invalid ones, the operator-facing reason
// attached to the field.
type Result struct {
	Verdict Verdict
	Message string
}

func valid() Result             { return Result{Verdict: VerdictValid} }
func skip() Result              { return Result{Verdict: VerdictSkip} }
func invalid(msg string) Result { return Result{Verdict: VerdictInvalid, Message: msg} }

// CheckFunc validates one field of the edit surface. Checks may normalize
// the form (nickname autofill, mode canonicalization) as a side effect.
type CheckFunc func(f *record.Form) Result

// allowedImageTypes is the evidence format allow-list.
var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	"image/bmp":     true,
	"image/tiff":    true,
}

// ProposedFile is one file offered to the image intake.
type ProposedFile struct {
	Name        string
	ContentType string
	DataURL     string
}

// Checker owns the per-field validators. The registry is resolved once at
// construction, keyed by field name.
type Checker struct {
	ref      *refdata.Config
	resolver *identity.Resolver
	now      func() time.Time
	registry map[string]CheckFunc
}

// NewChecker builds the validator registry. now is injectable for tests and
// defaults to time.Now.
func NewChecker(ref *refdata.Config, resolver *identity.Resolver, now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	c := &Checker{ref: ref, resolver: resolver, now: now}
	c.registry = map[string]CheckFunc{
		record.FieldID:       c.checkID,
		record.FieldTarget:   c.checkTarget,
		record.FieldMode:     c.checkMode,
		record.FieldReason:   c.checkReason,
		record.FieldGroup:    c.checkGroup,
		record.FieldDuration: c.checkDuration,
		record.FieldOperator: c.checkOperator,
		record.FieldTime:     c.checkTime,
		record.FieldImage:    c.checkImages,

		// nickname companions reverse-resolve through the reference lists
		record.FieldGroup + "_nickname":    c.checkGroupNickname,
		record.FieldOperator + "_nickname": c.checkOperatorNickname,
	}
	return c
}

// Check runs the validator registered for field. Unregistered fields yield
// no verdict.
func (c *Checker) Check(field string, f *record.Form) Result {
	fn, ok := c.registry[field]
	if !ok {
		return skip()
	}
	return fn(f)
}

// ValidateQQ reports whether q has the shape of a QQ number: 5 to 11 digits.
// Reference-list membership plays no part here.
func ValidateQQ(q string) bool {
	if len(q) < 5 || len(q) > 11 {
		return false
	}
	for _, r := range q {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateDuration checks a duration literal against the per-unit bounds:
// s and m in [1,60], h in [1,720], d in [1,30], w in [1,4.28], M exactly 1.
// An empty value only passes when the field is not required.
func (c *Checker) ValidateDuration(value string, required bool) Result {
	msgs := c.ref.Messages
	if value == "" {
		if required {
			return invalid(msgs.DurationRequired)
		}
		return valid()
	}
	if !durationPattern.MatchString(value) {
		return invalid(msgs.DurationPattern)
	}

	unit := value[len(value)-1]
	number, _ := strconv.ParseFloat(value[:len(value)-1], 64)

	switch unit {
	case 's', 'm':
		if number < 1 || number > 60 {
			return invalid(msgs.DurationMinute)
		}
	case 'h':
		if number < 1 || number > 720 {
			return invalid(msgs.DurationHour)
		}
	case 'd':
		if number < 1 || number > 30 {
			return invalid(msgs.DurationDay)
		}
	case 'w':
		if number < 1 || number > 4.28 {
			return invalid(msgs.DurationWeek)
		}
	case 'M':
		if number != 1 {
			return invalid(msgs.DurationMonth)
		}
	}
	return valid()
}

// ScreenImages filters a batch of proposed files through the format
// allow-list. Accepted files join the form's preview list; rejected ones are
// named in a single aggregated notice. The batch passes when at least one
// file was accepted.
func (c *Checker) ScreenImages(f *record.Form, files []ProposedFile) (Result, string) {
	var rejected []string
	accepted := 0
	for _, file := range files {
		if !allowedImageTypes[file.ContentType] {
			rejected = append(rejected, file.Name)
			continue
		}
		f.Images = append(f.Images, record.ImageItem{DataURL: file.DataURL})
		accepted++
	}

	notice := ""
	if len(rejected) > 0 {
		notice = fmt.Sprintf("%s: %s", c.ref.Messages.ImageFormat, strings.Join(rejected, ", "))
	}
	if accepted == 0 {
		return invalid(c.ref.Messages.ImageRequired), notice
	}
	return valid(), notice
}

// --- registered field checks ---

var durationPattern = regexp.MustCompile(`^\d+(\.\d)?[smhdwM]$`)

func (c *Checker) checkID(f *record.Form) Result {
	// The id is assigned by the store and never edited.
	return valid()
}

func (c *Checker) checkTarget(f *record.Form) Result {
	if f.Target == "" {
		if f.TargetRequired {
			return invalid("")
		}
		return valid()
	}
	if !ValidateQQ(f.Target) {
		return invalid(c.ref.Messages.QQLength)
	}
	// Targets are rarely on any reference list; whatever nickname the
	// operator supplied rides along as-is.
	return valid()
}

func (c *Checker) checkGroup(f *record.Form) Result {
	return c.checkPaired(identity.KindGroup, &f.Group, &f.GroupNickname, f.GroupRequired)
}

func (c *Checker) checkOperator(f *record.Form) Result {
	return c.checkPaired(identity.KindOperator, &f.Operator, &f.OperatorNickname, true)
}

// checkPaired validates a QQ/nickname pair. A reference-list hit autofills
// the nickname; a miss with no user-supplied label is an identity-resolution
// failure.
func (c *Checker) checkPaired(kind identity.Kind, value, nickname *string, required bool) Result {
	if *value == "" {
		if required {
			return invalid("")
		}
		return valid()
	}
	if !ValidateQQ(*value) {
		return invalid(c.ref.Messages.QQLength)
	}
	if ref, ok := c.resolver.Nickname(kind, *value); ok {
		*nickname = ref
		return valid()
	}
	if *nickname == "" {
		return invalid(c.ref.Messages.QQUnknown)
	}
	return valid()
}

func (c *Checker) checkGroupNickname(f *record.Form) Result {
	id, canonical, ok := c.resolver.LookupFragment(identity.KindGroup, f.GroupNickname)
	if !ok {
		return skip()
	}
	f.Group = id
	f.GroupNickname = canonical
	return c.checkGroup(f)
}

func (c *Checker) checkOperatorNickname(f *record.Form) Result {
	id, canonical, ok := c.resolver.LookupFragment(identity.KindOperator, f.OperatorNickname)
	if !ok {
		return skip()
	}
	f.Operator = id
	f.OperatorNickname = canonical
	return c.checkOperator(f)
}

func (c *Checker) checkReason(f *record.Form) Result {
	reason := strings.TrimSpace(f.Reason)
	if reason == "" {
		return invalid(c.ref.Messages.ReasonNumeric)
	}
	if _, err := strconv.ParseFloat(reason, 64); err == nil {
		return invalid(c.ref.Messages.ReasonNumeric)
	}
	return valid()
}

func (c *Checker) checkMode(f *record.Form) Result {
	mode, ok := c.ref.ResolveMode(f.Mode)
	if f.Mode == "" || !ok {
		return invalid(c.ref.Messages.ModeUnknown)
	}
	f.Mode = mode
	return valid()
}

func (c *Checker) checkDuration(f *record.Form) Result {
	if !f.DurationEnabled {
		// Disabled and cleared while the mode is not mute.
		return valid()
	}
	return c.ValidateDuration(f.Duration, f.DurationRequired)
}

func (c *Checker) checkTime(f *record.Form) Result {
	msgs := c.ref.Messages
	floor := c.ref.FloorTime()

	t, err := parseSurfaceTime(f.Time)
	if err != nil {
		return invalid(fmt.Sprintf("%s %s", msgs.TimePast, c.ref.TimeFloor))
	}
	now := c.now()
	if t.After(now) {
		return invalid(fmt.Sprintf("%s %s", msgs.TimeFuture, now.Format(refdata.TimeLayout)))
	}
	if t.Before(floor) {
		return invalid(fmt.Sprintf("%s %s", msgs.TimePast, c.ref.TimeFloor))
	}
	return valid()
}

func (c *Checker) checkImages(f *record.Form) Result {
	if len(f.Images) == 0 && f.ImagesRequired {
		return invalid(c.ref.Messages.ImageRequired)
	}
	return valid()
}

// parseSurfaceTime accepts the edit surface's "T" separated form, with or
// without seconds.
func parseSurfaceTime(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04", s)
	}
	return t, err
}
