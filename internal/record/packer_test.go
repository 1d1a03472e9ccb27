package record

import (
	"reflect"
	"testing"

	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/refdata"
)

func TestSplitPaired(t *testing.T) {
	tests := []struct {
		text     string
		id       string
		nickname string
		ok       bool
	}{
		{"12345（troll）", "12345", "troll", true},
		{"12345(troll)", "12345", "troll", true},
		{"12345", "12345", "", true},
		{"12345 （spaced）", "12345", "spaced", true},
		{"not a pair", "", "", false},
		{"（only nick）", "", "", false},
	}
	for _, tt := range tests {
		id, nickname, ok := SplitPaired(tt.text)
		if id != tt.id || nickname != tt.nickname || ok != tt.ok {
			t.Errorf("SplitPaired(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.text, id, nickname, ok, tt.id, tt.nickname, tt.ok)
		}
	}
}

func TestJoinPaired(t *testing.T) {
	if got := JoinPaired("12345", "troll"); got != "12345（troll）" {
		t.Errorf("JoinPaired = %q", got)
	}
	if got := JoinPaired("12345", ""); got != "12345" {
		t.Errorf("JoinPaired without nickname = %q", got)
	}
}

func TestRowRoundTrip(t *testing.T) {
	ref := refdata.Default()
	row := models.TableRow{
		ID:       5,
		Target:   "123456789（troll）",
		Mode:     "mute",
		Reason:   "spamming invite links",
		GroupID:  "833970143（main hall）",
		Duration: "30m",
		Operator: "3875039665（curator）",
		Time:     "2025-06-01 10:00:00",
		ImagePaths: map[int]string{
			1: "http://minio:9000/evidence/records/5/1_a.png",
			2: "http://minio:9000/evidence/records/5/2_b.png",
		},
	}

	got := ComposeRow(Pack(Unpack(row, ref)))
	if !reflect.DeepEqual(got, row) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, row)
	}
}

func TestRoundTripWithoutGroup(t *testing.T) {
	ref := refdata.Default()
	row := models.TableRow{
		ID:       3,
		Target:   "123456789",
		Mode:     "kick",
		Reason:   "spam",
		GroupID:  models.GroupNone,
		Operator: "3875039665（curator）",
		Time:     "2025-06-01 10:00:00",
	}

	f := Unpack(row, ref)
	if f.Group != "" || f.GroupRequired {
		t.Error("legacy row without a group should relax the requirement")
	}
	got := ComposeRow(Pack(f))
	if got.GroupID != models.GroupNone {
		t.Errorf("group placeholder lost, got %q", got.GroupID)
	}
}

func TestRoundTripWithoutTarget(t *testing.T) {
	ref := refdata.Default()
	row := models.TableRow{
		ID:       4,
		Target:   "",
		Mode:     "warn",
		Reason:   "imported note",
		GroupID:  models.GroupNone,
		Operator: "3875039665（curator）",
		Time:     "2025-06-01 10:00:00",
	}

	f := Unpack(row, ref)
	if f.TargetRequired {
		t.Error("legacy row without a target should relax the requirement")
	}
	got := ComposeRow(Pack(f))
	if !reflect.DeepEqual(got, row) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, row)
	}
}

func TestUnpackDurationFollowsMode(t *testing.T) {
	ref := refdata.Default()

	muted := models.TableRow{ID: 1, Mode: ref.MuteMode, Duration: "12h", Target: "12345"}
	f := Unpack(muted, ref)
	if f.Duration != "12h" || !f.DurationEnabled || !f.DurationRequired {
		t.Error("mute row should populate and enable the duration")
	}

	kicked := models.TableRow{ID: 2, Mode: "kick", Duration: "12h", Target: "12345"}
	f = Unpack(kicked, ref)
	if f.Duration != "" || f.DurationEnabled {
		t.Error("non-mute row should blank the duration")
	}
}

func TestUnpackTimeSeparator(t *testing.T) {
	ref := refdata.Default()
	f := Unpack(models.TableRow{ID: 1, Time: "2025-06-01 10:00:00"}, ref)
	if f.Time != "2025-06-01T10:00:00" {
		t.Errorf("surface time = %q", f.Time)
	}
}

func TestPackPartitionsImagesByOrigin(t *testing.T) {
	f := &Form{
		Images: []ImageItem{
			{Path: "http://minio:9000/evidence/records/5/1_a.png"},
			{DataURL: "data:image/png;base64,aaaa"},
			{Path: "http://minio:9000/evidence/records/5/3_c.png"},
		},
	}
	sub := Pack(f)
	if len(sub.Images.Stored) != 2 || len(sub.Images.Inline) != 1 {
		t.Fatalf("partition sizes = %d stored, %d inline", len(sub.Images.Stored), len(sub.Images.Inline))
	}
	// Keys are 1-based display positions.
	if sub.Images.Stored[1] == "" || sub.Images.Inline[2] == "" || sub.Images.Stored[3] == "" {
		t.Errorf("positions wrong: stored=%v inline=%v", sub.Images.Stored, sub.Images.Inline)
	}
}
