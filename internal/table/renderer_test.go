package table

import (
	"strings"
	"testing"

	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/refdata"
)

func newTestRenderer() *Renderer {
	ref := refdata.Default()
	return NewRenderer(ref, identity.NewResolver(ref))
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "n/a"},
		{"30m", "30 min"},
		{"12h", "12 hr"},
		{"2d", "2 day"},
		{"1w", "1 wk"},
		{"1M", "1 mo"},
		{"2.5d", "2.5 day"},
		{"45", "45 sec"},
		{"90", "1.5 min"},
		{"3600", "1 hr"},
		{"86400", "1 day"},
		{"nonsense", "nonsense"},
	}
	for _, tt := range tests {
		if got := HumanDuration(tt.in); got != tt.want {
			t.Errorf("HumanDuration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTargetTiers(t *testing.T) {
	r := newTestRenderer()
	profiles := map[string]models.RiskProfile{
		"111111": {Count: 5, Risk: 2.5, State: models.StateBanned},
		"222222": {Count: 2, Risk: 1.5, State: models.StateKicked},
		"333333": {Count: 1, Risk: 0.3, State: models.StateAlive},
	}

	tests := []struct {
		qq         string
		tier       models.RiskTier
		tierIcon   string
		stateIcon  string
		stateColor string
	}{
		{"111111", models.TierHigh, "⚠️", "🔴", "#F44336"},
		{"222222", models.TierMedium, "🔶", "🟡", "#FF9800"},
		{"333333", models.TierLow, "🔵", "🟢", "#4CAF50"},
	}
	for _, tt := range tests {
		cell := r.RenderTarget(tt.qq+"（x）", profiles)
		if cell.Tier != tt.tier || cell.TierIcon != tt.tierIcon {
			t.Errorf("%s tier = %s %s", tt.qq, cell.Tier, cell.TierIcon)
		}
		if cell.StateIcon != tt.stateIcon || cell.StateColor != tt.stateColor {
			t.Errorf("%s state = %s %s", tt.qq, cell.StateIcon, cell.StateColor)
		}
	}
}

func TestRenderTargetFallbacks(t *testing.T) {
	r := newTestRenderer()

	// No history renders as the default profile.
	cell := r.RenderTarget("123456789（troll）", nil)
	if cell.Profile != models.DefaultRiskProfile() {
		t.Errorf("profile fallback = %+v", cell.Profile)
	}
	if cell.Tier != models.TierLow {
		t.Errorf("default tier = %s", cell.Tier)
	}
	if !strings.Contains(cell.Tooltip, "123456789") {
		t.Errorf("tooltip missing the identity: %q", cell.Tooltip)
	}

	// Text outside the canonical shape stays raw.
	cell = r.RenderTarget("corrupt entry", nil)
	if cell.Raw != "corrupt entry" || cell.QQ != "" {
		t.Errorf("raw fallback = %+v", cell)
	}
}

func TestRenderRow(t *testing.T) {
	r := newTestRenderer()
	row := models.TableRow{
		ID:       9,
		Target:   "123456789（troll）",
		Mode:     "mute",
		Reason:   "spam",
		GroupID:  "833970143（main hall）",
		Duration: "30m",
		Operator: "3875039665（curator）",
		Time:     "2025-06-01 10:00:00",
		ImagePaths: map[int]string{
			2: "http://minio:9000/evidence/records/9/2_b.png",
			1: "http://minio:9000/evidence/records/9/1_a.png",
		},
	}

	d := r.Render(row, nil)
	if d.Duration != "30 min" {
		t.Errorf("duration = %q", d.Duration)
	}
	if d.Operator.Badge != identity.BadgeOwner {
		t.Errorf("operator badge = %s", d.Operator.Badge)
	}
	if !d.Group.Known || d.Group.QQ != "833970143" {
		t.Errorf("group cell = %+v", d.Group)
	}
	if len(d.Images) != 2 || d.Images[0].Position != 1 || d.Images[1].Position != 2 {
		t.Errorf("images not in position order: %+v", d.Images)
	}
	// The canonical row rides along for edit-session hydration.
	if d.Record.ID != 9 || d.Record.Target != row.Target {
		t.Error("attached record missing")
	}
}

func TestRenderGroupNone(t *testing.T) {
	r := newTestRenderer()
	d := r.Render(models.TableRow{ID: 1, GroupID: models.GroupNone, Target: "12345"}, nil)
	if !d.Group.None {
		t.Errorf("group cell = %+v", d.Group)
	}
	d = r.Render(models.TableRow{ID: 2, GroupID: "", Target: "12345"}, nil)
	if !d.Group.None {
		t.Error("empty group should render as none")
	}
}
