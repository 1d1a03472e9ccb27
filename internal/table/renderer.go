package table

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/record"
	"github.com/curator/console/internal/refdata"
)

// TargetCell is the rendered target column: identity plus the risk badge
// and life-cycle indicator derived from the target's profile.
type TargetCell struct {
	QQ         string             `json:"qq"`
	Nickname   string             `json:"nickname,omitempty"`
	Raw        string             `json:"raw,omitempty"`
	Profile    models.RiskProfile `json:"profile"`
	Tier       models.RiskTier    `json:"tier"`
	TierIcon   string             `json:"tierIcon"`
	StateIcon  string             `json:"stateIcon"`
	StateColor string             `json:"stateColor"`
	Tooltip    string             `json:"tooltip"`
}

// OperatorCell is the rendered operator column with its identity badge.
type OperatorCell struct {
	QQ       string         `json:"qq"`
	Nickname string         `json:"nickname,omitempty"`
	Raw      string         `json:"raw,omitempty"`
	Badge    identity.Badge `json:"badge"`
}

// GroupCell is the rendered group column. None marks legacy rows without a
// group; Known marks groups found on the reference list.
type GroupCell struct {
	QQ       string `json:"qq,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Raw      string `json:"raw,omitempty"`
	None     bool   `json:"none,omitempty"`
	Known    bool   `json:"known,omitempty"`
}

// ImageLink points at one stored evidence image by display position.
type ImageLink struct {
	Position int    `json:"position"`
	Path     string `json:"path"`
}

// DisplayRow is the full projection of one record for the console table.
// Record carries the canonical row as opaque attached data so a click can
// hydrate an edit session without another fetch.
type DisplayRow struct {
	ID       int64           `json:"id"`
	Target   TargetCell      `json:"target"`
	Mode     string          `json:"mode"`
	Reason   string          `json:"reason"`
	Group    GroupCell       `json:"group"`
	Duration string          `json:"duration"`
	Operator OperatorCell    `json:"operator"`
	Time     string          `json:"time"`
	Images   []ImageLink     `json:"images,omitempty"`
	Record   models.TableRow `json:"record"`
}

// Renderer projects stored rows plus risk profiles into display rows.
type Renderer struct {
	ref      *refdata.Config
	resolver *identity.Resolver
}

func NewRenderer(ref *refdata.Config, resolver *identity.Resolver) *Renderer {
	return &Renderer{ref: ref, resolver: resolver}
}

// Render builds the display row for one record. A target missing from the
// profile map falls back to the default profile.
func (r *Renderer) Render(row models.TableRow, profiles map[string]models.RiskProfile) DisplayRow {
	d := DisplayRow{
		ID:       row.ID,
		Mode:     row.Mode,
		Reason:   row.Reason,
		Duration: HumanDuration(row.Duration),
		Time:     row.Time,
		Record:   row,
	}

	d.Target = r.RenderTarget(row.Target, profiles)
	d.Group = r.renderGroup(row.GroupID)
	d.Operator = r.renderOperator(row.Operator)

	for _, pos := range sortedPositions(row.ImagePaths) {
		d.Images = append(d.Images, ImageLink{Position: pos, Path: row.ImagePaths[pos]})
	}
	return d
}

// RenderTarget builds just the target cell; the reconciler reuses it when a
// risk delta arrives.
func (r *Renderer) RenderTarget(text string, profiles map[string]models.RiskProfile) TargetCell {
	qq, nickname, ok := record.SplitPaired(text)
	if !ok {
		return TargetCell{Raw: text}
	}

	profile, found := profiles[qq]
	if !found {
		profile = models.DefaultRiskProfile()
	}

	cell := TargetCell{
		QQ:       qq,
		Nickname: nickname,
		Profile:  profile,
		Tier:     profile.Tier(),
	}

	switch cell.Tier {
	case models.TierHigh:
		cell.TierIcon = "⚠️"
	case models.TierMedium:
		cell.TierIcon = "🔶"
	default:
		cell.TierIcon = "🔵"
	}

	switch profile.State {
	case models.StateKicked:
		cell.StateIcon, cell.StateColor = "🟡", "#FF9800"
	case models.StateBanned:
		cell.StateIcon, cell.StateColor = "🔴", "#F44336"
	default:
		cell.StateIcon, cell.StateColor = "🟢", "#4CAF50"
	}

	cell.Tooltip = fmt.Sprintf("QQ: %s\nrecords: %d\nrisk: %.1f (%s)\nstate: %s",
		text, profile.Count, profile.Risk, cell.Tier, profile.State)
	return cell
}

func (r *Renderer) renderGroup(text string) GroupCell {
	if text == "" || text == models.GroupNone {
		return GroupCell{None: true}
	}
	qq, nickname, ok := record.SplitPaired(text)
	if !ok {
		return GroupCell{Raw: text}
	}
	_, known := r.ref.GroupNickname(qq)
	return GroupCell{QQ: qq, Nickname: nickname, Known: known}
}

func (r *Renderer) renderOperator(text string) OperatorCell {
	qq, nickname, ok := record.SplitPaired(text)
	if !ok {
		return OperatorCell{Raw: text, Badge: identity.BadgeUnknown}
	}
	return OperatorCell{QQ: qq, Nickname: nickname, Badge: r.resolver.ResolveBadge(qq)}
}

// durationUnits order matters: the humanizer picks the largest unit that
// still yields at least one.
var durationUnits = []struct {
	seconds float64
	label   string
}{
	{2592000, "mo"},
	{604800, "wk"},
	{86400, "day"},
	{3600, "hr"},
	{60, "min"},
	{1, "sec"},
}

var unitLabels = map[byte]string{
	's': "sec", 'm': "min", 'h': "hr", 'd': "day", 'w': "wk", 'M': "mo",
}

// HumanDuration renders a duration literal for display. Bare second counts
// from legacy rows are converted to the best-fitting unit, kept to one
// decimal.
func HumanDuration(d string) string {
	if d == "" {
		return "n/a"
	}

	if len(d) >= 2 {
		if label, ok := unitLabels[d[len(d)-1]]; ok {
			if number, err := strconv.ParseFloat(d[:len(d)-1], 64); err == nil {
				return trimFloat(number) + " " + label
			}
		}
	}

	seconds, err := strconv.ParseFloat(d, 64)
	if err != nil {
		return d
	}
	for _, unit := range durationUnits {
		if seconds >= unit.seconds {
			value := math.Round(seconds/unit.seconds*10) / 10
			if value < 1 && unit.seconds > 1 {
				continue
			}
			return trimFloat(value) + " " + unit.label
		}
	}
	return trimFloat(seconds) + " sec"
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func sortedPositions(paths map[int]string) []int {
	positions := make([]int, 0, len(paths))
	for pos := range paths {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}
