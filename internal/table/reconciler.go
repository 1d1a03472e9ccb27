package table

import (
	"github.com/curator/console/internal/models"
)

// Table owns the rendered rows and the risk-profile cache backing them.
// Risk deltas patch rendered rows in place; the table is never re-rendered
// wholesale for a delta.
type Table struct {
	renderer *Renderer
	rows     []DisplayRow
	profiles map[string]models.RiskProfile
}

func NewTable(renderer *Renderer) *Table {
	return &Table{
		renderer: renderer,
		profiles: make(map[string]models.RiskProfile),
	}
}

// SetPage replaces the whole table with a freshly listed page and its
// profile map (the one full-render path).
func (t *Table) SetPage(rows []models.TableRow, profiles map[string]models.RiskProfile) {
	t.profiles = make(map[string]models.RiskProfile, len(profiles))
	for qq, p := range profiles {
		t.profiles[qq] = p
	}
	t.rows = make([]DisplayRow, 0, len(rows))
	for _, row := range rows {
		t.rows = append(t.rows, t.renderer.Render(row, t.profiles))
	}
}

// Rows exposes the rendered rows in display order.
func (t *Table) Rows() []DisplayRow {
	return t.rows
}

// Prepend renders a newly created record at the top of the table.
func (t *Table) Prepend(row models.TableRow) DisplayRow {
	rendered := t.renderer.Render(row, t.profiles)
	t.rows = append([]DisplayRow{rendered}, t.rows...)
	return rendered
}

// Replace swaps the rendered row with the same id for a fresh render of the
// edited record.
func (t *Table) Replace(row models.TableRow) (DisplayRow, bool) {
	for i := range t.rows {
		if t.rows[i].ID == row.ID {
			t.rows[i] = t.renderer.Render(row, t.profiles)
			return t.rows[i], true
		}
	}
	return DisplayRow{}, false
}

// Remove drops the rendered row with the given id.
func (t *Table) Remove(id int64) bool {
	for i := range t.rows {
		if t.rows[i].ID == id {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			return true
		}
	}
	return false
}

// ApplyRiskDelta regenerates the target cell of every rendered row whose
// target is a key of the delta, leaving all other rows and cells untouched.
// The profile cache is refreshed from the delta itself, so applying the same
// delta twice is a no-op the second time.
func (t *Table) ApplyRiskDelta(delta models.RiskDelta) []int64 {
	if len(delta) == 0 {
		return nil
	}
	for qq, profile := range delta {
		t.profiles[qq] = profile
	}

	var patched []int64
	for i := range t.rows {
		qq := t.rows[i].Target.QQ
		if qq == "" {
			continue
		}
		if _, hit := delta[qq]; !hit {
			continue
		}
		t.rows[i].Target = t.renderer.RenderTarget(t.rows[i].Record.Target, t.profiles)
		patched = append(patched, t.rows[i].ID)
	}
	return patched
}
