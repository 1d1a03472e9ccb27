package table

import (
	"reflect"
	"testing"

	"github.com/curator/console/internal/models"
)

func newTestTable() *Table {
	return NewTable(newTestRenderer())
}

func pageRows() []models.TableRow {
	return []models.TableRow{
		{ID: 2, Target: "112233（troll）", Mode: "kick", Time: "2025-06-02 10:00:00"},
		{ID: 1, Target: "998877（other）", Mode: "warn", Time: "2025-06-01 10:00:00"},
	}
}

func TestApplyRiskDeltaPatchesMatchingRowsOnly(t *testing.T) {
	tbl := newTestTable()
	tbl.SetPage(pageRows(), nil)

	before := tbl.Rows()[1].Target

	patched := tbl.ApplyRiskDelta(models.RiskDelta{
		"112233": {Count: 3, Risk: 2.5, State: models.StateKicked},
	})
	if !reflect.DeepEqual(patched, []int64{2}) {
		t.Fatalf("patched ids = %v", patched)
	}

	got := tbl.Rows()[0].Target
	if got.Tier != models.TierHigh || got.StateIcon != "🟡" {
		t.Errorf("patched cell = tier %s, state %s", got.Tier, got.StateIcon)
	}
	if !reflect.DeepEqual(tbl.Rows()[1].Target, before) {
		t.Error("unrelated row was touched")
	}
}

func TestApplyRiskDeltaIsIdempotent(t *testing.T) {
	tbl := newTestTable()
	tbl.SetPage(pageRows(), nil)

	delta := models.RiskDelta{"112233": {Count: 3, Risk: 2.5, State: models.StateKicked}}
	tbl.ApplyRiskDelta(delta)
	first := tbl.Rows()[0].Target
	tbl.ApplyRiskDelta(delta)
	if !reflect.DeepEqual(tbl.Rows()[0].Target, first) {
		t.Error("second application changed the cell")
	}
}

func TestApplyRiskDeltaEmpty(t *testing.T) {
	tbl := newTestTable()
	tbl.SetPage(pageRows(), nil)
	if patched := tbl.ApplyRiskDelta(nil); patched != nil {
		t.Errorf("empty delta patched %v", patched)
	}
}

func TestPrependReplaceRemove(t *testing.T) {
	tbl := newTestTable()
	tbl.SetPage(pageRows(), nil)

	created := models.TableRow{ID: 3, Target: "445566（new）", Mode: "ban", Time: "2025-06-03 10:00:00"}
	rendered := tbl.Prepend(created)
	if tbl.Rows()[0].ID != 3 || rendered.ID != 3 {
		t.Fatal("prepend did not land on top")
	}

	edited := created
	edited.Reason = "updated"
	if _, ok := tbl.Replace(edited); !ok {
		t.Fatal("replace missed the row")
	}
	if tbl.Rows()[0].Reason != "updated" {
		t.Error("replace did not re-render")
	}
	if _, ok := tbl.Replace(models.TableRow{ID: 99}); ok {
		t.Error("replace matched a missing id")
	}

	if !tbl.Remove(3) {
		t.Fatal("remove missed the row")
	}
	if len(tbl.Rows()) != 2 {
		t.Errorf("row count after remove = %d", len(tbl.Rows()))
	}
	if tbl.Remove(3) {
		t.Error("second remove reported success")
	}
}
