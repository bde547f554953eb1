package demand

import (
	"testing"

	"github.com/zulandar/trainops/internal/models"
)

func TestDue(t *testing.T) {
	tests := []struct {
		frequency int
		session   int
		want      bool
	}{
		{1, 1, true},
		{1, 2, true},
		{1, 17, true},
		{2, 1, false},
		{2, 2, true},
		{2, 3, false},
		{2, 4, true},
		{3, 3, true},
		{3, 5, false},
		{3, 9, true},
		{5, 10, true},
		{5, 11, false},

		// Malformed frequency never fires.
		{0, 1, false},
		{-1, 4, false},
	}
	for _, tt := range tests {
		rule := models.DemandRule{Frequency: tt.frequency}
		if got := Due(rule, tt.session); got != tt.want {
			t.Errorf("Due(frequency=%d, n=%d) = %v, want %v", tt.frequency, tt.session, got, tt.want)
		}
	}
}

func TestDueRules_FiltersAndOrders(t *testing.T) {
	rules := []models.DemandRule{
		{ID: 1, Position: 1, Frequency: 2, CommodityID: "lumber"},
		{ID: 2, Position: 0, Frequency: 1, CommodityID: "grain"},
		{ID: 3, Position: 2, Frequency: 3, CommodityID: "coal"},
	}

	due := DueRules(rules, 2)
	if len(due) != 2 {
		t.Fatalf("DueRules(n=2) returned %d rules, want 2", len(due))
	}
	if due[0].CommodityID != "grain" || due[1].CommodityID != "lumber" {
		t.Errorf("DueRules(n=2) order = [%s %s], want [grain lumber]", due[0].CommodityID, due[1].CommodityID)
	}

	due = DueRules(rules, 6)
	if len(due) != 3 {
		t.Errorf("DueRules(n=6) returned %d rules, want 3", len(due))
	}

	due = DueRules(rules, 1)
	if len(due) != 1 || due[0].CommodityID != "grain" {
		t.Errorf("DueRules(n=1) = %v, want only grain", due)
	}
}

func TestDueRules_Empty(t *testing.T) {
	if got := DueRules(nil, 1); len(got) != 0 {
		t.Errorf("DueRules(nil) = %v, want empty", got)
	}
}

func TestCompatibleTypes(t *testing.T) {
	rule := models.DemandRule{CompatibleTypes: `["XM","FM"]`}
	types, err := CompatibleTypes(rule)
	if err != nil {
		t.Fatalf("CompatibleTypes() error: %v", err)
	}
	if len(types) != 2 || types[0] != "XM" || types[1] != "FM" {
		t.Errorf("CompatibleTypes() = %v, want [XM FM]", types)
	}
}

func TestCompatibleTypes_Empty(t *testing.T) {
	types, err := CompatibleTypes(models.DemandRule{})
	if err != nil {
		t.Fatalf("CompatibleTypes() error: %v", err)
	}
	if types != nil {
		t.Errorf("CompatibleTypes() = %v, want nil", types)
	}
}

func TestCompatibleTypes_Malformed(t *testing.T) {
	rule := models.DemandRule{ID: 7, CompatibleTypes: `{not json`}
	if _, err := CompatibleTypes(rule); err == nil {
		t.Error("CompatibleTypes() on malformed JSON: expected error, got nil")
	}
}
