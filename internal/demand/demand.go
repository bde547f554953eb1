// Package demand evaluates which industry demand rules are due in a session.
package demand

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/zulandar/trainops/internal/models"
)

// Due reports whether a rule fires in session n. A rule with frequency f
// is due exactly when n is a multiple of f; frequency 1 fires every session.
func Due(rule models.DemandRule, n int) bool {
	if rule.Frequency < 1 {
		return false
	}
	return n%rule.Frequency == 0
}

// DueRules returns the subset of rules due in session n, in rule-list order.
func DueRules(rules []models.DemandRule, n int) []models.DemandRule {
	due := make([]models.DemandRule, 0, len(rules))
	for _, r := range rules {
		if Due(r, n) {
			due = append(due, r)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].Position < due[j].Position })
	return due
}

// CompatibleTypes decodes a rule's compatible-type JSON array.
func CompatibleTypes(rule models.DemandRule) ([]string, error) {
	if rule.CompatibleTypes == "" {
		return nil, nil
	}
	var types []string
	if err := json.Unmarshal([]byte(rule.CompatibleTypes), &types); err != nil {
		return nil, fmt.Errorf("demand: decode compatible types for rule %d: %w", rule.ID, err)
	}
	return types, nil
}
