package order

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zulandar/trainops/internal/demand"
	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenerateOpts holds parameters for order generation.
type GenerateOpts struct {
	SessionNumber int      // 0 = current session
	IndustryIDs   []string // empty = all industries
	Force         bool     // create even when a pending duplicate exists
}

// SkippedIndustry records an industry left out of a generation batch and why.
type SkippedIndustry struct {
	IndustryID string
	Reason     string
}

// GenerateResult summarizes one generation batch.
type GenerateResult struct {
	SessionNumber int
	Created       []models.CarOrder
	ByIndustry    map[string]int
	ByCarType     map[string]int
	Skipped       []SkippedIndustry
}

// GenerateID creates a unique order ID in ord-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("order: generate ID: %w", err)
	}
	return "ord-" + hex.EncodeToString(b)[:5], nil
}

// Generate evaluates due demand rules for the target industries and creates
// pending car orders for the session. Unless Force is set, a combination of
// (industry, car type, session) that already has a pending order is skipped,
// so re-running generation never floods the order pool. Industries that
// cannot be resolved are recorded in the result rather than aborting the
// batch. New orders are bulk-inserted in one statement.
func Generate(db *gorm.DB, opts GenerateOpts) (*GenerateResult, error) {
	n := opts.SessionNumber
	if n == 0 {
		sess, err := session.Current(db)
		if err != nil {
			return nil, err
		}
		n = sess.CurrentSession
	}
	if n < 1 {
		return nil, fmt.Errorf("order: session number must be at least 1, got %d", n)
	}

	industries, err := targetIndustries(db, opts.IndustryIDs)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{
		SessionNumber: n,
		ByIndustry:    make(map[string]int),
		ByCarType:     make(map[string]int),
	}

	for _, ind := range industries {
		if ind.missing {
			result.Skipped = append(result.Skipped, SkippedIndustry{IndustryID: ind.id, Reason: "industry not found"})
			continue
		}
		orders, reason, err := ordersForIndustry(db, ind.industry, n, opts.Force)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedIndustry{IndustryID: ind.id, Reason: reason})
			continue
		}
		for _, o := range orders {
			result.ByIndustry[o.IndustryID]++
			result.ByCarType[o.CarTypeID]++
		}
		result.Created = append(result.Created, orders...)
	}

	if len(result.Created) > 0 {
		if err := db.Omit(clause.Associations).Create(&result.Created).Error; err != nil {
			return nil, fmt.Errorf("order: bulk insert %d orders: %w", len(result.Created), err)
		}
	}
	return result, nil
}

// target pairs a requested industry ID with its loaded row, if any.
type target struct {
	id       string
	industry models.Industry
	missing  bool
}

// targetIndustries resolves the generation scope: the filtered subset when
// IDs are given, otherwise every on-layout non-yard industry. Requested IDs
// that do not resolve are returned as missing so the caller can record them.
func targetIndustries(db *gorm.DB, ids []string) ([]target, error) {
	if len(ids) == 0 {
		var industries []models.Industry
		if err := db.Preload("DemandRules").
			Where("is_yard = ? AND on_layout = ?", false, true).
			Order("id ASC").
			Find(&industries).Error; err != nil {
			return nil, fmt.Errorf("order: list industries: %w", err)
		}
		targets := make([]target, 0, len(industries))
		for _, ind := range industries {
			targets = append(targets, target{id: ind.ID, industry: ind})
		}
		return targets, nil
	}

	targets := make([]target, 0, len(ids))
	for _, id := range ids {
		var ind models.Industry
		err := db.Preload("DemandRules").Where("id = ?", id).First(&ind).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			targets = append(targets, target{id: id, missing: true})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("order: get industry %s: %w", id, err)
		}
		targets = append(targets, target{id: id, industry: ind})
	}
	return targets, nil
}

// ordersForIndustry builds the new pending orders one industry contributes
// to session n. A non-empty reason means the whole industry was skipped.
func ordersForIndustry(db *gorm.DB, ind models.Industry, n int, force bool) ([]models.CarOrder, string, error) {
	var orders []models.CarOrder
	for _, rule := range demand.DueRules(ind.DemandRules, n) {
		types, err := demand.CompatibleTypes(rule)
		if err != nil {
			return nil, fmt.Sprintf("demand rule %d: %v", rule.ID, err), nil
		}
		if len(types) == 0 {
			return nil, fmt.Sprintf("demand rule %d has no usable car types", rule.ID), nil
		}
		// Orders are written against the rule's first compatible type so
		// identical inputs always produce identical orders.
		carType := types[0]

		var typeCount int64
		if err := db.Model(&models.CarType{}).Where("id = ?", carType).Count(&typeCount).Error; err != nil {
			return nil, "", fmt.Errorf("order: check car type %s: %w", carType, err)
		}
		if typeCount == 0 {
			return nil, fmt.Sprintf("car type %s not found", carType), nil
		}

		if !force {
			var pending int64
			if err := db.Model(&models.CarOrder{}).
				Where("industry_id = ? AND car_type_id = ? AND session_number = ? AND status = ?",
					ind.ID, carType, n, StatusPending).
				Count(&pending).Error; err != nil {
				return nil, "", fmt.Errorf("order: check pending duplicates for %s: %w", ind.ID, err)
			}
			if pending > 0 {
				continue
			}
		}

		for i := 0; i < rule.CarsPerSession; i++ {
			id, err := GenerateID()
			if err != nil {
				return nil, "", err
			}
			orders = append(orders, models.CarOrder{
				ID:            id,
				IndustryID:    ind.ID,
				CarTypeID:     carType,
				CommodityID:   rule.CommodityID,
				Direction:     rule.Direction,
				SessionNumber: n,
				Status:        StatusPending,
			})
		}
	}
	return orders, "", nil
}
