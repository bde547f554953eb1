package callboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/order"
	"github.com/zulandar/trainops/internal/session"
	"gorm.io/gorm"
)

// industryPending is one row of the digest's pending-order breakdown.
type industryPending struct {
	IndustryID string
	Count      int
}

// BuildDigest renders the pre-session crew digest: the session number and
// the pending work waiting on the board.
func BuildDigest(db *gorm.DB) (string, error) {
	sess, err := session.Current(db)
	if err != nil {
		return "", err
	}

	var rows []industryPending
	if err := db.Model(&models.CarOrder{}).
		Select("industry_id, COUNT(*) as count").
		Where("status = ?", order.StatusPending).
		Group("industry_id").
		Order("industry_id ASC").
		Find(&rows).Error; err != nil {
		return "", fmt.Errorf("callboard: digest pending orders: %w", err)
	}

	var planned int64
	if err := db.Model(&models.Train{}).
		Where("session_number = ? AND status = ?", sess.CurrentSession, "planned").
		Count(&planned).Error; err != nil {
		return "", fmt.Errorf("callboard: digest planned trains: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Crew call: session %d*\n", sess.CurrentSession)
	if sess.Description != "" {
		fmt.Fprintf(&b, "%s\n", sess.Description)
	}
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	fmt.Fprintf(&b, "%d pending car orders, %d planned trains.\n", total, planned)
	for _, r := range rows {
		fmt.Fprintf(&b, "  • %s: %d\n", r.IndustryID, r.Count)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// ScheduleDigest posts the crew digest on a 5-field cron schedule until ctx
// is cancelled. Digest failures are reported on errs and do not stop the
// schedule.
func ScheduleDigest(ctx context.Context, db *gorm.DB, n *Notifier, expr string, errs chan<- error) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		text, err := BuildDigest(db)
		if err == nil {
			err = n.PostText(ctx, text)
		}
		if err != nil && errs != nil {
			select {
			case errs <- err:
			default:
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("callboard: parse digest schedule %q: %w", expr, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}
