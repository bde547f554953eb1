package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/session"
	"gorm.io/gorm"
)

// sseEvent is one event streamed to a dashboard client.
type sseEvent struct {
	Event string
	Data  interface{}
}

// sessionEvent reports a session number change (advance or rollback).
type sessionEvent struct {
	SessionNumber int `json:"sessionNumber"`
}

// trainEvent reports a train whose row changed since the last poll.
type trainEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ordersEvent reports order-pool churn since the last poll.
type ordersEvent struct {
	Changed int   `json:"changed"`
	Pending int64 `json:"pending"`
}

// watermarks tracks what a connected client has already been told, so each
// poll emits only changes. The engine's mutating commands run in their own
// processes, so polling the store is the only cross-process signal.
type watermarks struct {
	sessionNumber int
	trainsSeen    time.Time
	ordersSeen    time.Time
}

// prime sets the watermarks to the current state so only changes made
// after the client connected are reported.
func (w *watermarks) prime(db *gorm.DB) {
	if sess, err := session.Current(db); err == nil {
		w.sessionNumber = sess.CurrentSession
	}
	now := time.Now()
	w.trainsSeen = now
	w.ordersSeen = now
}

// diff queries for changes since the watermarks and advances them.
func (w *watermarks) diff(db *gorm.DB) []sseEvent {
	var events []sseEvent

	if sess, err := session.Current(db); err == nil && sess.CurrentSession != w.sessionNumber {
		w.sessionNumber = sess.CurrentSession
		events = append(events, sseEvent{Event: "session", Data: sessionEvent{SessionNumber: sess.CurrentSession}})
	}

	var trains []models.Train
	if err := db.Where("updated_at > ?", w.trainsSeen).
		Order("updated_at ASC, id ASC").Find(&trains).Error; err == nil {
		for _, t := range trains {
			events = append(events, sseEvent{Event: "train", Data: trainEvent{ID: t.ID, Name: t.Name, Status: t.Status}})
			if t.UpdatedAt.After(w.trainsSeen) {
				w.trainsSeen = t.UpdatedAt
			}
		}
	}

	var changed int64
	if err := db.Model(&models.CarOrder{}).
		Where("updated_at > ?", w.ordersSeen).Count(&changed).Error; err == nil && changed > 0 {
		var latest models.CarOrder
		if err := db.Model(&models.CarOrder{}).Where("updated_at > ?", w.ordersSeen).
			Order("updated_at DESC").First(&latest).Error; err == nil {
			w.ordersSeen = latest.UpdatedAt
		}
		var pending int64
		db.Model(&models.CarOrder{}).Where("status = ?", "pending").Count(&pending)
		events = append(events, sseEvent{Event: "orders", Data: ordersEvent{Changed: int(changed), Pending: pending}})
	}

	return events
}

// handleEvents streams store changes as server-sent events: session number
// changes, train row changes, and order-pool churn. The store is polled so
// updates made by other processes (the CLI's mutating commands) are seen.
func handleEvents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		var w watermarks
		w.prime(db)

		ctx := c.Request.Context()
		poll := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer poll.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-poll.C:
				for _, ev := range w.diff(db) {
					writeSSE(c.Writer, ev.Event, ev.Data)
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the stream.
func writeSSE(w io.Writer, event string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
}
