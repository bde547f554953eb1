package callboard

import (
	"fmt"
	"strings"
)

// severityMarker maps a severity to a message prefix.
func severityMarker(severity string) string {
	switch severity {
	case "success":
		return "✅"
	case "warning":
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// FormatEvent renders an event as a chat message.
func FormatEvent(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*", severityMarker(ev.Severity), ev.Title)
	if ev.Detail != "" {
		b.WriteString("\n")
		b.WriteString(ev.Detail)
	}
	return b.String()
}

// SessionAdvanced builds the event posted when a new session opens.
func SessionAdvanced(previous, current, trainsCleared int) Event {
	return Event{
		Kind:     "session_advanced",
		Severity: "success",
		Title:    fmt.Sprintf("Session %d is open", current),
		Detail:   fmt.Sprintf("Session %d closed out; %d trains cleared from the board.", previous, trainsCleared),
	}
}

// SessionRolledBack builds the event posted after a rollback.
func SessionRolledBack(restored int) Event {
	return Event{
		Kind:     "session_rolled_back",
		Severity: "warning",
		Title:    fmt.Sprintf("Rolled back to session %d", restored),
		Detail:   "Car locations, trains, and orders were restored from the snapshot.",
	}
}

// TrainStarted builds the event posted when a switch list is generated.
func TrainStarted(name string, pickups, setouts int) Event {
	return Event{
		Kind:     "train_started",
		Severity: "info",
		Title:    fmt.Sprintf("Train %q is underway", name),
		Detail:   fmt.Sprintf("Switch list: %d pickups, %d setouts.", pickups, setouts),
	}
}

// TrainCompleted builds the event posted when a train ties up.
func TrainCompleted(name string, carsMoved int) Event {
	return Event{
		Kind:     "train_completed",
		Severity: "success",
		Title:    fmt.Sprintf("Train %q tied up", name),
		Detail:   fmt.Sprintf("%d cars spotted at their destinations.", carsMoved),
	}
}

// TrainCancelled builds the event posted when a train is annulled.
func TrainCancelled(name string, ordersReleased int) Event {
	return Event{
		Kind:     "train_cancelled",
		Severity: "warning",
		Title:    fmt.Sprintf("Train %q annulled", name),
		Detail:   fmt.Sprintf("%d orders returned to the pending pool.", ordersReleased),
	}
}

// OrdersGenerated builds the event posted after an order-generation batch.
func OrdersGenerated(session, created, skipped int) Event {
	detail := fmt.Sprintf("%d new car orders for session %d.", created, session)
	if skipped > 0 {
		detail += fmt.Sprintf(" %d industries skipped.", skipped)
	}
	return Event{
		Kind:     "orders_generated",
		Severity: "info",
		Title:    "Car orders generated",
		Detail:   detail,
	}
}
