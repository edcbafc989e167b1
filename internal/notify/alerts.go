package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/skewmarket/skewd/internal/domain"
)

// Event types the daemon emits. The notifier's allow list is configured with
// these names.
const (
	EventEdgeDetected = "edge_detected"
	EventLagSignal    = "lag_signal"
	EventFeedDown     = "feed_down"
)

// Alerts formats detections into operator notifications. Lag alerts are
// deduplicated per event so a persistent lag does not page on every scan.
type Alerts struct {
	notifier *Notifier

	mu      sync.Mutex
	lagSeen map[string]bool
}

// NewAlerts wraps a Notifier with the daemon's alert formats.
func NewAlerts(n *Notifier) *Alerts {
	return &Alerts{
		notifier: n,
		lagSeen:  make(map[string]bool),
	}
}

// EdgeDetected announces a newly tracked ledger entry.
func (a *Alerts) EdgeDetected(ctx context.Context, entry domain.AlphaEntry) {
	title := fmt.Sprintf("Edge detected: %.1f%%", entry.EdgePercent)
	message := fmt.Sprintf("%s\nType: %s (%s)\nYES %.2f / NO %.2f",
		entry.EventTitle, entry.EdgeType, entry.Mode, entry.YesPrice, entry.NoPrice)
	a.notifier.Notify(ctx, EventEdgeDetected, title, message)
}

// LagSignal announces a high-confidence exchange lag. Lower grades and
// repeats for the same event are dropped.
func (a *Alerts) LagSignal(ctx context.Context, sig domain.LagSignal) {
	if sig.Confidence != domain.LagConfidenceHigh || sig.Signal == "" {
		return
	}

	a.mu.Lock()
	if a.lagSeen[sig.EventID] {
		a.mu.Unlock()
		return
	}
	a.lagSeen[sig.EventID] = true
	a.mu.Unlock()

	title := fmt.Sprintf("%s lag: %s", sig.Symbol, sig.Signal)
	message := fmt.Sprintf("%s\nSpot %.0f vs threshold %.0f (%s)\nImplied %.2f, quoted %.2f (lag %.1f%%)",
		sig.EventTitle, sig.SpotPrice, sig.Threshold, sig.Direction,
		sig.ImpliedYes, sig.ActualYes, sig.LagPct)
	a.notifier.Notify(ctx, EventLagSignal, title, message)
}

// FeedDown announces a feed that exhausted its reconnect budget.
func (a *Alerts) FeedDown(ctx context.Context, feed string) {
	title := fmt.Sprintf("Feed down: %s", feed)
	a.notifier.Notify(ctx, EventFeedDown, title, "Reconnect budget exhausted, restart required.")
}
