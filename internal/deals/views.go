package deals

import (
	"strings"

	"github.com/skewmarket/skewd/internal/domain"
)

// View names the named filters the API exposes.
type View string

const (
	ViewAll        View = ""
	ViewVerified   View = "verified"
	ViewMispricing View = "mispricing"
	ViewHot        View = "hot"
	ViewHighVolume View = "highvolume"
	ViewEnding     View = "ending"
)

// Filter selects a slice of the scored event list. Zero value passes
// everything through.
type Filter struct {
	View     View
	Category string
	Search   string
}

// Named-view thresholds.
const (
	verifiedConfidence  = 80
	mispricingMinScore  = 25
	mispricingMinConf   = 70
	hotMinScore         = 50
	hotMinConf          = 70
	highVolumeThreshold = 100_000
	endingMaxDays       = 7
)

// Apply filters the scored events, preserving their order. Events are
// expected to arrive already ranked by combined score.
func Apply(events []domain.ScoredEvent, f Filter) []domain.ScoredEvent {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []domain.ScoredEvent
	for i := range events {
		ev := &events[i]
		if search != "" && !matchesSearch(ev, search) {
			continue
		}
		if f.Category != "" && !hasCategory(ev, f.Category) {
			continue
		}
		if !matchesView(ev, f.View) {
			continue
		}
		out = append(out, *ev)
	}
	return out
}

func matchesSearch(ev *domain.ScoredEvent, search string) bool {
	text := ev.Title
	if text == "" && len(ev.Markets) > 0 {
		text = ev.Markets[0].Question
	}
	return strings.Contains(strings.ToLower(text), search)
}

func hasCategory(ev *domain.ScoredEvent, category string) bool {
	for _, c := range EventCategories(&ev.MarketEvent) {
		if c == category {
			return true
		}
	}
	return false
}

func matchesView(ev *domain.ScoredEvent, view View) bool {
	switch view {
	case ViewVerified:
		return ev.Confidence.ConfidencePct >= verifiedConfidence
	case ViewMispricing:
		return ev.Mispricing.Score >= mispricingMinScore && ev.Confidence.ConfidencePct >= mispricingMinConf
	case ViewHot:
		return ev.HotDeal.Score >= hotMinScore && ev.Confidence.ConfidencePct >= hotMinConf
	case ViewHighVolume:
		return ev.Volume > highVolumeThreshold
	case ViewEnding:
		return ev.DaysLeft != nil && *ev.DaysLeft > 0 && *ev.DaysLeft < endingMaxDays
	default:
		return true
	}
}
