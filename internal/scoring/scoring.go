package scoring

import (
	"time"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
)

// Score computes every derived metric for one event and returns the scored
// copy. Sorting key: confidence weighs double, mispricing 1.5x, hot-deal 1x.
func Score(event domain.MarketEvent, p Params, now time.Time) domain.ScoredEvent {
	scored := domain.ScoredEvent{
		MarketEvent: event,
		Mispricing:  Mispricing(&event, p),
		HotDeal:     HotDeal(&event, now),
		Confidence:  Confidence(&event, now),
		DaysLeft:    normalize.DaysUntil(event.EndDate, now),
	}
	scored.CombinedScore = Combined(scored.Confidence, scored.Mispricing, scored.HotDeal)
	return scored
}

// Combined is the ranking key used everywhere events are listed.
func Combined(c domain.Confidence, m domain.Mispricing, h domain.HotDeal) float64 {
	return float64(c.ConfidencePct)*2 + float64(m.Score)*1.5 + float64(h.Score)
}
