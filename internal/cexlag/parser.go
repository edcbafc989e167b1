// Package cexlag detects prediction-market events whose quoted probability
// lags the live spot price on a centralized exchange. It parses crypto
// price-threshold questions out of event titles, derives a fair implied
// probability from the spot delta, and flags markets quoting far from it.
package cexlag

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/skewmarket/skewd/internal/domain"
)

// symbolPattern ties a title regex to a symbol and a plausibility range for
// the extracted threshold. Values outside the range are noise (years, counts,
// sats) rather than prices.
type symbolPattern struct {
	re       *regexp.Regexp
	symbol   string
	minPrice float64
	maxPrice float64
}

var symbolPatterns = []symbolPattern{
	{
		re:       regexp.MustCompile(`(?i)\b(?:bitcoin|btc)\b.*?\$?([\d,]+(?:\.\d+)?)\s*(k)?\b`),
		symbol:   "BTC",
		minPrice: 10_000,
		maxPrice: 1_000_000,
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:ethereum|eth|ether)\b.*?\$?([\d,]+(?:\.\d+)?)\s*(k)?\b`),
		symbol:   "ETH",
		minPrice: 100,
		maxPrice: 50_000,
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:solana|sol)\b.*?\$?([\d,]+(?:\.\d+)?)\s*(k)?\b`),
		symbol:   "SOL",
		minPrice: 5,
		maxPrice: 5_000,
	},
}

var (
	aboveKeywords = regexp.MustCompile(`(?i)\b(above|over|exceed|reach|hit|close above|close over)\b`)
	belowKeywords = regexp.MustCompile(`(?i)\b(below|under|drop|fall|less than|close below|close under)\b`)
)

// excludePatterns reject titles that mention a price but are not single
// threshold questions: multi-threshold ("X or $Y"), rankings, holdings,
// market cap, reserves, flippenings, and election markets.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bor\b.*\$[\d,]+`),
	regexp.MustCompile(`(?i)\bfirst\b`),
	regexp.MustCompile(`(?i)\bhold\b.*\bof\b`),
	regexp.MustCompile(`(?i)\bmarket\s*cap\b`),
	regexp.MustCompile(`(?i)\breserves?\b`),
	regexp.MustCompile(`(?i)\bflip\b`),
	regexp.MustCompile(`(?i)\bwin\b|\belection\b`),
}

// ParseThreshold extracts a crypto price-threshold question from an event.
// The title is used when present, otherwise the first market's question.
// Returns nil for anything that is not a clean single-threshold event.
func ParseThreshold(event *domain.MarketEvent) *domain.CryptoThreshold {
	title := event.Title
	if title == "" && len(event.Markets) > 0 {
		title = event.Markets[0].Question
	}
	if title == "" {
		return nil
	}

	for _, re := range excludePatterns {
		if re.MatchString(title) {
			return nil
		}
	}

	hasAbove := aboveKeywords.MatchString(title)
	hasBelow := belowKeywords.MatchString(title)
	if !hasAbove && !hasBelow {
		return nil
	}

	for _, p := range symbolPatterns {
		match := p.re.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		threshold, ok := normalizePrice(match[1], match[2] != "")
		if !ok || threshold <= 0 {
			continue
		}
		if threshold < p.minPrice || threshold > p.maxPrice {
			continue
		}

		direction := domain.DirectionAbove
		if hasBelow {
			direction = domain.DirectionBelow
		}
		return &domain.CryptoThreshold{Symbol: p.symbol, Threshold: threshold, Direction: direction}
	}
	return nil
}

// normalizePrice turns a matched number like "102,500.5" or "100" (with a k
// suffix meaning thousands) into a float.
func normalizePrice(raw string, kSuffix bool) (float64, bool) {
	val, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if kSuffix {
		val *= 1000
	}
	return val, true
}
