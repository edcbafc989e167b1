package feed

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

// DefaultOddsURL is the public market-channel endpoint for outcome odds.
const DefaultOddsURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// OddsAdapter speaks the CLOB market channel: subscribe with the full token
// list after connecting, keep the socket alive with a text PING, and accept
// price updates in any of the channel's payload shapes.
type OddsAdapter struct {
	url string
}

// NewOddsAdapter returns an adapter for the given endpoint, defaulting to the
// public one when empty.
func NewOddsAdapter(url string) *OddsAdapter {
	if url == "" {
		url = DefaultOddsURL
	}
	return &OddsAdapter{url: url}
}

func (a *OddsAdapter) Name() string { return "odds" }

func (a *OddsAdapter) URL(_ []string) string { return a.url }

// SubscribeFrames builds the market-channel subscription for the token set.
func (a *OddsAdapter) SubscribeFrames(keys []string) [][]byte {
	frame, err := json.Marshal(struct {
		AssetsIDs []string `json:"assets_ids"`
		Type      string   `json:"type"`
	}{AssetsIDs: keys, Type: "market"})
	if err != nil {
		return nil
	}
	return [][]byte{frame}
}

// DefaultOddsConfig holds the timing profile for the odds channel: text PING
// keepalive, no passive liveness check.
func DefaultOddsConfig() Config {
	return Config{
		ConnectDebounce:      500 * time.Millisecond,
		FlushInterval:        200 * time.Millisecond,
		FlashWindow:          1500 * time.Millisecond,
		PingInterval:         10 * time.Second,
		PingFrame:            []byte("PING"),
		MaxReconnectAttempts: 10,
		ReconnectBase:        time.Second,
		ReconnectMax:         30 * time.Second,
		RequiresKeys:         true,
		MaxKeys:              500,
	}
}

// oddsRecord is one (token, price) pair. Price arrives as a JSON string on
// this channel but numbers are tolerated too.
type oddsRecord struct {
	AssetID string      `json:"asset_id"`
	Price   json.Number `json:"price"`
}

type oddsEnvelope struct {
	oddsRecord
	PriceChanges []oddsRecord `json:"price_changes"`
	Changes      []oddsRecord `json:"changes"`
}

// Parse extracts price updates from a market-channel frame. The channel sends
// either a single object, an array of objects, or an object carrying a
// price_changes/changes list. Keepalive echoes and anything malformed yield
// no updates.
func (a *OddsAdapter) Parse(raw []byte) []domain.PriceUpdate {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	var envelopes []oddsEnvelope
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &envelopes); err != nil {
			return nil
		}
	} else {
		var env oddsEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil
		}
		envelopes = []oddsEnvelope{env}
	}

	var updates []domain.PriceUpdate
	for _, env := range envelopes {
		updates = appendOddsUpdate(updates, env.oddsRecord)
		for _, rec := range env.PriceChanges {
			updates = appendOddsUpdate(updates, rec)
		}
		for _, rec := range env.Changes {
			updates = appendOddsUpdate(updates, rec)
		}
	}
	return updates
}

func appendOddsUpdate(updates []domain.PriceUpdate, rec oddsRecord) []domain.PriceUpdate {
	if rec.AssetID == "" || rec.Price == "" {
		return updates
	}
	price, err := rec.Price.Float64()
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 || price > 1 {
		return updates
	}
	return append(updates, domain.PriceUpdate{Key: rec.AssetID, Price: price})
}
