package feed

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

// DefaultSpotURL is the Binance combined-stream endpoint.
const DefaultSpotURL = "wss://stream.binance.com:9443"

// SpotAdapter consumes Binance miniTicker streams for a fixed symbol set. The
// subscription is encoded in the URL, so no frames are sent after connecting;
// liveness is enforced by the connector's health check instead of a ping.
type SpotAdapter struct {
	baseURL string
	streams []string
	symbols map[string]string // stream name -> published key
}

// NewSpotAdapter returns an adapter streaming miniTickers for the given
// symbols (published keys, e.g. BTC). An empty list defaults to BTC, ETH, SOL.
func NewSpotAdapter(baseURL string, symbols []string) *SpotAdapter {
	if baseURL == "" {
		baseURL = DefaultSpotURL
	}
	if len(symbols) == 0 {
		symbols = []string{"BTC", "ETH", "SOL"}
	}
	a := &SpotAdapter{baseURL: strings.TrimRight(baseURL, "/"), symbols: make(map[string]string, len(symbols))}
	for _, sym := range symbols {
		stream := strings.ToLower(sym) + "usdt@miniTicker"
		a.streams = append(a.streams, stream)
		a.symbols[strings.ToLower(stream)] = strings.ToUpper(sym)
	}
	sort.Strings(a.streams)
	return a
}

func (a *SpotAdapter) Name() string { return "spot" }

func (a *SpotAdapter) URL(_ []string) string {
	return a.baseURL + "/stream?streams=" + strings.Join(a.streams, "/")
}

func (a *SpotAdapter) SubscribeFrames(_ []string) [][]byte { return nil }

// DefaultSpotConfig holds the timing profile for the spot feed: no keepalive
// frame, stale connections detected by message silence.
func DefaultSpotConfig() Config {
	return Config{
		ConnectDebounce:      300 * time.Millisecond,
		FlushInterval:        200 * time.Millisecond,
		FlashWindow:          1500 * time.Millisecond,
		HealthInterval:       30 * time.Second,
		HealthTimeout:        65 * time.Second,
		MaxReconnectAttempts: 10,
		ReconnectBase:        time.Second,
		ReconnectMax:         30 * time.Second,
	}
}

type spotFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		Close json.Number `json:"c"`
	} `json:"data"`
}

// Parse extracts the close price from a combined-stream miniTicker frame.
// Unknown streams and non-positive prices are dropped.
func (a *SpotAdapter) Parse(raw []byte) []domain.PriceUpdate {
	var frame spotFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil
	}
	key, ok := a.symbols[strings.ToLower(frame.Stream)]
	if !ok || frame.Data.Close == "" {
		return nil
	}
	price, err := frame.Data.Close.Float64()
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil
	}
	return []domain.PriceUpdate{{Key: key, Price: price}}
}
