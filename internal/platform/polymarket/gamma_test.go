package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

func TestActiveEventsQuery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","title":"Event","slug":"event","markets":[]}]`))
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	client.now = func() time.Time { return now }

	events, err := client.ActiveEvents(context.Background(), 200)
	if err != nil {
		t.Fatalf("ActiveEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "1" {
		t.Fatalf("events = %+v", events)
	}

	want := map[string]string{
		"active":       "true",
		"closed":       "false",
		"archived":     "false",
		"end_date_min": "2026-03-01T12:00:00Z",
		"limit":        "200",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query[%s] = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestActiveEventsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := NewGammaClient(server.URL).ActiveEvents(context.Background(), 10)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIEventToDomain(t *testing.T) {
	// Field encodings the API actually mixes: numeric strings for volume,
	// string bools, clobTokenIds as a JSON-encoded string, outcomePrices as a
	// plain array, and a missing active flag.
	raw := `{
		"id": "evt1",
		"title": "Will BTC close above $100k?",
		"slug": "btc-100k",
		"volume": "125000.5",
		"liquidity": 40000,
		"endDate": "2026-04-01T00:00:00Z",
		"closed": false,
		"tags": [{"id":"t1","label":"Crypto"}],
		"markets": [
			{
				"id": "m1",
				"question": "Will BTC close above $100k?",
				"outcomes": "[\"Yes\",\"No\"]",
				"outcomePrices": "[\"0.55\",\"0.45\"]",
				"clobTokenIds": "[\"tokYes\",\"tokNo\"]",
				"active": "true",
				"closed": false
			},
			{
				"id": "m2",
				"outcomes": ["Yes","No"],
				"outcomePrices": ["0.10","0.90"],
				"clobTokenIds": ["tokA","tokB"]
			}
		]
	}`

	var apiEvent APIEvent
	if err := json.Unmarshal([]byte(raw), &apiEvent); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev := apiEvent.ToDomain()

	if !ev.Active {
		t.Error("missing active flag must default to true")
	}
	if ev.Volume != 125000.5 || ev.Liquidity != 40000 {
		t.Errorf("volume/liquidity = %v/%v", ev.Volume, ev.Liquidity)
	}
	if len(ev.Tags) != 1 || ev.Tags[0].Label != "Crypto" {
		t.Errorf("tags = %+v", ev.Tags)
	}
	if len(ev.Markets) != 2 {
		t.Fatalf("markets = %d, want 2", len(ev.Markets))
	}

	m1 := ev.Markets[0]
	if !m1.Active || len(m1.Outcomes) != 2 || m1.Outcomes[0] != "Yes" {
		t.Errorf("m1 = %+v", m1)
	}
	if m1.OutcomePrices != `["0.55","0.45"]` {
		t.Errorf("m1 prices = %q", m1.OutcomePrices)
	}
	if len(m1.TokenIDs) != 2 || m1.TokenIDs[0] != "tokYes" {
		t.Errorf("m1 tokens = %v", m1.TokenIDs)
	}

	m2 := ev.Markets[1]
	if !m2.Active {
		t.Error("m2 missing active flag must default to true")
	}
	if len(m2.TokenIDs) != 2 || m2.TokenIDs[1] != "tokB" {
		t.Errorf("m2 tokens = %v", m2.TokenIDs)
	}
	// Array-form prices re-encode to parseable JSON text.
	if m2.OutcomePrices != `["0.10","0.90"]` {
		t.Errorf("m2 prices = %q", m2.OutcomePrices)
	}
}
