package domain

import (
	"context"
	"time"
)

// AlphaStore persists the alpha ledger entry list. Implementations must treat
// missing state as an empty list; the ledger treats Save failures as
// non-fatal and keeps operating in memory.
type AlphaStore interface {
	Load(ctx context.Context) ([]AlphaEntry, error)
	Save(ctx context.Context, entries []AlphaEntry) error
}

// PriceCache mirrors the latest live prices so other processes can read them.
type PriceCache interface {
	SetPrice(ctx context.Context, key string, price float64, ts time.Time) error
	GetPrices(ctx context.Context, keys []string) (map[string]float64, error)
}

// ArchiveWriter uploads a named snapshot blob to cold storage.
type ArchiveWriter interface {
	Put(ctx context.Context, key string, payload []byte) error
}
