package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

func TestAlphaStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "alpha.json")
	store := NewAlphaStore(path)

	// Missing file reads as empty.
	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want empty", entries)
	}

	resolvedAt := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	profit := 60.0
	want := []domain.AlphaEntry{
		{
			ID:              "e1",
			EventTitle:      "Event one",
			DetectedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EdgePercent:     3,
			EdgeType:        domain.EdgeTypeHigh,
			Mode:            domain.MispricingModeBinary,
			YesPrice:        0.40,
			NoPrice:         0.60,
			CurrentYesPrice: 0.97,
			LastUpdated:     resolvedAt,
			Resolved:        true,
			ResolvedAt:      &resolvedAt,
			Profit:          &profit,
			Slug:            "event-one",
		},
		{ID: "e2", EventTitle: "Event two", DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
		t.Fatalf("got %+v", got)
	}
	if !got[0].Resolved || got[0].Profit == nil || *got[0].Profit != 60.0 {
		t.Fatalf("resolved fields lost: %+v", got[0])
	}
	if got[1].ResolvedAt != nil || got[1].Profit != nil {
		t.Fatalf("nil fields must stay nil: %+v", got[1])
	}
}

func TestAlphaStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alpha.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewAlphaStore(path).Load(context.Background()); err == nil {
		t.Fatal("corrupt file must surface an error")
	}
}

func TestAlphaStoreSaveNil(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "alpha.json")
	store := NewAlphaStore(path)

	if err := store.Save(ctx, nil); err != nil {
		t.Fatalf("Save nil: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
}
