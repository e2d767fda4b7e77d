package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/sitenotifier/internal/domain"
)

func TestPostgresStore_SaveLoad(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	ts := int64(1700000000)
	hook := "https://hooks.example/B"
	in := []domain.Site{
		{URL: "https://b.example", Name: "B", Enabled: true, CurrentStatus: domain.StatusFailed, FailedTimestamp: &ts, ChannelWebhook: &hook},
		{URL: "https://a.example", Name: "A", Enabled: false, Extra: map[string]json.RawMessage{"owner": json.RawMessage(`{"team":"ops"}`)}},
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].URL != "https://b.example" || got[1].URL != "https://a.example" {
		t.Fatalf("order not kept: %+v", got)
	}
	if got[0].CurrentStatus != domain.StatusFailed || got[0].FailedTimestamp == nil || *got[0].FailedTimestamp != ts {
		t.Fatalf("status fields lost: %+v", got[0])
	}
	if h, ok := got[0].Webhook(); !ok || h != hook {
		t.Fatalf("webhook lost: %+v", got[0])
	}
	if got[1].CurrentStatus != domain.StatusUnknown || got[1].FailedTimestamp != nil {
		t.Fatalf("absent fields should stay absent: %+v", got[1])
	}
	var owner map[string]string
	if err := json.Unmarshal(got[1].Extra["owner"], &owner); err != nil || owner["team"] != "ops" {
		t.Fatalf("extra lost: %s", got[1].Extra["owner"])
	}

	// Saving a shorter list drops the rest.
	if err := store.Save(ctx, in[:1]); err != nil {
		t.Fatalf("Save shorter: %v", err)
	}
	if got, _ := store.Load(ctx); len(got) != 1 {
		t.Fatalf("want 1 row after shorter save, got %d", len(got))
	}
}
