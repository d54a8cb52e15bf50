package prefs

import (
	"context"
	"testing"

	"github.com/xhedge/vault-middleware/pkg/kvstore"
	"github.com/xhedge/vault-middleware/pkg/network"
)

func TestGet_Defaults(t *testing.T) {
	svc := NewService(kvstore.NewMemoryStore(), network.Futurenet)

	p, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Network != "futurenet" || p.Currency != "USD" {
		t.Errorf("unexpected defaults %+v", p)
	}
	if p.TermsAccepted || p.PrivacyAccepted || p.TourCompleted {
		t.Errorf("flags must default to false: %+v", p)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kvstore.NewMemoryStore(), network.Futurenet)

	want := &Preferences{
		Network:         "testnet",
		Currency:        "EUR",
		TermsAccepted:   true,
		PrivacyAccepted: true,
		TourCompleted:   false,
	}
	if err := svc.Update(ctx, want); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip altered preferences: got %+v, want %+v", got, want)
	}
}

func TestGet_MangledFlagReadsAsUnset(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	if err := kv.Set(ctx, "pref_terms_accepted", "definitely"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	p, err := NewService(kv, network.Futurenet).Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.TermsAccepted {
		t.Error("mangled flag must read as false")
	}
}
