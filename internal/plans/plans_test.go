package plans

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zerolog.Nop())
}

func TestCatalogDecodesValidPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/billing/plans" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Plan{
			{ID: "free", Name: "Free Plan", Price: 0, Credits: 100},
			{ID: "premium", Name: "Premium Plan", Price: 500, Credits: 500, BestValue: true},
		})
	})

	catalog := client.Catalog(context.Background())
	if len(catalog) != 2 {
		t.Fatalf("len(catalog) = %d, want 2", len(catalog))
	}
	if catalog[1].Credits != 500 || !catalog[1].BestValue {
		t.Errorf("unexpected premium plan: %+v", catalog[1])
	}
}

func TestCatalogFallsBackOnInvalidPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Missing required fields and wrong types.
		w.Write([]byte(`[{"id": "", "price": -1}]`))
	})

	catalog := client.Catalog(context.Background())
	if len(catalog) != len(builtinCatalog) {
		t.Fatalf("len(catalog) = %d, want built-in %d", len(catalog), len(builtinCatalog))
	}
	if catalog[0].ID != "free" {
		t.Errorf("catalog[0].ID = %q, want free", catalog[0].ID)
	}
}

func TestCatalogFallsBackOnServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	catalog := client.Catalog(context.Background())
	if len(catalog) != len(builtinCatalog) {
		t.Fatalf("len(catalog) = %d, want built-in %d", len(catalog), len(builtinCatalog))
	}
}

func TestPurchaseSendsPlanAndToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/billing/purchase" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["plan_id"] != "premium" {
			t.Errorf("plan_id = %q", body["plan_id"])
		}
		json.NewEncoder(w).Encode(Transaction{
			TransactionID: "tx-9",
			PlanID:        "premium",
			CreditsAdded:  500,
			Status:        "completed",
		})
	})

	tx, err := client.Purchase(context.Background(), "tok-1", "premium")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if tx.CreditsAdded != 500 || tx.Status != "completed" {
		t.Errorf("unexpected transaction: %+v", tx)
	}
}

func TestBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/billing/credits/balance" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"user_id": "u1", "credits_balance": 95})
	})

	got, err := client.Balance(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 95 {
		t.Errorf("balance = %d, want 95", got)
	}
}

func TestFindPlan(t *testing.T) {
	catalog := BuiltinCatalog()
	if _, ok := FindPlan(catalog, "premium"); !ok {
		t.Error("premium not found in built-in catalog")
	}
	if _, ok := FindPlan(catalog, "enterprise"); ok {
		t.Error("unexpected match for unknown plan")
	}
}
