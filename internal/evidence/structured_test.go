package evidence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockscan/internal/model"
)

func TestMarketDataClientFetchStructured(t *testing.T) {
	t.Parallel()

	t.Run("renders one item per populated field", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("code"); got != "000001.SZ" {
				t.Errorf("expected code query 000001.SZ, got %q", got)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("expected bearer token, got %q", got)
			}
			_, _ = w.Write([]byte(`{
				"basic_info": "Industry: Banking",
				"daily_metrics": "PE: 5.1",
				"financial_indicators": "ROE: 11%"
			}`))
		}))
		defer srv.Close()

		client := NewMarketDataClient(srv.URL, "tok")
		items, err := client.FetchStructured(context.Background(), "000001.SZ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}

		wantKeys := []string{model.FieldBasicInfo, model.FieldDailyMetrics, model.FieldFinancials}
		for i, want := range wantKeys {
			if items[i].Key != want {
				t.Errorf("item %d: expected key %q, got %q", i, want, items[i].Key)
			}
			if items[i].Source != model.SourceStructured {
				t.Errorf("item %d: expected structured source, got %s", i, items[i].Source)
			}
		}
	})

	t.Run("empty fields are omitted", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"basic_info": "Industry: Banking"}`))
		}))
		defer srv.Close()

		client := NewMarketDataClient(srv.URL, "tok")
		items, err := client.FetchStructured(context.Background(), "000001.SZ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
	})

	t.Run("missing token fails with ErrSourceUnavailable", func(t *testing.T) {
		t.Parallel()

		client := NewMarketDataClient("http://unused.invalid", "")
		_, err := client.FetchStructured(context.Background(), "000001.SZ")
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("missing code fails with ErrNoCode", func(t *testing.T) {
		t.Parallel()

		client := NewMarketDataClient("http://unused.invalid", "tok")
		_, err := client.FetchStructured(context.Background(), "")
		if !errors.Is(err, ErrNoCode) {
			t.Fatalf("expected ErrNoCode, got %v", err)
		}
	})

	t.Run("backend error status maps to ErrSourceUnavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewMarketDataClient(srv.URL, "tok")
		_, err := client.FetchStructured(context.Background(), "000001.SZ")
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable, got %v", err)
		}
	})
}
