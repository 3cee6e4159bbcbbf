package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

const collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

func TestQueryResolvesCollectionAndFilters(t *testing.T) {
	var captured map[string]any
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case collectionsPath + "/scriptures":
			if r.Method != http.MethodGet {
				t.Errorf("method: want=GET got=%s", r.Method)
			}
			writeJSON(w, http.StatusOK, collection("col-1", "scriptures"))
		case collectionsPath + "/col-1/query":
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Errorf("decode body: %v", err)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"ids":       [][]string{{"p1", "p2"}},
				"documents": [][]string{{" Love is patient ", "Be still"}},
				"metadatas": [][]map[string]any{{
					{"tradition": "Christianity", "scripture_name": "1 Corinthians", "chapter": 13},
					{"tradition": "Christianity", "book_title": "Psalms"},
				}},
				"distances": [][]float64{{0.25, 0.5}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := newTestClient(t, Config{URL: srv.URL, Collection: "scriptures"})

	got, err := c.Query(context.Background(), Query{Embedding: []float32{0.1, 0.2}, K: 2, Traditions: []string{"Christianity"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("passages: want=2 got=%d", len(got))
	}
	if got[0].Content != "Love is patient" || got[0].Scripture != "1 Corinthians" || got[0].Tradition != "Christianity" {
		t.Fatalf("passage[0]: got=%+v", got[0])
	}
	if got[0].Distance != 0.25 {
		t.Fatalf("distance: want=0.25 got=%v", got[0].Distance)
	}
	if got[0].Metadata["chapter"] != float64(13) {
		t.Fatalf("metadata chapter: want=13 got=%v", got[0].Metadata["chapter"])
	}
	if got[1].Scripture != "Psalms" {
		t.Fatalf("passage[1] scripture fallback: want=Psalms got=%s", got[1].Scripture)
	}

	where, _ := captured["where"].(map[string]any)
	eq, _ := where["tradition"].(map[string]any)
	if eq["$eq"] != "Christianity" {
		t.Fatalf("where filter: got=%v", captured["where"])
	}
	if captured["n_results"].(float64) != 2 {
		t.Fatalf("n_results: want=2 got=%v", captured["n_results"])
	}
	if inc, _ := captured["include"].([]any); len(inc) != 3 {
		t.Fatalf("include: want documents, metadatas and distances got=%v", captured["include"])
	}

	// collection is cached
	if _, err := c.Query(context.Background(), Query{Embedding: []float32{1}}); err != nil {
		t.Fatalf("second Query: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("http calls: want=3 got=%d", n)
	}
}

func TestQueryCustomTenantAndEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/tenants/t1/databases/default_database/collections/scriptures":
			c := collection("c2", "scriptures")
			c["tenant"] = "t1"
			writeJSON(w, http.StatusOK, c)
		case "/api/v2/tenants/t1/databases/default_database/collections/c2/query":
			writeJSON(w, http.StatusOK, map[string]any{"ids": [][]string{{}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := newTestClient(t, Config{URL: srv.URL, Collection: "scriptures", Tenant: "t1"})

	got, err := c.Query(context.Background(), Query{Embedding: []float32{1}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("passages: want=0 got=%d", len(got))
	}
}

func TestTraditionFilter(t *testing.T) {
	if f := traditionFilter([]string{"All Traditions"}); f != nil {
		t.Fatalf("filter: want=nil got=%v", f)
	}
	if f := traditionFilter(nil); f != nil {
		t.Fatalf("empty filter: want=nil got=%v", f)
	}
	raw, err := json.Marshal(traditionFilter([]string{"Buddhism", "Taoism"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"tradition":{"$in":["Buddhism","Taoism"]}}`; string(raw) != want {
		t.Fatalf("$in filter: want=%s got=%s", want, raw)
	}
}

func TestQueryErrorsAreClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "NotFoundError", "message": "collection missing"})
	}))
	defer srv.Close()
	c := newTestClient(t, Config{URL: srv.URL, Collection: "missing"})

	_, err := c.Query(context.Background(), Query{Embedding: []float32{1}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("404: want ErrNotFound got=%v", err)
	}
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Status != http.StatusNotFound || cerr.Op != "get_collection" {
		t.Fatalf("404 detail: got=%+v", cerr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	if _, err = c.Query(ctx, Query{Embedding: []float32{1}}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("timeout: want ErrTimeout got=%v", err)
	}

	if _, err = c.Query(context.Background(), Query{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("empty embedding: want ErrInvalidRequest got=%v", err)
	}
}

func TestStatusErrorKinds(t *testing.T) {
	cases := map[int]error{404: ErrNotFound, 422: ErrInvalidRequest, 500: ErrUnavailable, 503: ErrUnavailable}
	for status, want := range cases {
		if err := statusError("query", status, "x", nil); !errors.Is(err, want) {
			t.Fatalf("status %d: want=%v got=%v", status, want, err)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"missing url":        {},
		"relative url":       {URL: "chroma:8000", Collection: "x"},
		"missing collection": {URL: "http://chroma:8000"},
	} {
		if err := ValidateConfig(cfg); !errors.Is(err, ErrConfig) {
			t.Fatalf("%s: want ErrConfig got=%v", name, err)
		}
	}
	if err := ValidateConfig(Config{URL: "http://chroma:8000", Collection: "scriptures"}); err != nil {
		t.Fatalf("valid config: %v", err)
	}
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := NewClient(logger.NewNop(), cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func collection(id, name string) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     name,
		"tenant":   "default_tenant",
		"database": "default_database",
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
