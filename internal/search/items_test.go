package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/pantry-service/internal/model"
)

type recorded struct {
	method string
	path   string
	body   string
}

// fakeCluster answers like Elasticsearch closely enough for the client's
// product check and records every request.
type fakeCluster struct {
	mu       sync.Mutex
	requests []recorded
	search   string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = w.Write([]byte(f.search))
	case r.Method == http.MethodPut && r.URL.Path == "/pantry_items":
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"},"status":400}`))
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	default:
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}
}

func (f *fakeCluster) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newIndex(t *testing.T, cluster *fakeCluster) *ItemIndex {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)
	client, err := NewClient(&Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewItemIndex(client, "")
}

func TestItemIndex_SearchIDs(t *testing.T) {
	cluster := &fakeCluster{search: `{"hits":{"total":{"value":2},"hits":[{"_id":"b","_score":2.1},{"_id":"a","_score":1.3}]}}`}
	index := newIndex(t, cluster)

	ids, err := index.SearchIDs(context.Background(), "u1", "milk", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	req := cluster.last()
	assert.Equal(t, "/pantry_items/_search", req.path)
	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.body), &q))
	assert.Equal(t, float64(50), q["size"])
	assert.Contains(t, req.body, `"owner_id":"u1"`)
	assert.Contains(t, req.body, `"query":"milk"`)
}

func TestItemIndex_IndexAndDelete(t *testing.T) {
	cluster := &fakeCluster{}
	index := newIndex(t, cluster)
	ctx := context.Background()

	require.NoError(t, index.EnsureIndex(ctx))

	expiry := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, index.IndexItem(ctx, &model.InventoryItem{
		ID:         "item-1",
		OwnerID:    "u1",
		Name:       "Milk",
		Location:   "fridge",
		ExpiryDate: &expiry,
	}))
	req := cluster.last()
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/pantry_items/_doc/item-1", req.path)
	assert.Contains(t, req.body, `"name":"Milk"`)
	assert.NotContains(t, req.body, "quantity")

	require.NoError(t, index.DeleteItem(ctx, "u1", "item-1"))
	assert.Equal(t, http.MethodDelete, cluster.last().method)
}
