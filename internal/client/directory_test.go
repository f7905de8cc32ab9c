package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"asindir/client/internal/config"
	"asindir/client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (DirectoryClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewDirectoryClient(config.APIConfig{
		BaseURL:              srv.URL,
		Token:                "tkn",
		Timeout:              5,
		MaxRequestsPerSecond: 1000,
		PageSize:             2,
		MaxWorkers:           3,
	})
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListCategories(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/asin-list-categories", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []domain.Category{{ID: "c1", Name: "Audio"}})
	})

	got, err := c.ListCategories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: "c1", Name: "Audio"}}, got)
}

func TestListRangesAndProducts_ScopeQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/asin-list-ranges":
			assert.Equal(t, "c1", r.URL.Query().Get("categoryId"))
			writeJSON(w, http.StatusOK, []domain.Range{{ID: "r1", Name: "Speakers", CategoryID: "c1"}})
		case "/asin-list-products":
			assert.Equal(t, "r1", r.URL.Query().Get("rangeId"))
			writeJSON(w, http.StatusOK, []domain.Product{{ID: "p1", Name: "Echo", RangeID: "r1", CategoryID: "c1"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ranges, err := c.ListRanges(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, ranges, 1)

	products, err := c.ListProducts(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "c1", products[0].CategoryID)
}

func TestCreateProduct_SendsBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/asin-list-products", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "Echo", "rangeId": "r1", "categoryId": "c1"}, body)

		writeJSON(w, http.StatusCreated, domain.Product{ID: "p9", Name: "Echo", RangeID: "r1", CategoryID: "c1"})
	})

	got, err := c.CreateProduct(context.Background(), "Echo", "r1", "c1")

	require.NoError(t, err)
	assert.Equal(t, "p9", got.ID)
}

func TestCreateCategory_ServerErrorMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Category already exists"})
	})

	_, err := c.CreateCategory(context.Background(), "Audio")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Category already exists", Message(err, "Failed to create category"))
}

func TestDelete_NoContent(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/asin-list-ranges/r1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteRange(context.Background(), "r1"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDelete_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeleteProduct(context.Background(), "p1")

	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Failed to delete product", Message(err, "Failed to delete product"))
}

func TestMoveAsins_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"asinIds":["a1","a2"],"productId":"p1"}`, string(raw))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Some ASIN ids are invalid"})
	})

	err := c.MoveAsins(context.Background(), []string{"a1", "a2"}, "p1")

	assert.Equal(t, "Some ASIN ids are invalid", Message(err, "Failed to move"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBulkManualAndCsv(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/asin-directory/bulk-manual":
			assert.Len(t, body["asins"], 2)
			writeJSON(w, http.StatusOK, domain.ImportResult{Added: 1, Duplicates: 1, Errors: []string{}})
		case "/asin-directory/bulk-csv":
			assert.Equal(t, "ASIN\nB08N5WRWNW\n", body["csvData"])
			writeJSON(w, http.StatusOK, domain.ImportResult{Added: 1})
		}
	})

	manual, err := c.BulkManual(context.Background(), []string{"B08N5WRWNW", "B07K2G8Z4Q"})
	require.NoError(t, err)
	assert.Equal(t, 1, manual.Duplicates)

	fromCsv, err := c.BulkCsv(context.Background(), "ASIN\nB08N5WRWNW\n")
	require.NoError(t, err)
	assert.Equal(t, 1, fromCsv.Added)
}

func TestGetAllDirectoryPages(t *testing.T) {
	all := []string{"B000000001", "B000000002", "B000000003", "B000000004", "B000000005"}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/asin-directory", r.URL.Path)
		assert.Equal(t, "echo", r.URL.Query().Get("search"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		start := (page - 1) * limit
		end := min(start+limit, len(all))
		var records []domain.AsinRecord
		for _, a := range all[start:end] {
			records = append(records, domain.AsinRecord{ID: a, ASIN: a})
		}
		writeJSON(w, http.StatusOK, domain.DirectoryPage{Asins: records, Total: len(all)})
	})

	got, err := c.GetAllDirectoryPages(context.Background(), "echo")

	require.NoError(t, err)
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 3, got.TotalPages)
	require.Len(t, got.Pages, 3)

	var asins []string
	for i, p := range got.Pages {
		assert.Equal(t, i+1, p.PageNumber)
		for _, rec := range p.Asins {
			asins = append(asins, rec.ASIN)
		}
	}
	assert.Equal(t, all, asins)
}

func TestGetAllDirectoryPages_PageFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream down"})
			return
		}
		writeJSON(w, http.StatusOK, domain.DirectoryPage{Asins: []domain.AsinRecord{{ASIN: "B000000001"}}, Total: 6})
	})

	_, err := c.GetAllDirectoryPages(context.Background(), "")

	assert.Equal(t, "upstream down", Message(err, ""))
}

func TestRequestCancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListCategories(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
