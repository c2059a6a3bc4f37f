package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BaSui01/productshot/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLister struct {
	records   []history.Record
	err       error
	lastLimit int
}

func (f *fakeLister) List(_ context.Context, limit int) ([]history.Record, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func TestHistoryHandler_Disabled(t *testing.T) {
	h := NewHistoryHandler(nil, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"History is not enabled"}`, w.Body.String())
}

func TestHistoryHandler_List(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeLister{records: []history.Record{
		{ID: "b", Prompt: "blue mug", Mode: "generate", Status: "succeeded", CreatedAt: now},
		{ID: "a", Prompt: "red sneaker", Mode: "edit", Status: "failed", ErrorCode: "SYNTHESIS_ERROR", CreatedAt: now.Add(-time.Minute)},
	}}
	h := NewHistoryHandler(store, zap.NewNop())

	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantItems int
	}{
		{"default limit", "", history.DefaultListLimit, 2},
		{"explicit limit", "?limit=1", 1, 1},
		{"zero uses default", "?limit=0", history.DefaultListLimit, 2},
		{"clamped to max", "?limit=5000", history.MaxListLimit, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleList(w, httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantLimit, store.lastLimit)

			var resp struct {
				Items []map[string]any `json:"items"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.Len(t, resp.Items, tt.wantItems)
			assert.Equal(t, "b", resp.Items[0]["id"])
		})
	}
}

func TestHistoryHandler_EmptyListIsArray(t *testing.T) {
	h := NewHistoryHandler(&fakeLister{}, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestHistoryHandler_Errors(t *testing.T) {
	t.Run("invalid limit", func(t *testing.T) {
		h := NewHistoryHandler(&fakeLister{}, zap.NewNop())
		w := httptest.NewRecorder()
		h.HandleList(w, httptest.NewRequest(http.MethodGet, "/history?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		h := NewHistoryHandler(&fakeLister{err: errors.New("database is locked")}, zap.NewNop())
		w := httptest.NewRecorder()
		h.HandleList(w, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Failed to load history", body["error"])
		assert.Contains(t, body["details"], "database is locked")
	})

	t.Run("wrong method", func(t *testing.T) {
		h := NewHistoryHandler(&fakeLister{}, zap.NewNop())
		w := httptest.NewRecorder()
		h.HandleList(w, httptest.NewRequest(http.MethodPost, "/history", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
