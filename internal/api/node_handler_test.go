package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/generation"
	"github.com/stellae/stellae-api/internal/service"
	"github.com/stellae/stellae-api/internal/store"
)

// mockNodeService implements service.NodeService for handler tests.
type mockNodeService struct {
	getFn       func(ctx context.Context, userID, nodeID uuid.UUID) (*domain.Node, error)
	deleteFn    func(ctx context.Context, userID, nodeID uuid.UUID) error
	listCardsFn func(ctx context.Context, userID uuid.UUID, query store.FlashcardQuery) ([]domain.ReviewEntry, error)
	statsFn     func(ctx context.Context, userID uuid.UUID) (service.NodeStats, error)
}

func (m *mockNodeService) CreateFromClassification(
	ctx context.Context,
	userID uuid.UUID,
	classification *generation.Classification,
) (*domain.Node, error) {
	return nil, nil
}

func (m *mockNodeService) GetNode(ctx context.Context, userID, nodeID uuid.UUID) (*domain.Node, error) {
	return m.getFn(ctx, userID, nodeID)
}

func (m *mockNodeService) DeleteNode(ctx context.Context, userID, nodeID uuid.UUID) error {
	return m.deleteFn(ctx, userID, nodeID)
}

func (m *mockNodeService) ListCards(
	ctx context.Context,
	userID uuid.UUID,
	query store.FlashcardQuery,
) ([]domain.ReviewEntry, error) {
	return m.listCardsFn(ctx, userID, query)
}

func (m *mockNodeService) GetStats(ctx context.Context, userID uuid.UUID) (service.NodeStats, error) {
	return m.statsFn(ctx, userID)
}

var _ service.NodeService = (*mockNodeService)(nil)

func TestGetNode(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	nodeID := uuid.New()
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		nodeService := &mockNodeService{
			getFn: func(ctx context.Context, gotUserID, gotNodeID uuid.UUID) (*domain.Node, error) {
				assert.Equal(t, userID, gotUserID)
				assert.Equal(t, nodeID, gotNodeID)
				return &domain.Node{
					ID:           gotNodeID,
					UserID:       gotUserID,
					Category:     domain.CategoryCode,
					IntervalDays: 3,
					NextDueAt:    now.AddDate(0, 0, 3),
					CreatedAt:    now,
					UpdatedAt:    now,
				}, nil
			},
		}
		handler := NewNodeHandler(nodeService, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/nodes/"+nodeID.String(), nil)
		req = withUserID(req, userID)
		req = withChiParam(req, "id", nodeID.String())
		rr := httptest.NewRecorder()

		handler.GetNode(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp NodeResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, nodeID.String(), resp.ID)
		assert.Equal(t, "code", resp.Category)
		assert.Equal(t, 3, resp.IntervalDays)
	})

	t.Run("not owned returns 403", func(t *testing.T) {
		t.Parallel()

		nodeService := &mockNodeService{
			getFn: func(ctx context.Context, gotUserID, gotNodeID uuid.UUID) (*domain.Node, error) {
				return nil, service.ErrNotOwned
			},
		}
		handler := NewNodeHandler(nodeService, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/nodes/"+nodeID.String(), nil)
		req = withUserID(req, userID)
		req = withChiParam(req, "id", nodeID.String())
		rr := httptest.NewRecorder()

		handler.GetNode(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("missing node returns 404", func(t *testing.T) {
		t.Parallel()

		nodeService := &mockNodeService{
			getFn: func(ctx context.Context, gotUserID, gotNodeID uuid.UUID) (*domain.Node, error) {
				return nil, service.ErrNodeNotFound
			},
		}
		handler := NewNodeHandler(nodeService, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/nodes/"+nodeID.String(), nil)
		req = withUserID(req, userID)
		req = withChiParam(req, "id", nodeID.String())
		rr := httptest.NewRecorder()

		handler.GetNode(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeleteNode(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	nodeID := uuid.New()

	t.Run("success returns 204", func(t *testing.T) {
		t.Parallel()

		called := false
		nodeService := &mockNodeService{
			deleteFn: func(ctx context.Context, gotUserID, gotNodeID uuid.UUID) error {
				called = true
				assert.Equal(t, userID, gotUserID)
				assert.Equal(t, nodeID, gotNodeID)
				return nil
			},
		}
		handler := NewNodeHandler(nodeService, testLogger())

		req := httptest.NewRequest(http.MethodDelete, "/api/nodes/"+nodeID.String(), nil)
		req = withUserID(req, userID)
		req = withChiParam(req, "id", nodeID.String())
		rr := httptest.NewRecorder()

		handler.DeleteNode(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, called)
	})

	t.Run("missing node returns 404", func(t *testing.T) {
		t.Parallel()

		nodeService := &mockNodeService{
			deleteFn: func(ctx context.Context, gotUserID, gotNodeID uuid.UUID) error {
				return service.ErrNodeNotFound
			},
		}
		handler := NewNodeHandler(nodeService, testLogger())

		req := httptest.NewRequest(http.MethodDelete, "/api/nodes/"+nodeID.String(), nil)
		req = withUserID(req, userID)
		req = withChiParam(req, "id", nodeID.String())
		rr := httptest.NewRecorder()

		handler.DeleteNode(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListCards(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("no filters", func(t *testing.T) {
		t.Parallel()

		entries := []domain.ReviewEntry{
			{CardID: uuid.New(), NodeID: uuid.New(), Front: "f1", Back: "b1", Category: domain.CategoryNote},
			{CardID: uuid.New(), NodeID: uuid.New(), Front: "f2", Back: "b2", Category: domain.CategoryCode},
		}
		nodeService := &mockNodeService{
			listCardsFn: func(ctx context.Context, gotUserID uuid.UUID, query store.FlashcardQuery) ([]domain.ReviewEntry, error) {
				assert.Equal(t, userID, gotUserID)
				assert.Nil(t, query.Category)
				assert.Empty(t, query.Search)
				return entries, nil
			},
		}
		handler := NewNodeHandler(nodeService, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
		req = withUserID(req, userID)
		rr := httptest.NewRecorder()

		handler.ListCards(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp CardListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
		assert.Len(t, resp.Cards, 2)
	})

	t.Run("category and search filters are forwarded", func(t *testing.T) {
		t.Parallel()

		nodeService := &mockNodeService{
			listCardsFn: func(ctx context.Context, gotUserID uuid.UUID, query store.FlashcardQuery) ([]domain.ReviewEntry, error) {
				require.NotNil(t, query.Category)
				assert.Equal(t, domain.CategoryLanguage, *query.Category)
				assert.Equal(t, "perro", query.Search)
				return nil, nil
			},
		}
		handler := NewNodeHandler(nodeService, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/cards?category=language&search=perro", nil)
		req = withUserID(req, userID)
		rr := httptest.NewRecorder()

		handler.ListCards(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp CardListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Total)
	})

	t.Run("unknown category returns 400", func(t *testing.T) {
		t.Parallel()

		handler := NewNodeHandler(&mockNodeService{}, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/cards?category=poetry", nil)
		req = withUserID(req, userID)
		rr := httptest.NewRecorder()

		handler.ListCards(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	nodeService := &mockNodeService{
		statsFn: func(ctx context.Context, gotUserID uuid.UUID) (service.NodeStats, error) {
			assert.Equal(t, userID, gotUserID)
			return service.NodeStats{
				Total: 3,
				ByCategory: map[domain.Category]int{
					domain.CategoryCode: 2,
					domain.CategoryNote: 1,
				},
			}, nil
		},
	}
	handler := NewNodeHandler(nodeService, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/nodes/stats", nil)
	req = withUserID(req, userID)
	rr := httptest.NewRecorder()

	handler.GetStats(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp service.NodeStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.ByCategory[domain.CategoryCode])
}
