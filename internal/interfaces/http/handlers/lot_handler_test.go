package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/lotprocessing"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	processFunc func(ctx context.Context, desc lot.LotDescription) (lot.LotResult, error)
	batchFunc   func(ctx context.Context, descs []lot.LotDescription) (lotprocessing.BatchResult, error)
}

func (m *mockService) ProcessLot(ctx context.Context, desc lot.LotDescription) (lot.LotResult, error) {
	return m.processFunc(ctx, desc)
}

func (m *mockService) ProcessBatch(ctx context.Context, descs []lot.LotDescription) (lotprocessing.BatchResult, error) {
	return m.batchFunc(ctx, descs)
}

type mockStore struct {
	getFunc  func(ctx context.Context, lotID string) (lot.LotResult, error)
	listFunc func(ctx context.Context, limit, offset int) ([]lot.LotResult, error)
}

func (m *mockStore) GetByLotID(ctx context.Context, lotID string) (lot.LotResult, error) {
	return m.getFunc(ctx, lotID)
}

func (m *mockStore) ListManualReview(ctx context.Context, limit, offset int) ([]lot.LotResult, error) {
	return m.listFunc(ctx, limit, offset)
}

func testRouter(h *LotHandler) *gin.Engine {
	r := gin.New()
	lots := r.Group("/api/v1/lots")
	lots.POST("/process", h.Process)
	lots.POST("/process-batch", h.ProcessBatch)
	lots.GET("/review", h.ListReview)
	lots.GET("/:lotID", h.GetResult)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProcessReturnsResult(t *testing.T) {
	svc := &mockService{
		processFunc: func(_ context.Context, desc lot.LotDescription) (lot.LotResult, error) {
			return lot.LotResult{
				Lot:            desc,
				Count:          lot.ItemCount{Count: 1, Provenance: lot.CountDefault},
				Classification: lot.ClassTwoD,
			}, nil
		},
	}
	r := testRouter(NewLotHandler(svc, nil))

	w := doJSON(t, r, http.MethodPost, "/api/v1/lots/process",
		ProcessRequest{LotID: "L-1", Text: "Huile sur toile 162 x 130 cm"})

	require.Equal(t, http.StatusOK, w.Code)
	var res lot.LotResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "L-1", res.Lot.LotID)
	assert.Equal(t, lot.ClassTwoD, res.Classification)
}

func TestProcessRejectsMissingLotID(t *testing.T) {
	r := testRouter(NewLotHandler(&mockService{}, nil))

	w := doJSON(t, r, http.MethodPost, "/api/v1/lots/process", map[string]string{"text": "Bronze"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.CodeInvalidInput), resp.Code)
}

func TestProcessMapsEmptyDescriptionTo400(t *testing.T) {
	svc := &mockService{
		processFunc: func(context.Context, lot.LotDescription) (lot.LotResult, error) {
			return lot.LotResult{}, errors.New(errors.CodeEmptyDescription, "description text is empty")
		},
	}
	r := testRouter(NewLotHandler(svc, nil))

	w := doJSON(t, r, http.MethodPost, "/api/v1/lots/process", ProcessRequest{LotID: "L-1", Text: "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.CodeEmptyDescription), resp.Code)
}

func TestProcessBatchReportsFailures(t *testing.T) {
	svc := &mockService{
		batchFunc: func(_ context.Context, descs []lot.LotDescription) (lotprocessing.BatchResult, error) {
			return lotprocessing.BatchResult{
				JobID:   "job-1",
				Results: []lot.LotResult{{Lot: descs[0]}},
				Failed: []lotprocessing.LotError{{
					Index: 1,
					LotID: descs[1].LotID,
					Err:   errors.New(errors.CodeEmptyDescription, "description text is empty"),
				}},
			}, nil
		},
	}
	r := testRouter(NewLotHandler(svc, nil))

	w := doJSON(t, r, http.MethodPost, "/api/v1/lots/process-batch", BatchRequest{Lots: []ProcessRequest{
		{LotID: "L-1", Text: "Bronze H 50 cm"},
		{LotID: "L-2", Text: ""},
	}})

	require.Equal(t, http.StatusOK, w.Code)
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "L-2", resp.Failed[0].LotID)
}

func TestProcessBatchRejectsEmptyList(t *testing.T) {
	r := testRouter(NewLotHandler(&mockService{}, nil))

	w := doJSON(t, r, http.MethodPost, "/api/v1/lots/process-batch", BatchRequest{Lots: []ProcessRequest{}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetResultNotFound(t *testing.T) {
	store := &mockStore{
		getFunc: func(_ context.Context, lotID string) (lot.LotResult, error) {
			return lot.LotResult{}, errors.New(errors.CodeLotNotFound, "lot result not found").
				WithDetail("lot_id: " + lotID)
		},
	}
	r := testRouter(NewLotHandler(&mockService{}, store))

	w := doJSON(t, r, http.MethodGet, "/api/v1/lots/L-404", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetResultWithoutStoreIs503(t *testing.T) {
	r := testRouter(NewLotHandler(&mockService{}, nil))

	w := doJSON(t, r, http.MethodGet, "/api/v1/lots/L-1", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListReviewPassesPagination(t *testing.T) {
	var gotLimit, gotOffset int
	store := &mockStore{
		listFunc: func(_ context.Context, limit, offset int) ([]lot.LotResult, error) {
			gotLimit, gotOffset = limit, offset
			return []lot.LotResult{{ManualReviewRequired: true}}, nil
		},
	}
	r := testRouter(NewLotHandler(&mockService{}, store))

	w := doJSON(t, r, http.MethodGet, "/api/v1/lots/review?limit=10&offset=30", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 30, gotOffset)
}

func TestListReviewIgnoresBadPagination(t *testing.T) {
	var gotLimit int
	store := &mockStore{
		listFunc: func(_ context.Context, limit, _ int) ([]lot.LotResult, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	r := testRouter(NewLotHandler(&mockService{}, store))

	w := doJSON(t, r, http.MethodGet, "/api/v1/lots/review?limit=abc", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, gotLimit)
}
