package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/lotprocessing"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// ProcessingService is the slice of the application service the handler
// needs.
type ProcessingService interface {
	ProcessLot(ctx context.Context, desc lot.LotDescription) (lot.LotResult, error)
	ProcessBatch(ctx context.Context, descs []lot.LotDescription) (lotprocessing.BatchResult, error)
}

// ResultStore reads persisted results; nil when persistence is disabled.
type ResultStore interface {
	GetByLotID(ctx context.Context, lotID string) (lot.LotResult, error)
	ListManualReview(ctx context.Context, limit, offset int) ([]lot.LotResult, error)
}

// LotHandler serves the lot processing endpoints.
type LotHandler struct {
	service ProcessingService
	store   ResultStore
}

// NewLotHandler builds the handler.  store may be nil.
func NewLotHandler(service ProcessingService, store ResultStore) *LotHandler {
	return &LotHandler{service: service, store: store}
}

// ProcessRequest is the single-lot request body.
type ProcessRequest struct {
	LotID string `json:"lot_id" binding:"required"`
	Text  string `json:"text"`
}

// Process handles POST /api/v1/lots/process.
func (h *LotHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidInput, "invalid request body"))
		return
	}

	res, err := h.service.ProcessLot(c.Request.Context(), lot.LotDescription{LotID: req.LotID, Text: req.Text})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BatchRequest is the batch request body.
type BatchRequest struct {
	Lots []ProcessRequest `json:"lots" binding:"required"`
}

// BatchResponse summarises a batch run.
type BatchResponse struct {
	JobID   string                    `json:"job_id"`
	Results []lot.LotResult           `json:"results"`
	Failed  []BatchFailure            `json:"failed,omitempty"`
}

// BatchFailure reports one lot that could not be processed.
type BatchFailure struct {
	Index int    `json:"index"`
	LotID string `json:"lot_id"`
	Error string `json:"error"`
}

// ProcessBatch handles POST /api/v1/lots/process-batch.
func (h *LotHandler) ProcessBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidInput, "invalid request body"))
		return
	}
	if len(req.Lots) == 0 {
		respondError(c, errors.New(errors.CodeInvalidInput, "lots must not be empty"))
		return
	}

	descs := make([]lot.LotDescription, len(req.Lots))
	for i, l := range req.Lots {
		descs[i] = lot.LotDescription{LotID: l.LotID, Text: l.Text}
	}

	batch, err := h.service.ProcessBatch(c.Request.Context(), descs)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := BatchResponse{JobID: batch.JobID, Results: batch.Results}
	for _, f := range batch.Failed {
		resp.Failed = append(resp.Failed, BatchFailure{Index: f.Index, LotID: f.LotID, Error: f.Err.Error()})
	}
	c.JSON(http.StatusOK, resp)
}

// GetResult handles GET /api/v1/lots/:lotID.
func (h *LotHandler) GetResult(c *gin.Context) {
	if h.store == nil {
		respondError(c, errors.New(errors.CodeUnavailable, "result persistence is disabled"))
		return
	}
	res, err := h.store.GetByLotID(c.Request.Context(), c.Param("lotID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListReview handles GET /api/v1/lots/review, the manual-review queue.
func (h *LotHandler) ListReview(c *gin.Context) {
	if h.store == nil {
		respondError(c, errors.New(errors.CodeUnavailable, "result persistence is disabled"))
		return
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	results, err := h.store.ListManualReview(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
