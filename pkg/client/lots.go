package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// LotsClient calls the /api/v1/lots endpoints.
type LotsClient struct {
	client *Client
}

// ProcessRequest is the single-lot request body.
type ProcessRequest struct {
	LotID string `json:"lot_id"`
	Text  string `json:"text"`
}

// BatchFailure reports one lot the server could not process.
type BatchFailure struct {
	Index int    `json:"index"`
	LotID string `json:"lot_id"`
	Error string `json:"error"`
}

// BatchResponse summarises a batch run.
type BatchResponse struct {
	JobID   string          `json:"job_id"`
	Results []lot.LotResult `json:"results"`
	Failed  []BatchFailure  `json:"failed,omitempty"`
}

// ReviewList is the manual-review queue page.
type ReviewList struct {
	Results []lot.LotResult `json:"results"`
	Count   int             `json:"count"`
}

// Process converts one description into structured dimensions.
func (lc *LotsClient) Process(ctx context.Context, lotID, text string) (*lot.LotResult, error) {
	var res lot.LotResult
	err := lc.client.do(ctx, http.MethodPost, "/api/v1/lots/process",
		ProcessRequest{LotID: lotID, Text: text}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ProcessBatch converts a batch of descriptions.
func (lc *LotsClient) ProcessBatch(ctx context.Context, lots []ProcessRequest) (*BatchResponse, error) {
	var res BatchResponse
	err := lc.client.do(ctx, http.MethodPost, "/api/v1/lots/process-batch",
		map[string]interface{}{"lots": lots}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetResult fetches a persisted result by lot id.
func (lc *LotsClient) GetResult(ctx context.Context, lotID string) (*lot.LotResult, error) {
	var res lot.LotResult
	err := lc.client.do(ctx, http.MethodGet,
		"/api/v1/lots/"+url.PathEscape(lotID), nil, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListReview pages through the manual-review queue.
func (lc *LotsClient) ListReview(ctx context.Context, limit, offset int) (*ReviewList, error) {
	var res ReviewList
	path := fmt.Sprintf("/api/v1/lots/review?limit=%d&offset=%d", limit, offset)
	if err := lc.client.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
