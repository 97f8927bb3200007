// Package repositories implements persistence for processed lots on top of
// the pgx connection pool.
package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	apperrors "github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// ResultRepository stores and retrieves lot processing results.  Reprocessing
// a lot overwrites its previous row, so the table always reflects the latest
// pipeline run.
type ResultRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewResultRepository builds a repository over pool.
func NewResultRepository(pool *pgxpool.Pool, log logging.Logger) *ResultRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ResultRepository{pool: pool, logger: log.Named("result_repo")}
}

const saveResultSQL = `
INSERT INTO lot_results (
    lot_id, description, item_count, count_provenance,
    classification, classification_rule, material, manual_review,
    items, flags, conversion_log, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (lot_id) DO UPDATE SET
    description         = EXCLUDED.description,
    item_count          = EXCLUDED.item_count,
    count_provenance    = EXCLUDED.count_provenance,
    classification      = EXCLUDED.classification,
    classification_rule = EXCLUDED.classification_rule,
    material            = EXCLUDED.material,
    manual_review       = EXCLUDED.manual_review,
    items               = EXCLUDED.items,
    flags               = EXCLUDED.flags,
    conversion_log      = EXCLUDED.conversion_log,
    processed_at        = now()`

// Save upserts one processed lot.
func (r *ResultRepository) Save(ctx context.Context, res lot.LotResult) error {
	items, err := json.Marshal(res.Items)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "encoding items")
	}
	flags, err := json.Marshal(&res.Flags)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "encoding flags")
	}
	logEntries, err := json.Marshal(&res.Log)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "encoding conversion log")
	}

	_, err = r.pool.Exec(ctx, saveResultSQL,
		res.Lot.LotID, res.Lot.Text, res.Count.Count, string(res.Count.Provenance),
		string(res.Classification), res.ClassificationRule, res.Material, res.ManualReviewRequired,
		items, flags, logEntries)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "saving lot result").
			WithDetail("lot_id: " + res.Lot.LotID)
	}
	return nil
}

const getResultSQL = `
SELECT lot_id, description, item_count, count_provenance,
       classification, classification_rule, material, manual_review,
       items, flags, conversion_log
FROM lot_results WHERE lot_id = $1`

// GetByLotID returns the stored result for one lot.
func (r *ResultRepository) GetByLotID(ctx context.Context, lotID string) (lot.LotResult, error) {
	row := r.pool.QueryRow(ctx, getResultSQL, lotID)
	res, err := scanResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lot.LotResult{}, apperrors.New(apperrors.CodeLotNotFound, "lot result not found").
				WithDetail("lot_id: " + lotID)
		}
		return lot.LotResult{}, apperrors.Wrap(err, apperrors.CodeStorageError, "loading lot result")
	}
	return res, nil
}

const listReviewSQL = `
SELECT lot_id, description, item_count, count_provenance,
       classification, classification_rule, material, manual_review,
       items, flags, conversion_log
FROM lot_results
WHERE manual_review
ORDER BY processed_at DESC, lot_id
LIMIT $1 OFFSET $2`

// ListManualReview returns lots awaiting manual review, newest first.
func (r *ResultRepository) ListManualReview(ctx context.Context, limit, offset int) ([]lot.LotResult, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, listReviewSQL, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "listing review lots")
	}
	defer rows.Close()

	var out []lot.LotResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "scanning review lot")
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "iterating review lots")
	}
	return out, nil
}

func scanResult(row pgx.Row) (lot.LotResult, error) {
	var (
		res        lot.LotResult
		provenance string
		class      string
		items      []byte
		flags      []byte
		logEntries []byte
	)
	err := row.Scan(&res.Lot.LotID, &res.Lot.Text, &res.Count.Count, &provenance,
		&class, &res.ClassificationRule, &res.Material, &res.ManualReviewRequired,
		&items, &flags, &logEntries)
	if err != nil {
		return lot.LotResult{}, err
	}
	res.Count.Provenance = lot.CountProvenance(provenance)
	res.Classification = lot.Classification(class)
	if err := json.Unmarshal(items, &res.Items); err != nil {
		return lot.LotResult{}, err
	}
	if err := json.Unmarshal(flags, &res.Flags); err != nil {
		return lot.LotResult{}, err
	}
	if err := json.Unmarshal(logEntries, &res.Log); err != nil {
		return lot.LotResult{}, err
	}
	return res, nil
}
