package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// ArchiveRepository stores batch outputs under two prefixes: the full
// structured results as JSON under batches/, and the wide CSV exports under
// exports/.  Object keys embed the processing date and the batch job id.
type ArchiveRepository struct {
	client *Client
	logger logging.Logger
}

// NewArchiveRepository builds a repository over an established client.
func NewArchiveRepository(client *Client, log logging.Logger) *ArchiveRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ArchiveRepository{client: client, logger: log.Named("archive")}
}

// batchArchive is the stored JSON document.
type batchArchive struct {
	JobID      string          `json:"job_id"`
	ArchivedAt time.Time       `json:"archived_at"`
	LotCount   int             `json:"lot_count"`
	Results    []lot.LotResult `json:"results"`
}

// ArchiveResults stores the structured results of one batch job as a JSON
// object and returns its key.
func (r *ArchiveRepository) ArchiveResults(ctx context.Context, jobID string, results []lot.LotResult) (string, error) {
	doc := batchArchive{
		JobID:      jobID,
		ArchivedAt: time.Now().UTC(),
		LotCount:   len(results),
		Results:    results,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "encoding batch archive")
	}

	key := fmt.Sprintf("batches/%s/%s.json", doc.ArchivedAt.Format("2006-01-02"), jobID)
	if err := r.put(ctx, key, data, "application/json"); err != nil {
		return "", err
	}
	r.logger.Info("batch results archived",
		logging.String("job_id", jobID),
		logging.String("key", key),
		logging.Int("lots", len(results)))
	return key, nil
}

// ArchiveExport stores a wide CSV export and returns its key.
func (r *ArchiveRepository) ArchiveExport(ctx context.Context, jobID string, csvData []byte) (string, error) {
	key := fmt.Sprintf("exports/%s/%s.csv", time.Now().UTC().Format("2006-01-02"), jobID)
	if err := r.put(ctx, key, csvData, "text/csv"); err != nil {
		return "", err
	}
	r.logger.Info("csv export archived",
		logging.String("job_id", jobID),
		logging.String("key", key),
		logging.Int("bytes", len(csvData)))
	return key, nil
}

func (r *ArchiveRepository) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.client.api.PutObject(ctx, r.client.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrap(err, errors.CodeObjectStore, "uploading archive object").
			WithDetail("key: " + key)
	}
	return nil
}

// FetchResults loads an archived batch back from storage.
func (r *ArchiveRepository) FetchResults(ctx context.Context, key string) (string, []lot.LotResult, error) {
	obj, err := r.client.api.GetObject(ctx, r.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, wrapFetchErr(err, key)
	}
	defer obj.Close()

	// The minio client defers missing-key errors to the first Read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return "", nil, wrapFetchErr(err, key)
	}

	var doc batchArchive
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, errors.Wrap(err, errors.CodeObjectStore, "decoding batch archive").
			WithDetail("key: " + key)
	}
	return doc.JobID, doc.Results, nil
}

func wrapFetchErr(err error, key string) error {
	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
		return errors.Wrap(err, errors.CodeNotFound, "archive object not found").
			WithDetail("key: " + key)
	}
	return errors.Wrap(err, errors.CodeObjectStore, "fetching archive object").
		WithDetail("key: " + key)
}

// ArchiveInfo describes one stored object.
type ArchiveInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// List enumerates archived objects under a prefix, newest last.
func (r *ArchiveRepository) List(ctx context.Context, prefix string) ([]ArchiveInfo, error) {
	var infos []ArchiveInfo
	for obj := range r.client.api.ListObjects(ctx, r.client.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.CodeObjectStore, "listing archive objects")
		}
		infos = append(infos, ArchiveInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	return infos, nil
}

// DownloadURL returns a presigned GET URL for an archived object.
func (r *ArchiveRepository) DownloadURL(ctx context.Context, key string) (string, error) {
	u, err := r.client.api.PresignedGetObject(ctx, r.client.bucket, key, r.client.presignExpiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeObjectStore, "presigning download url").
			WithDetail("key: " + key)
	}
	return u.String(), nil
}
