// Package minio archives processed batch results as CSV and JSON objects so
// catalog teams can retrieve shipping exports after the fact.
package minio

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
)

// API is the subset of the minio client this package uses, abstracted for
// testing.  GetObject returns a plain reader so fakes do not have to build a
// *minio.Object.
type API interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
}

// minioAPI adapts *minio.Client to the API interface.
type minioAPI struct {
	*minio.Client
}

func (a minioAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.Client.GetObject(ctx, bucketName, objectName, opts)
}

// Client wraps the minio connection and the archive bucket.
type Client struct {
	api           API
	bucket        string
	presignExpiry time.Duration
	logger        logging.Logger
}

// NewClient connects to the configured endpoint, verifies it is reachable and
// ensures the archive bucket exists.
func NewClient(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	raw, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeObjectStore, "creating minio client")
	}
	api := minioAPI{raw}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := api.ListBuckets(pingCtx); err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "connecting to minio").
			WithDetail("endpoint: " + cfg.Endpoint)
	}

	c := &Client{
		api:           api,
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
		logger:        log.Named("minio"),
	}
	if err := c.ensureBucket(pingCtx); err != nil {
		return nil, err
	}

	log.Info("minio client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI injects an API implementation, for tests.
func NewClientWithAPI(api API, bucket string, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{api: api, bucket: bucket, presignExpiry: time.Hour, logger: log}
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.CodeObjectStore, "checking archive bucket")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeObjectStore, "creating archive bucket").
			WithDetail("bucket: " + c.bucket)
	}
	c.logger.Info("created archive bucket", logging.String("bucket", c.bucket))
	return nil
}

// Bucket returns the archive bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// HealthCheck verifies the endpoint answers and the archive bucket exists.
func (c *Client) HealthCheck(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.CodeUnavailable, "minio health check")
	}
	if !exists {
		return errors.New(errors.CodeObjectStore, "archive bucket missing").
			WithDetail("bucket: " + c.bucket)
	}
	return nil
}
