//go:build integration

// Integration tests for the result repository.  They start a disposable
// PostgreSQL container, so a local Docker daemon is required:
//
//	go test -tags integration ./internal/infrastructure/database/postgres/...
package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres/repositories"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	apperrors "github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

func setupRepo(t *testing.T) *repositories.ResultRepository {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "lotproc",
				"POSTGRES_PASSWORD": "lotproc",
				"POSTGRES_DB":       "lotproc_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "lotproc",
		Password: "lotproc",
		DBName:   "lotproc_test",
		SSLMode:  "disable",
		MaxConns: 5,
	}

	require.NoError(t, postgres.RunMigrations(cfg, logging.NewNopLogger()))

	conn, err := postgres.NewConnection(ctx, cfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	return repositories.NewResultRepository(conn.Pool(), logging.NewNopLogger())
}

func sampleResult(lotID string, review bool) lot.LotResult {
	res := lot.LotResult{
		Lot:                lot.LotDescription{LotID: lotID, Text: "Huile sur toile 162 x 130 cm"},
		Count:              lot.ItemCount{Count: 1, Provenance: lot.CountDefault},
		Classification:     lot.ClassTwoD,
		ClassificationRule: "two_d_material",
		Material:           "Canvas",
		Items: []lot.ResolvedItem{
			{Index: 1, H: lot.Dim(130), L: lot.Dim(162), D: lot.Dim(5)},
		},
		ManualReviewRequired: review,
	}
	res.Flags.Add(lot.FlagDepthDefaulted2D)
	res.Log.Append("D=5 (2D)")
	return res
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	want := sampleResult("IT-1", false)
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.GetByLotID(ctx, "IT-1")
	require.NoError(t, err)
	assert.Equal(t, want.Lot, got.Lot)
	assert.Equal(t, want.Count, got.Count)
	assert.Equal(t, want.Classification, got.Classification)
	assert.Equal(t, want.Material, got.Material)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 130.0, *got.Items[0].H)
	assert.True(t, got.Flags.Contains(lot.FlagDepthDefaulted2D))
	assert.Equal(t, []string{"D=5 (2D)"}, got.Log.Entries())
}

func TestSaveOverwritesPreviousRun(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleResult("IT-2", false)))

	updated := sampleResult("IT-2", true)
	updated.Material = "Bronze"
	require.NoError(t, repo.Save(ctx, updated))

	got, err := repo.GetByLotID(ctx, "IT-2")
	require.NoError(t, err)
	assert.Equal(t, "Bronze", got.Material)
	assert.True(t, got.ManualReviewRequired)
}

func TestGetMissingLot(t *testing.T) {
	repo := setupRepo(t)
	_, err := repo.GetByLotID(context.Background(), "absent")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLotNotFound, apperrors.GetCode(err))
}

func TestListManualReview(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, sampleResult(fmt.Sprintf("REV-%d", i), true)))
	}
	require.NoError(t, repo.Save(ctx, sampleResult("CLEAN-1", false)))

	got, err := repo.ListManualReview(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, res := range got {
		assert.True(t, res.ManualReviewRequired)
	}
}
