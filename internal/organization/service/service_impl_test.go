package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/fieldrate/internal/clock"
	"github.com/smallbiznis/fieldrate/internal/organization/domain"
	"github.com/smallbiznis/fieldrate/internal/organization/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupOrgTest(t *testing.T) domain.Service {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}))

	node, _ := snowflake.NewNode(1)
	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.NewRepository(db),
	})
}

func TestCreateSlugsName(t *testing.T) {
	svc := setupOrgTest(t)

	org, err := svc.Create(context.Background(), domain.CreateRequest{
		Name:     "Blue Sky Electrical",
		Country:  "us",
		Currency: "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "blue-sky-electrical", org.Slug)
	assert.Equal(t, "US", org.Country)
	assert.Equal(t, "USD", org.Currency)
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	svc := setupOrgTest(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Name: "Acme Field Services"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CreateRequest{Name: "Acme Field Services"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := setupOrgTest(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestGetByID(t *testing.T) {
	svc := setupOrgTest(t)

	created, err := svc.Create(context.Background(), domain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Slug, got.Slug)

	_, err = svc.GetByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
