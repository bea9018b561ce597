package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/fieldrate/internal/clock"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	"github.com/smallbiznis/fieldrate/internal/ratecard/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRatecardTest(t *testing.T) (ratecarddomain.Service, *snowflake.Node) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&ratecarddomain.RateTier{})
	require.NoError(t, err)

	node, _ := snowflake.NewNode(1)

	svc := &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		clock: clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)),
		repo:  repository.Provide(),
	}

	return svc, node
}

func TestCreateRejectsOverlappingWindow(t *testing.T) {
	svc, node := setupRatecardTest(t)
	orgID := node.Generate().String()

	_, err := svc.Create(context.Background(), ratecarddomain.CreateRequest{
		OrganizationID: orgID,
		Name:           "Standard",
		DayOfWeek:      int(time.Monday),
		StartMinute:    9 * 60,
		EndMinute:      17 * 60,
		Multiplier:     "1.0",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), ratecarddomain.CreateRequest{
		OrganizationID: orgID,
		Name:           "Premium",
		DayOfWeek:      int(time.Monday),
		StartMinute:    16 * 60,
		EndMinute:      22 * 60,
		Multiplier:     "1.5",
	})
	require.ErrorIs(t, err, ratecarddomain.ErrOverlappingTiers)

	items, err := svc.List(context.Background(), orgID)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestCreateRejectsMalformedRows(t *testing.T) {
	svc, node := setupRatecardTest(t)
	orgID := node.Generate().String()

	cases := []struct {
		name string
		req  ratecarddomain.CreateRequest
		want error
	}{
		{
			name: "bad multiplier",
			req: ratecarddomain.CreateRequest{
				OrganizationID: orgID,
				Name:           "X",
				DayOfWeek:      int(time.Monday),
				StartMinute:    0,
				EndMinute:      60,
				Multiplier:     "abc",
			},
			want: ratecarddomain.ErrInvalidMultiplier,
		},
		{
			name: "inverted window",
			req: ratecarddomain.CreateRequest{
				OrganizationID: orgID,
				Name:           "X",
				DayOfWeek:      int(time.Monday),
				StartMinute:    17 * 60,
				EndMinute:      9 * 60,
				Multiplier:     "1.0",
			},
			want: ratecarddomain.ErrInvalidTimeWindow,
		},
		{
			name: "bad day",
			req: ratecarddomain.CreateRequest{
				OrganizationID: orgID,
				Name:           "X",
				DayOfWeek:      9,
				StartMinute:    0,
				EndMinute:      60,
				Multiplier:     "1.0",
			},
			want: ratecarddomain.ErrInvalidDayOfWeek,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTableForOrgReturnsValidatedTable(t *testing.T) {
	svc, node := setupRatecardTest(t)
	orgID := node.Generate().String()

	for _, req := range []ratecarddomain.CreateRequest{
		{OrganizationID: orgID, Name: "Premium", DayOfWeek: int(time.Monday), StartMinute: 17 * 60, EndMinute: 22 * 60, Multiplier: "1.5"},
		{OrganizationID: orgID, Name: "Standard", DayOfWeek: int(time.Monday), StartMinute: 9 * 60, EndMinute: 17 * 60, Multiplier: "1.0"},
	} {
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	table, err := svc.TableForOrg(context.Background(), orgID)
	require.NoError(t, err)

	resolved := table.Resolve(time.Monday, 18*60)
	assert.Equal(t, "Premium", resolved.Name)
	assert.False(t, resolved.Default)

	gap := table.Resolve(time.Monday, 7*60)
	assert.True(t, gap.Default)
}

func TestDeleteUnknownTier(t *testing.T) {
	svc, node := setupRatecardTest(t)
	orgID := node.Generate().String()

	err := svc.Delete(context.Background(), orgID, node.Generate().String())
	require.ErrorIs(t, err, ratecarddomain.ErrNotFound)
}
