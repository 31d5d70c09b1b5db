package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"estatehub/internal/database"
	"estatehub/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB connects to TEST_DATABASE_URL and empties the listing tables.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Exec("TRUNCATE property_listings, users CASCADE").Error)
	return db
}

func seedListing(t *testing.T, repo ListingRepository, owner uuid.UUID, status model.ReviewStatus, createdAt time.Time) *model.PropertyListing {
	t.Helper()
	l := &model.PropertyListing{
		UserID:       owner,
		Title:        "Listing " + string(status),
		ListingType:  model.ListingTypeSale,
		PropertyType: "apartment",
		Price:        decimal.NewFromInt(100000),
		City:         "Dubai",
		Status:       model.ListingActive,
		Review:       model.Review{ReviewStatus: status},
		CreatedAt:    createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), l))
	return l
}

func TestListingRepository_CountsAndOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	owner := &model.User{Name: "Owner", Email: "owner@example.com", Phone: "1", Password: "x"}
	require.NoError(t, db.Create(owner).Error)

	base := time.Now().Add(-time.Hour)
	statuses := []model.ReviewStatus{
		model.ReviewPending, model.ReviewPending, model.ReviewPending,
		model.ReviewApproved, model.ReviewApproved, model.ReviewRejected,
	}
	var newest *model.PropertyListing
	for i, s := range statuses {
		newest = seedListing(t, repo, owner.ID, s, base.Add(time.Duration(i)*time.Minute))
	}

	tx := NewTransactionManager(db)
	var (
		page   []model.PropertyListing
		total  int64
		counts map[model.ReviewStatus]int64
	)
	err := tx.RunInSnapshot(context.Background(), func(ctx context.Context) error {
		var err error
		if page, total, err = repo.List(ctx, ListingFilter{ReviewStatus: model.ReviewAll, Limit: 50}); err != nil {
			return err
		}
		counts, err = repo.CountByReviewStatus(ctx)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(6), total)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, map[model.ReviewStatus]int64{
		model.ReviewPending:   3,
		model.ReviewApproved:  2,
		model.ReviewRejected:  1,
		model.ReviewNeedsEdit: 0,
	}, counts)
}

func TestListingRepository_CompareAndSetReviewSingleWinner(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	owner := &model.User{Name: "Owner", Email: "cas@example.com", Phone: "1", Password: "x"}
	require.NoError(t, db.Create(owner).Error)
	listing := seedListing(t, repo, owner.ID, model.ReviewPending, time.Now())

	now := time.Now()
	next := []model.Review{
		{ReviewStatus: model.ReviewApproved, ReviewedBy: ptr(uuid.New()), ReviewedAt: &now},
		{ReviewStatus: model.ReviewRejected, RejectionReason: "duplicate", ReviewedBy: ptr(uuid.New()), ReviewedAt: &now},
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, n := range next {
		wg.Add(1)
		go func(n model.Review) {
			defer wg.Done()
			ok, err := repo.CompareAndSetReview(context.Background(), listing.ID, model.ReviewPending, n)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	stored, err := repo.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.NotEqual(t, model.ReviewPending, stored.ReviewStatus)
}

func TestListingRepository_UpdateContentGuardsReviewStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	owner := &model.User{Name: "Owner", Email: "content@example.com", Phone: "1", Password: "x"}
	require.NoError(t, db.Create(owner).Error)
	listing := seedListing(t, repo, owner.ID, model.ReviewPending, time.Now().Add(-time.Hour))

	stale := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, db.Model(listing).UpdateColumn("updated_at", stale).Error)

	listing.Title = "Renovated"
	ok, err := repo.UpdateContent(context.Background(), listing, model.ReviewApproved)
	require.NoError(t, err)
	assert.False(t, ok)
	stored, err := repo.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Listing PENDING", stored.Title)

	ok, err = repo.UpdateContent(context.Background(), listing, model.ReviewPending)
	require.NoError(t, err)
	assert.True(t, ok)
	stored, err = repo.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renovated", stored.Title)
	assert.True(t, stored.UpdatedAt.After(stale))
}

func ptr[T any](v T) *T { return &v }
