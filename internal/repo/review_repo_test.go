package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reviewlens/reviewlens/internal/model"
	appErr "github.com/reviewlens/reviewlens/internal/pkg/errors"
	"github.com/reviewlens/reviewlens/internal/repo"
	"github.com/reviewlens/reviewlens/internal/testutil"
)

func newReview(business, location, customer string, rating int, text, sentiment string, ctime int64, topics ...string) *model.Review {
	return &model.Review{
		BusinessName:   business,
		Location:       location,
		CustomerName:   customer,
		Rating:         rating,
		ReviewText:     text,
		Date:           "2024-01-15",
		Sentiment:      sentiment,
		SentimentScore: 0.5,
		Topics:         topics,
		Ctime:          ctime,
	}
}

func seedReviews(t *testing.T, reviews *repo.ReviewRepo) []*model.Review {
	t.Helper()
	items := []*model.Review{
		newReview("Joe's Pizza", "Downtown", "John Doe", 5, "Amazing pizza and great service!", model.SentimentPositive, 100, "food quality", "service"),
		newReview("Joe's Pizza", "Uptown", "Jane Smith", 2, "Cold food, slow delivery", model.SentimentNegative, 200, "food quality", "delivery"),
		newReview("Burger Barn", "Downtown", "Alex Roe", 3, "It was fine", model.SentimentNeutral, 300),
	}
	require.NoError(t, reviews.CreateBatch(context.Background(), items))
	return items
}

func TestReviewRepoCreateAndGet(t *testing.T) {
	db, driver, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	reviews := repo.NewReviewRepo(db, driver)
	items := seedReviews(t, reviews)

	require.Greater(t, items[1].ID, items[0].ID)
	require.Greater(t, items[2].ID, items[1].ID)

	fetched, err := reviews.GetByID(context.Background(), items[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Joe's Pizza", fetched.BusinessName)
	require.Equal(t, "2024-01-15", fetched.Date)
	require.Equal(t, []string{"food quality", "service"}, fetched.Topics)
	require.Equal(t, model.SentimentPositive, fetched.Sentiment)

	neutral, err := reviews.GetByID(context.Background(), items[2].ID)
	require.NoError(t, err)
	require.Equal(t, []string{}, neutral.Topics)

	_, err = reviews.GetByID(context.Background(), 9999)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestReviewRepoListFiltersAndPagination(t *testing.T) {
	db, driver, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	reviews := repo.NewReviewRepo(db, driver)
	items := seedReviews(t, reviews)
	ctx := context.Background()

	all, err := reviews.List(ctx, model.ReviewFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, items[2].ID, all[0].ID, "newest first")

	page, err := reviews.List(ctx, model.ReviewFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, items[0].ID, page[0].ID)

	downtown, err := reviews.List(ctx, model.ReviewFilter{Location: "Downtown"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, downtown, 2)

	count, err := reviews.Count(ctx, model.ReviewFilter{Sentiment: model.SentimentNegative})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	searched, err := reviews.List(ctx, model.ReviewFilter{Search: "PIZZA"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, searched, 2)

	byCustomer, err := reviews.Count(ctx, model.ReviewFilter{Search: "alex", Location: "Downtown"})
	require.NoError(t, err)
	require.Equal(t, 1, byCustomer)
}

func TestReviewRepoListByIDsKeepsOrder(t *testing.T) {
	db, driver, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	reviews := repo.NewReviewRepo(db, driver)
	items := seedReviews(t, reviews)

	got, err := reviews.ListByIDs(context.Background(), []int64{items[2].ID, 9999, items[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, items[2].ID, got[0].ID)
	require.Equal(t, items[0].ID, got[1].ID)
}

func TestReviewRepoCorpusLocationsAndStats(t *testing.T) {
	db, driver, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	reviews := repo.NewReviewRepo(db, driver)
	ctx := context.Background()

	stats, err := reviews.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Total)
	require.Empty(t, stats.SentimentCounts)

	items := seedReviews(t, reviews)

	corpus, err := reviews.ListCorpus(ctx)
	require.NoError(t, err)
	require.Len(t, corpus, 3)
	require.Equal(t, items[0].ID, corpus[0].ID)
	require.Equal(t, items[0].ReviewText, corpus[0].ReviewText)

	locations, err := reviews.ListLocations(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Downtown", "Uptown"}, locations)

	stats, err = reviews.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, map[string]int{"positive": 1, "negative": 1, "neutral": 1}, stats.SentimentCounts)
	require.Equal(t, map[string]int{"5": 1, "2": 1, "3": 1}, stats.RatingDistribution)
	require.Equal(t, map[string]int{"Downtown": 2, "Uptown": 1}, stats.LocationStats)
	require.Equal(t, map[string]int{"food quality": 2, "service": 1, "delivery": 1}, stats.TopicCounts)
}

func TestReviewRepoSearchFoldsUnicodeCase(t *testing.T) {
	db, driver, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	reviews := repo.NewReviewRepo(db, driver)
	ctx := context.Background()
	require.NoError(t, reviews.CreateBatch(ctx, []*model.Review{
		newReview("Café Olé", "Downtown", "Zoë", 4, "Lovely crème brûlée", model.SentimentPositive, 100),
	}))

	for _, needle := range []string{"CAFÉ", "café", "ZOË", "CRÈME BRÛLÉE"} {
		n, err := reviews.Count(ctx, model.ReviewFilter{Search: needle})
		require.NoError(t, err)
		require.Equal(t, 1, n, needle)
	}
}
