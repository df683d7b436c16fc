package service

import (
	"context"

	"github.com/reviewlens/reviewlens/internal/model"
	"github.com/reviewlens/reviewlens/internal/repo"
)

type AnalyticsService struct {
	reviews *repo.ReviewRepo
}

func NewAnalyticsService(reviews *repo.ReviewRepo) *AnalyticsService {
	return &AnalyticsService{reviews: reviews}
}

// Summary counts reviews by sentiment, topic, rating and location.
func (s *AnalyticsService) Summary(ctx context.Context) (*model.ReviewStats, error) {
	return s.reviews.Stats(ctx)
}
