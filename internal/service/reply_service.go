package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/reviewlens/reviewlens/internal/model"
	appErr "github.com/reviewlens/reviewlens/internal/pkg/errors"
	"github.com/reviewlens/reviewlens/internal/reply"
	"github.com/reviewlens/reviewlens/internal/repo"
)

type ReplyService struct {
	reviews   *repo.ReviewRepo
	generator *reply.Generator
	cache     *expirable.LRU[string, reply.Suggestion]
}

// NewReplyService caches suggestions when cacheSize is positive.
func NewReplyService(reviews *repo.ReviewRepo, generator *reply.Generator, cacheSize int, ttl time.Duration) *ReplyService {
	s := &ReplyService{reviews: reviews, generator: generator}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, reply.Suggestion](cacheSize, nil, ttl)
	}
	return s
}

func (s *ReplyService) Suggest(ctx context.Context, id int64) (*reply.Suggestion, error) {
	if id <= 0 {
		return nil, appErr.ErrNotFound
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	key := s.cacheKey(review)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return &cached, nil
		}
	}
	res := s.generator.Suggest(ctx, reply.Input{
		Text:      review.ReviewText,
		Rating:    review.Rating,
		Sentiment: review.Sentiment,
	})
	if s.cache != nil {
		s.cache.Add(key, res)
	}
	return &res, nil
}

func (s *ReplyService) cacheKey(review *model.Review) string {
	hash := sha256.Sum256([]byte(review.Sentiment + "|" + strconv.Itoa(review.Rating) + "|" + review.ReviewText))
	return strconv.FormatInt(review.ID, 10) + ":" + hex.EncodeToString(hash[:])
}
