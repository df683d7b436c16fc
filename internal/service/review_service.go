package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reviewlens/reviewlens/internal/annotate"
	"github.com/reviewlens/reviewlens/internal/filestore"
	"github.com/reviewlens/reviewlens/internal/metrics"
	"github.com/reviewlens/reviewlens/internal/model"
	appErr "github.com/reviewlens/reviewlens/internal/pkg/errors"
	"github.com/reviewlens/reviewlens/internal/pkg/timeutil"
	"github.com/reviewlens/reviewlens/internal/repo"
	"github.com/reviewlens/reviewlens/internal/similarity"
)

const (
	DefaultPageSize = 10
	DefaultSearchK  = 5

	maxPageSize = 100
	maxSearchK  = 20
)

type ListQuery struct {
	Page      int
	Limit     int
	Location  string
	Sentiment string
	Search    string
}

type ReviewPage struct {
	Reviews []model.Review `json:"reviews"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
}

type SimilarReview struct {
	model.Review
	Similarity float64 `json:"similarity"`
}

type ReviewService struct {
	reviews   *repo.ReviewRepo
	annotator *annotate.Annotator
	index     *similarity.Holder
	archive   filestore.Store
	metrics   *metrics.Collector
	validate  *validator.Validate
}

// NewReviewService wires ingestion and lookup. archive and collector may be nil.
func NewReviewService(reviews *repo.ReviewRepo, annotator *annotate.Annotator, index *similarity.Holder, archive filestore.Store, collector *metrics.Collector) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		annotator: annotator,
		index:     index,
		archive:   archive,
		metrics:   collector,
		validate:  newValidator(),
	}
}

// CorpusLoader adapts the review store to the similarity index.
func CorpusLoader(reviews *repo.ReviewRepo) similarity.CorpusLoader {
	return func(ctx context.Context) ([]similarity.Document, error) {
		entries, err := reviews.ListCorpus(ctx)
		if err != nil {
			return nil, err
		}
		docs := make([]similarity.Document, 0, len(entries))
		for _, entry := range entries {
			docs = append(docs, similarity.Document{ID: entry.ID, Text: entry.ReviewText})
		}
		return docs, nil
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Ingest stores every record of payload, a JSON array of reviews or a single
// review object. Any invalid record rejects the whole batch.
func (s *ReviewService) Ingest(ctx context.Context, payload []byte) (int, error) {
	inputs, err := decodeBatch(payload)
	if err != nil {
		return 0, err
	}
	for i := range inputs {
		if err := s.validateInput(i, &inputs[i]); err != nil {
			return 0, err
		}
	}
	if len(inputs) == 0 {
		return 0, nil
	}
	now := timeutil.NowUnix()
	reviews := make([]*model.Review, 0, len(inputs))
	for _, in := range inputs {
		ann := s.annotator.Annotate(ctx, in.ReviewText)
		reviews = append(reviews, &model.Review{
			BusinessName:   in.BusinessName,
			Location:       in.Location,
			CustomerName:   in.CustomerName,
			Rating:         in.Rating,
			ReviewText:     in.ReviewText,
			Date:           in.Date,
			Sentiment:      ann.Sentiment,
			SentimentScore: ann.Score,
			Topics:         ann.Topics,
			Ctime:          now,
		})
	}
	if err := s.reviews.CreateBatch(ctx, reviews); err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.ReviewsIngested.Add(float64(len(reviews)))
	}
	s.archivePayload(ctx, payload)
	if err := s.RebuildIndex(ctx); err != nil {
		logutil.GetLogger(ctx).Error("rebuild index after ingest failed, keep previous index", zap.Error(err))
	}
	logutil.GetLogger(ctx).Info("reviews ingested", zap.Int("count", len(reviews)))
	return len(reviews), nil
}

func decodeBatch(payload []byte) ([]model.ReviewInput, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, appErr.Invalid("request body is empty")
	}
	switch trimmed[0] {
	case '[':
		var inputs []model.ReviewInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, appErr.Invalid("invalid review batch: %s", jsonErrorMessage(err))
		}
		return inputs, nil
	case '{':
		var input model.ReviewInput
		if err := json.Unmarshal(trimmed, &input); err != nil {
			return nil, appErr.Invalid("invalid review: %s", jsonErrorMessage(err))
		}
		return []model.ReviewInput{input}, nil
	default:
		return nil, appErr.Invalid("request body must be a JSON array or object")
	}
}

func jsonErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return "field " + typeErr.Field + " must be " + typeErr.Type.String()
	}
	return err.Error()
}

func (s *ReviewService) validateInput(index int, in *model.ReviewInput) error {
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.Location = strings.TrimSpace(in.Location)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.ReviewText = strings.TrimSpace(in.ReviewText)
	in.Date = strings.TrimSpace(in.Date)
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return appErr.Invalid("record %d: field %s failed %s validation", index, fe.Field(), fe.Tag())
	}
	return appErr.Invalid("record %d: %s", index, err.Error())
}

func (s *ReviewService) archivePayload(ctx context.Context, payload []byte) {
	if s.archive == nil {
		return
	}
	key := filestore.ArchiveKey(time.Now())
	if err := s.archive.Save(ctx, key, bytes.NewReader(payload), int64(len(payload))); err != nil {
		logutil.GetLogger(ctx).Error("archive ingest payload failed",
			zap.String("store", s.archive.Type()), zap.String("key", key), zap.Error(err))
		if s.metrics != nil {
			s.metrics.ArchiveFailures.Inc()
		}
	}
}

// RebuildIndex refits the similarity index over every stored review.
func (s *ReviewService) RebuildIndex(ctx context.Context) error {
	if err := s.index.Rebuild(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.RebuildFailed()
		}
		return err
	}
	return nil
}

func (s *ReviewService) List(ctx context.Context, q ListQuery) (*ReviewPage, error) {
	if q.Page < 1 {
		return nil, appErr.Invalid("page must be >= 1")
	}
	if q.Limit < 1 || q.Limit > maxPageSize {
		return nil, appErr.Invalid("limit must be between 1 and %d", maxPageSize)
	}
	filter := model.ReviewFilter{
		Location:  strings.TrimSpace(q.Location),
		Sentiment: strings.ToLower(strings.TrimSpace(q.Sentiment)),
		Search:    strings.TrimSpace(q.Search),
	}
	if filter.Sentiment != "" && !model.IsValidSentiment(filter.Sentiment) {
		return nil, appErr.Invalid("sentiment must be positive, negative or neutral")
	}
	total, err := s.reviews.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := &ReviewPage{
		Reviews: []model.Review{},
		Total:   total,
		Page:    q.Page,
		Pages:   pageCount(total, q.Limit),
	}
	// pages past the last one are empty; this also keeps the offset from overflowing
	if q.Page > page.Pages {
		return page, nil
	}
	offset := uint((q.Page - 1) * q.Limit)
	items, err := s.reviews.List(ctx, filter, uint(q.Limit), offset)
	if err != nil {
		return nil, err
	}
	page.Reviews = items
	return page, nil
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

func (s *ReviewService) Get(ctx context.Context, id int64) (*model.Review, error) {
	if id <= 0 {
		return nil, appErr.ErrNotFound
	}
	return s.reviews.GetByID(ctx, id)
}

func (s *ReviewService) Locations(ctx context.Context) ([]string, error) {
	return s.reviews.ListLocations(ctx)
}

// Search returns stored reviews most similar to query, best match first.
func (s *ReviewService) Search(ctx context.Context, query string, k int) ([]SimilarReview, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.Invalid("q is required")
	}
	if k < 1 || k > maxSearchK {
		return nil, appErr.Invalid("k must be between 1 and %d", maxSearchK)
	}
	matches := s.index.Query(query, k)
	if len(matches) == 0 {
		return []SimilarReview{}, nil
	}
	ids := make([]int64, 0, len(matches))
	scores := make(map[int64]float64, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
		scores[m.ID] = m.Score
	}
	items, err := s.reviews.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]SimilarReview, 0, len(items))
	for _, item := range items {
		out = append(out, SimilarReview{Review: item, Similarity: scores[item.ID]})
	}
	return out, nil
}

func (s *ReviewService) IndexStats() similarity.Stats {
	return s.index.Stats()
}
