package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/didi/gendry/builder"

	"github.com/reviewlens/reviewlens/internal/model"
	"github.com/reviewlens/reviewlens/internal/pkg/dbutil"
	appErr "github.com/reviewlens/reviewlens/internal/pkg/errors"
)

var reviewFields = []string{"id", "business_name", "location", "customer_name", "rating", "review_text", "review_date", "sentiment", "sentiment_score", "topics", "ctime"}

type ReviewRepo struct {
	db     *sql.DB
	driver string
}

func NewReviewRepo(db *sql.DB, driver string) *ReviewRepo {
	if driver == "" {
		driver = dbutil.DriverSQLite
	}
	return &ReviewRepo{db: db, driver: driver}
}

// CreateBatch inserts all reviews in one transaction and fills in the assigned ids.
func (r *ReviewRepo) CreateBatch(ctx context.Context, reviews []*model.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	for _, review := range reviews {
		id, err := r.insert(ctx, tx, review)
		if err != nil {
			return err
		}
		review.ID = id
	}
	return tx.Commit()
}

func (r *ReviewRepo) insert(ctx context.Context, tx *sql.Tx, review *model.Review) (int64, error) {
	topics, err := encodeTopics(review.Topics)
	if err != nil {
		return 0, err
	}
	data := map[string]interface{}{
		"business_name":   review.BusinessName,
		"location":        review.Location,
		"customer_name":   review.CustomerName,
		"rating":          review.Rating,
		"review_text":     review.ReviewText,
		"review_date":     review.Date,
		"sentiment":       review.Sentiment,
		"sentiment_score": review.SentimentScore,
		"topics":          topics,
		"ctime":           review.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("reviews", []map[string]interface{}{data})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(r.driver, sqlStr+" RETURNING id", args)
	var id int64
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}
	return id, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("reviews", where, reviewFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.driver, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	return scanReview(rows)
}

// ListByIDs returns the matching reviews in the order of ids; unknown ids are skipped.
func (r *ReviewRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Review, error) {
	if len(ids) == 0 {
		return []model.Review{}, nil
	}
	values := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	where := map[string]interface{}{
		"id in": values,
	}
	sqlStr, args, err := builder.BuildSelect("reviews", where, reviewFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.driver, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[int64]model.Review, len(ids))
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		byID[review.ID] = *review
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reviews := make([]model.Review, 0, len(ids))
	for _, id := range ids {
		if review, ok := byID[id]; ok {
			reviews = append(reviews, review)
		}
	}
	return reviews, nil
}

func (r *ReviewRepo) List(ctx context.Context, filter model.ReviewFilter, limit, offset uint) ([]model.Review, error) {
	cond, args := buildFilter(r.driver, filter)
	query := "SELECT " + strings.Join(reviewFields, ", ") + " FROM reviews" + cond + " ORDER BY ctime DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	query, args = dbutil.Finalize(r.driver, query, args)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reviews := make([]model.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepo) Count(ctx context.Context, filter model.ReviewFilter) (int, error) {
	cond, args := buildFilter(r.driver, filter)
	query, args := dbutil.Finalize(r.driver, "SELECT COUNT(1) FROM reviews"+cond, args)
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListCorpus returns id and text of every review in id order.
func (r *ReviewRepo) ListCorpus(ctx context.Context) ([]model.CorpusEntry, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, review_text FROM reviews ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.CorpusEntry, 0)
	for rows.Next() {
		var entry model.CorpusEntry
		if err := rows.Scan(&entry.ID, &entry.ReviewText); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *ReviewRepo) ListLocations(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT location FROM reviews WHERE location <> ''")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locations := make([]string, 0)
	for rows.Next() {
		var location string
		if err := rows.Scan(&location); err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(locations)
	return locations, nil
}

// Stats aggregates sentiment, rating, location and topic counts over all reviews.
func (r *ReviewRepo) Stats(ctx context.Context) (*model.ReviewStats, error) {
	stats := &model.ReviewStats{
		SentimentCounts:    map[string]int{},
		TopicCounts:        map[string]int{},
		RatingDistribution: map[string]int{},
		LocationStats:      map[string]int{},
	}
	if err := r.groupCount(ctx, "sentiment", func(key string, n int) {
		stats.SentimentCounts[key] = n
	}); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "rating", func(key string, n int) {
		stats.RatingDistribution[key] = n
		stats.Total += n
	}); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "location", func(key string, n int) {
		stats.LocationStats[key] = n
	}); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT topics FROM reviews")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		topics, err := decodeTopics(raw)
		if err != nil {
			continue
		}
		for _, topic := range topics {
			stats.TopicCounts[topic]++
		}
	}
	return stats, rows.Err()
}

func (r *ReviewRepo) groupCount(ctx context.Context, column string, fn func(key string, n int)) error {
	rows, err := r.db.QueryContext(ctx, "SELECT "+column+", COUNT(1) FROM reviews GROUP BY "+column)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key sql.NullString
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		if !key.Valid {
			continue
		}
		fn(key.String, n)
	}
	return rows.Err()
}

func buildFilter(driver string, filter model.ReviewFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Location != "" {
		conds = append(conds, "location = ?")
		args = append(args, filter.Location)
	}
	if filter.Sentiment != "" {
		conds = append(conds, "sentiment = ?")
		args = append(args, filter.Sentiment)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		lower := dbutil.LowerFunc(driver)
		conds = append(conds, fmt.Sprintf("(%[1]s(review_text) LIKE ? OR %[1]s(customer_name) LIKE ? OR %[1]s(business_name) LIKE ?)", lower))
		args = append(args, like, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row rowScanner) (*model.Review, error) {
	var (
		review model.Review
		topics string
	)
	if err := row.Scan(&review.ID, &review.BusinessName, &review.Location, &review.CustomerName, &review.Rating,
		&review.ReviewText, &review.Date, &review.Sentiment, &review.SentimentScore, &topics, &review.Ctime); err != nil {
		return nil, err
	}
	decoded, err := decodeTopics(topics)
	if err != nil {
		return nil, fmt.Errorf("decode topics of review %d: %w", review.ID, err)
	}
	review.Topics = decoded
	return &review, nil
}

func encodeTopics(topics []string) (string, error) {
	if topics == nil {
		topics = []string{}
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeTopics(raw string) ([]string, error) {
	topics := []string{}
	if strings.TrimSpace(raw) == "" {
		return topics, nil
	}
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, err
	}
	return topics, nil
}
