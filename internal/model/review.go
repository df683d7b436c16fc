package model

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

type Review struct {
	ID             int64    `json:"id"`
	BusinessName   string   `json:"business_name"`
	Location       string   `json:"location"`
	CustomerName   string   `json:"customer_name"`
	Rating         int      `json:"rating"`
	ReviewText     string   `json:"review_text"`
	Date           string   `json:"date"`
	Sentiment      string   `json:"sentiment"`
	SentimentScore float64  `json:"sentiment_score"`
	Topics         []string `json:"topics"`
	Ctime          int64    `json:"created_at"`
}

// ReviewInput is a raw review record as submitted for ingestion.
type ReviewInput struct {
	BusinessName string `json:"business_name" validate:"required,max=255"`
	Location     string `json:"location" validate:"required,max=255"`
	CustomerName string `json:"customer_name" validate:"required,max=255"`
	Rating       int    `json:"rating" validate:"min=1,max=5"`
	ReviewText   string `json:"review_text" validate:"required"`
	Date         string `json:"date" validate:"required,max=50"`
}

type ReviewFilter struct {
	Location  string
	Sentiment string
	Search    string
}

// CorpusEntry is the minimal projection used to build the similarity index.
type CorpusEntry struct {
	ID         int64
	ReviewText string
}

type ReviewStats struct {
	Total              int            `json:"total"`
	SentimentCounts    map[string]int `json:"sentiment_counts"`
	TopicCounts        map[string]int `json:"topic_counts"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	LocationStats      map[string]int `json:"location_stats"`
}

func IsValidSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}
