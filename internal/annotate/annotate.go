package annotate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reviewlens/reviewlens/internal/ai"
	"github.com/reviewlens/reviewlens/internal/model"
)

const (
	maxClassifyChars = 500
	maxTopics        = 3
)

type topicGroup struct {
	name     string
	keywords []string
}

var topicVocabulary = []topicGroup{
	{"food quality", []string{"taste", "flavor", "delicious", "fresh", "quality", "food"}},
	{"service", []string{"service", "staff", "waiter", "waitress", "server", "friendly", "rude"}},
	{"atmosphere", []string{"atmosphere", "ambiance", "music", "noise", "crowded", "quiet"}},
	{"price", []string{"price", "cost", "expensive", "cheap", "value", "money"}},
	{"delivery", []string{"delivery", "arrived", "late", "fast", "quick", "slow"}},
	{"cleanliness", []string{"clean", "dirty", "hygiene", "mess", "tidy"}},
	{"location", []string{"location", "parking", "access", "convenient", "far"}},
	{"wait time", []string{"wait", "waiting", "long", "quick", "fast", "slow"}},
}

type Result struct {
	Sentiment string
	Score     float64
	Topics    []string
}

type Annotator struct {
	classifier ai.IClassifier
	cache      *expirable.LRU[string, Result]
	onFallback func()
}

type Option func(*Annotator)

// WithCache memoizes sentiment per truncated text.
func WithCache(size int, ttl time.Duration) Option {
	return func(a *Annotator) {
		if size > 0 {
			a.cache = expirable.NewLRU[string, Result](size, nil, ttl)
		}
	}
}

// WithFallbackHook is called every time the classifier result is replaced by neutral.
func WithFallbackHook(fn func()) Option {
	return func(a *Annotator) {
		a.onFallback = fn
	}
}

func New(classifier ai.IClassifier, opts ...Option) *Annotator {
	if classifier == nil {
		classifier = ai.NewLexiconClassifier()
	}
	a := &Annotator{classifier: classifier}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotate never fails: classifier problems degrade to a neutral sentiment.
func (a *Annotator) Annotate(ctx context.Context, text string) Result {
	sentiment, score := a.Sentiment(ctx, text)
	return Result{
		Sentiment: sentiment,
		Score:     score,
		Topics:    ExtractTopics(text),
	}
}

func (a *Annotator) Sentiment(ctx context.Context, text string) (string, float64) {
	input := truncateRunes(text, maxClassifyChars)
	key := cacheKey(input)
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached.Sentiment, cached.Score
		}
	}
	res, err := a.classifier.Classify(ctx, input)
	if err != nil || res == nil {
		logutil.GetLogger(ctx).Warn("sentiment classification failed, use neutral",
			zap.String("classifier", a.classifier.Name()), zap.Error(err))
		if a.onFallback != nil {
			a.onFallback()
		}
		return model.SentimentNeutral, 0
	}
	sentiment, score := toSentiment(res)
	if a.cache != nil {
		a.cache.Add(key, Result{Sentiment: sentiment, Score: score})
	}
	return sentiment, score
}

func toSentiment(res *ai.Classification) (string, float64) {
	switch res.Label {
	case ai.LabelPositive:
		return model.SentimentPositive, res.Confidence
	case ai.LabelNegative:
		return model.SentimentNegative, -res.Confidence
	default:
		return model.SentimentNeutral, 0
	}
}

// ExtractTopics returns at most three topic names, in vocabulary order.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)
	topics := make([]string, 0, maxTopics)
	for _, group := range topicVocabulary {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, group.name)
				break
			}
		}
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func cacheKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
