package ai

import (
	"context"
	"strings"
)

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"

	lexiconConfidence = 0.7
)

var (
	lexiconPositive = []string{"good", "great", "excellent", "amazing", "love", "best", "wonderful", "delicious", "friendly", "fantastic"}
	lexiconNegative = []string{"bad", "terrible", "awful", "hate", "worst", "horrible", "disappointed", "slow", "rude", "poor", "dirty", "cold"}
)

// lexiconClassifier counts keyword hits and needs no network access.
type lexiconClassifier struct{}

func NewLexiconClassifier() IClassifier {
	return lexiconClassifier{}
}

func (lexiconClassifier) Name() string {
	return "lexicon"
}

func (lexiconClassifier) Classify(_ context.Context, text string) (*Classification, error) {
	lower := strings.ToLower(text)
	pos := countHits(lower, lexiconPositive)
	neg := countHits(lower, lexiconNegative)
	switch {
	case pos > neg:
		return &Classification{Label: LabelPositive, Confidence: lexiconConfidence}, nil
	case neg > pos:
		return &Classification{Label: LabelNegative, Confidence: lexiconConfidence}, nil
	default:
		return &Classification{Label: LabelNeutral, Confidence: 0}, nil
	}
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func init() {
	RegisterClassifier("lexicon", func(_ string, _ interface{}) (IClassifier, error) {
		return NewLexiconClassifier(), nil
	})
}
