package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reviewlens/reviewlens/internal/ai"
	"github.com/reviewlens/reviewlens/internal/model"
)

const (
	ToneGrateful     = "grateful"
	ToneApologetic   = "apologetic"
	ToneProfessional = "professional"

	defaultMaxInputChars = 400
	promptExcerptChars   = 300
	maxKeyPoints         = 3
)

var templates = map[string]string{
	ToneGrateful:     "Thank you so much for your wonderful review! We're thrilled to hear you had a great experience. We look forward to serving you again soon!",
	ToneApologetic:   "Thank you for your feedback. We sincerely apologize for not meeting your expectations. We would love the opportunity to make this right. Please contact us directly so we can address your concerns.",
	ToneProfessional: "Thank you for taking the time to review us. We appreciate your feedback and are always working to improve our service. We hope to see you again soon!",
}

type keyPointGroup struct {
	point    string
	keywords []string
}

var keyPointGroups = []keyPointGroup{
	{"Thank customer for feedback", []string{"review", "feedback"}},
	{"Address food quality concerns", []string{"food", "taste", "cold", "hot"}},
	{"Acknowledge service issues", []string{"service", "staff", "waiter", "slow"}},
	{"Apologize for wait time", []string{"wait", "long", "slow", "late"}},
	{"Address cleanliness concerns", []string{"clean", "dirty", "mess"}},
	{"Acknowledge pricing feedback", []string{"expensive", "price", "cost", "value"}},
}

var defaultKeyPoints = []string{"Thank customer for feedback", "Address main concerns"}

type Input struct {
	Text      string
	Rating    int
	Sentiment string
}

type Suggestion struct {
	Reply     string   `json:"reply"`
	Tone      string   `json:"tone"`
	KeyPoints []string `json:"key_points"`
}

type Generator struct {
	gen           ai.IGenerator
	maxInputChars int
	onFallback    func()
}

type Option func(*Generator)

// WithMaxInputChars sets the review length at or above which the model is skipped.
func WithMaxInputChars(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxInputChars = n
		}
	}
}

func WithFallbackHook(fn func()) Option {
	return func(g *Generator) {
		g.onFallback = fn
	}
}

// New builds a reply generator. A nil gen always answers with templates.
func New(gen ai.IGenerator, opts ...Option) *Generator {
	g := &Generator{gen: gen, maxInputChars: defaultMaxInputChars}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Suggest(ctx context.Context, in Input) Suggestion {
	tone := Tone(in.Rating, in.Sentiment)
	return Suggestion{
		Reply:     g.reply(ctx, in, tone),
		Tone:      tone,
		KeyPoints: KeyPoints(in.Text, in.Sentiment),
	}
}

func (g *Generator) reply(ctx context.Context, in Input, tone string) string {
	if g.gen == nil || len([]rune(in.Text)) >= g.maxInputChars {
		return g.fallback(tone)
	}
	out, err := g.gen.Generate(ctx, buildPrompt(in, tone))
	if err != nil {
		logutil.GetLogger(ctx).Warn("reply generation failed, use template", zap.String("tone", tone), zap.Error(err))
		return g.fallback(tone)
	}
	text := cleanReply(out)
	if text == "" {
		logutil.GetLogger(ctx).Warn("reply generation returned empty text, use template", zap.String("tone", tone))
		return g.fallback(tone)
	}
	return text
}

func (g *Generator) fallback(tone string) string {
	if g.onFallback != nil {
		g.onFallback()
	}
	return Template(tone)
}

func Tone(rating int, sentiment string) string {
	switch {
	case rating >= 4 && sentiment == model.SentimentPositive:
		return ToneGrateful
	case rating <= 2 && sentiment == model.SentimentNegative:
		return ToneApologetic
	default:
		return ToneProfessional
	}
}

func Template(tone string) string {
	if t, ok := templates[tone]; ok {
		return t
	}
	return templates[ToneProfessional]
}

// KeyPoints lists up to three things the reply should address.
func KeyPoints(text, sentiment string) []string {
	lower := strings.ToLower(text)
	points := make([]string, 0, len(keyPointGroups)+1)
	if sentiment == model.SentimentPositive {
		points = append(points, "Express gratitude for positive feedback")
	}
	for _, group := range keyPointGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				points = append(points, group.point)
				break
			}
		}
	}
	if len(points) == 0 {
		return append([]string(nil), defaultKeyPoints...)
	}
	if len(points) > maxKeyPoints {
		points = points[:maxKeyPoints]
	}
	return points
}

func buildPrompt(in Input, tone string) string {
	excerpt := []rune(in.Text)
	if len(excerpt) > promptExcerptChars {
		excerpt = excerpt[:promptExcerptChars]
	}
	var b strings.Builder
	b.WriteString("You are a professional restaurant manager responding to a customer review.\n")
	fmt.Fprintf(&b, "Write a %s and helpful response to this %d-star review: %q\n\n", tone, in.Rating, string(excerpt))
	b.WriteString("Guidelines:\n")
	b.WriteString("- Keep the response under 150 words\n")
	b.WriteString("- Be genuine and specific to the review\n")
	b.WriteString("- If it's a positive review, express gratitude\n")
	b.WriteString("- If it's a negative review, acknowledge concerns and offer solutions\n")
	b.WriteString("- Maintain a professional but warm tone\n")
	b.WriteString("- Don't make promises you can't keep\n\n")
	b.WriteString("Response:")
	return b.String()
}
