package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reviewlens/reviewlens/internal/model"
)

type fakeGenerator struct {
	out    string
	err    error
	prompt string
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.out, f.err
}

func TestTone(t *testing.T) {
	require.Equal(t, ToneGrateful, Tone(5, model.SentimentPositive))
	require.Equal(t, ToneGrateful, Tone(4, model.SentimentPositive))
	require.Equal(t, ToneApologetic, Tone(1, model.SentimentNegative))
	require.Equal(t, ToneApologetic, Tone(2, model.SentimentNegative))
	require.Equal(t, ToneProfessional, Tone(3, model.SentimentPositive))
	require.Equal(t, ToneProfessional, Tone(5, model.SentimentNegative))
	require.Equal(t, ToneProfessional, Tone(1, model.SentimentNeutral))
}

func TestSuggestSlowServiceIsApologetic(t *testing.T) {
	g := New(nil)
	s := g.Suggest(context.Background(), Input{
		Text:      "Service was terribly slow and the staff ignored us.",
		Rating:    1,
		Sentiment: model.SentimentNegative,
	})
	require.Equal(t, ToneApologetic, s.Tone)
	require.Equal(t, Template(ToneApologetic), s.Reply)
	require.Equal(t, []string{"Acknowledge service issues", "Apologize for wait time"}, s.KeyPoints)
}

func TestSuggestUsesGenerator(t *testing.T) {
	fallbacks := 0
	gen := &fakeGenerator{out: "**Thank you**, Jane! We are glad you enjoyed it [1].\n\nSee you soon [2]"}
	g := New(gen, WithFallbackHook(func() { fallbacks++ }))
	s := g.Suggest(context.Background(), Input{Text: "Great food!", Rating: 5, Sentiment: model.SentimentPositive})
	require.Equal(t, "Thank you, Jane! We are glad you enjoyed it.\n\nSee you soon", s.Reply)
	require.Equal(t, ToneGrateful, s.Tone)
	require.Contains(t, gen.prompt, "grateful")
	require.Contains(t, gen.prompt, "5-star review")
	require.Contains(t, gen.prompt, "Great food!")
	require.Zero(t, fallbacks)
}

func TestSuggestFallsBackToTemplate(t *testing.T) {
	fallbacks := 0
	hook := WithFallbackHook(func() { fallbacks++ })
	in := Input{Text: "It was fine.", Rating: 3, Sentiment: model.SentimentNeutral}

	failing := &fakeGenerator{err: errors.New("down")}
	s := New(failing, hook).Suggest(context.Background(), in)
	require.Equal(t, Template(ToneProfessional), s.Reply)

	empty := &fakeGenerator{out: "   "}
	s = New(empty, hook).Suggest(context.Background(), in)
	require.Equal(t, Template(ToneProfessional), s.Reply)

	long := &fakeGenerator{out: "unused"}
	s = New(long, hook, WithMaxInputChars(10)).Suggest(context.Background(), in)
	require.Equal(t, Template(ToneProfessional), s.Reply)
	require.Zero(t, long.calls)
	require.Equal(t, 3, fallbacks)
}

func TestPromptExcerpt(t *testing.T) {
	text := strings.Repeat("x", 350)
	gen := &fakeGenerator{out: "ok"}
	New(gen, WithMaxInputChars(1000)).Suggest(context.Background(), Input{Text: text, Rating: 3})
	require.Contains(t, gen.prompt, strings.Repeat("x", 300))
	require.NotContains(t, gen.prompt, strings.Repeat("x", 301))
}

func TestKeyPoints(t *testing.T) {
	require.Equal(t, []string{"Thank customer for feedback", "Address main concerns"}, KeyPoints("Nothing notable", model.SentimentNeutral))
	require.Equal(t, []string{"Express gratitude for positive feedback"}, KeyPoints("Lovely evening", model.SentimentPositive))
	require.Equal(t,
		[]string{"Express gratitude for positive feedback", "Address food quality concerns", "Acknowledge service issues"},
		KeyPoints("Tasty food, kind staff, fair price", model.SentimentPositive),
	)
	require.Equal(t,
		[]string{"Address cleanliness concerns", "Acknowledge pricing feedback"},
		KeyPoints("Dirty tables and expensive drinks", model.SentimentNegative),
	)
}

func TestMarkdownToText(t *testing.T) {
	out := cleanReply("# Hello\n\n- first item\n- second *item*\n\nVisit <https://example.com> soon.")
	require.Equal(t, "Hello\n\n- first item\n- second item\n\nVisit https://example.com soon.", out)
}
