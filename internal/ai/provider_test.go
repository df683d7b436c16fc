package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatibleGenerate(t *testing.T) {
	var got openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Thanks for visiting!  "}}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider("perplexity", map[string]interface{}{"api_key": "key", "base_url": srv.URL})
	require.NoError(t, err)
	require.Equal(t, "perplexity", p.Name())
	res, err := NewGenerator(p, "sonar").Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Thanks for visiting!", res)
	require.Equal(t, "sonar", got.Model)
	require.Equal(t, 200, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	require.InDelta(t, 0.7, *got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "hello", got.Messages[0].Content)
}

func TestOpenAICompatibleErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewProvider("openai", map[string]interface{}{"api_key": "key", "base_url": srv.URL})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "gpt-4o-mini", "hi")
	require.Error(t, err)

	noKey, err := NewProvider("openai", nil)
	require.NoError(t, err)
	_, err = noKey.Generate(context.Background(), "gpt-4o-mini", "hi")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestUnknownProvider(t *testing.T) {
	_, err := NewProvider("nope", nil)
	require.Error(t, err)
	_, err = NewProvider("", nil)
	require.Error(t, err)
	_, err = NewClassifier("nope", "", nil)
	require.Error(t, err)
}

func TestHuggingFaceClassify(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		label string
		conf  float64
	}{
		{"nested", `[[{"label":"negative","score":0.1},{"label":"positive","score":0.85},{"label":"neutral","score":0.05}]]`, LabelPositive, 0.85},
		{"flat", `[{"label":"LABEL_0","score":0.9},{"label":"LABEL_2","score":0.1}]`, LabelNegative, 0.9},
		{"unknown label", `[{"label":"mixed","score":0.6}]`, LabelNeutral, 0.6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/models/"+defaultSentimentModel, r.URL.Path)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := NewClassifier("huggingface", "", map[string]interface{}{"api_key": "k", "base_url": srv.URL})
			require.NoError(t, err)
			res, err := c.Classify(context.Background(), "text")
			require.NoError(t, err)
			require.Equal(t, tc.label, res.Label)
			require.InDelta(t, tc.conf, res.Confidence, 1e-9)
		})
	}
}

func TestHuggingFaceWithoutKey(t *testing.T) {
	c, err := NewClassifier("huggingface", "", nil)
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), "text")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestLexiconClassifier(t *testing.T) {
	c, err := NewClassifier("lexicon", "", nil)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.Classify(ctx, "Amazing pizza and great service!")
	require.NoError(t, err)
	require.Equal(t, LabelPositive, res.Label)
	require.InDelta(t, 0.7, res.Confidence, 1e-9)

	res, err = c.Classify(ctx, "Terrible food and SLOW service.")
	require.NoError(t, err)
	require.Equal(t, LabelNegative, res.Label)

	res, err = c.Classify(ctx, "We had dinner on Tuesday.")
	require.NoError(t, err)
	require.Equal(t, LabelNeutral, res.Label)
	require.Zero(t, res.Confidence)
}

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (s *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestGroupGeneratorFallsThrough(t *testing.T) {
	first := &stubGenerator{err: errors.New("down")}
	empty := &stubGenerator{}
	last := &stubGenerator{reply: "ok"}
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "first", Generator: first},
		{Name: "empty", Generator: empty},
		{Name: "last", Generator: last},
	})
	res, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "ok", res)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, empty.calls)

	require.Nil(t, NewGroupGenerator(nil))
	_, err = NewGroupGenerator([]GeneratorEntry{{Name: "nil"}}).Generate(context.Background(), "p")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGeneratorBreakerOpens(t *testing.T) {
	inner := &stubGenerator{err: errors.New("boom")}
	g := WithGeneratorBreaker("test", inner, BreakerOptions{MaxFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := g.Generate(ctx, "p")
		require.EqualError(t, err, "boom")
	}
	_, err := g.Generate(ctx, "p")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, 2, inner.calls)
}

type slowClassifier struct{}

func (slowClassifier) Name() string { return "slow" }

func (slowClassifier) Classify(ctx context.Context, _ string) (*Classification, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestClassifierBreakerTimeout(t *testing.T) {
	c := WithClassifierBreaker(slowClassifier{}, BreakerOptions{CallTimeout: 10 * time.Millisecond})
	require.Equal(t, "slow", c.Name())
	_, err := c.Classify(context.Background(), "x")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ok := WithClassifierBreaker(NewLexiconClassifier(), BreakerOptions{})
	res, err := ok.Classify(context.Background(), "great")
	require.NoError(t, err)
	require.Equal(t, LabelPositive, res.Label)
}

func TestDefaultModel(t *testing.T) {
	require.Equal(t, "sonar", DefaultModel(" Perplexity "))
	require.Equal(t, "", DefaultModel("unknown"))
}
