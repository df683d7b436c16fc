package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classification is the top label of a sentiment classifier with its confidence in [0, 1].
type Classification struct {
	Label      string
	Confidence float64
}

type IClassifier interface {
	Name() string
	Classify(ctx context.Context, text string) (*Classification, error)
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt)
}

type ProviderFactory func(args interface{}) (IProvider, error)

type ClassifierFactory func(model string, args interface{}) (IClassifier, error)

var (
	registry           = map[string]ProviderFactory{}
	classifierRegistry = map[string]ClassifierFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterClassifier(name string, factory ClassifierFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	classifierRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewClassifier(name, model string, args interface{}) (IClassifier, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai classifier is required")
	}
	factory := classifierRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai classifier: %s", name)
	}
	return factory(model, args)
}

var defaultModels = map[string]string{
	"openai":     "gpt-4o-mini",
	"perplexity": "sonar",
	"gemini":     "gemini-2.0-flash",
}

// DefaultModel returns the model used when a provider entry names none.
func DefaultModel(provider string) string {
	return defaultModels[normalizeName(provider)]
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
