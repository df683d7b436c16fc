package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	defaultSentimentModel     = "cardiffnlp/twitter-roberta-base-sentiment-latest"
)

type huggingFaceConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type huggingFaceClassifier struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *huggingFaceClassifier) Name() string {
	return "huggingface"
}

func (c *huggingFaceClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	if c.apiKey == "" {
		return nil, ErrUnavailable
	}
	data, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(c.baseURL, "/") + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("huggingface request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	scores, err := decodeLabelScores(body)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("huggingface response has no labels")
	}
	best := scores[0]
	for _, item := range scores[1:] {
		if item.Score > best.Score {
			best = item
		}
	}
	return &Classification{Label: normalizeLabel(best.Label), Confidence: best.Score}, nil
}

// decodeLabelScores accepts both the batched [[...]] and the flat [...] response shapes.
func decodeLabelScores(body []byte) ([]hfLabelScore, error) {
	var nested [][]hfLabelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}
	var flat []hfLabelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode huggingface response: %w", err)
	}
	return flat, nil
}

func normalizeLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "label_2", "pos":
		return LabelPositive
	case "negative", "label_0", "neg":
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func createHuggingFaceFactory(model string, args interface{}) (IClassifier, error) {
	cfg := &huggingFaceConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultHuggingFaceBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultSentimentModel
	}
	return &huggingFaceClassifier{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  http.DefaultClient,
	}, nil
}

func init() {
	RegisterClassifier("huggingface", createHuggingFaceFactory)
}
