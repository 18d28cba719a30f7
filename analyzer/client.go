// Package analyzer talks to the external generative service that turns raw
// story text into structured study material. It is the only slow, fallible
// collaborator in the system; callers bound it with a context deadline.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kcontext/kcontext/models"
	"github.com/kcontext/kcontext/services"
)

// Client calls the analyzer's chat-completion style HTTP API.
type Client struct {
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	sanitizer   *bluemonday.Policy
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel overrides the default model name.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates an analyzer client.
func New(apiURL, apiKey string, opts ...Option) (*Client, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("analyzer api url is not set")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("analyzer api key is not set")
	}
	c := &Client{
		apiURL:      apiURL,
		apiKey:      apiKey,
		model:       "gpt-4o-mini",
		temperature: 0.3,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		sanitizer:   bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Analyze produces the full study document for a story at one level.
// Transport and availability failures wrap ErrAnalysisUnavailable; responses
// that decode but do not validate wrap ErrMalformedAnalysis.
func (c *Client) Analyze(ctx context.Context, content, level string) (*models.AnalysisDocument, error) {
	system := "You are a Korean language teacher. Respond with a single JSON object, no prose."
	prompt := fmt.Sprintf(
		"Analyze this Korean story for a %s learner. Return JSON with keys: "+
			"summary, paragraphs_analysis (paragraph_num, original_text, simplified_text, explanation), "+
			"real_life_usage, vocabulary (word, meaning, example), grammar (pattern, explanation, example), "+
			"key_expressions.\n\nStory:\n%s",
		level, content,
	)

	raw, err := c.complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var doc models.AnalysisDocument
	if err := json.Unmarshal(extractJSON(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrMalformedAnalysis, err)
	}
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	c.sanitizeDocument(&doc)
	return &doc, nil
}

// GenerateQuiz produces comprehension questions for a story at one level.
func (c *Client) GenerateQuiz(ctx context.Context, content, level string, questions int) (*models.Quiz, error) {
	if questions <= 0 {
		questions = 5
	}
	system := "You are a Korean language teacher. Respond with a single JSON object, no prose."
	prompt := fmt.Sprintf(
		"Write %d multiple-choice comprehension questions for a %s learner about this Korean story. "+
			"Return JSON with key quiz_questions, each item having: question, options (4 strings), "+
			"correct_index (0-based), explanation.\n\nStory:\n%s",
		questions, level, content,
	)

	raw, err := c.complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	if err := json.Unmarshal(extractJSON(raw), &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrMalformedAnalysis, err)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: empty quiz", services.ErrMalformedAnalysis)
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, fmt.Errorf("%w: question %d has correct_index out of range", services.ErrMalformedAnalysis, i)
		}
		q.Question = c.clean(q.Question)
		q.Explanation = c.clean(q.Explanation)
		for j := range q.Options {
			q.Options[j] = c.clean(q.Options[j])
		}
	}
	return &quiz, nil
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal analyzer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build analyzer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", services.ErrAnalysisUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", services.ErrAnalysisUnavailable, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", services.ErrMalformedAnalysis, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", services.ErrAnalysisUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", services.ErrMalformedAnalysis)
	}
	return parsed.Choices[0].Message.Content, nil
}

func validateDocument(doc *models.AnalysisDocument) error {
	if strings.TrimSpace(doc.Summary) == "" {
		return fmt.Errorf("%w: empty summary", services.ErrMalformedAnalysis)
	}
	if len(doc.Paragraphs) == 0 {
		return fmt.Errorf("%w: no paragraph analysis", services.ErrMalformedAnalysis)
	}
	return nil
}

func (c *Client) sanitizeDocument(doc *models.AnalysisDocument) {
	doc.Summary = c.clean(doc.Summary)
	for i := range doc.Paragraphs {
		p := &doc.Paragraphs[i]
		p.OriginalText = c.clean(p.OriginalText)
		p.SimplifiedText = c.clean(p.SimplifiedText)
		p.Explanation = c.clean(p.Explanation)
	}
	for i, s := range doc.RealLifeUsage {
		doc.RealLifeUsage[i] = c.clean(s)
	}
	for i := range doc.Vocabulary {
		v := &doc.Vocabulary[i]
		v.Word = c.clean(v.Word)
		v.Meaning = c.clean(v.Meaning)
		v.Example = c.clean(v.Example)
	}
	for i := range doc.Grammar {
		g := &doc.Grammar[i]
		g.Pattern = c.clean(g.Pattern)
		g.Explanation = c.clean(g.Explanation)
		g.Example = c.clean(g.Example)
	}
	for i, s := range doc.KeyExpressions {
		doc.KeyExpressions[i] = c.clean(s)
	}
}

func (c *Client) clean(s string) string {
	return strings.TrimSpace(c.sanitizer.Sanitize(s))
}

// extractJSON tolerates models that wrap the object in a markdown fence.
func extractJSON(raw string) []byte {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return []byte(s)
}
