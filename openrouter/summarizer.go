// Package openrouter implements readinglist.Summarizer against the
// OpenRouter chat completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/readinglist"
)

// Default client settings.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-3.5-turbo"
	DefaultReferer = "https://reading-list.app"
	DefaultTitle   = "Reading List AI"
)

const (
	// maxInputRunes bounds the content embedded in the outbound
	// prompt, protecting request size and cost.
	maxInputRunes = 5000

	// Hard output bounds enforced on every result.
	maxSummaryRunes = 500
	maxTopics       = 5

	temperature = 0.7
	maxTokens   = 500
)

// Ensure Summarizer implements readinglist.Summarizer at compile time.
var _ readinglist.Summarizer = (*Summarizer)(nil)

// Summarizer produces summaries and topic tags via OpenRouter.
type Summarizer struct {
	apiKey  string
	baseURL string
	model   string
	referer string
	title   string
	client  *http.Client
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithBaseURL overrides the API base URL. Useful for tests.
func WithBaseURL(baseURL string) Option {
	return func(s *Summarizer) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithModel sets the model used for summarization.
func WithModel(model string) Option {
	return func(s *Summarizer) {
		s.model = model
	}
}

// WithReferer sets the identifying HTTP-Referer header.
func WithReferer(referer string) Option {
	return func(s *Summarizer) {
		s.referer = referer
	}
}

// WithTitle sets the identifying X-Title header.
func WithTitle(title string) Option {
	return func(s *Summarizer) {
		s.title = title
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Summarizer) {
		s.client = client
	}
}

// NewSummarizer creates a new Summarizer authenticating with apiKey.
func NewSummarizer(apiKey string, opts ...Option) *Summarizer {
	s := &Summarizer{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		referer: DefaultReferer,
		title:   DefaultTitle,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = &http.Client{Timeout: 30 * time.Second}
	}

	return s
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends text to the model in a single call and parses a
// summary and topic tags out of its reply. No retries are performed;
// a failed call is terminal for the attempt.
func (s *Summarizer) Summarize(ctx context.Context, text string) (*readinglist.SummarizeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, readinglist.Errorf(readinglist.EINVALID, "Valid content is required")
	}

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(truncateRunes(text, maxInputRunes))},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("HTTP-Referer", s.referer)
	req.Header.Set("X-Title", s.title)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded):
			return nil, readinglist.Errorf(readinglist.ETIMEOUT, "Summarization request timed out")
		}
		return nil, readinglist.Errorf(readinglist.EUNAVAILABLE, "Failed to reach summarization service: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, readinglist.UpstreamErrorf(resp.StatusCode, "Failed to summarize content")
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, readinglist.Errorf(readinglist.EINTERNAL, "Invalid API response")
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, readinglist.Errorf(readinglist.EINTERNAL, "Invalid API response")
	}

	summary, topics := parseReply(parsed.Choices[0].Message.Content)
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}

	return &readinglist.SummarizeResult{
		Summary: truncateRunes(summary, maxSummaryRunes),
		Topics:  topics,
	}, nil
}

// BuildPrompt builds the user prompt embedding the content and the
// explicit output-format instructions.
func BuildPrompt(content string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following content and provide:\n")
	sb.WriteString("1. A concise summary (2-3 sentences)\n")
	sb.WriteString("2. 3-5 relevant topic tags\n\n")
	sb.WriteString("Content to analyze:\n")
	sb.WriteString(content)
	sb.WriteString("\n\nPlease respond in this exact JSON format:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"summary\": \"Your summary here\",\n")
	sb.WriteString("  \"topics\": [\"topic1\", \"topic2\", \"topic3\"]\n")
	sb.WriteString("}")
	return sb.String()
}

// parseReply extracts a summary and topics from the model's reply.
// The model is instructed to return JSON but is not guaranteed to,
// so parsing is lenient: the substring from the first '{' to the last
// '}' is decoded if possible; otherwise the entire reply becomes the
// summary with no topics.
func parseReply(reply string) (string, []string) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return reply, nil
	}

	var parsed struct {
		Summary any `json:"summary"`
		Topics  any `json:"topics"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return reply, nil
	}

	summary, _ := parsed.Summary.(string)

	var topics []string
	if arr, ok := parsed.Topics.([]any); ok {
		for _, v := range arr {
			if topic, ok := v.(string); ok {
				topics = append(topics, topic)
			}
		}
	}

	return summary, topics
}

// truncateRunes truncates s to at most n runes without splitting a
// UTF-8 sequence.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
