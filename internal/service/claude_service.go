package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/transfer"
)

// AIClient is the boundary to the text service. Implementations are
// best effort; callers own the degradation policy for malformed output.
type AIClient interface {
	ClassifyTopics(ctx context.Context, texts []string) ([][]string, error)
	ClassifySentiment(ctx context.Context, text string) (string, error)
	GenerateSuggestions(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error)
	InferTopics(ctx context.Context, samples []string) ([]string, error)
	SummarizeStyle(ctx context.Context, samples []string) (string, error)
	DigestTopic(ctx context.Context, name string, samples []string) (string, error)
}

type claudeService struct {
	client anthropic.Client
	model  string
}

func NewClaudeService(cfg config.Config) AIClient {
	return &claudeService{
		client: anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:  cfg.AnthropicModel,
	}
}

func (s *claudeService) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai call: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", errors.New("empty ai response")
	}
	return msg.Content[0].Text, nil
}

// ClassifyTopics sends the whole batch in one request and expects one
// topic list per input, positionally aligned.
func (s *claudeService) ClassifyTopics(ctx context.Context, texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("Extract 1-3 short topics for each of the following posts.\n")
	b.WriteString("Output ONLY a JSON array with exactly one array of topic strings per post, in the same order, no markdown.\n")
	b.WriteString(`Example for two posts: [["ai","startups"],["coffee"]]` + "\n\nPosts:\n")
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}

	raw, err := s.complete(ctx, b.String(), 1024)
	if err != nil {
		return nil, err
	}

	jsonStr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var topics [][]string
	if err := json.Unmarshal([]byte(jsonStr), &topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	return topics, nil
}

func (s *claudeService) ClassifySentiment(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Classify the sentiment of this post as exactly one word: positive, neutral or negative. Output only the word.\n\nPost: %s", text)
	raw, err := s.complete(ctx, prompt, 16)
	if err != nil {
		return "", err
	}

	sentiment := strings.ToLower(strings.TrimSpace(raw))
	switch sentiment {
	case "positive", "neutral", "negative":
		return sentiment, nil
	}
	return "", fmt.Errorf("unexpected sentiment %q", sentiment)
}

func (s *claudeService) GenerateSuggestions(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
	contextJSON, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a social media ghostwriter for a %s account.

Context:
%s

Write %d post suggestions grounded in the context. Match the account's voice when given;
otherwise imitate the sample posts; fall back to the style summary only when neither exists.
For a reply to one of the recent posts, set type to "reply" and source_external_id to that
post's external_id. Otherwise set type to "original".

Output ONLY a valid JSON array matching this exact schema, no markdown:
[
  {
    "type": "<original|reply>",
    "content": "<the post text>",
    "reasoning": "<one sentence on why this post, for this account, now>",
    "angle": "<hot-take|insight|question|story|announcement>",
    "topics": ["<topic>"],
    "source_external_id": "<external id of the replied-to post, or omit>"
  }
]`, pc.Platform, string(contextJSON), count)

	raw, err := s.complete(ctx, prompt, 4096)
	if err != nil {
		return nil, err
	}

	jsonStr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var suggestions []transfer.GeneratedSuggestion
	if err := json.Unmarshal([]byte(jsonStr), &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return suggestions, nil
}

func (s *claudeService) InferTopics(ctx context.Context, samples []string) ([]string, error) {
	var b strings.Builder
	b.WriteString("Infer 3-6 recurring topics of interest from these posts by one author.\n")
	b.WriteString("Output ONLY a JSON array of short topic strings, no markdown.\n\nPosts:\n")
	for i, t := range samples {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}

	raw, err := s.complete(ctx, b.String(), 256)
	if err != nil {
		return nil, err
	}

	jsonStr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var topics []string
	if err := json.Unmarshal([]byte(jsonStr), &topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	return topics, nil
}

func (s *claudeService) SummarizeStyle(ctx context.Context, samples []string) (string, error) {
	var b strings.Builder
	b.WriteString("Describe the writing style of this author in 2-3 sentences: tone, sentence rhythm, vocabulary, quirks. Output plain text only.\n\nPosts:\n")
	for i, t := range samples {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}

	raw, err := s.complete(ctx, b.String(), 256)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (s *claudeService) DigestTopic(ctx context.Context, name string, samples []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize what is being discussed around %q right now in 2-3 sentences, based on these posts. Output plain text only.\n\nPosts:\n", name)
	for i, t := range samples {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}

	raw, err := s.complete(ctx, b.String(), 256)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// extractJSONArray finds the first complete JSON array in a model
// response that may be wrapped in prose or code fences.
func extractJSONArray(s string) (string, error) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no JSON array found in response")
	}
	jsonStr := s[start : end+1]
	if !json.Valid([]byte(jsonStr)) {
		return "", errors.New("response does not contain valid JSON")
	}
	return jsonStr, nil
}
