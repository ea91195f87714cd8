package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ubilern/internal/models"
)

var (
	// ErrAIUnavailable is returned when the OpenAI integration is not configured.
	ErrAIUnavailable = errors.New("openai integration is not configured")
)

const explainTimeout = 2 * time.Minute

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey, model, apiEndpoint string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}
	cfg := openai.DefaultConfig(apiKey)
	if apiEndpoint != "" {
		cfg.BaseURL = apiEndpoint
	}
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Explanation is the model's account of why the correct answer is right.
type Explanation struct {
	Summary     string           `json:"summary"`
	Distractors []DistractorNote `json:"distractors"`
}

type DistractorNote struct {
	Answer string `json:"answer"`
	Reason string `json:"reason"`
}

func (s *AIService) Enabled() bool {
	return s.client != nil && s.model != ""
}

// Explain asks the model to justify the correct answer of rec and to say why
// each distractor is wrong.
func (s *AIService) Explain(ctx context.Context, rec models.QuestionRecord) (*Explanation, error) {
	if !s.Enabled() {
		return nil, ErrAIUnavailable
	}

	var prompt strings.Builder
	prompt.WriteString(`Strictly respond with a JSON object {"summary":"","distractors":[{"answer":"","reason":""}]}. `)
	prompt.WriteString("Answer in the language of the question.\n\n")
	fmt.Fprintf(&prompt, "Question: %s\n", sanitizeForPrompt(rec.Question, 1200))
	fmt.Fprintf(&prompt, "Correct answer: %s\n", sanitizeForPrompt(rec.CorrectAnswer, 600))
	for _, d := range rec.Distractors {
		fmt.Fprintf(&prompt, "Wrong answer: %s\n", sanitizeForPrompt(d, 600))
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a patient examiner who explains multiple-choice exam questions to a learner.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt.String(),
			},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	ctx, cancel := context.WithTimeout(ctx, explainTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request openai explanation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	var explanation Explanation
	if err := json.Unmarshal([]byte(extractJSON(resp.Choices[0].Message.Content)), &explanation); err != nil {
		return nil, fmt.Errorf("unmarshal explanation json: %w", err)
	}
	if strings.TrimSpace(explanation.Summary) == "" {
		return nil, errors.New("openai returned an empty explanation")
	}
	return &explanation, nil
}

// extractJSON strips a markdown code fence and anything outside the outermost
// JSON object.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		start := 3
		if newlineIdx := strings.Index(content[start:], "\n"); newlineIdx != -1 {
			start += newlineIdx + 1
		}
		if endIdx := strings.Index(content[start:], "```"); endIdx != -1 {
			content = content[start : start+endIdx]
		} else {
			content = content[start:]
		}
	}
	content = strings.TrimSpace(content)

	if startIdx := strings.Index(content, "{"); startIdx != -1 {
		if endIdx := strings.LastIndex(content, "}"); endIdx != -1 && endIdx > startIdx {
			content = content[startIdx : endIdx+1]
		}
	}
	return strings.TrimSpace(content)
}

func sanitizeForPrompt(input string, limit int) string {
	collapsed := strings.Join(strings.Fields(strings.TrimSpace(input)), " ")
	if limit <= 0 {
		return collapsed
	}
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	if limit > 3 {
		return string(runes[:limit-3]) + "..."
	}
	return string(runes[:limit])
}
