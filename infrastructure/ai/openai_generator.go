// Package ai adapts the OpenAI chat completion API to the ContentGenerator
// port. A circuit breaker sits in front of the API so a failing upstream
// degrades fast instead of stacking two-minute timeouts.
package ai

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"conceptmap-backend/application/ports"
	apperrors "conceptmap-backend/pkg/errors"
)

// OpenAIGenerator implements ports.ContentGenerator over the OpenAI API
type OpenAIGenerator struct {
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewOpenAIGenerator creates a generator for the given API key
func NewOpenAIGenerator(apiKey string, logger *zap.Logger) *OpenAIGenerator {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenAIGenerator{
		client:  openai.NewClient(apiKey),
		breaker: breaker,
		logger:  logger,
	}
}

var _ ports.ContentGenerator = (*OpenAIGenerator)(nil)

// Generate performs one chat completion round trip
func (g *OpenAIGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	completion := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.WantJSON {
		completion.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.CreateChatCompletion(ctx, completion)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ports.GenerationResult{}, apperrors.NewUnavailableError("ai generator")
		}
		g.logger.Error("chat completion failed", zap.String("model", req.Model), zap.Error(err))
		return ports.GenerationResult{}, apperrors.NewExternalError("openai", err)
	}

	result := resp.(openai.ChatCompletionResponse)
	if len(result.Choices) == 0 {
		return ports.GenerationResult{}, apperrors.NewExternalError("openai", errors.New("response contains no choices"))
	}

	text := result.Choices[0].Message.Content
	return ports.GenerationResult{Text: text, Raw: text}, nil
}
