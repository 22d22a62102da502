package emotion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"emosante/internal/config"
	"emosante/internal/observability"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const promptTemplate = "Identify the main emotion in: %s"

type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

func NewOpenAIClassifier(cfg *config.OpenAIConfig) *OpenAIClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Prompt renders the single user message sent to the provider.
func Prompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// Classify asks the chat-completion endpoint for the main emotion in text
// and returns the first choice's content.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(text),
			},
		},
	})
	observability.GlobalMetrics.ClassificationDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.GlobalMetrics.ClassificationsTotal.WithLabelValues("failed").Inc()
		logrus.WithError(err).WithField("model", c.model).Error("Emotion classification request failed")
		return "", &ClassifyError{Provider: "openai", Err: err}
	}

	if len(resp.Choices) == 0 {
		observability.GlobalMetrics.ClassificationsTotal.WithLabelValues("failed").Inc()
		return "", &ClassifyError{Provider: "openai", Err: ErrNoChoices}
	}

	observability.GlobalMetrics.ClassificationsTotal.WithLabelValues("success").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
