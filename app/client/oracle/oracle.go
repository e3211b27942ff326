package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"negosim/app/config"

	"github.com/sashabaranov/go-openai"
)

const maxCompletionDuration = 30 * time.Second

// Client is a thin text-completion oracle: one prompt in, one reply out.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(cfg config.ModelConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: maxCompletionDuration,
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
	JSON        bool
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, maxCompletionDuration)
	defer cancel()

	completionReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         req.Temperature,
	}

	if req.JSON {
		completionReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	aiResponse, err := c.client.CreateChatCompletion(ctx, completionReq)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	result := aiResponse.Choices[0].Message.Content

	if req.JSON {
		result = strings.Trim(result, "`")
		result = strings.TrimSpace(result)
		result = strings.TrimPrefix(result, "json")
	}

	return strings.TrimSpace(result), nil
}
