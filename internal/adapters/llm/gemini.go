package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

// GeminiClient implements domain.ModelClient against the Gemini API.
// One Generate call is one attempt; retry policy lives in the Invoker.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient builds a client authenticated with the injected API
// key. The key's presence is validated at config load, not here.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Generate implements domain.ModelClient.
func (g *GeminiClient) Generate(ctx context.Context, req domain.ModelRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.System)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, nil)
	if err != nil {
		return "", classifyError(err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// classifyError maps transport failures onto the domain taxonomy so the
// invoker can tell transient overload apart from everything else.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %v", domain.ErrModelOverloaded, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "503") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "overloaded") {
		return fmt.Errorf("%w: %v", domain.ErrModelOverloaded, err)
	}

	return fmt.Errorf("gemini generate content: %w", err)
}
