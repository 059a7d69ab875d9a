package generator

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
)

// OpenAI generates floor plans with the images endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAI {
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (g *OpenAI) Name() string { return "openai" }

func (g *OpenAI) Generate(ctx context.Context, prompt string) (src string, err error) {
	defer func() { record(g.Name(), err) }()

	req := openai.ImageRequest{
		Prompt: prompt,
		Model:  g.model,
		N:      1,
		Size:   openai.CreateImageSize1024x1024,
	}
	// gpt-image-1 always answers with base64 and rejects response_format.
	if g.model != openai.CreateImageModelGptImage1 {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := g.client.CreateImage(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Data) == 0 {
		return "", apperr.New(apperr.KindProcessingFailed, "openai returned no image")
	}

	img := resp.Data[0]
	switch {
	case img.B64JSON != "":
		return "data:image/png;base64," + img.B64JSON, nil
	case img.URL != "":
		return img.URL, nil
	default:
		return "", apperr.New(apperr.KindProcessingFailed, "openai returned an empty image")
	}
}

func mapOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, err, "openai image generation timed out")
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := apperr.Wrap(apperr.KindProcessingFailed, err, "openai image generation failed")
		if apiErr.HTTPStatusCode == http.StatusBadRequest {
			// content policy rejections come back as 400
			e.Kind = apperr.KindBadRequest
			e.Field = "prompt"
			e.Message = apiErr.Message
		}
		return e
	}
	return apperr.Wrap(apperr.KindProcessingFailed, err, "openai image generation failed")
}
