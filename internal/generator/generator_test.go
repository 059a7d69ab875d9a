package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
)

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(PromptInput{
		Length: 40, Width: 60, Unit: "ft",
		Bedrooms: 3, Bathrooms: 2, Kitchens: 1,
		Floors: 2, Style: "Modern",
		Rooms:  []string{"study", "garage"},
		Budget: 250000, Currency: "USD",
		City: "Austin", Country: "USA",
		Extra: "Open kitchen facing the garden.",
	})

	assert.Contains(t, p, "Plot size 40 x 60 ft (2400 sq ft).")
	assert.Contains(t, p, "2 floors.")
	assert.Contains(t, p, "3 bedrooms, 2 bathrooms, 1 kitchen(s).")
	assert.Contains(t, p, "Also include: study, garage.")
	assert.Contains(t, p, "Modern style.")
	assert.Contains(t, p, "Budget around 250000 USD.")
	assert.Contains(t, p, "Located in Austin, USA.")
	assert.True(t, strings.HasSuffix(p, "Open kitchen facing the garden."))
}

func TestBuildPrompt_SkipsEmptyParts(t *testing.T) {
	p := BuildPrompt(PromptInput{Country: "Kenya"})
	assert.NotContains(t, p, "Plot size")
	assert.NotContains(t, p, "Budget")
	assert.Contains(t, p, "Located in Kenya.")
}

func newOpenAI(t *testing.T, h http.HandlerFunc, model string) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIWithConfig(cfg, model)
}

func TestOpenAI_ReturnsDataURI(t *testing.T) {
	var got openai.ImageRequest
	g := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"aGVsbG8="}]}`))
	}, "")

	src, err := g.Generate(context.Background(), "a plan")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", src)
	assert.Equal(t, openai.CreateImageModelDallE3, got.Model)
	assert.Equal(t, openai.CreateImageResponseFormatB64JSON, got.ResponseFormat)
}

func TestOpenAI_GptImageOmitsResponseFormat(t *testing.T) {
	var got map[string]any
	g := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"url":"https://cdn.example/img.png"}]}`))
	}, openai.CreateImageModelGptImage1)

	src, err := g.Generate(context.Background(), "a plan")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.png", src)
	_, has := got["response_format"]
	assert.False(t, has)
}

func TestOpenAI_PolicyRejectionIsBadRequest(t *testing.T) {
	g := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"prompt rejected","type":"invalid_request_error"}}`))
	}, "")

	_, err := g.Generate(context.Background(), "a plan")
	e := apperr.As(err)
	assert.Equal(t, apperr.KindBadRequest, e.Kind)
	assert.Equal(t, "prompt", e.Field)
}

func TestOpenAI_ServerErrorIsProcessingFailed(t *testing.T) {
	g := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}, "")

	_, err := g.Generate(context.Background(), "a plan")
	assert.Equal(t, apperr.KindProcessingFailed, apperr.KindOf(err))
}

func TestGemini_ReturnsInlineImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-img:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"TEXT", "IMAGE"}, req.GenerationConfig.ResponseModalities)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/jpeg","data":"AAAA"}}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini("k", "models/gemini-img", srv.URL)
	require.NoError(t, err)

	src, err := g.Generate(context.Background(), "a plan")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", src)
}

func TestGemini_NoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini("k", "m", srv.URL)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "a plan")
	assert.Equal(t, apperr.KindProcessingFailed, apperr.KindOf(err))
}

func TestGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(" ", "m", "")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Generate(context.Background(), "x")
	assert.Equal(t, apperr.KindDependencyMissing, apperr.KindOf(err))
}
