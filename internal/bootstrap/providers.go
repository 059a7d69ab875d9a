package bootstrap

import (
	"context"
	"fmt"

	"github.com/buildwise-ai/buildwise-backend/config"
	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
	"github.com/buildwise-ai/buildwise-backend/internal/generator"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
	"github.com/buildwise-ai/buildwise-backend/internal/mailer"
)

// NewMailer builds the sender named by MAIL_PROVIDER.
func NewMailer(ctx context.Context, cfg config.MailConfig) (mailer.Sender, error) {
	switch cfg.Provider {
	case "resend":
		return mailer.NewResend(cfg.ResendAPIKey, cfg.ResendAPIURL, cfg.From)
	case "gmail":
		return mailer.NewGmail(ctx, cfg.GmailCredentialsPath, cfg.GmailSender)
	case "log", "":
		return mailer.Log{From: cfg.From}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// NewGenerator builds the AI image provider named by AI_PROVIDER.
func NewGenerator(cfg config.AIConfig) (generator.Generator, error) {
	switch cfg.Provider {
	case "openai":
		return generator.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel), nil
	case "gemini":
		return generator.NewGemini(cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiAPIURL)
	case "none", "":
		return generator.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// NewImageStore builds the upload store, mirrored to S3 when a bucket is set.
func NewImageStore(ctx context.Context, cfg *config.Config) (*imagestore.Store, error) {
	opt := imagestore.Options{
		PublicDir:  cfg.Uploads.PublicDir,
		URLPrefix:  cfg.Uploads.URLPrefix,
		HTTPClient: imagestore.NewFetchClient(cfg.Uploads.FetchTimeout),
		MaxBytes:   int64(cfg.Uploads.MaxUploadMB) << 20,
	}
	if cfg.S3.Bucket != "" {
		m, err := imagestore.NewS3Mirror(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			return nil, err
		}
		opt.Mirror = m
	}
	return imagestore.New(opt), nil
}

func NewEnhancer(cfg config.EnhanceConfig) *enhance.Runner {
	return enhance.NewRunner(enhance.Config{
		Python:        cfg.Python,
		Script:        cfg.Script,
		WorkDir:       cfg.WorkDir,
		Timeout:       cfg.Timeout,
		MaxConcurrent: cfg.MaxConcurrent,
		DPI:           cfg.DPI,
	})
}
