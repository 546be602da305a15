package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("llmclient: provider returned no text")

// InlineImage is an image sent alongside the prompt.
type InlineImage struct {
	Data     []byte
	MIMEType string
}

type GenerateRequest struct {
	Prompt string
	Image  *InlineImage
}

func (r *GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt is required")
	}
	if r.Image != nil {
		if len(r.Image.Data) == 0 {
			return errors.New("image data is empty")
		}
		if !strings.HasPrefix(r.Image.MIMEType, "image/") {
			return errors.New("image mime type must be image/*")
		}
	}
	return nil
}

// Generator is the AI capability: prompt (plus optional image) in, free text out.
// The text is untrusted model output.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}
