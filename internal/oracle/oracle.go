// Package oracle talks to a generative model that returns JSON: name
// matching, mapping suggestions and document extraction.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModel is used when configuration does not name a model.
const DefaultModel = "gemini-2.5-flash"

// Attachment is a binary document sent alongside the instruction.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request is one model call. Schema describes the expected JSON shape.
type Request struct {
	Instruction string
	Schema      *genai.Schema
	Attachment  *Attachment
}

// Generator returns the model's raw text response for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGemini creates a Gemini client. An empty model selects DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is not set")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: model, log: log}, nil
}

// Generate sends req and returns the response text.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{{Text: req.Instruction}}
	if req.Attachment != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.Attachment.MIMEType,
				Data:     req.Attachment.Data,
			},
		})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}

	g.log.Debug().Str("model", g.model).Int("prompt_bytes", len(req.Instruction)).Bool("attachment", req.Attachment != nil).Msg("calling model")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response from model")
	}
	return text, nil
}
