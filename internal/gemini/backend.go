package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// genaiBackend implements Backend against the Gemini Files API.
type genaiBackend struct {
	client *genai.Client
	model  string
}

// NewGenaiBackend creates the production backend. The API key is required;
// callers are expected to reject submissions before reaching this point
// when no key is configured.
func NewGenaiBackend(ctx context.Context, apiKey, model string) (Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = Config{}.withDefaults().Model
	}
	return &genaiBackend{client: client, model: model}, nil
}

func (b *genaiBackend) Upload(ctx context.Context, r io.Reader, mimeType string) (*File, error) {
	uploaded, err := b.client.UploadFile(ctx, "", r, &genai.UploadFileOptions{MIMEType: mimeType})
	if err != nil {
		return nil, err
	}
	return fromGenaiFile(uploaded), nil
}

func (b *genaiBackend) File(ctx context.Context, name string) (*File, error) {
	file, err := b.client.GetFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return fromGenaiFile(file), nil
}

func (b *genaiBackend) Generate(ctx context.Context, file *File, prompt string) (string, error) {
	model := b.client.GenerativeModel(b.model)

	resp, err := model.GenerateContent(ctx,
		genai.FileData{URI: file.URI, MIMEType: file.MIMEType},
		genai.Text(prompt),
	)
	if err != nil {
		return "", err
	}
	return textFromResponse(resp)
}

func (b *genaiBackend) Delete(ctx context.Context, name string) error {
	return b.client.DeleteFile(ctx, name)
}

func fromGenaiFile(f *genai.File) *File {
	file := &File{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
	}
	switch f.State {
	case genai.FileStateProcessing:
		file.State = FileStateProcessing
	case genai.FileStateActive:
		file.State = FileStateActive
	case genai.FileStateFailed:
		file.State = FileStateFailed
	default:
		file.State = FileStateUnknown
	}
	return file
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
