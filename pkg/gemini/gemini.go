package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/aba-tracker-api/pkg/config"
)

const (
	TransportGenAI  = "genai"
	TransportOpenAI = "openai"

	RoleUser  = "user"
	RoleModel = "model"
)

var (
	// ErrMissingAPIKey is returned when a call is attempted without a caller key.
	ErrMissingAPIKey = errors.New("gemini api key is required")
	// ErrEmptyResponse is returned when the model replies with no text.
	ErrEmptyResponse = errors.New("gemini returned an empty response")
	// ErrMediaUnsupported is returned when a transport cannot carry a media type.
	ErrMediaUnsupported = errors.New("media type not supported by transport")
)

// Media is an inline binary attachment.
type Media struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Message is one prior turn of a conversation.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request describes one generateContent call.
type Request struct {
	System  string
	Prompt  string
	History []Message
	Media   []Media
	// JSON asks the model for an application/json reply where the transport supports it.
	JSON bool
}

// Generator sends a request to the model using the caller's key. Keys are
// used for the single call only and are never stored.
type Generator interface {
	Generate(ctx context.Context, apiKey string, req Request) (string, error)
}

// Options tune a Generator.
type Options struct {
	Model      string
	Timeout    time.Duration
	BaseURL    string
	HTTPClient *http.Client
}

// New builds the generator selected by cfg.Transport.
func New(cfg config.GeminiConfig) (Generator, error) {
	opts := Options{Model: cfg.Model, Timeout: cfg.Timeout, BaseURL: cfg.BaseURL}
	switch strings.ToLower(cfg.Transport) {
	case "", TransportGenAI:
		opts.BaseURL = ""
		return NewGenAIClient(opts), nil
	case TransportOpenAI:
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown gemini transport %q", cfg.Transport)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
