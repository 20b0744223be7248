package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aba-tracker-api/pkg/config"
)

func TestNewSelectsTransport(t *testing.T) {
	g, err := New(config.GeminiConfig{Transport: "genai"})
	require.NoError(t, err)
	assert.IsType(t, &GenAIClient{}, g)

	g, err = New(config.GeminiConfig{Transport: "OpenAI"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, g)

	_, err = New(config.GeminiConfig{Transport: "grpc"})
	assert.Error(t, err)
}

func TestClientsRequireKey(t *testing.T) {
	_, err := NewGenAIClient(Options{}).Generate(context.Background(), " ", Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewOpenAIClient(Options{}).Generate(context.Background(), "", Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAIClientGenerate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" {\"ok\":true} "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(Options{Model: "gemini-test", BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	text, err := client.Generate(context.Background(), "user-key", Request{
		System:  "be brief",
		Prompt:  "extract",
		History: []Message{{Role: RoleModel, Text: "earlier"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, "Bearer user-key", gotAuth)
	assert.Equal(t, "gemini-test", gotBody["model"])
	assert.Len(t, gotBody["messages"], 3)
}

func TestOpenAIClientRejectsNonImageMedia(t *testing.T) {
	client := NewOpenAIClient(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Generate(context.Background(), "k", Request{
		Prompt: "listen",
		Media:  []Media{{MIMEType: "audio/webm", Data: []byte{1}}},
	})
	assert.ErrorIs(t, err, ErrMediaUnsupported)
}

func TestGenAIClientGenerate(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hello there"}]}}]}`))
	}))
	defer srv.Close()

	client := NewGenAIClient(Options{Model: "gemini-test", BaseURL: srv.URL, Timeout: 5 * time.Second})
	text, err := client.Generate(context.Background(), "user-key", Request{
		Prompt: "describe",
		Media:  []Media{{MIMEType: "image/png", Data: []byte{0x89, 0x50}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Equal(t, "user-key", gotKey)
	assert.Contains(t, gotPath, "gemini-test:generateContent")
}
