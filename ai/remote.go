package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/icco/spot"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Paths served by an HTTP engine. The request and response bodies are the
// bare protocol text.
const (
	MovePath   = "/engine/move"
	InvertPath = "/engine/invert"
)

// maxReplyBytes caps how much of an engine reply is read.
const maxReplyBytes = 4 << 10

// RemoteGenerator calls a move generator over HTTP.
type RemoteGenerator struct {
	BaseURL string
	Client  *http.Client
	// Player, if set, is sent as the player query parameter so the server
	// moves for that side.
	Player spot.Owner
}

// NewRemoteGenerator talks to the engine at baseURL with a traced client.
func NewRemoteGenerator(baseURL string) *RemoteGenerator {
	return &RemoteGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GenerateMove implements Generator.
func (g *RemoteGenerator) GenerateMove(ctx context.Context, board string) (string, error) {
	return g.post(ctx, MovePath, board)
}

// InvertPlayer implements Generator.
func (g *RemoteGenerator) InvertPlayer(ctx context.Context, player string) (string, error) {
	return g.post(ctx, InvertPath, player)
}

func (g *RemoteGenerator) post(ctx context.Context, path, body string) (string, error) {
	target := g.BaseURL + path
	if g.Player.IsPlayer() {
		target += "?" + url.Values{"player": {string(g.Player.Code())}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("engine %s returned %d: %s", path, resp.StatusCode, text)
	}
	return text, nil
}
