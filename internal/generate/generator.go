package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ResearchBoard/internal/state"
)

// Request is what the generator receives: an instruction plus the described selection.
type Request struct {
	Instruction string `json:"instruction"`
	Selection   string `json:"selection"`
}

// Generator produces a stream of newline-delimited item payloads.
type Generator interface {
	Generate(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Describe renders items as plain text for a prompt: kind, position, size and content.
func Describe(items []state.Item) string {
	if len(items) == 0 {
		return "No items are selected."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d selected item(s):\n", len(items))
	for i, it := range items {
		r := it.Bounds()
		fmt.Fprintf(&b, "%d. %s at (%.0f, %.0f) size %.0fx%.0f", i+1, it.Kind, it.X, it.Y, r.Width, r.Height)
		switch {
		case it.Note != nil || it.Text != nil:
			if c := strings.TrimSpace(it.Content()); c != "" {
				fmt.Fprintf(&b, ": %q", c)
			}
		case it.Line != nil:
			fmt.Fprintf(&b, ", %d points, %s %s", len(it.Line.Points), it.Line.Color, it.Line.Pen)
		case it.Image != nil:
			fmt.Fprintf(&b, ", source %s", it.Image.Src)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// HTTPGenerator posts the request as JSON and streams the response body back.
type HTTPGenerator struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPGenerator(endpoint string) *HTTPGenerator {
	return &HTTPGenerator{Endpoint: endpoint, Client: &http.Client{Timeout: 5 * time.Minute}}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call generator: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("generator returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}

// FileGenerator replays a payload file; it ignores the request.
type FileGenerator struct {
	Path string
}

func (g FileGenerator) Generate(ctx context.Context, _ Request) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(g.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload file: %w", err)
	}
	return f, nil
}

// Run asks gen for items about the selection and decodes the stream.
func Run(ctx context.Context, gen Generator, instruction string, selection []state.Item) ([]state.Item, int, error) {
	rc, err := gen.Generate(ctx, Request{Instruction: instruction, Selection: Describe(selection)})
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()
	return DecodeAll(rc)
}
