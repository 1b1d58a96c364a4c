// Package chat implements the Ask Nova assistant: the streaming completion
// client and the message transcript it feeds.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultModel is the completion model requested when none is configured.
const DefaultModel = "mistral-nemo"

// preamble frames every question before it is sent to the model.
const preamble = "You are an expert financial analyst for FinSight. Provide a clear and detailed analysis for the following inquiry: "

// maxLineSize bounds a single streamed JSON line.
const maxLineSize = 1 << 20 // 1 MB

// Client talks to an Ollama-style completion endpoint.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewClient creates a client for the given completion endpoint, e.g.
// "http://localhost:11434/api/generate".
func NewClient(endpoint, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		http:     &http.Client{},
	}
}

// Generate opens a streaming completion for the prompt. The analyst
// preamble is prepended. The caller must drain the stream with Recv and
// close it.
func (c *Client) Generate(ctx context.Context, prompt string) (*Stream, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": preamble + prompt,
		"stream": true,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("chat: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat: request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("chat: unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Stream{body: resp.Body, scanner: scanner}, nil
}

// Stream yields assistant text fragments from a newline-delimited JSON
// response body.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// chunk is one streamed line. Lines carry a response fragment and a done
// marker; anything else on the line is ignored.
type chunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Recv returns the next non-empty text fragment. Malformed lines are
// skipped. Returns io.EOF when the stream ends.
func (s *Stream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var c chunk
		if err := json.Unmarshal(line, &c); err != nil {
			continue
		}
		if c.Response != "" {
			return c.Response, nil
		}
		if c.Done {
			return "", io.EOF
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("chat: reading stream: %w", err)
	}
	return "", io.EOF
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

// Collect drains the stream into a single string. Used by the one-shot CLI
// path; the dashboard consumes fragments incrementally instead.
func (s *Stream) Collect() (string, error) {
	var buf bytes.Buffer
	for {
		frag, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return buf.String(), nil
		}
		if err != nil {
			return buf.String(), err
		}
		buf.WriteString(frag)
	}
}
