// Package tei encodes text through an HTTP embedding server speaking the
// text-embeddings-inference protocol (POST /embed), for example one serving
// sentence-transformers/all-MiniLM-L6-v2.
package tei

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	Provider = "tei"

	contentType     = "application/json"
	contentEncoding = "gzip"
	embedPath       = "/embed"
	userAgent       = "competency-matcher"
	defaultModel    = "sentence-transformers/all-MiniLM-L6-v2"
	defaultTimeout  = 10 * time.Second
)

type Client struct {
	logger     *zap.Logger
	token      string
	model      string
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

type embedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// New creates a client for the embedding server at baseURL. token may be empty.
func New(baseURL, model, token string, logger *zap.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("embedding server url is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger:     logger,
		token:      strings.TrimSpace(token),
		model:      model,
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Encode returns the embedding of text.
func (c *Client) Encode(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Inputs: []string{text}, Truncate: true})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+embedPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	var vectors [][]float32
	if err := c.doJSON(req, &vectors); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("embedding server returned no vectors")
	}

	return vectors[0], nil
}

func (c *Client) Provider() string { return Provider }

func (c *Client) Model() string { return c.model }

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func (c *Client) doJSON(req *http.Request, target any) error {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	return json.Unmarshal(data, target)
}
