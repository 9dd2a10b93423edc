package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const defaultTimeout = 15 * time.Second

// Client calls a LibreTranslate-compatible POST /translate endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Options struct {
	APIKey  string
	Timeout time.Duration
	// RPS caps outbound requests; 0 disables the limiter.
	RPS float64
}

func New(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(1, int(opts.RPS)))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate sends one text. An empty source asks the server to auto-detect.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if c.baseURL == "" {
		return "", domain.WrapError(domain.ErrUnsupported, "translate", errors.New("translation service not configured"))
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("translate rate limit: %w", err)
		}
	}
	if source == "" {
		source = "auto"
	}

	body, err := json.Marshal(translateRequest{Q: text, Source: source, Target: target, Format: "text", APIKey: c.apiKey})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "translate request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read translate response: %w", err)
	}

	var decoded translateResponse
	_ = json.Unmarshal(raw, &decoded)
	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(decoded.Error)
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		err := fmt.Errorf("translate status: %s: %s", resp.Status, msg)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", domain.WrapError(domain.ErrTemporary, "translate", err)
		}
		return "", err
	}
	if strings.TrimSpace(decoded.TranslatedText) == "" {
		return "", errors.New("translate: empty translatedText")
	}
	return decoded.TranslatedText, nil
}
