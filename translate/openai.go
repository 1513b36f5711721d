package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/minios-linux/i18nsync/langmeta"
)

// systemPrompt instructs the model to return the bare translation.
const systemPrompt = `You are a professional translator specializing in software localization. You translate single user interface strings.

Rules:
- Reply with the translated text only, no quotes, no explanations.
- Keep placeholders such as {name}, {{count}}, %s, %d and HTML tags unchanged.
- Keep leading and trailing whitespace and punctuation style.
- If the text must not be translated (brand names, code), return it unchanged.`

// OpenAI translates with an OpenAI-compatible chat-completions endpoint.
type OpenAI struct {
	prov   Provider
	client *http.Client
	hold   *hold
	logger *slog.Logger
}

// NewOpenAI returns the openai backend.
func NewOpenAI(prov Provider, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		prov:   prov,
		client: newHTTPClient(prov, logger),
		hold:   &hold{},
		logger: logger,
	}
}

// Translate implements Translator.
func (o *OpenAI) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	user := fmt.Sprintf("Translate from %s to %s:\n\n%s",
		langmeta.EnglishName(sourceLang), langmeta.EnglishName(targetLang), text)

	out, err := o.call(ctx, systemPrompt, user)
	if err != nil {
		return "", err
	}
	return cleanResponse(out), nil
}

// cleanResponse strips wrapping a model sometimes adds despite the prompt.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	}
	return s
}

// ---------------------------------------------------------------------------
// Rate-limit hold and HTTP client
// ---------------------------------------------------------------------------

// hold delays every call of one client until the rate-limit window reported
// by the server has passed. Concurrent calls of a batch share it.
type hold struct {
	mu    sync.Mutex
	until time.Time
}

func (h *hold) extend(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if end := time.Now().Add(d); end.After(h.until) {
		h.until = end
	}
}

func (h *hold) wait(ctx context.Context) error {
	h.mu.Lock()
	remaining := time.Until(h.until)
	h.mu.Unlock()
	if remaining <= 0 {
		return nil
	}
	return sleepCtx(ctx, remaining)
}

// newHTTPClient honours prov.Proxy, falling back to the proxy environment
// variables. An unparsable proxy is logged and ignored.
func newHTTPClient(prov Provider, logger *slog.Logger) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	if prov.Proxy != "" {
		if u, err := url.Parse(prov.Proxy); err == nil && u.Host != "" {
			transport.Proxy = http.ProxyURL(u)
		} else {
			logger.Warn("ignoring invalid proxy", "proxy", prov.Proxy)
		}
	}
	return &http.Client{Transport: transport, Timeout: prov.effectiveTimeout()}
}

// ---------------------------------------------------------------------------
// Request and response
// ---------------------------------------------------------------------------

func buildChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

// extractResponseText reads the reply text. It understands chat
// completions (choices[0].message.content), legacy completions
// (choices[0].text) and Ollama's native chat and generate replies
// (message.content, response). An error object in the body is returned as
// an error.
func extractResponseText(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Response string          `json:"response"`
		Error    json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if len(resp.Error) > 0 && string(resp.Error) != "null" {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(resp.Error, &e) == nil && e.Message != "" {
			return "", fmt.Errorf("API error: %s", e.Message)
		}
		return "", fmt.Errorf("API error: %s", truncate(string(resp.Error), 200))
	}

	switch {
	case len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "":
		return resp.Choices[0].Message.Content, nil
	case len(resp.Choices) > 0 && resp.Choices[0].Text != "":
		return resp.Choices[0].Text, nil
	case resp.Message.Content != "":
		return resp.Message.Content, nil
	case resp.Response != "":
		return resp.Response, nil
	}
	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// retryDelay is how long to wait after a 429: the Retry-After header in
// seconds, else a RetryInfo detail in the error body plus 5s, else 65s.
func retryDelay(header http.Header, body []byte) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header.Get("Retry-After"))); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}

	var e struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		for _, d := range e.Error.Details {
			if !strings.HasSuffix(d.Type, "RetryInfo") {
				continue
			}
			if wait, err := time.ParseDuration(d.RetryDelay); err == nil {
				return wait + 5*time.Second
			}
		}
	}
	return 65 * time.Second
}

// ---------------------------------------------------------------------------
// Call with retries
// ---------------------------------------------------------------------------

func (o *OpenAI) endpoint() string {
	base := strings.TrimRight(o.prov.BaseURL, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

func (o *OpenAI) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := buildChatRequest(o.prov.Model, systemPrompt, userPrompt, 0.3)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	endpoint := o.endpoint()
	maxRetries := o.prov.effectiveMaxRetries()

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := o.hold.wait(ctx); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if o.prov.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+o.prov.APIKey)
		}

		o.logger.Debug("translation request", "endpoint", endpoint, "attempt", attempt+1)

		resp, err := o.client.Do(req)
		if err != nil {
			if attempt < maxRetries {
				if err := sleepCtx(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API request failed: %w", err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryDelay(resp.Header, respBody)
			o.logger.Warn("rate limited", "wait", wait, "attempt", attempt+1, "max_retries", maxRetries)
			if attempt < maxRetries {
				o.hold.extend(wait)
				continue
			}
			return "", fmt.Errorf("rate limited after %d retries: %s", maxRetries, truncate(string(respBody), 200))
		}

		if resp.StatusCode != http.StatusOK {
			if attempt < maxRetries && resp.StatusCode >= 500 {
				if err := sleepCtx(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
		}

		return extractResponseText(respBody)
	}

	return "", fmt.Errorf("exhausted all %d retries", maxRetries)
}

// backoff is the wait before retry attempt+1: 1s, 2s, 4s, ...
var backoff = func(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
