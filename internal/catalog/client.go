package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxDocumentSize = 1 << 20

// ErrDocumentTooLarge возвращается, если документ каталога превышает допустимый размер.
var ErrDocumentTooLarge = errors.New("catalog document too large")

// RetryAfterError возвращается, когда сервис каталога просит повторить запрос позже.
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("catalog service rate limited, retry after %s", e.After)
}

// Client инкапсулирует HTTP-взаимодействие с сервисом каталога.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент для загрузки каталога по указанному адресу.
func NewClient(url string) *Client {
	return &Client{
		url: strings.TrimRight(url, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Fetch запрашивает YAML-документ каталога.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if c == nil || c.url == "" {
		return nil, fmt.Errorf("catalog client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/yaml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, &RetryAfterError{After: retryAfter}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, maxDocumentSize)
	}

	return data, nil
}
