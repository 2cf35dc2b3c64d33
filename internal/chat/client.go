// Package chat drives the coach-chat conversation: streaming sends,
// incremental transcript updates, and paged history loading.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/pkg/logger"
)

const (
	eventPrefix  = "data: "
	doneSentinel = "[DONE]"
)

// TokenFunc supplies the bearer token for each outbound request.
type TokenFunc func() string

// Client is the HTTP client for the platform's chat API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
}

// NewClient creates a chat API client. token may be nil for unauthenticated
// use against a local stub.
func NewClient(baseURL string, timeout time.Duration, token TokenFunc) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
	}
}

type sendRequest struct {
	UserID         int64  `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// Stream posts a chat message and reads the streamed reply. onFirst runs
// once when the first bytes of the response body arrive, before any event
// is parsed. onChunk receives the content of each recognized chunk event,
// in arrival order. Malformed event lines are logged and skipped;
// unrecognized event types are ignored.
func (c *Client) Stream(ctx context.Context, userID int64, conversationID, message string, onFirst func(), onChunk func(content string)) error {
	body, err := json.Marshal(sendRequest{
		UserID:         userID,
		ConversationID: conversationID,
		Message:        message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var (
		lb    LineBuffer
		first = true
		buf   = make([]byte, 4096)
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if first {
				first = false
				if onFirst != nil {
					onFirst()
				}
			}
			for _, line := range lb.Feed(buf[:n]) {
				if done := handleEventLine(line, onChunk); done {
					return nil
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

// handleEventLine parses one line of the stream. Returns true when the
// stream's done sentinel was seen.
func handleEventLine(line string, onChunk func(string)) bool {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, eventPrefix) {
		return false
	}

	data := strings.TrimPrefix(line, eventPrefix)
	if data == doneSentinel {
		return true
	}

	var event domain.StreamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		logger.Warnf("chat: skipping malformed stream event: %v", err)
		return false
	}

	switch event.Type {
	case domain.StreamEventChunk:
		if onChunk != nil {
			onChunk(event.Content)
		}
	case domain.StreamEventDone:
		return true
	default:
		// Unknown event types are not errors.
	}
	return false
}

// Messages fetches one page of conversation history. Pages are zero-based
// and returned newest-first by the platform.
func (c *Client) Messages(ctx context.Context, conversationID string, page, perPage int) (*domain.MessagePage, error) {
	q := url.Values{}
	q.Set("conversation_id", conversationID)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/chat/messages?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result domain.MessagePage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return &result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}
}
