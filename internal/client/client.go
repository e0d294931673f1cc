package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pascs/chatui/internal/auth"
	"github.com/pascs/chatui/internal/config"
)

const (
	JSONContentType = "application/json"

	sendMessagePath   = "/chatbot/messages"
	conversationsPath = "/chatbot/conversations"
)

// APIError is a failure reported by the chatbot backend: a non-2xx status or
// an envelope with isSuccess false. Message is the server-supplied reason.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Api request failed: status code %d, message %s", e.StatusCode, e.Message)
}

type Client struct {
	httpClient  *http.Client
	Config      *config.Config
	AuthHandler *auth.AuthenticationHandler
}

func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: time.Second * 30},
		Config:     &cfg,
	}
	if cfg.ClientID != "" {
		authHandler, err := auth.NewAuthenticationHandler(ctx, cfg.BaseURL, cfg.ClientID, cfg.ClientSecret)
		if err != nil {
			slog.Error("Failed to init authentication handler", "error", err)
			return nil, err
		}
		c.AuthHandler = authHandler
	}
	return c, nil
}

// SendMessage posts one user message. An empty conversationID asks the
// backend to open a new conversation; the returned SendResult always carries
// the authoritative conversation id. Cancelling ctx aborts the call and the
// returned error wraps context.Canceled.
func (c *Client) SendMessage(ctx context.Context, conversationID, message, userID, userType string) (*SendResult, error) {
	reqBody := sendMessageRequest{
		ConversationID: conversationID,
		Message:        message,
		UserID:         userID,
		UserType:       userType,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	data, err := c.doRequest(ctx, "POST", c.Config.BaseURL+sendMessagePath, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, err
	}

	result := SendResult{}
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Error("Failed to unmarshal send response data", "error", err)
		return nil, err
	}
	return &result, nil
}

// GetConversation fetches the full detail of one conversation, messages
// included.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	url := c.Config.BaseURL + conversationsPath + "/" + conversationID
	data, err := c.doRequest(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	conversation := Conversation{}
	if err := json.Unmarshal(data, &conversation); err != nil {
		slog.Error("Failed to unmarshal conversation data", "error", err)
		return nil, err
	}
	return &conversation, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		slog.Error("Failed to build request", "error", err)
		return nil, err
	}

	req.Header.Set("Content-Type", JSONContentType)
	req.Header.Set("Accept", JSONContentType)
	if c.AuthHandler != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.AuthHandler.Token.AccessToken))
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send request", "error", err)
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		slog.Error("Failed to read response body", "error", err)
		return nil, err
	}

	return handleApiResponse(res, resBody)
}

// handleApiResponse unwraps the backend envelope. Any non-2xx status,
// isSuccess false, or missing data is surfaced as an *APIError carrying the
// server's message string.
func handleApiResponse(res *http.Response, body []byte) (json.RawMessage, error) {
	env := envelope{}
	if err := json.Unmarshal(body, &env); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode)}
		}
		slog.Error("Failed to unmarshal response envelope", "error", err)
		return nil, err
	}
	if res.StatusCode != http.StatusOK || !env.IsSuccess || len(env.Data) == 0 {
		return nil, &APIError{StatusCode: res.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}
