package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vapord/internal/config"
	"vapord/internal/logging"
)

const (
	userAgent      = "Vapord-Go/0.1.0"
	defaultBaseURL = "https://api.telegram.org"
)

// Update is one item from the Telegram getUpdates feed.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User identifies the sender of a message.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Client is a minimal Telegram Bot API client covering the calls the service
// needs: long-poll updates, text replies, and audio uploads. It satisfies the
// delivery sink consumed by the pipeline.
type Client struct {
	token          string
	baseURL        string
	client         *http.Client
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewClient builds a Telegram client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Telegram.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	requestTimeout := time.Duration(cfg.Telegram.RequestTimeout) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	// The long-poll call holds the connection open for the poll timeout, so
	// the transport-level timeout must exceed it.
	pollSlack := time.Duration(cfg.Telegram.PollTimeout+10) * time.Second
	clientTimeout := requestTimeout
	if pollSlack > clientTimeout {
		clientTimeout = pollSlack
	}

	return &Client{
		token:          strings.TrimSpace(cfg.Telegram.Token),
		baseURL:        baseURL,
		client:         &http.Client{Timeout: clientTimeout},
		requestTimeout: requestTimeout,
		logger:         logging.NewComponentLogger(logger, "telegram"),
	}
}

// GetUpdates long-polls for new updates starting at offset. It blocks for up
// to timeoutSeconds server-side when no updates are pending.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeoutSeconds))

	result, err := c.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// SendText sends a plain text message to a chat.
func (c *Client) SendText(chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	_, err := c.call(ctx, "sendMessage", params)
	return err
}

// SendAudio uploads an audio payload to a chat. The title is rendered in
// fullwidth for the caption.
func (c *Client) SendAudio(chatID int64, title string, audio []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if title != "" {
		if err := writer.WriteField("title", Fullwidth(title)); err != nil {
			return fmt.Errorf("write title field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("audio", "vapor.wav")
	if err != nil {
		return fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return fmt.Errorf("write audio part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendAudio"), &body)
	if err != nil {
		return fmt.Errorf("build sendAudio request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, err = c.do(req, "sendAudio")
	return err
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (json.RawMessage, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !decoded.OK {
		description := strings.TrimSpace(decoded.Description)
		if description == "" {
			description = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%s rejected: %s", method, description)
	}
	return decoded.Result, nil
}

func (c *Client) endpoint(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}
