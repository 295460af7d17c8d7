package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ChannelSetting — настройка канала из API.
type ChannelSetting struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"`
}

// SettingsResponse — настройки получателя из API.
type SettingsResponse struct {
	Recipient string                    `json:"recipient"`
	Channels  map[string]ChannelSetting `json:"channels"`
}

// ChannelOutcome — исход Enqueue по каналу из API.
type ChannelOutcome struct {
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// EnqueueResponse — результат постановки сообщения из API.
type EnqueueResponse struct {
	MessageID string                    `json:"message_id"`
	Channels  map[string]ChannelOutcome `json:"channels"`
}

// JobResponse — job из API.
type JobResponse struct {
	ID           string   `json:"id"`
	RecipientKey string   `json:"recipient_key"`
	Channel      string   `json:"channel"`
	Interval     string   `json:"interval"`
	MessageIDs   []string `json:"message_ids"`
	Leased       bool     `json:"leased"`
	LeaseExpires string   `json:"lease_expires,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// --- Request types ---

// SettingsRequest — замена настроек получателя.
type SettingsRequest struct {
	Channels map[string]ChannelSetting `json:"channels"`
}

// EnqueueMessageRequest — постановка сообщения в очередь.
type EnqueueMessageRequest struct {
	Recipient string `json:"recipient"`
	MessageID string `json:"message_id"`
}

// ListJobsOpts — параметры фильтрации jobs.
type ListJobsOpts struct {
	Channel  string
	Interval string
	Limit    int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для digestq API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Settings ---

// GetSettings возвращает настройки каналов получателя.
func (c *Client) GetSettings(recipient string) (*SettingsResponse, error) {
	var settings SettingsResponse
	err := c.get("/api/v1/recipients/"+url.PathEscape(recipient)+"/settings", &settings)
	return &settings, err
}

// PutSettings заменяет настройки получателя целиком.
func (c *Client) PutSettings(recipient string, req SettingsRequest) (*SettingsResponse, error) {
	var settings SettingsResponse
	err := c.put("/api/v1/recipients/"+url.PathEscape(recipient)+"/settings", req, &settings)
	return &settings, err
}

// DeleteSettings удаляет настройки получателя.
func (c *Client) DeleteSettings(recipient string) error {
	return c.delete("/api/v1/recipients/" + url.PathEscape(recipient) + "/settings")
}

// --- Messages ---

// EnqueueMessage кладёт сообщение в очередь дайджестов.
func (c *Client) EnqueueMessage(recipient, messageID string) (*EnqueueResponse, error) {
	req := EnqueueMessageRequest{Recipient: recipient, MessageID: messageID}
	var result EnqueueResponse
	err := c.post("/api/v1/messages", req, &result)
	return &result, err
}

// --- Jobs ---

// ListJobs возвращает jobs очереди с фильтрацией.
func (c *Client) ListJobs(opts ListJobsOpts) ([]JobResponse, error) {
	params := url.Values{}
	if opts.Channel != "" {
		params.Set("channel", opts.Channel)
	}
	if opts.Interval != "" {
		params.Set("interval", opts.Interval)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var jobs []JobResponse
	err := c.list("/api/v1/jobs", params, &jobs)
	return jobs, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
