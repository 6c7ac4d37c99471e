package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aouyang1/albumflow/api/models"
	"github.com/aouyang1/albumflow/store"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

type SlideshowClient struct {
	baseURL string
	client  *http.Client
}

func NewSlideshowClient(baseURL string, httpClient *http.Client) *SlideshowClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &SlideshowClient{
		baseURL: baseURL,
		client:  httpClient,
	}
}

// CreateAlbum resolves an album link into a new shuffled session.
func (sc *SlideshowClient) CreateAlbum(ctx context.Context, albumURL string) (*models.SessionResponse, error) {
	var resp models.SessionResponse
	err := sc.do(ctx, http.MethodPost, "/albums", models.CreateAlbumRequest{URL: albumURL}, &resp)
	return &resp, err
}

func (sc *SlideshowClient) Demo(ctx context.Context) (*models.SessionResponse, error) {
	var resp models.SessionResponse
	err := sc.do(ctx, http.MethodPost, "/demo", nil, &resp)
	return &resp, err
}

func (sc *SlideshowClient) Remote(ctx context.Context) (*models.SessionResponse, error) {
	var resp models.SessionResponse
	err := sc.do(ctx, http.MethodPost, "/remote", nil, &resp)
	return &resp, err
}

func (sc *SlideshowClient) Session(ctx context.Context, id string) (*models.SessionResponse, error) {
	var resp models.SessionResponse
	err := sc.do(ctx, http.MethodGet, sessionPath(id, ""), nil, &resp)
	return &resp, err
}

func (sc *SlideshowClient) DeleteSession(ctx context.Context, id string) error {
	return sc.do(ctx, http.MethodDelete, sessionPath(id, ""), nil, nil)
}

func (sc *SlideshowClient) Toggle(ctx context.Context, id string) (*models.SessionResponse, error) {
	return sc.action(ctx, id, "toggle")
}

func (sc *SlideshowClient) Next(ctx context.Context, id string) (*models.SessionResponse, error) {
	return sc.action(ctx, id, "next")
}

func (sc *SlideshowClient) Prev(ctx context.Context, id string) (*models.SessionResponse, error) {
	return sc.action(ctx, id, "prev")
}

func (sc *SlideshowClient) Pointer(ctx context.Context, id string) (*models.SessionResponse, error) {
	return sc.action(ctx, id, "pointer")
}

func (sc *SlideshowClient) Click(ctx context.Context, id string) (*models.SessionResponse, error) {
	return sc.action(ctx, id, "click")
}

func (sc *SlideshowClient) UpdateSessionSettings(ctx context.Context, id string, req models.UpdateSessionSettingsRequest) (*models.SessionResponse, error) {
	var resp models.SessionResponse
	err := sc.do(ctx, http.MethodPut, sessionPath(id, "/settings"), req, &resp)
	return &resp, err
}

func (sc *SlideshowClient) Photos(ctx context.Context, id string) (*models.PhotoListResponse, error) {
	var resp models.PhotoListResponse
	err := sc.do(ctx, http.MethodGet, sessionPath(id, "/photos"), nil, &resp)
	return &resp, err
}

// Settings returns the defaults applied to new sessions.
func (sc *SlideshowClient) Settings(ctx context.Context) (*store.AppSettings, error) {
	var resp store.AppSettings
	err := sc.do(ctx, http.MethodGet, "/settings", nil, &resp)
	return &resp, err
}

func (sc *SlideshowClient) UpdateSettings(ctx context.Context, req models.UpdateSettingsRequest) (*store.AppSettings, error) {
	var resp store.AppSettings
	err := sc.do(ctx, http.MethodPut, "/settings", req, &resp)
	return &resp, err
}

func (sc *SlideshowClient) action(ctx context.Context, id, action string) (*models.SessionResponse, error) {
	var resp models.SessionResponse
	err := sc.do(ctx, http.MethodPost, sessionPath(id, "/"+action), nil, &resp)
	return &resp, err
}

func sessionPath(id, suffix string) string {
	return "/sessions/" + url.PathEscape(id) + suffix
}

func (sc *SlideshowClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, sc.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
