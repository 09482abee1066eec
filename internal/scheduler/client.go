package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	config "github.com/jsandell/postline/configs"
)

// Client is the surface of the remote scheduler the pipeline consumes. The
// remote system is authoritative for publish timestamps, connected accounts
// and the recurring queue schedule.
type Client interface {
	ListPosts(ctx context.Context, opts ListPostsOptions) ([]Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error)
	UpdatePost(ctx context.Context, id string, req *UpdatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, id string) error
	ListAccounts(ctx context.Context, profileID string) ([]Account, error)
	GetQueueSchedule(ctx context.Context, profileID string) (*QueueSchedule, error)
	SetQueueSchedule(ctx context.Context, req *SetQueueScheduleRequest) error
	NextQueueSlot(ctx context.Context, profileID string) (*NextSlot, error)
}

type httpClient struct {
	baseURL  string
	apiKey   string
	pageSize int
	client   *http.Client
}

func NewClient(cfg config.Scheduler) Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &httpClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiError struct {
	Message string `json:"message"`
	Error_  string `json:"error"`
}

func (c *httpClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	response, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("scheduler request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var apiErr apiError
		raw, _ := io.ReadAll(response.Body)
		if err := json.Unmarshal(raw, &apiErr); err == nil && (apiErr.Message != "" || apiErr.Error_ != "") {
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.Error_
			}
			return fmt.Errorf("scheduler responded %d: %s", response.StatusCode, msg)
		}
		return fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(response.Body).Decode(out); err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ListPosts fetches the complete post list, paging until the remote returns
// a short page. Reconciliation must never run against a truncated view.
func (c *httpClient) ListPosts(ctx context.Context, opts ListPostsOptions) ([]Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = c.pageSize
	}

	var all []Post
	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}

		var page struct {
			Posts []Post `json:"posts"`
		}
		if err := c.do(ctx, http.MethodGet, "/posts?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Posts...)
		if len(page.Posts) < limit {
			return all, nil
		}
		offset += len(page.Posts)
	}
}

func (c *httpClient) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *httpClient) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/posts", req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *httpClient) UpdatePost(ctx context.Context, id string, req *UpdatePostRequest) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPatch, "/posts/"+url.PathEscape(id), req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *httpClient) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
}

func (c *httpClient) ListAccounts(ctx context.Context, profileID string) ([]Account, error) {
	path := "/accounts"
	if profileID != "" {
		path += "?profileId=" + url.QueryEscape(profileID)
	}

	var out struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

func (c *httpClient) GetQueueSchedule(ctx context.Context, profileID string) (*QueueSchedule, error) {
	var schedule QueueSchedule
	path := "/profiles/" + url.PathEscape(profileID) + "/queue"
	if err := c.do(ctx, http.MethodGet, path, nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (c *httpClient) SetQueueSchedule(ctx context.Context, req *SetQueueScheduleRequest) error {
	path := "/profiles/" + url.PathEscape(req.ProfileID) + "/queue"
	return c.do(ctx, http.MethodPut, path, req, nil)
}

// NextQueueSlot consumes the next free slot. The remote endpoint is atomic:
// two sequential calls never return the same slot.
func (c *httpClient) NextQueueSlot(ctx context.Context, profileID string) (*NextSlot, error) {
	var slot NextSlot
	path := "/profiles/" + url.PathEscape(profileID) + "/queue/next"
	if err := c.do(ctx, http.MethodPost, path, nil, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}
