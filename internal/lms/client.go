package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ludilearn_backend/internal/config"
)

// Client calls the LMS web service functions over HTTP. Responses are the
// JSON shapes of the provider contract.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg *config.LMSConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (c *Client) GradeState(ctx context.Context, moduleRef, learnerID uint) (GradeState, error) {
	var out GradeState
	err := c.get(ctx, "grade_state", map[string]string{
		"moduleid": strconv.FormatUint(uint64(moduleRef), 10),
		"userid":   strconv.FormatUint(uint64(learnerID), 10),
	}, &out)
	return out, err
}

func (c *Client) CompletionState(ctx context.Context, moduleRef, learnerID uint) (CompletionState, error) {
	var out CompletionState
	err := c.get(ctx, "completion_state", map[string]string{
		"moduleid": strconv.FormatUint(uint64(moduleRef), 10),
		"userid":   strconv.FormatUint(uint64(learnerID), 10),
	}, &out)
	return out, err
}

func (c *Client) Available(ctx context.Context, moduleRef, learnerID uint) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	err := c.get(ctx, "module_available", map[string]string{
		"moduleid": strconv.FormatUint(uint64(moduleRef), 10),
		"userid":   strconv.FormatUint(uint64(learnerID), 10),
	}, &out)
	return out.Available, err
}

func (c *Client) EnrolledLearners(ctx context.Context, courseRef uint) ([]uint, error) {
	var out struct {
		Learners []uint `json:"learners"`
	}
	err := c.get(ctx, "enrolled_learners", map[string]string{
		"courseid": strconv.FormatUint(uint64(courseRef), 10),
	}, &out)
	return out.Learners, err
}

func (c *Client) get(ctx context.Context, function string, params map[string]string, out interface{}) error {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	endpoint := fmt.Sprintf("%s/webservice/%s?%s", c.baseURL, function, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("lms %s: %w", function, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lms %s: unexpected status %d", function, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
