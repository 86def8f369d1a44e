// Package client talks to the quest REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quest-service/internal/domain"
)

// Client is a thin REST client for quest metadata and content.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{}}
}

// NewWithTimeout constructs a client for the given base URL with a request timeout.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Error is returned for transport failures and non-2xx responses. It always
// matches domain.ErrNetwork; a 404 for quest metadata also matches
// domain.ErrQuestNotFound.
type Error struct {
	Status        int
	Message       string
	QuestionIndex *int
	Reason        string
	Err           error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("quest api: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("quest api: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("quest api: http %d", e.Status)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrNetwork}
	}
	return []error{domain.ErrNetwork, e.Err}
}

// NewQuest is the metadata sent when creating a quest.
type NewQuest struct {
	Title       string
	Description string
	ActiveFrom  time.Time
	ActiveTo    time.Time
}

// ListQuests fetches quests; filter is one of all, active or inactive.
func (c *Client) ListQuests(ctx context.Context, filter string) ([]domain.Quest, error) {
	path := "/api/quests"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	var out struct {
		Quests []domain.Quest `json:"quests"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Quests == nil {
		out.Quests = []domain.Quest{}
	}
	return out.Quests, nil
}

// GetQuest fetches quest metadata.
func (c *Client) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	var q domain.Quest
	err := c.do(ctx, http.MethodGet, questPath(questID), nil, &q)
	return q, err
}

// CreateQuest creates a quest and returns it as stored.
func (c *Client) CreateQuest(ctx context.Context, in NewQuest) (domain.Quest, error) {
	body := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"active_from": in.ActiveFrom.UTC().Format(time.RFC3339),
		"active_to":   in.ActiveTo.UTC().Format(time.RFC3339),
	}
	var q domain.Quest
	err := c.do(ctx, http.MethodPost, "/api/quests", body, &q)
	return q, err
}

// UpdateQuest sends the non-nil fields of patch.
func (c *Client) UpdateQuest(ctx context.Context, questID string, patch domain.QuestPatch) (domain.Quest, error) {
	body := map[string]string{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.ActiveFrom != nil {
		body["active_from"] = patch.ActiveFrom.UTC().Format(time.RFC3339)
	}
	if patch.ActiveTo != nil {
		body["active_to"] = patch.ActiveTo.UTC().Format(time.RFC3339)
	}
	var q domain.Quest
	err := c.do(ctx, http.MethodPatch, questPath(questID), body, &q)
	return q, err
}

// DeleteQuest removes a quest and its content.
func (c *Client) DeleteQuest(ctx context.Context, questID string) error {
	return c.do(ctx, http.MethodDelete, questPath(questID), nil, nil)
}

// GetQuestContent fetches a quest's content. Missing content comes back as
// domain.EmptyContent; a missing quest is still an error.
func (c *Client) GetQuestContent(ctx context.Context, questID string, admin bool) (domain.QuestContent, error) {
	path := questPath(questID) + "/content"
	if admin {
		path += "?admin=true"
	}
	var qc domain.QuestContent
	err := c.do(ctx, http.MethodGet, path, nil, &qc)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound && !errors.Is(err, domain.ErrQuestNotFound) {
		return domain.EmptyContent(), nil
	}
	if err != nil {
		return domain.QuestContent{}, err
	}
	if qc.Questions == nil {
		qc.Questions = []domain.Question{}
	}
	return qc, nil
}

// SaveQuestContent replaces a quest's content with c.
func (c *Client) SaveQuestContent(ctx context.Context, questID string, qc domain.QuestContent) error {
	return c.do(ctx, http.MethodPost, questPath(questID)+"/content", qc, nil)
}

func questPath(questID string) string {
	return "/api/quests/" + url.PathEscape(questID)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeHTTPError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type errorResponse struct {
	Error         string `json:"error"`
	QuestionIndex *int   `json:"question_index"`
	Reason        string `json:"reason"`
}

func decodeHTTPError(status int, body []byte) error {
	e := &Error{Status: status}
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		e.Message = resp.Error
		e.QuestionIndex = resp.QuestionIndex
		e.Reason = resp.Reason
	}
	if status == http.StatusNotFound && e.Message == domain.ErrQuestNotFound.Error() {
		e.Err = domain.ErrQuestNotFound
	}
	return e
}
