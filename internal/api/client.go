package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/eliaskord/storyloom/internal/session"
)

// Compile-time check that the client covers the session's outbound surface.
var _ session.Service = (*Client)(nil)

// Client talks to the remote story-generation service over JSON-on-HTTP with
// bearer-token authentication. It performs no retries of its own; every
// failure is surfaced and retried only on explicit user action.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client for the service at baseURL.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.Named("api"),
	}
}

type answerPayload struct {
	Answers []session.AnswerPair `json:"answers"`
}

// SubmitAnswers acknowledges a finished questionnaire to the service.
func (c *Client) SubmitAnswers(ctx context.Context, pairs []session.AnswerPair) error {
	return c.do(ctx, http.MethodPost, "/ai/submit-answers", answerPayload{Answers: pairs}, nil)
}

type generateStoryResponse struct {
	StoryID        string `json:"storyId"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	FirstChapterID string `json:"firstChapterId"`
}

// GenerateStory issues the single outbound generation request.
func (c *Client) GenerateStory(ctx context.Context, pairs []session.AnswerPair) (*session.StoryResult, error) {
	var resp generateStoryResponse
	if err := c.do(ctx, http.MethodPost, "/ai/generate-story", answerPayload{Answers: pairs}, &resp); err != nil {
		return nil, err
	}
	if resp.FirstChapterID == "" {
		resp.FirstChapterID = "1"
	}
	return &session.StoryResult{
		StoryID:        resp.StoryID,
		Title:          resp.Title,
		Content:        resp.Content,
		FirstChapterID: resp.FirstChapterID,
	}, nil
}

type chapterResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Options []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"options"`
}

// GetChapter fetches one chapter of the branch tree.
func (c *Client) GetChapter(ctx context.Context, storyID, chapterID string) (*session.Chapter, error) {
	var resp chapterResponse
	path := fmt.Sprintf("/story/%s/chapters/%s", storyID, chapterID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	ch := &session.Chapter{ID: resp.ID, Title: resp.Title, Content: resp.Content}
	for _, o := range resp.Options {
		ch.Options = append(ch.Options, session.ChapterOption{ID: o.ID, Text: o.Text})
	}
	return ch, nil
}

// SelectOption dispatches an option pick and returns the next chapter id.
func (c *Client) SelectOption(ctx context.Context, storyID, chapterID, optionID string) (string, error) {
	var resp struct {
		NextChapterID string `json:"nextChapterId"`
	}
	path := fmt.Sprintf("/story/%s/chapters/%s/select", storyID, chapterID)
	body := map[string]string{"optionId": optionID}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.NextChapterID, nil
}

type entitlementDTO struct {
	Used          int       `json:"used"`
	Max           int       `json:"max"`
	PeriodResetAt time.Time `json:"periodResetAt"`
}

// GetEntitlements fetches the authoritative quota counters.
func (c *Client) GetEntitlements(ctx context.Context) (map[session.Resource]session.Counter, error) {
	var resp struct {
		Resources map[string]entitlementDTO `json:"resources"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/entitlements", nil, &resp); err != nil {
		return nil, err
	}
	out := make(map[session.Resource]session.Counter, len(resp.Resources))
	for name, dto := range resp.Resources {
		out[session.Resource(name)] = session.Counter{
			Used:          dto.Used,
			Max:           dto.Max,
			PeriodResetAt: dto.PeriodResetAt,
		}
	}
	return out, nil
}

// AnalysisCard is one saved fragment of a story analysis.
type AnalysisCard struct {
	ID        string    `json:"id"`
	StoryID   string    `json:"storyId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetAnalysis fetches the post-story analysis cards.
func (c *Client) GetAnalysis(ctx context.Context, storyID string) ([]AnalysisCard, error) {
	var resp struct {
		Cards []AnalysisCard `json:"cards"`
	}
	if err := c.do(ctx, http.MethodGet, "/story/"+storyID+"/analysis", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cards, nil
}

// SaveAnalysisCard persists one analysis card server-side.
func (c *Client) SaveAnalysisCard(ctx context.Context, cardID string) error {
	return c.do(ctx, http.MethodPost, "/story/analysis/card/"+cardID+"/save", nil, nil)
}

// LikeStory marks a story as liked.
func (c *Client) LikeStory(ctx context.Context, storyID string) error {
	return c.do(ctx, http.MethodPost, "/story/"+storyID+"/like", nil, nil)
}

// UnlikeStory removes a like.
func (c *Client) UnlikeStory(ctx context.Context, storyID string) error {
	return c.do(ctx, http.MethodDelete, "/story/"+storyID+"/like", nil, nil)
}

// StorySummary is one row of the "continue journey" listing.
type StorySummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	LastChapterID string `json:"lastChapterId"`
	LastChapter   string `json:"lastChapterTitle"`
	Liked         bool   `json:"liked"`
}

// ListStories returns the user's previously generated stories.
func (c *Client) ListStories(ctx context.Context, page, limit int) ([]StorySummary, int, error) {
	var resp struct {
		Stories []StorySummary `json:"stories"`
		Total   int            `json:"total"`
	}
	path := fmt.Sprintf("/story/user?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Stories, resp.Total, nil
}

// Character is one extracted story character.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Locked      bool   `json:"isLocked"`
}

// ExtractCharacters asks the service to (re)extract characters for a story.
// The call is gated client-side by the character-refresh entitlement.
func (c *Client) ExtractCharacters(ctx context.Context, storyID string) ([]Character, error) {
	var resp struct {
		Characters []Character `json:"characters"`
	}
	if err := c.do(ctx, http.MethodPost, "/story/"+storyID+"/characters/extract", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Characters, nil
}

// do runs one request/response exchange. Non-2xx statuses and transport
// failures come back as plain errors for the session layer to classify.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.logger.Debug("request", zap.String("method", method), zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}
