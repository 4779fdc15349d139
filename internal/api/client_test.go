package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eliaskord/storyloom/internal/session"
)

func TestGenerateStory(t *testing.T) {
	var gotAuth, gotRequestID string
	var gotBody struct {
		Answers []session.AnswerPair `json:"answers"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ai/generate-story", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"storyId": "story-42",
			"title":   "The Tapping Fern",
			"content": "# opening\n\nIt asked for Chopin.",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123", nil)
	pairs := []session.AnswerPair{{QuestionID: "q-1", Answer: "green-aesthete"}}
	res, err := c.GenerateStory(context.Background(), pairs)
	require.NoError(t, err)
	require.Equal(t, "story-42", res.StoryID)
	// missing first chapter id falls back to "1"
	require.Equal(t, "1", res.FirstChapterID)
	require.Equal(t, "Bearer tok-123", gotAuth)
	require.NotEmpty(t, gotRequestID)
	require.Equal(t, pairs, gotBody.Answers)
}

func TestGetChapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/story/story-42/chapters/7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "7",
			"title":   "The Cellar Door",
			"content": "Stairs descend into warm dark.",
			"options": []map[string]string{
				{"id": "o1", "text": "Descend"},
				{"id": "o2", "text": "Bolt the door"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	ch, err := c.GetChapter(context.Background(), "story-42", "7")
	require.NoError(t, err)
	require.Equal(t, "7", ch.ID)
	require.Len(t, ch.Options, 2)
	require.Equal(t, session.ChapterOption{ID: "o2", Text: "Bolt the door"}, ch.Options[1])
}

func TestSelectOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/story/s1/chapters/7/select", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "o1", body["optionId"])
		_ = json.NewEncoder(w).Encode(map[string]string{"nextChapterId": "8"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	next, err := c.SelectOption(context.Background(), "s1", "7", "o1")
	require.NoError(t, err)
	require.Equal(t, "8", next)
}

func TestGetEntitlements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/entitlements", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"resources": map[string]any{
				"story_generation": map[string]int{"used": 1, "max": 3},
				"analysis_save":    map[string]int{"used": 0, "max": 10},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	got, err := c.GetEntitlements(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.Counter{Used: 1, Max: 3}, got[session.ResourceStoryGeneration])
	require.Equal(t, session.Counter{Used: 0, Max: 10}, got[session.ResourceAnalysisSave])
}

func TestNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exhausted"}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.GenerateStory(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "402")
	require.Contains(t, err.Error(), "quota exhausted")
}

func TestListStories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/story/user", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stories": []map[string]any{
				{"id": "s1", "title": "First", "lastChapterId": "4", "lastChapterTitle": "The Gate"},
			},
			"total": 11,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	stories, total, err := c.ListStories(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Equal(t, 11, total)
	require.Len(t, stories, 1)
	require.Equal(t, "4", stories[0].LastChapterID)
}
