package session

import (
	"context"

	"go.uber.org/zap"
)

// NavState is the chapter navigator's state machine position.
type NavState int

const (
	NavIdle NavState = iota
	NavLoading
	NavReady
	NavSelecting
	NavError
	NavEnded
)

func (s NavState) String() string {
	switch s {
	case NavIdle:
		return "idle"
	case NavLoading:
		return "loading"
	case NavReady:
		return "ready"
	case NavSelecting:
		return "selecting"
	case NavError:
		return "error"
	case NavEnded:
		return "ended"
	}
	return "unknown"
}

// ChapterOption is one branch offered at the end of a chapter.
type ChapterOption struct {
	ID   string
	Text string
}

// Chapter is a single node of the branch tree, fetched on demand and not
// cached beyond the current view.
type Chapter struct {
	ID      string
	Title   string
	Content string
	Options []ChapterOption
}

// HistoryEntry records one completed chapter transition. Entries are
// appended, never mutated or removed.
type HistoryEntry struct {
	ChapterID        string `json:"chapterId"`
	Title            string `json:"title"`
	SelectedOptionID string `json:"selectedOptionId"`
}

// HistoryLog is the persisted append-only path record per story.
type HistoryLog interface {
	Append(ctx context.Context, storyID string, entry HistoryEntry) error
	List(ctx context.Context, storyID string) ([]HistoryEntry, error)
}

// ChapterService is the outbound boundary for chapter fetches and option
// dispatches.
type ChapterService interface {
	GetChapter(ctx context.Context, storyID, chapterID string) (*Chapter, error)
	SelectOption(ctx context.Context, storyID, chapterID, optionID string) (nextChapterID string, err error)
}

// Navigator walks the branching chapter tree for one story. Selecting an
// option freezes further selections until the server answers, appends the
// transition to the history log, then loads the returned chapter. Revisiting
// an old chapter only changes what is displayed; history diverges forward
// and never rewrites the past.
type Navigator struct {
	svc     ChapterService
	history HistoryLog
	storyID string

	state   NavState
	chapter *Chapter
	lastErr error

	// pending remembers the chapter id of a failed load so Retry re-enters
	// LoadChapter unchanged.
	pending string

	logger *zap.Logger
}

// NewNavigator builds a navigator for storyID.
func NewNavigator(svc ChapterService, history HistoryLog, storyID string, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{svc: svc, history: history, storyID: storyID, state: NavIdle, logger: logger.Named("navigator")}
}

// State returns the current state machine position.
func (n *Navigator) State() NavState { return n.state }

// Chapter returns the chapter on display, valid in NavReady and NavSelecting.
func (n *Navigator) Chapter() *Chapter { return n.chapter }

// Err returns the error behind a NavError state or the last selection
// failure.
func (n *Navigator) Err() error { return n.lastErr }

// StoryID returns the story this navigator walks.
func (n *Navigator) StoryID() string { return n.storyID }

// LoadChapter fetches a chapter and transitions Loading -> Ready, or
// Loading -> Error on failure.
func (n *Navigator) LoadChapter(ctx context.Context, chapterID string) error {
	if n.state == NavEnded {
		return validationf("story has ended")
	}
	n.state = NavLoading
	n.pending = chapterID
	ch, err := n.svc.GetChapter(ctx, n.storyID, chapterID)
	if err != nil {
		n.state = NavError
		n.lastErr = transient("load chapter", err)
		return n.lastErr
	}
	n.chapter = ch
	n.state = NavReady
	n.lastErr = nil
	return nil
}

// Retry re-enters the failed LoadChapter unchanged.
func (n *Navigator) Retry(ctx context.Context) error {
	if n.state != NavError {
		return validationf("nothing to retry in state %s", n.state)
	}
	return n.LoadChapter(ctx, n.pending)
}

// SelectOption dispatches an option pick, appends exactly one history entry
// on success, and loads the returned next chapter. On failure the navigator
// returns to Ready with the chapter intact so the user can re-select.
func (n *Navigator) SelectOption(ctx context.Context, optionID string) error {
	if n.state != NavReady {
		return validationf("cannot select an option in state %s", n.state)
	}
	if !n.chapter.hasOption(optionID) {
		return validationf("option %q does not belong to chapter %s", optionID, n.chapter.ID)
	}
	n.state = NavSelecting
	nextID, err := n.svc.SelectOption(ctx, n.storyID, n.chapter.ID, optionID)
	if err != nil {
		n.state = NavReady
		n.lastErr = transient("select option", err)
		return n.lastErr
	}
	entry := HistoryEntry{ChapterID: n.chapter.ID, Title: n.chapter.Title, SelectedOptionID: optionID}
	if err := n.history.Append(ctx, n.storyID, entry); err != nil {
		// History persistence is best-effort; losing one log line must not
		// strand the user mid-story.
		n.logger.Warn("history append failed",
			zap.String("storyId", n.storyID),
			zap.String("chapterId", entry.ChapterID),
			zap.Error(err))
	}
	return n.LoadChapter(ctx, nextID)
}

// Revisit displays an already-walked chapter. It never truncates or rewrites
// history; a subsequent SelectOption appends a fresh entry.
func (n *Navigator) Revisit(ctx context.Context, chapterID string) error {
	if n.state == NavEnded {
		return validationf("story has ended")
	}
	if n.state == NavSelecting || n.state == NavLoading {
		return validationf("cannot revisit in state %s", n.state)
	}
	return n.LoadChapter(ctx, chapterID)
}

// History returns the walked path so far.
func (n *Navigator) History(ctx context.Context) ([]HistoryEntry, error) {
	return n.history.List(ctx, n.storyID)
}

// EndStory is the terminal transition out of the navigator into the
// analysis flow. Any chapter count is a valid place to end.
func (n *Navigator) EndStory() {
	n.state = NavEnded
}

func (c *Chapter) hasOption(optionID string) bool {
	if c == nil {
		return false
	}
	for _, o := range c.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}
