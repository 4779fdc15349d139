package ui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eliaskord/storyloom/internal/session"
)

func TestGenerationErrorLine(t *testing.T) {
	require.Contains(t, generationErrorLine(session.ErrBusy), "already running")
	// a wrapped sentinel still classifies as busy
	wrapped := fmt.Errorf("generate: %w", session.ErrBusy)
	require.Contains(t, generationErrorLine(wrapped), "already running")

	quota := &session.QuotaExceededError{Resource: session.ResourceStoryGeneration}
	require.Contains(t, generationErrorLine(quota), "exhausted")

	transient := &session.TransientError{Op: "generate story", Err: errors.New("upstream 503")}
	require.Contains(t, generationErrorLine(transient), "retry")

	plain := errors.New("questionnaire is not finished")
	require.Equal(t, plain.Error(), generationErrorLine(plain))
}

func TestChapterErrorLine(t *testing.T) {
	transient := &session.TransientError{Op: "load chapter", Err: errors.New("timeout")}
	require.Contains(t, chapterErrorLine(transient), "retry")

	plain := errors.New("option does not belong to chapter")
	require.Equal(t, plain.Error(), chapterErrorLine(plain))
}
