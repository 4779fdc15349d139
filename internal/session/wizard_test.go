package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWizard(t *testing.T, size int, onComplete CompletionFunc) *Wizard {
	t.Helper()
	w := NewWizard(newTestSampler(t, "wizard"), poolOf(12), size, onComplete)
	require.NoError(t, w.Start())
	return w
}

func answerCurrent(t *testing.T, w *Wizard, text string) {
	t.Helper()
	require.NoError(t, w.SubmitAnswer(text))
}

func TestWizardLinearAdvance(t *testing.T) {
	w := newTestWizard(t, 3, nil)
	require.Equal(t, 0, w.Index())
	answerCurrent(t, w, "a")
	require.Equal(t, 1, w.Index())
	answerCurrent(t, w, "b")
	require.Equal(t, 2, w.Index())
	require.False(t, w.Completed())
	answerCurrent(t, w, "a")
	require.True(t, w.Completed())
	require.Len(t, w.Pairs(), 3)
}

func TestWizardEmptyAnswerRejected(t *testing.T) {
	w := newTestWizard(t, 3, nil)
	err := w.SubmitAnswer("   ")
	require.Error(t, err)
	require.True(t, IsValidation(err))
	require.Equal(t, 0, w.Index())
}

func TestWizardUnknownOptionRejected(t *testing.T) {
	w := newTestWizard(t, 3, nil)
	err := w.SubmitAnswer("not-an-option")
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestWizardOverwriteViaPrevious(t *testing.T) {
	w := newTestWizard(t, 3, nil)
	first, _ := w.Current()
	answerCurrent(t, w, "a")
	answerCurrent(t, w, "b")

	w.Previous()
	w.Previous()
	require.Equal(t, 0, w.Index())
	answerCurrent(t, w, "b")

	got, ok := w.AnswerFor(first.ID)
	require.True(t, ok)
	require.Equal(t, "b", got)
	// the other answered slot is untouched
	require.Equal(t, 2, w.AnsweredCount())
}

func TestWizardJumpBounds(t *testing.T) {
	w := newTestWizard(t, 4, nil)
	answerCurrent(t, w, "a")
	answerCurrent(t, w, "a")
	// cursor at slot 2, answered prefix is 2

	require.NoError(t, w.JumpTo(0))
	require.NoError(t, w.JumpTo(2))
	err := w.JumpTo(3)
	require.Error(t, err)
	require.True(t, IsValidation(err))
	err = w.JumpTo(7)
	require.Error(t, err)
}

func TestWizardResetCurrentSwapsQuestion(t *testing.T) {
	w := newTestWizard(t, 3, nil)
	answerCurrent(t, w, "a")
	old, _ := w.Current()
	answerCurrent(t, w, "b")
	w.Previous()

	require.NoError(t, w.ResetCurrent())
	replacement, ok := w.Current()
	require.True(t, ok)
	require.NotEqual(t, old.ID, replacement.ID)
	// the replaced slot's answer is gone, earlier answers survive
	_, answered := w.AnswerFor(old.ID)
	require.False(t, answered)
	require.Equal(t, 1, w.AnsweredCount())
	// the replacement is not a duplicate of any remaining slot
	ids := w.QuestionIDs()
	seen := make(map[string]struct{})
	for _, id := range ids {
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestWizardCompletionFiresOnce(t *testing.T) {
	var calls int
	var got []AnswerPair
	w := newTestWizard(t, 2, func(pairs []AnswerPair) {
		calls++
		got = pairs
	})
	answerCurrent(t, w, "a")
	answerCurrent(t, w, "b")
	require.Equal(t, 1, calls)
	require.Len(t, got, 2)

	// duplicate submission after completion is refused, hook not re-fired
	err := w.SubmitAnswer("a")
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestWizardResetIsNewLifetime(t *testing.T) {
	var calls int
	w := newTestWizard(t, 2, func([]AnswerPair) { calls++ })
	answerCurrent(t, w, "a")
	answerCurrent(t, w, "b")
	require.Equal(t, 1, calls)

	require.NoError(t, w.Reset())
	require.False(t, w.Completed())
	require.Equal(t, 0, w.AnsweredCount())
	answerCurrent(t, w, "b")
	answerCurrent(t, w, "a")
	require.Equal(t, 2, calls)
}

func TestWizardStartWithResumesSequence(t *testing.T) {
	w := newTestWizard(t, 4, nil)
	ids := w.QuestionIDs()

	w2 := NewWizard(newTestSampler(t, "wizard-resume"), poolOf(12), 4, nil)
	require.NoError(t, w2.StartWith(ids))
	require.Equal(t, ids, w2.QuestionIDs())
}

func TestWizardStartWithUnknownIDFallsBack(t *testing.T) {
	w := NewWizard(newTestSampler(t, "wizard-fallback"), poolOf(6), 3, nil)
	require.NoError(t, w.StartWith([]string{"q-00", "gone-from-catalog", "q-02"}))
	require.Equal(t, 3, w.Len())
	for _, id := range w.QuestionIDs() {
		require.NotEqual(t, "gone-from-catalog", id)
	}
}
