package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeService implements the full outbound surface for session tests.
type fakeService struct {
	mu            sync.Mutex
	gen           fakeGenerator
	chapters      fakeChapterService
	submitted     [][]AnswerPair
	submitBlock   chan struct{} // when non-nil, SubmitAnswers waits on it
	ackDone       chan struct{} // signalled once per recorded ack
	entitlements  map[Resource]Counter
	entitlementEr error
}

func newFakeService() *fakeService {
	return &fakeService{
		chapters: fakeChapterService{chapters: chapterTree()},
		ackDone:  make(chan struct{}, 4),
		entitlements: map[Resource]Counter{
			ResourceStoryGeneration: {Used: 0, Max: 3},
		},
	}
}

func (f *fakeService) GenerateStory(ctx context.Context, pairs []AnswerPair) (*StoryResult, error) {
	return f.gen.GenerateStory(ctx, pairs)
}

func (f *fakeService) GetChapter(ctx context.Context, storyID, chapterID string) (*Chapter, error) {
	return f.chapters.GetChapter(ctx, storyID, chapterID)
}

func (f *fakeService) SelectOption(ctx context.Context, storyID, chapterID, optionID string) (string, error) {
	return f.chapters.SelectOption(ctx, storyID, chapterID, optionID)
}

func (f *fakeService) SubmitAnswers(_ context.Context, pairs []AnswerPair) error {
	f.mu.Lock()
	block := f.submitBlock
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, pairs)
	f.mu.Unlock()
	f.ackDone <- struct{}{}
	return nil
}

func (f *fakeService) submittedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func (f *fakeService) GetEntitlements(_ context.Context) (map[Resource]Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entitlementEr != nil {
		return nil, f.entitlementEr
	}
	out := make(map[Resource]Counter, len(f.entitlements))
	for r, c := range f.entitlements {
		out[r] = c
	}
	return out, nil
}

func newTestSession(t *testing.T, svc *fakeService, kv KV) *Session {
	t.Helper()
	seed, err := NewSessionSeed("session-test-seed")
	require.NoError(t, err)
	return New(Config{Seed: seed, Pool: poolOf(12), QuestionCount: 3}, svc, kv, newMemHistory(), nil)
}

func completeWizard(t *testing.T, s *Session) {
	t.Helper()
	for !s.Wizard().Completed() {
		require.NoError(t, s.Wizard().SubmitAnswer("a"))
	}
}

func TestSessionStartPersistsAndResumes(t *testing.T) {
	svc := newFakeService()
	kv := newMemKV()

	s1 := newTestSession(t, svc, kv)
	require.NoError(t, s1.Start(context.Background()))
	ids := s1.Wizard().QuestionIDs()
	require.Len(t, ids, 3)

	// a second session over the same KV resumes the same draw
	s2 := newTestSession(t, svc, kv)
	require.NoError(t, s2.Start(context.Background()))
	require.Equal(t, ids, s2.Wizard().QuestionIDs())
}

func TestSessionResetDrawsFresh(t *testing.T) {
	svc := newFakeService()
	kv := newMemKV()
	s := newTestSession(t, svc, kv)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Wizard().SubmitAnswer("a"))

	require.NoError(t, s.Reset(context.Background()))
	require.Nil(t, s.Result())
	require.Nil(t, s.Navigator())
	require.Equal(t, 0, s.Wizard().AnsweredCount())

	// the fresh draw is what a resume now sees
	s2 := newTestSession(t, svc, kv)
	require.NoError(t, s2.Start(context.Background()))
	require.Equal(t, s.Wizard().QuestionIDs(), s2.Wizard().QuestionIDs())
}

func TestSessionGenerateRequiresCompletion(t *testing.T) {
	svc := newFakeService()
	s := newTestSession(t, svc, newMemKV())
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Generate(context.Background())
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestSessionGenerateConsumesQuotaOnce(t *testing.T) {
	svc := newFakeService()
	s := newTestSession(t, svc, newMemKV())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.SyncEntitlements(context.Background()))
	completeWizard(t, s)

	// completion acks the answers in the background
	<-svc.ackDone
	require.Equal(t, 1, svc.submittedCount())

	res, err := s.Generate(context.Background())
	require.NoError(t, err)
	require.False(t, res.FromCache)
	require.Equal(t, 2, s.Entitlements().Remaining(ResourceStoryGeneration))
	require.NotNil(t, s.Navigator())

	// the cached re-generate consumes nothing further
	res2, err := s.Generate(context.Background())
	require.NoError(t, err)
	require.True(t, res2.FromCache)
	require.Equal(t, 2, s.Entitlements().Remaining(ResourceStoryGeneration))
}

func TestSessionCompletionAckRunsInBackground(t *testing.T) {
	svc := newFakeService()
	svc.submitBlock = make(chan struct{})
	s := newTestSession(t, svc, newMemKV())
	require.NoError(t, s.Start(context.Background()))

	// the final submit returns while the ack is still held up on the wire
	completeWizard(t, s)
	require.True(t, s.Wizard().Completed())
	require.Equal(t, 0, svc.submittedCount())

	close(svc.submitBlock)
	<-svc.ackDone
	require.Equal(t, 1, svc.submittedCount())
}

func TestSessionGenerateBlockedWhenQuotaSpent(t *testing.T) {
	svc := newFakeService()
	svc.entitlements[ResourceStoryGeneration] = Counter{Used: 3, Max: 3}
	s := newTestSession(t, svc, newMemKV())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.SyncEntitlements(context.Background()))
	completeWizard(t, s)

	_, err := s.Generate(context.Background())
	require.Error(t, err)
	require.True(t, IsQuotaExceeded(err))
	require.Equal(t, 0, svc.gen.callCount())
}

func TestSessionGenerateFailureReconciles(t *testing.T) {
	svc := newFakeService()
	svc.gen.err = errors.New("upstream 503")
	s := newTestSession(t, svc, newMemKV())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.SyncEntitlements(context.Background()))
	completeWizard(t, s)

	// the server burned the quota even though the call failed
	svc.mu.Lock()
	svc.entitlements[ResourceStoryGeneration] = Counter{Used: 3, Max: 3}
	svc.mu.Unlock()

	_, err := s.Generate(context.Background())
	require.Error(t, err)
	require.True(t, IsTransient(err))
	// the mirror picked up the server's counters
	require.False(t, s.Entitlements().CanConsume(ResourceStoryGeneration))
}

func TestSessionCorruptedResumeBlobDrawsFresh(t *testing.T) {
	svc := newFakeService()
	kv := newMemKV()
	require.NoError(t, kv.Set(context.Background(), sampledQuestionsKey, []byte("[broken")))

	s := newTestSession(t, svc, kv)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, 3, s.Wizard().Len())
}

func TestSessionOpenStorySharesHistoryLog(t *testing.T) {
	svc := newFakeService()
	s := newTestSession(t, svc, newMemKV())
	require.NoError(t, s.Start(context.Background()))

	nav := s.OpenStory("story-7")
	require.NotNil(t, nav)
	require.Equal(t, "story-7", nav.StoryID())
	require.Same(t, nav, s.Navigator())
}
