package session

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Service is the full outbound surface of the remote generation service, an
// opaque boundary behind bearer-token HTTP.
type Service interface {
	GenerateService
	ChapterService
	SubmitAnswers(ctx context.Context, pairs []AnswerPair) error
	GetEntitlements(ctx context.Context) (map[Resource]Counter, error)
}

const sampledQuestionsKey = "wizard:questions"

// Session owns one user's narrative run end to end: the sampled
// questionnaire, the generation pipeline, the chapter navigator, and the
// entitlement mirror. Lifecycle is explicit: Start and Reset are called by
// the owner, never triggered as reactive side effects, so ordering stays
// deterministic and testable.
type Session struct {
	svc      Service
	kv       KV
	history  HistoryLog
	wizard   *Wizard
	pipeline *Pipeline
	ents     *Entitlements
	logger   *zap.Logger

	result *GenerationResult
	nav    *Navigator
}

// Config collects session construction inputs.
type Config struct {
	Seed          SessionSeed
	Pool          []Question
	QuestionCount int
	GenerationTTL time.Duration
}

// New assembles a session. The KV store backs both the generation cache and
// the sampled-question resume blob; the history log persists the walked
// chapter path.
func New(cfg Config, svc Service, kv KV, history HistoryLog, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		svc:     svc,
		kv:      kv,
		history: history,
		ents:    NewEntitlements(),
		logger:  logger.Named("session"),
	}
	pool := cfg.Pool
	if len(pool) == 0 {
		pool = DefaultPool
	}
	count := cfg.QuestionCount
	if count <= 0 {
		count = 5
	}
	sampler := NewSampler(cfg.Seed.Stream("questions"))
	s.wizard = NewWizard(sampler, pool, count, s.onWizardComplete)
	s.pipeline = NewPipeline(svc, kv, cfg.GenerationTTL, logger,
		WithQuotaGate(func() error {
			if !s.ents.CanConsume(ResourceStoryGeneration) {
				return &QuotaExceededError{Resource: ResourceStoryGeneration}
			}
			return nil
		}))
	return s
}

// Start resumes a persisted wizard session when one exists, otherwise draws
// fresh questions, and persists the drawn ids either way.
func (s *Session) Start(ctx context.Context) error {
	ids := s.loadSampledIDs(ctx)
	if err := s.wizard.StartWith(ids); err != nil {
		return err
	}
	s.persistSampledIDs(ctx)
	return nil
}

// Reset discards the wizard session entirely: new draw, empty answers, and a
// fresh persisted id list.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.wizard.Reset(); err != nil {
		return err
	}
	s.result = nil
	s.nav = nil
	s.persistSampledIDs(ctx)
	return nil
}

// Wizard exposes the questionnaire state machine.
func (s *Session) Wizard() *Wizard { return s.wizard }

// Entitlements exposes the quota mirror.
func (s *Session) Entitlements() *Entitlements { return s.ents }

// onWizardComplete acknowledges the finished answers to the service. The ack
// is best-effort and runs off the caller's goroutine so submitting the final
// answer never blocks on the network; generation is driven separately
// through Generate.
func (s *Session) onWizardComplete(pairs []AnswerPair) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.svc.SubmitAnswers(ctx, pairs); err != nil {
			s.logger.Warn("answer submission ack failed", zap.Error(err))
		}
	}()
}

// Generate runs the pipeline over the wizard's finished answers. On a fresh
// (non-cached) success the story-generation entitlement is consumed; a
// server-side quota rejection reconciles the mirror from the service.
func (s *Session) Generate(ctx context.Context) (*GenerationResult, error) {
	if !s.wizard.Completed() {
		return nil, validationf("questionnaire is not finished")
	}
	res, err := s.pipeline.Generate(ctx, s.wizard.Pairs())
	if err != nil {
		if IsTransient(err) {
			s.reconcileEntitlements(ctx)
		}
		return nil, err
	}
	if !res.FromCache {
		if cerr := s.ents.Consume(ResourceStoryGeneration); cerr != nil {
			s.logger.Warn("entitlement consume refused after confirmed success", zap.Error(cerr))
		}
	}
	s.result = res
	s.nav = NewNavigator(s.svc, s.history, res.StoryID, s.logger)
	return res, nil
}

// RetryGeneration re-enters the pipeline after an explicit user action.
func (s *Session) RetryGeneration(ctx context.Context) (*GenerationResult, error) {
	return s.Generate(ctx)
}

// Result returns the generated story, if any.
func (s *Session) Result() *GenerationResult { return s.result }

// Navigator returns the chapter navigator for the generated story; nil until
// a generation succeeded.
func (s *Session) Navigator() *Navigator { return s.nav }

// OpenStory returns a navigator for a previously generated story, used by
// the continue-journey flow. The story's history log picks up where it left
// off; it is append-only across resumes too.
func (s *Session) OpenStory(storyID string) *Navigator {
	s.nav = NewNavigator(s.svc, s.history, storyID, s.logger)
	return s.nav
}

// SyncEntitlements refreshes the quota mirror from the service.
func (s *Session) SyncEntitlements(ctx context.Context) error {
	snapshot, err := s.svc.GetEntitlements(ctx)
	if err != nil {
		return transient("get entitlements", err)
	}
	s.ents.SyncFrom(snapshot)
	return nil
}

// reconcileEntitlements pulls authoritative counters after a failed gated
// call; the server may have rejected on quota the client believed was free.
func (s *Session) reconcileEntitlements(ctx context.Context) {
	if err := s.SyncEntitlements(ctx); err != nil {
		s.logger.Debug("entitlement reconcile skipped", zap.Error(err))
	}
}

func (s *Session) loadSampledIDs(ctx context.Context) []string {
	raw, ok, err := s.kv.Get(ctx, sampledQuestionsKey)
	if err != nil || !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		// Corrupted resume blob: discard and draw fresh.
		_ = s.kv.Delete(ctx, sampledQuestionsKey)
		return nil
	}
	return ids
}

func (s *Session) persistSampledIDs(ctx context.Context) {
	raw, err := json.Marshal(s.wizard.QuestionIDs())
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, sampledQuestionsKey, raw); err != nil {
		s.logger.Warn("persisting sampled questions failed", zap.Error(err))
	}
}
