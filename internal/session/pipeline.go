package session

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// KV is the injected key-value blob store behind the generation cache and
// session persistence. Implementations must tolerate concurrent readers; a
// benign interleaving of writers is acceptable because every cached entry is
// re-validated against its fingerprint on read.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// StoryResult is the generation service's answer to a finished questionnaire.
type StoryResult struct {
	StoryID        string
	Title          string
	Content        string
	FirstChapterID string
}

// GenerateService is the outbound boundary the pipeline drives. The remote
// generation algorithm is a black box behind it.
type GenerateService interface {
	GenerateStory(ctx context.Context, pairs []AnswerPair) (*StoryResult, error)
}

// DefaultGenerationTTL bounds how long a cached generation stays valid.
const DefaultGenerationTTL = 24 * time.Hour

const generationCacheKey = "generation:last"

type cacheEntry struct {
	Fingerprint    string    `json:"fingerprint"`
	StoryID        string    `json:"storyId"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	FirstChapterID string    `json:"firstChapterId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// GenerationResult is what callers of the pipeline observe.
type GenerationResult struct {
	StoryResult
	Fingerprint string
	FromCache   bool
}

// Pipeline turns a finished answer set into at most one in-flight generation
// request. A weighted semaphore of size one is the single-flight guard: a
// second caller gets ErrBusy instead of a second network call, and the guard
// is released on every exit path, cancellation included. Results are cached
// under the answer fingerprint with a TTL so an unchanged retry never
// re-bills the backend.
type Pipeline struct {
	svc    GenerateService
	cache  KV
	sem    *semaphore.Weighted
	ttl    time.Duration
	now    func() time.Time
	gate   func() error
	logger *zap.Logger
}

// PipelineOption tunes pipeline construction.
type PipelineOption func(*Pipeline)

// WithQuotaGate installs a check run after a cache miss and before the
// network call. A non-nil return blocks the request; cache hits bypass the
// gate because they cost the backend nothing.
func WithQuotaGate(gate func() error) PipelineOption {
	return func(p *Pipeline) { p.gate = gate }
}

// NewPipeline builds a pipeline. A zero ttl selects DefaultGenerationTTL.
func NewPipeline(svc GenerateService, cache KV, ttl time.Duration, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if ttl <= 0 {
		ttl = DefaultGenerationTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		svc:    svc,
		cache:  cache,
		sem:    semaphore.NewWeighted(1),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate resolves the answer set to a story, consulting the cache first.
// It returns ErrBusy when another generation holds the guard; callers must
// surface that and wait for an explicit user retry rather than spinning.
func (p *Pipeline) Generate(ctx context.Context, pairs []AnswerPair) (*GenerationResult, error) {
	fp := Fingerprint(pairs)
	if res := p.fromCache(ctx, fp); res != nil {
		p.logger.Debug("generation served from cache", zap.String("fingerprint", fp))
		return res, nil
	}
	if p.gate != nil {
		if err := p.gate(); err != nil {
			return nil, err
		}
	}
	if !p.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer p.sem.Release(1)

	story, err := p.svc.GenerateStory(ctx, pairs)
	if err != nil {
		return nil, transient("generate story", err)
	}
	p.storeCache(ctx, fp, story)
	return &GenerationResult{StoryResult: *story, Fingerprint: fp}, nil
}

// Retry re-enters Generate from the top, so a retry still hits the cache if
// a concurrent successful call completed meanwhile.
func (p *Pipeline) Retry(ctx context.Context, pairs []AnswerPair) (*GenerationResult, error) {
	return p.Generate(ctx, pairs)
}

// fromCache returns a still-valid cached result for fp, or nil. Corrupted
// entries are discarded and degrade to a miss, never to a failure.
func (p *Pipeline) fromCache(ctx context.Context, fp string) *GenerationResult {
	raw, ok, err := p.cache.Get(ctx, generationCacheKey)
	if err != nil {
		p.logger.Warn("generation cache read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		p.logger.Debug("discarding corrupted generation cache entry", zap.Error(err))
		_ = p.cache.Delete(ctx, generationCacheKey)
		return nil
	}
	if entry.Fingerprint != fp {
		return nil
	}
	if p.now().Sub(entry.CreatedAt) >= p.ttl {
		_ = p.cache.Delete(ctx, generationCacheKey)
		return nil
	}
	return &GenerationResult{
		StoryResult: StoryResult{
			StoryID:        entry.StoryID,
			Title:          entry.Title,
			Content:        entry.Content,
			FirstChapterID: entry.FirstChapterID,
		},
		Fingerprint: fp,
		FromCache:   true,
	}
}

func (p *Pipeline) storeCache(ctx context.Context, fp string, story *StoryResult) {
	entry := cacheEntry{
		Fingerprint:    fp,
		StoryID:        story.StoryID,
		Title:          story.Title,
		Content:        story.Content,
		FirstChapterID: story.FirstChapterID,
		CreatedAt:      p.now(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		p.logger.Warn("generation cache encode failed", zap.Error(err))
		return
	}
	if err := p.cache.Set(ctx, generationCacheKey, raw); err != nil {
		p.logger.Warn("generation cache write failed", zap.Error(err))
	}
}
