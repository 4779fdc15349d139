package session

import "strings"

// AnswerPair is one (question, answer) pair in sequence order. The ordered
// pair list is the wizard's finished output and the input to the generation
// fingerprint.
type AnswerPair struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// CompletionFunc receives the finished ordered answers exactly once per
// wizard lifetime.
type CompletionFunc func(pairs []AnswerPair)

// Wizard drives a linear questionnaire over a sampled question sequence.
// It is a state machine over Answering(i) for i in [0, N) plus Completed.
type Wizard struct {
	sampler *Sampler
	pool    []Question
	size    int

	seq     []Question
	answers map[string]string
	idx     int

	submitting bool // per-slot idempotency token, held across the completion hand-off
	completed  bool
	fired      bool

	onComplete CompletionFunc
}

// NewWizard builds a wizard that will draw size questions from pool.
func NewWizard(sampler *Sampler, pool []Question, size int, onComplete CompletionFunc) *Wizard {
	return &Wizard{sampler: sampler, pool: pool, size: size, onComplete: onComplete}
}

// Start draws a fresh question sequence and clears all answers.
func (w *Wizard) Start() error {
	seq, err := w.sampler.Sample(w.pool, w.size)
	if err != nil {
		return err
	}
	if len(seq) == 0 {
		return validationf("question pool is empty")
	}
	w.seq = seq
	w.answers = make(map[string]string, len(seq))
	w.idx = 0
	w.submitting = false
	w.completed = false
	w.fired = false
	return nil
}

// StartWith resumes a persisted session from previously sampled question ids.
// Unknown ids mean the catalog changed underneath the session; the wizard
// falls back to a fresh draw.
func (w *Wizard) StartWith(ids []string) error {
	if len(ids) == 0 {
		return w.Start()
	}
	byID := make(map[string]Question, len(w.pool))
	for _, q := range w.pool {
		byID[q.ID] = q
	}
	seq := make([]Question, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return w.Start()
		}
		if _, dup := seen[id]; dup {
			return w.Start()
		}
		seen[id] = struct{}{}
		seq = append(seq, q)
	}
	w.seq = seq
	w.answers = make(map[string]string, len(seq))
	w.idx = 0
	w.submitting = false
	w.completed = false
	w.fired = false
	return nil
}

// QuestionIDs returns the sampled sequence ids for session persistence.
func (w *Wizard) QuestionIDs() []string {
	ids := make([]string, len(w.seq))
	for i, q := range w.seq {
		ids[i] = q.ID
	}
	return ids
}

// Current returns the question at the cursor.
func (w *Wizard) Current() (Question, bool) {
	if w.seq == nil || w.idx >= len(w.seq) {
		return Question{}, false
	}
	return w.seq[w.idx], true
}

// Index returns the cursor position.
func (w *Wizard) Index() int { return w.idx }

// Len returns the sequence length.
func (w *Wizard) Len() int { return len(w.seq) }

// Completed reports whether every question has been answered.
func (w *Wizard) Completed() bool { return w.completed }

// AnswerFor returns the recorded answer for a question id.
func (w *Wizard) AnswerFor(id string) (string, bool) {
	v, ok := w.answers[id]
	return v, ok
}

// AnsweredCount returns the length of the answered prefix: the first slot
// without an answer bounds how far ahead the user may jump.
func (w *Wizard) AnsweredCount() int {
	for i, q := range w.seq {
		if _, ok := w.answers[q.ID]; !ok {
			return i
		}
	}
	return len(w.seq)
}

// SubmitAnswer records the answer for the current question and advances the
// cursor. Submitting the final answer transitions to Completed and hands the
// ordered answers to the completion hook exactly once, no matter how many
// duplicate completion events follow.
func (w *Wizard) SubmitAnswer(text string) error {
	if w.seq == nil {
		return validationf("wizard not started")
	}
	if w.completed {
		return validationf("wizard already completed")
	}
	if w.submitting {
		return validationf("a submission is already in flight")
	}
	q := w.seq[w.idx]
	answer := strings.TrimSpace(text)
	if answer == "" {
		return validationf("answer must not be empty")
	}
	if !q.FreeText() && !q.hasOption(answer) {
		return validationf("%q is not an option for question %s", answer, q.ID)
	}
	w.answers[q.ID] = answer
	if w.idx < len(w.seq)-1 {
		w.idx++
		return nil
	}
	w.completed = true
	if w.fired || w.onComplete == nil {
		return nil
	}
	w.fired = true
	w.submitting = true
	w.onComplete(w.Pairs())
	w.submitting = false
	return nil
}

func (q Question) hasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Previous moves the cursor back one slot. Answers are never cleared here;
// resubmitting at the revisited slot overwrites in place.
func (w *Wizard) Previous() {
	if w.idx > 0 {
		w.idx--
	}
}

// JumpTo moves the cursor to any answered slot or the first unanswered one.
// Skipping ahead is reported, not silently corrected.
func (w *Wizard) JumpTo(i int) error {
	if w.seq == nil {
		return validationf("wizard not started")
	}
	if i < 0 || i >= len(w.seq) {
		return validationf("slot %d out of range [0, %d)", i, len(w.seq))
	}
	if i > w.AnsweredCount() {
		return validationf("cannot skip ahead to unanswered slot %d", i)
	}
	w.idx = i
	return nil
}

// ResetCurrent swaps the current question for one not already in the
// sequence, clearing only that slot's answer and submission guard.
func (w *Wizard) ResetCurrent() error {
	if w.seq == nil {
		return validationf("wizard not started")
	}
	if w.completed {
		return validationf("wizard already completed")
	}
	exclude := make(map[string]struct{}, len(w.seq))
	for _, q := range w.seq {
		exclude[q.ID] = struct{}{}
	}
	drawn, err := w.sampler.Resample(w.pool, exclude, 1)
	if err != nil {
		return err
	}
	old := w.seq[w.idx]
	delete(w.answers, old.ID)
	w.seq[w.idx] = drawn[0]
	w.submitting = false
	return nil
}

// Reset discards the whole session: fresh draw, empty answer map, cursor at
// zero. A reset wizard is a new lifetime and may complete (and hand off)
// again.
func (w *Wizard) Reset() error { return w.Start() }

// Pairs returns the answered (questionID, answer) pairs in sequence order.
func (w *Wizard) Pairs() []AnswerPair {
	pairs := make([]AnswerPair, 0, len(w.seq))
	for _, q := range w.seq {
		if a, ok := w.answers[q.ID]; ok {
			pairs = append(pairs, AnswerPair{QuestionID: q.ID, Answer: a})
		}
	}
	return pairs
}
