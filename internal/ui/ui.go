package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/eliaskord/storyloom/internal/api"
	"github.com/eliaskord/storyloom/internal/session"
	"github.com/eliaskord/storyloom/internal/util"
)

const (
	viewMenu       = "menu"
	viewWizard     = "wizard"
	viewGenerating = "generating"
	viewStory      = "story"
	viewChapter    = "chapter"
	viewHistory    = "history"
	viewAnalysis   = "analysis"
	viewStories    = "stories"
)

type model struct {
	ctx     context.Context
	sess    *session.Session
	client  *api.Client
	cfg     util.Config
	version string
	st      styles

	view   string
	status string
	input  string
	width  int
	height int

	generating      bool
	result          *session.GenerationResult
	storyRendered   string
	chapterRendered string

	history    []session.HistoryEntry
	analysis   []api.AnalysisCard
	characters []api.Character
	stories    []api.StorySummary
	liked      bool
}

func initialModel(ctx context.Context, sess *session.Session, client *api.Client, cfg util.Config, version string) model {
	return model{
		ctx:     ctx,
		sess:    sess,
		client:  client,
		cfg:     cfg,
		version: version,
		st:      defaultStyles(),
		view:    viewMenu,
	}
}

// messages --------------------------------------------------------------

type startedMsg struct{ err error }
type entitlementsMsg struct{ err error }
type generationMsg struct {
	res *session.GenerationResult
	err error
}
type chapterMsg struct{ err error }
type historyMsg struct {
	entries []session.HistoryEntry
	err     error
}
type analysisMsg struct {
	cards []api.AnalysisCard
	err   error
}
type storiesMsg struct {
	stories []api.StorySummary
	err     error
}
type charactersMsg struct {
	characters []api.Character
	err        error
}
type cardSavedMsg struct{ err error }
type likeMsg struct {
	liked bool
	err   error
}

// commands --------------------------------------------------------------

func (m model) startSessionCmd() tea.Cmd {
	return func() tea.Msg { return startedMsg{err: m.sess.Start(m.ctx)} }
}

func (m model) syncEntitlementsCmd() tea.Cmd {
	return func() tea.Msg { return entitlementsMsg{err: m.sess.SyncEntitlements(m.ctx)} }
}

func (m model) generateCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.sess.Generate(m.ctx)
		return generationMsg{res: res, err: err}
	}
}

func (m model) loadChapterCmd(chapterID string) tea.Cmd {
	return func() tea.Msg { return chapterMsg{err: m.sess.Navigator().LoadChapter(m.ctx, chapterID)} }
}

func (m model) retryChapterCmd() tea.Cmd {
	return func() tea.Msg { return chapterMsg{err: m.sess.Navigator().Retry(m.ctx)} }
}

func (m model) selectOptionCmd(optionID string) tea.Cmd {
	return func() tea.Msg { return chapterMsg{err: m.sess.Navigator().SelectOption(m.ctx, optionID)} }
}

func (m model) revisitCmd(chapterID string) tea.Cmd {
	return func() tea.Msg { return chapterMsg{err: m.sess.Navigator().Revisit(m.ctx, chapterID)} }
}

func (m model) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.sess.Navigator().History(m.ctx)
		return historyMsg{entries: entries, err: err}
	}
}

func (m model) loadAnalysisCmd(storyID string) tea.Cmd {
	return func() tea.Msg {
		cards, err := m.client.GetAnalysis(m.ctx, storyID)
		return analysisMsg{cards: cards, err: err}
	}
}

func (m model) saveCardCmd(cardID string) tea.Cmd {
	return func() tea.Msg {
		ents := m.sess.Entitlements()
		if !ents.CanConsume(session.ResourceAnalysisSave) {
			return cardSavedMsg{err: &session.QuotaExceededError{Resource: session.ResourceAnalysisSave}}
		}
		if err := m.client.SaveAnalysisCard(m.ctx, cardID); err != nil {
			// The server may have refused on quota; pull its counters.
			_ = m.sess.SyncEntitlements(m.ctx)
			return cardSavedMsg{err: err}
		}
		_ = ents.Consume(session.ResourceAnalysisSave)
		return cardSavedMsg{}
	}
}

func (m model) extractCharactersCmd(storyID string) tea.Cmd {
	return func() tea.Msg {
		ents := m.sess.Entitlements()
		if !ents.CanConsume(session.ResourceCharacterRefresh) {
			return charactersMsg{err: &session.QuotaExceededError{Resource: session.ResourceCharacterRefresh}}
		}
		chars, err := m.client.ExtractCharacters(m.ctx, storyID)
		if err != nil {
			_ = m.sess.SyncEntitlements(m.ctx)
			return charactersMsg{err: err}
		}
		_ = ents.Consume(session.ResourceCharacterRefresh)
		return charactersMsg{characters: chars}
	}
}

func (m model) toggleLikeCmd(storyID string, liked bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if liked {
			err = m.client.UnlikeStory(m.ctx, storyID)
		} else {
			err = m.client.LikeStory(m.ctx, storyID)
		}
		if err != nil {
			return likeMsg{liked: liked, err: err}
		}
		return likeMsg{liked: !liked}
	}
}

func (m model) loadStoriesCmd() tea.Cmd {
	return func() tea.Msg {
		stories, _, err := m.client.ListStories(m.ctx, 1, 20)
		return storiesMsg{stories: stories, err: err}
	}
}

// tea.Model -------------------------------------------------------------

func (m model) Init() tea.Cmd {
	return tea.Batch(m.startSessionCmd(), m.syncEntitlementsCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.status = "failed to start session: " + msg.err.Error()
		}
		return m, nil

	case entitlementsMsg:
		if msg.err != nil {
			m.status = "entitlements unavailable: " + msg.err.Error()
		}
		return m, nil

	case generationMsg:
		m.generating = false
		if msg.err != nil {
			m.status = generationErrorLine(msg.err)
			return m, nil
		}
		m.result = msg.res
		m.storyRendered = renderMarkdown("# "+msg.res.Title+"\n\n"+msg.res.Content, m.width)
		m.view = viewStory
		m.status = ""
		if msg.res.FromCache {
			m.status = "restored from cache"
		}
		return m, nil

	case chapterMsg:
		nav := m.sess.Navigator()
		if msg.err != nil {
			m.status = chapterErrorLine(msg.err)
			return m, nil
		}
		if ch := nav.Chapter(); ch != nil {
			m.chapterRendered = renderMarkdown("## "+ch.Title+"\n\n"+ch.Content, m.width)
		}
		m.view = viewChapter
		m.status = ""
		return m, nil

	case historyMsg:
		if msg.err != nil {
			m.status = "history unavailable: " + msg.err.Error()
			return m, nil
		}
		m.history = msg.entries
		m.view = viewHistory
		return m, nil

	case analysisMsg:
		if msg.err != nil {
			m.status = "analysis unavailable: " + msg.err.Error()
			return m, nil
		}
		m.analysis = msg.cards
		m.view = viewAnalysis
		m.status = ""
		return m, nil

	case charactersMsg:
		if msg.err != nil {
			if session.IsQuotaExceeded(msg.err) {
				m.status = "character refreshes exhausted; upgrade or redeem a code to continue"
			} else {
				m.status = "character extraction failed: " + msg.err.Error()
			}
			return m, nil
		}
		m.characters = msg.characters
		m.status = ""
		return m, nil

	case cardSavedMsg:
		if msg.err != nil {
			if session.IsQuotaExceeded(msg.err) {
				m.status = "analysis saves exhausted; upgrade or redeem a code to continue"
			} else {
				m.status = "save failed: " + msg.err.Error()
			}
			return m, nil
		}
		m.status = "card saved"
		return m, nil

	case likeMsg:
		if msg.err != nil {
			m.status = "like failed: " + msg.err.Error()
			return m, nil
		}
		m.liked = msg.liked
		return m, nil

	case storiesMsg:
		if msg.err != nil {
			m.status = "stories unavailable: " + msg.err.Error()
			return m, nil
		}
		m.stories = msg.stories
		m.view = viewStories
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case viewMenu:
		switch key {
		case "n":
			m.view = viewWizard
			m.input = ""
			m.status = ""
			return m, nil
		case "c":
			return m, m.loadStoriesCmd()
		case "q":
			return m, tea.Quit
		}

	case viewWizard:
		return m.handleWizardKey(msg)

	case viewGenerating:
		switch key {
		case "r":
			if !m.generating {
				m.generating = true
				m.status = ""
				return m, m.generateCmd()
			}
		case "esc":
			if !m.generating {
				m.view = viewMenu
			}
		}

	case viewStory:
		switch key {
		case "enter":
			return m, m.loadChapterCmd(m.result.FirstChapterID)
		case "esc":
			m.view = viewMenu
		}

	case viewChapter:
		return m.handleChapterKey(key)

	case viewHistory:
		if key == "esc" {
			m.view = viewChapter
			return m, nil
		}
		if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= len(m.history) {
			return m, m.revisitCmd(m.history[idx-1].ChapterID)
		}

	case viewAnalysis:
		switch {
		case key == "esc":
			m.view = viewMenu
		case key == "l":
			if nav := m.sess.Navigator(); nav != nil {
				return m, m.toggleLikeCmd(nav.StoryID(), m.liked)
			}
		case key == "x":
			if nav := m.sess.Navigator(); nav != nil {
				return m, m.extractCharactersCmd(nav.StoryID())
			}
		default:
			if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= len(m.analysis) {
				return m, m.saveCardCmd(m.analysis[idx-1].ID)
			}
		}

	case viewStories:
		if key == "esc" {
			m.view = viewMenu
			return m, nil
		}
		if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= len(m.stories) {
			st := m.stories[idx-1]
			m.sess.OpenStory(st.ID)
			chapterID := st.LastChapterID
			if chapterID == "" {
				chapterID = "1"
			}
			return m, m.loadChapterCmd(chapterID)
		}
	}
	return m, nil
}

func (m model) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.sess.Wizard()
	q, ok := w.Current()
	if !ok {
		m.view = viewMenu
		return m, nil
	}
	key := msg.String()

	switch key {
	case "left":
		w.Previous()
		m.input = ""
		m.status = ""
		return m, nil
	case "ctrl+r":
		if err := w.ResetCurrent(); err != nil {
			m.status = err.Error()
		} else {
			m.input = ""
			m.status = "question reshuffled"
		}
		return m, nil
	case "ctrl+n":
		if err := m.sess.Reset(m.ctx); err != nil {
			m.status = err.Error()
		} else {
			m.input = ""
			m.status = "questionnaire reset"
		}
		return m, nil
	case "esc":
		m.view = viewMenu
		return m, nil
	}

	if q.FreeText() {
		switch msg.Type {
		case tea.KeyEnter:
			return m.submitAnswer(m.input)
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				runes := []rune(m.input)
				m.input = string(runes[:len(runes)-1])
			}
			return m, nil
		case tea.KeySpace:
			m.input += " "
			return m, nil
		case tea.KeyRunes:
			m.input += string(msg.Runes)
			return m, nil
		}
		return m, nil
	}

	if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= len(q.Options) {
		return m.submitAnswer(q.Options[idx-1].Value)
	}
	return m, nil
}

func (m model) submitAnswer(text string) (tea.Model, tea.Cmd) {
	w := m.sess.Wizard()
	if err := w.SubmitAnswer(text); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.input = ""
	m.status = ""
	if w.Completed() {
		m.view = viewGenerating
		m.generating = true
		return m, m.generateCmd()
	}
	return m, nil
}

func (m model) handleChapterKey(key string) (tea.Model, tea.Cmd) {
	nav := m.sess.Navigator()
	if nav == nil {
		m.view = viewMenu
		return m, nil
	}
	switch key {
	case "r":
		if nav.State() == session.NavError {
			return m, m.retryChapterCmd()
		}
	case "h":
		return m, m.loadHistoryCmd()
	case "e":
		nav.EndStory()
		return m, m.loadAnalysisCmd(nav.StoryID())
	case "esc":
		m.view = viewMenu
		return m, nil
	}
	if nav.State() != session.NavReady {
		return m, nil
	}
	ch := nav.Chapter()
	if idx, err := strconv.Atoi(key); err == nil && ch != nil && idx >= 1 && idx <= len(ch.Options) {
		m.status = ""
		return m, m.selectOptionCmd(ch.Options[idx-1].ID)
	}
	return m, nil
}

// views -----------------------------------------------------------------

func (m model) View() string {
	var body string
	switch m.view {
	case viewMenu:
		body = m.renderMenu()
	case viewWizard:
		body = m.renderWizard()
	case viewGenerating:
		body = m.renderGenerating()
	case viewStory:
		body = m.renderStory()
	case viewChapter:
		body = m.renderChapter()
	case viewHistory:
		body = m.renderHistory()
	case viewAnalysis:
		body = m.renderAnalysis()
	case viewStories:
		body = m.renderStories()
	}
	if m.status != "" {
		body += "\n" + m.st.Warning.Render(m.status)
	}
	return body
}

func (m model) renderMenu() string {
	var b strings.Builder
	b.WriteString(m.st.Title.Render("storyloom "+m.version) + "\n\n")
	b.WriteString(m.st.Option.Render("[n] new journey") + "\n")
	b.WriteString(m.st.Option.Render("[c] continue journey") + "\n")
	b.WriteString(m.st.Option.Render("[q] quit") + "\n\n")
	ents := m.sess.Entitlements().Snapshot()
	if c, ok := ents[session.ResourceStoryGeneration]; ok {
		b.WriteString(m.st.Muted.Render(fmt.Sprintf("free stories left: %d/%d", c.Max-c.Used, c.Max)) + "\n")
	}
	return b.String()
}

func (m model) renderWizard() string {
	w := m.sess.Wizard()
	q, ok := w.Current()
	if !ok {
		return m.st.Muted.Render("no questions drawn yet")
	}
	var b strings.Builder
	b.WriteString(m.st.Subtitle.Render(fmt.Sprintf("question %d of %d", w.Index()+1, w.Len())) + "\n\n")
	b.WriteString(m.st.Panel.Render(q.Text) + "\n\n")
	if q.FreeText() {
		b.WriteString(m.st.Option.Render("> "+m.input+"▌") + "\n")
	} else {
		for i, o := range q.Options {
			line := fmt.Sprintf("[%d] %s %s", i+1, o.Icon, o.Label)
			b.WriteString(m.st.Option.Render(line) + "\n")
		}
	}
	if prev, answered := w.AnswerFor(q.ID); answered {
		b.WriteString("\n" + m.st.Muted.Render("previous answer: "+prev) + "\n")
	}
	b.WriteString("\n" + m.st.Muted.Render("left: back · ctrl+r reshuffle · ctrl+n start over · esc menu") + "\n")
	return b.String()
}

func (m model) renderGenerating() string {
	if m.generating {
		return m.st.Subtitle.Render("weaving your story...") + "\n\n" +
			m.st.Muted.Render("extracting elements, shaping characters, writing the opening")
	}
	return m.st.Error.Render("generation did not finish") + "\n\n" +
		m.st.Muted.Render("[r] retry · esc menu")
}

func (m model) renderStory() string {
	var b strings.Builder
	b.WriteString(m.storyRendered)
	b.WriteString("\n" + m.st.Muted.Render("enter: begin chapter one · esc menu") + "\n")
	return b.String()
}

func (m model) renderChapter() string {
	nav := m.sess.Navigator()
	if nav == nil || nav.Chapter() == nil {
		return m.st.Muted.Render("loading chapter...")
	}
	var b strings.Builder
	b.WriteString(m.chapterRendered + "\n")
	ch := nav.Chapter()
	if nav.State() == session.NavSelecting {
		b.WriteString(m.st.Muted.Render("sending your choice...") + "\n")
	} else {
		for i, o := range ch.Options {
			b.WriteString(m.st.Option.Render(fmt.Sprintf("[%d] %s", i+1, o.Text)) + "\n")
		}
	}
	b.WriteString("\n" + m.st.Muted.Render("h history · e end journey · esc menu") + "\n")
	return b.String()
}

func (m model) renderHistory() string {
	var b strings.Builder
	b.WriteString(m.st.Title.Render("the path you walked") + "\n\n")
	if len(m.history) == 0 {
		b.WriteString(m.st.Muted.Render("(no choices recorded yet)") + "\n")
	}
	for i, e := range m.history {
		b.WriteString(m.st.Option.Render(fmt.Sprintf("[%d] %s · chose %s", i+1, e.Title, e.SelectedOptionID)) + "\n")
	}
	b.WriteString("\n" + m.st.Muted.Render("number: revisit that chapter · esc back") + "\n")
	return b.String()
}

func (m model) renderAnalysis() string {
	var b strings.Builder
	b.WriteString(m.st.Title.Render("story analysis") + "\n\n")
	if len(m.analysis) == 0 {
		b.WriteString(m.st.Muted.Render("(no analysis cards)") + "\n")
	}
	for i, c := range m.analysis {
		b.WriteString(m.st.Panel.Render(fmt.Sprintf("[%d] %s", i+1, c.Content)) + "\n")
	}
	if len(m.characters) > 0 {
		b.WriteString("\n" + m.st.Subtitle.Render("characters") + "\n")
		for _, c := range m.characters {
			name := c.Name
			if c.Locked {
				name += " 🔒"
			}
			b.WriteString(m.st.Option.Render(name) + "\n")
			b.WriteString(m.st.Muted.Render("  "+c.Description) + "\n")
		}
	}
	remaining := m.sess.Entitlements().Remaining(session.ResourceAnalysisSave)
	b.WriteString("\n" + m.st.Muted.Render(fmt.Sprintf("number: save card (%d saves left) · l like story · x extract characters · esc menu", remaining)) + "\n")
	return b.String()
}

func (m model) renderStories() string {
	var b strings.Builder
	b.WriteString(m.st.Title.Render("continue journey") + "\n\n")
	if len(m.stories) == 0 {
		b.WriteString(m.st.Muted.Render("(no stories yet, start a new journey)") + "\n")
	}
	for i, s := range m.stories {
		b.WriteString(m.st.Option.Render(fmt.Sprintf("[%d] %s", i+1, s.Title)) + "\n")
		b.WriteString(m.st.Muted.Render("    last chapter: "+s.LastChapter) + "\n")
	}
	b.WriteString("\n" + m.st.Muted.Render("number: resume · esc menu") + "\n")
	return b.String()
}

// helpers ---------------------------------------------------------------

func renderMarkdown(md string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		w := width - 2
		if w > 100 {
			w = 100
		}
		opts = append(opts, glamour.WithWordWrap(w))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func generationErrorLine(err error) string {
	switch {
	case session.IsQuotaExceeded(err):
		return "free story generations exhausted; upgrade or redeem a code"
	case errors.Is(err, session.ErrBusy):
		return "a generation is already running; wait for it to finish"
	case session.IsTransient(err):
		return "generation failed: " + err.Error() + " (press r to retry)"
	default:
		return err.Error()
	}
}

func chapterErrorLine(err error) string {
	if session.IsTransient(err) {
		return "request failed: " + err.Error() + " (press r to retry)"
	}
	return err.Error()
}
