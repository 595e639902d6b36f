// Package tui provides the Bubble Tea experiment interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/export"
	"github.com/verte-zerg/apbtype/internal/model"
	"github.com/verte-zerg/apbtype/internal/provider"
	"github.com/verte-zerg/apbtype/internal/selector"
	"github.com/verte-zerg/apbtype/internal/session"
	statsPkg "github.com/verte-zerg/apbtype/internal/stats"
)

type state int

const (
	stateTitle state = iota
	stateGenerating
	stateReady
	statePlay
	stateResult
)

// Options configures a Model.
type Options struct {
	Config   model.Config
	Targets  statsPkg.TargetConfig
	Alphabet *bigram.Alphabet
	// Provider supplies candidate sentences; Fallback is used when it fails.
	Provider provider.Provider
	Fallback provider.Provider
	Selector *selector.Selector
	DBPath   string
	Now      func() time.Time
}

// Model implements the Bubble Tea experiment UI.
type Model struct {
	opts     Options
	session  *session.Session
	selector *selector.Selector
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	genCtx context.CancelFunc

	width  int
	height int

	state     state
	phaseIdx  int
	missed    bool
	startedAt time.Time
	sources   []string
	notice    string
	errMsg    string

	targets statsPkg.TargetSet
	report  statsPkg.Report
	result  *resultView
	saved   string

	exporting       bool
	quitAfterExport bool
}

type sentencesMsg struct {
	phase  model.Phase
	result provider.Result
}

type exportDoneMsg struct {
	outcome export.Outcome
	err     error
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs an experiment TUI model.
func NewModel(opts Options) *Model {
	if opts.Alphabet == nil {
		opts.Alphabet = bigram.English
	}
	if opts.Fallback == nil {
		opts.Fallback = provider.NewStatic(nil)
	}
	if opts.Provider == nil {
		opts.Provider = opts.Fallback
	}
	if opts.Selector == nil {
		opts.Selector = selector.New(opts.Alphabet, opts.Config.MaxChars)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		opts:     opts,
		session:  session.New(opts.Alphabet),
		selector: opts.Selector,
		now:      opts.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.result != nil {
			m.result.setSize(m.width, m.height)
		}
		return m, nil
	case sentencesMsg:
		m.handleSentences(msg)
		return m, nil
	case exportDoneMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("export failed: %v", msg.err)
			logErrf("failed to export results: %v\n", msg.err)
		}
		if msg.outcome.ArchivePath != "" {
			m.saved = msg.outcome.ArchivePath
		}
		m.exporting = false
		if m.quitAfterExport {
			return m, m.quit()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateTitle:
		if msg.Type == tea.KeyEnter {
			m.startedAt = m.now()
			return m, m.beginGeneration()
		}
	case stateReady:
		if msg.Type == tea.KeyEnter {
			m.startPhase()
		}
	case statePlay:
		switch msg.Type {
		case tea.KeySpace:
			return m, m.handleRunes([]rune{' '})
		case tea.KeyRunes:
			return m, m.handleRunes(msg.Runes)
		}
	case stateResult:
		if msg.String() == "q" || msg.Type == tea.KeyEsc {
			return m, m.quit()
		}
		if m.result != nil {
			return m, m.result.update(msg)
		}
	}
	return m, nil
}

// quit cancels outstanding generation and exits. While results are being
// saved the exit is deferred until the export reports back.
func (m *Model) quit() tea.Cmd {
	if m.exporting {
		m.quitAfterExport = true
		return nil
	}
	m.cancel()
	return tea.Quit
}

// Saved returns the archive path of the finished run, if it was written.
func (m *Model) Saved() string {
	return m.saved
}

// Phase returns the phase being prepared or typed.
func (m *Model) Phase() model.Phase {
	if m.phaseIdx >= len(model.Phases) {
		return model.PhaseB
	}
	return model.Phases[m.phaseIdx]
}

// Report returns the finished experiment report.
func (m *Model) Report() statsPkg.Report {
	return m.report
}

func (m *Model) beginGeneration() tea.Cmd {
	if m.genCtx != nil {
		m.genCtx()
	}
	phase := m.Phase()
	ctx, cancel := context.WithCancel(m.ctx)
	m.genCtx = cancel
	m.state = stateGenerating
	m.notice = ""
	req := provider.Request{
		Phase:       phase,
		Count:       m.opts.Config.Count(phase),
		MaxLength:   m.opts.Config.MaxChars,
		Transitions: m.transitionsFor(phase),
	}
	return generateCmd(ctx, m.opts.Provider, req)
}

func generateCmd(ctx context.Context, p provider.Provider, req provider.Request) tea.Cmd {
	return func() tea.Msg {
		return sentencesMsg{phase: req.Phase, result: p.Generate(ctx, req)}
	}
}

func (m *Model) transitionsFor(phase model.Phase) []model.Transition {
	if phase != model.PhaseP {
		return nil
	}
	return m.targets.Transitions
}

func (m *Model) handleSentences(msg sentencesMsg) {
	if m.state != stateGenerating || msg.phase != m.Phase() {
		return
	}
	if m.genCtx != nil {
		m.genCtx()
		m.genCtx = nil
	}
	phase := msg.phase
	count := m.opts.Config.Count(phase)
	res := msg.result
	var picked []string
	if !res.Failed() {
		picked = m.selector.Select(res.Sentences, count, phase.Mode(), m.transitionsFor(phase))
	}
	if len(picked) == 0 {
		if res.Failed() {
			logErrf("sentence provider %s failed: %v\n", res.Source, res.Err)
		}
		m.notice = "Generator unavailable; using stock sentences."
		res = m.opts.Fallback.Generate(m.ctx, provider.Request{Phase: phase, Count: count, MaxLength: m.opts.Config.MaxChars})
		if !res.Failed() {
			picked = m.selector.Select(res.Sentences, count, phase.Mode(), m.transitionsFor(phase))
		}
	}
	if len(picked) == 0 {
		m.errMsg = fmt.Sprintf("no usable sentences for phase %s", phase)
		m.state = stateTitle
		return
	}
	if phase == model.PhaseP && m.targets.Empty() {
		m.notice = strings.TrimSpace(m.notice + " No target transitions from phase A; phase P is uniform.")
	}
	m.sources = append(m.sources, res.Source)
	m.errMsg = ""
	m.session.SetDeck(picked)
	m.state = stateReady
}

func (m *Model) startPhase() {
	if err := m.session.StartPhase(m.Phase(), m.nowMs()); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.missed = false
	m.state = statePlay
}

func (m *Model) handleRunes(runes []rune) tea.Cmd {
	for _, r := range runes {
		res := m.session.Type(r, m.nowMs())
		if res.Keystroke.Ignored {
			continue
		}
		m.missed = !res.Keystroke.Advanced
		if res.DeckDone {
			return m.finishPhase()
		}
	}
	return nil
}

func (m *Model) finishPhase() tea.Cmd {
	phase := m.Phase()
	if err := m.session.EndPhase(phase, m.nowMs()); err != nil {
		logErrf("failed to end phase %s: %v\n", phase, err)
	}
	if phase == model.PhaseA {
		m.targets = statsPkg.BuildTargets(m.session.Log(model.PhaseA), m.opts.Alphabet, m.opts.Config.CountP, m.opts.Targets)
	}
	m.phaseIdx++
	if m.phaseIdx < len(model.Phases) {
		return m.beginGeneration()
	}
	return m.finishExperiment()
}

func (m *Model) finishExperiment() tea.Cmd {
	snap := m.session.Snapshot()
	m.report = statsPkg.BuildReport(snap.Alphabet, snap.Logs, m.targets)
	m.result = newResultView(m.report)
	m.result.setSize(m.width, m.height)
	m.state = stateResult
	run := model.RunRecord{
		StartedAt: m.startedAt,
		EndedAt:   m.now(),
		Alphabet:  m.opts.Alphabet.Name(),
		Provider:  strings.Join(uniqueStrings(m.sources), ","),
		Summaries: m.report.Summaries,
		Targets:   m.report.Targets,
	}
	m.exporting = true
	// The export outlives m.ctx so quitting cannot cut it short.
	return exportCmd(context.Background(), m.opts.Config.OutDir, m.opts.DBPath, run, m.report)
}

func exportCmd(ctx context.Context, dir, dbPath string, run model.RunRecord, report statsPkg.Report) tea.Cmd {
	return func() tea.Msg {
		outcome, err := export.WriteAll(ctx, dir, dbPath, run, report)
		return exportDoneMsg{outcome: outcome, err: err}
	}
}

func (m *Model) nowMs() int64 {
	return m.now().UnixMilli()
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.state {
	case stateTitle:
		content = m.renderTitle()
	case stateGenerating:
		content = titleStyle.Render("Phase "+m.Phase().Title()) + "\n\n" + footerStyle.Render("Preparing sentences...")
	case stateReady:
		content = m.renderReady()
	case statePlay:
		return m.renderPlay()
	case stateResult:
		return m.renderResult()
	}
	if m.errMsg != "" {
		content += "\n\n" + errorStyle.Render(m.errMsg)
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderTitle() string {
	lines := []string{
		titleStyle.Render("Bigram typing experiment"),
		"",
		fmt.Sprintf("Phases: A %d · P %d · B %d sentences", m.opts.Config.CountA, m.opts.Config.CountP, m.opts.Config.CountB),
		fmt.Sprintf("Alphabet: %s", m.opts.Alphabet.Name()),
		"",
		footerStyle.Render("Enter: start  Ctrl+C: quit"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderReady() string {
	phase := m.Phase()
	lines := []string{
		titleStyle.Render("Phase " + phase.Title()),
		"",
		fmt.Sprintf("%d sentences ready.", m.session.Deck().Len()),
	}
	if phase == model.PhaseP && !m.targets.Empty() {
		top := statsPkg.TopTargets(m.targets.Transitions, 8)
		lines = append(lines, "Focus: "+statsPkg.FormatTargets(top))
	}
	if m.notice != "" {
		lines = append(lines, footerStyle.Render(m.notice))
	}
	lines = append(lines, "", footerStyle.Render("Enter: begin"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderPlay() string {
	cur := m.session.Deck().Current()
	if cur == nil {
		return ""
	}
	styledRunes := buildStyledRunes(cur.Text, cur.Pos, m.missed)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderFooter() string {
	deck := m.session.Deck()
	if deck.Done() {
		return ""
	}
	phase, ok := m.session.Active()
	if !ok {
		return ""
	}
	sum := statsPkg.Summarize(phase, m.session.Log(phase))
	segments := []string{
		fmt.Sprintf("Phase %s", phase),
		fmt.Sprintf("Sentence %d/%d", deck.Index()+1, deck.Len()),
		fmt.Sprintf("Progress %d%%", int(deck.Progress()*100)),
		fmt.Sprintf("%.1f WPM · %.1f%%", sum.WPM, sum.Accuracy*100),
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return ""
	}
	var status string
	switch {
	case m.errMsg != "":
		status = errorStyle.Render(m.errMsg)
	case m.saved != "":
		status = footerStyle.Render("Saved " + m.saved)
	default:
		status = footerStyle.Render("Saving results...")
		if m.quitAfterExport {
			status = footerStyle.Render("Saving results before quitting...")
		}
	}
	return m.result.view() + "\n" + status
}

func uniqueStrings(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
