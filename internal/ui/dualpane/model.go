// Package dualpane hosts the side-by-side diff viewer: two aligned panes, a
// connector gutter between them, a file panel, and cross-file search.
package dualpane

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"duet/internal/align"
	"duet/internal/config"
	"duet/internal/diffload"
	"duet/internal/history"
	"duet/internal/keys"
	"duet/internal/log"
	"duet/internal/pubsub"
	"duet/internal/scrollsync"
	"duet/internal/search"
	"duet/internal/ui/styles"
)

// Layout constants.
const (
	gutterWidth     = 8 // connector gutter between the panes
	statusBarHeight = 1
	pageLines       = 10
	hscrollStep     = 4

	logLineCap    = 200 // retained log entries for the overlay
	recentQueries = 10  // history entries offered in the search bar
)

type focusArea int

const (
	focusBefore focusArea = iota
	focusAfter
	focusFiles
)

// scrollMemory preserves a file's scroll positions across file switches.
type scrollMemory struct {
	beforeTop float64
	afterTop  float64
	left      float64
}

// Model is the top-level viewer model.
type Model struct {
	ctx    context.Context
	cfg    config.Config
	theme  styles.Theme
	keymap keys.KeyMap

	source diffload.Source
	loader diffload.DiffLoader
	coord  *search.Coordinator
	hist   *history.Store

	searchEvents <-chan pubsub.Event[search.State]
	watchEvents  <-chan pubsub.Event[diffload.Change]

	engine *scrollsync.Engine
	before *pane
	after  *pane

	focus          focusArea
	showFiles      bool
	showHelp       bool
	showLog        bool
	showConnectors bool
	showScrollbars bool

	logListener *pubsub.Listener[string]
	logLines    []string

	paths   []string
	fileIdx int
	current *diffload.FileDiff
	memory  map[string]scrollMemory
	loadSeq int
	loading bool

	searchOpen  bool
	searchInput textinput.Model
	spin        spinner.Model
	scope       search.Scope
	searchState search.State
	recorded    bool

	// Recent queries offered while the search bar is open; recentIdx is -1
	// until the user starts cycling with up/down.
	recent    []history.Entry
	recentIdx int

	// pendingJump is a match to scroll to once its file finishes loading.
	pendingJump *search.Match

	width  int
	height int
	err    error
}

// New assembles the viewer. hist and watchEvents may be nil.
func New(
	ctx context.Context,
	cfg config.Config,
	source diffload.Source,
	loader diffload.DiffLoader,
	coord *search.Coordinator,
	hist *history.Store,
	watchEvents <-chan pubsub.Event[diffload.Change],
) Model {
	ti := textinput.New()
	ti.Placeholder = "search"
	ti.Prompt = "/"
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	engineCfg := scrollsync.Config{
		LineHeight:      1, // terminal cells
		AnchorFraction:  cfg.Sync.AnchorFraction,
		UpdateThreshold: cfg.Sync.UpdateThreshold,
		EchoTolerance:   cfg.Sync.EchoTolerance,
		PrimaryTimeout:  cfg.Sync.PrimaryTimeout(),
	}

	return Model{
		ctx:            ctx,
		cfg:            cfg,
		theme:          styles.NewTheme(cfg.Theme),
		keymap:         keys.DefaultKeyMap(),
		source:         source,
		loader:         loader,
		coord:          coord,
		hist:           hist,
		searchEvents:   coord.Subscribe(ctx),
		watchEvents:    watchEvents,
		engine:         scrollsync.NewEngine(engineCfg),
		before:         newPane(align.SideBefore),
		after:          newPane(align.SideAfter),
		focus:          focusAfter,
		showFiles:      true,
		logListener:    log.NewListener(ctx),
		showConnectors: cfg.UI.ShowConnectors,
		showScrollbars: cfg.UI.ShowScrollbars,
		memory:         make(map[string]scrollMemory),
		searchInput:    ti,
		spin:           sp,
		scope:          search.ScopeAll,
		recentIdx:      -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		listFilesCmd(m.source),
		listenSearchCmd(m.ctx, m.searchEvents),
	}
	if m.watchEvents != nil {
		cmds = append(cmds, listenWatchCmd(m.ctx, m.watchEvents))
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// CurrentPath returns the selected file's comparison-relative path.
func (m Model) CurrentPath() string {
	if m.fileIdx < 0 || m.fileIdx >= len(m.paths) {
		return ""
	}
	return m.paths[m.fileIdx]
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case FilesListedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.paths = msg.Paths
		m.coord.SetFiles(msg.Paths)
		if len(m.paths) == 0 {
			return m, nil
		}
		m.fileIdx = 0
		return m, m.loadCurrent()

	case DiffLoadedMsg:
		return m.onDiffLoaded(msg)

	case SearchStateMsg:
		return m.onSearchState(msg)

	case log.Entry:
		return m.onLogEntry(msg)

	case FileChangedMsg:
		cmd := listenWatchCmd(m.ctx, m.watchEvents)
		if msg.Change.Path == m.CurrentPath() {
			log.Info(log.CatUI, "reloading changed file", "path", msg.Change.Path)
			return m, tea.Batch(cmd, m.loadCurrent())
		}
		return m, cmd

	case spinner.TickMsg:
		if !m.loading && !m.searchState.Running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.onMouse(msg)

	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m *Model) layout() {
	paneHeight := m.height - statusBarHeight
	if m.searchOpen {
		paneHeight--
	}
	if paneHeight < 1 {
		paneHeight = 1
	}

	avail := m.width
	if m.showFiles {
		avail -= m.cfg.UI.FileListWidth
	}
	if m.showConnectors {
		avail -= gutterWidth
	}
	if m.showScrollbars {
		avail -= 2
	}
	paneWidth := avail / 2
	if paneWidth < 1 {
		paneWidth = 1
	}

	m.before.SetSize(paneWidth, paneHeight)
	m.after.SetSize(paneWidth, paneHeight)
	m.searchInput.Width = m.width - 4
}

func (m *Model) loadCurrent() tea.Cmd {
	path := m.CurrentPath()
	if path == "" {
		return nil
	}
	m.loadSeq++
	m.loading = true
	return tea.Batch(
		loadDiffCmd(m.ctx, m.loader, path, m.loadSeq),
		m.spin.Tick,
	)
}

func (m Model) onDiffLoaded(msg DiffLoadedMsg) (tea.Model, tea.Cmd) {
	// A stale response from a superseded load; the newer request is still
	// in flight.
	if msg.Seq != m.loadSeq {
		return m, nil
	}
	m.loading = false
	if msg.Err != nil {
		m.err = msg.Err
		log.ErrorErr(log.CatUI, "diff load failed", msg.Err, "path", msg.Path)
		return m, nil
	}
	m.err = nil
	m.current = msg.Diff
	m.before.SetContent(msg.Diff.BeforeLines, msg.Diff.Alignment)
	m.after.SetContent(msg.Diff.AfterLines, msg.Diff.Alignment)
	m.engine.SetAlignment(msg.Diff.Alignment)

	if m.pendingJump != nil {
		jump := *m.pendingJump
		m.pendingJump = nil
		m.engine.ScrollToRow(jump.Line, align.SideAfter, m.before, m.after)
	} else if mem, ok := m.memory[msg.Path]; ok {
		m.before.SetScrollTop(mem.beforeTop)
		m.after.SetScrollTop(mem.afterTop)
		m.before.SetScrollLeft(mem.left)
		m.after.SetScrollLeft(mem.left)
	}
	return m, nil
}

func (m Model) onSearchState(msg SearchStateMsg) (tea.Model, tea.Cmd) {
	prevRunning := m.searchState.Running
	m.searchState = msg.State

	cmds := []tea.Cmd{listenSearchCmd(m.ctx, m.searchEvents)}
	if msg.State.Running {
		m.recorded = false
		cmds = append(cmds, m.spin.Tick)
	} else if prevRunning && !m.recorded && msg.State.Query != "" && m.hist != nil {
		m.recorded = true
		if err := m.hist.Record(msg.State.Query, msg.State.Scope.String(), msg.State.TotalMatches()); err != nil {
			log.ErrorErr(log.CatDB, "recording search history", err)
		}
	}
	return m, tea.Batch(cmds...)
}

// onLogEntry accumulates a formatted log line for the overlay and re-arms the
// listener. Old lines roll off past the cap.
func (m Model) onLogEntry(msg log.Entry) (tea.Model, tea.Cmd) {
	m.logLines = append(m.logLines, strings.TrimRight(msg.Payload, "\n"))
	if len(m.logLines) > logLineCap {
		m.logLines = m.logLines[len(m.logLines)-logLineCap:]
	}
	if m.logListener == nil {
		return m, nil
	}
	return m, m.logListener.Listen()
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchOpen {
		return m.onSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.showLog {
			m.showLog = false
			return m, nil
		}
		if m.searchState.Query != "" {
			m.coord.Search(m.ctx, "", m.scope)
		}
		return m, nil

	case key.Matches(msg, m.keymap.Search):
		m.searchOpen = true
		m.searchInput.SetValue(m.searchState.Query)
		m.recent = nil
		m.recentIdx = -1
		if m.hist != nil {
			if entries, err := m.hist.Recent(recentQueries); err == nil {
				m.recent = entries
			} else {
				log.ErrorErr(log.CatDB, "loading recent searches", err)
			}
		}
		m.layout()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keymap.NextMatch):
		return m.gotoMatch(true)

	case key.Matches(msg, m.keymap.PrevMatch):
		return m.gotoMatch(false)

	case key.Matches(msg, m.keymap.ExpandFile):
		if path := m.CurrentPath(); path != "" {
			m.coord.Expand(path)
		}
		return m, nil

	case key.Matches(msg, m.keymap.CollapseFile):
		if path := m.CurrentPath(); path != "" {
			m.coord.Collapse(path)
		}
		return m, nil

	case key.Matches(msg, m.keymap.ToggleLog):
		m.showLog = !m.showLog
		return m, nil

	case key.Matches(msg, m.keymap.FileList):
		m.showFiles = !m.showFiles
		m.layout()
		return m, nil

	case key.Matches(msg, m.keymap.ToggleConnectors):
		m.showConnectors = !m.showConnectors
		m.layout()
		return m, nil

	case key.Matches(msg, m.keymap.FocusPane):
		switch m.focus {
		case focusBefore:
			m.focus = focusAfter
		case focusAfter:
			if m.showFiles {
				m.focus = focusFiles
			} else {
				m.focus = focusBefore
			}
		default:
			m.focus = focusBefore
		}
		return m, nil

	case key.Matches(msg, m.keymap.NextFile):
		return m.selectFile(m.fileIdx + 1)

	case key.Matches(msg, m.keymap.PrevFile):
		return m.selectFile(m.fileIdx - 1)

	case key.Matches(msg, m.keymap.NextHunk):
		m.gotoHunk(true)
		return m, nil

	case key.Matches(msg, m.keymap.PrevHunk):
		m.gotoHunk(false)
		return m, nil
	}

	if m.focus == focusFiles {
		switch {
		case key.Matches(msg, m.keymap.Down):
			return m.selectFile(m.fileIdx + 1)
		case key.Matches(msg, m.keymap.Up):
			return m.selectFile(m.fileIdx - 1)
		}
		return m, nil
	}

	m.handleScrollKey(msg)
	return m, nil
}

func (m *Model) handleScrollKey(msg tea.KeyMsg) {
	src, tgt, side := m.focusedPanes()
	switch {
	case key.Matches(msg, m.keymap.Down):
		src.ScrollBy(1)
		m.engine.OnScroll(side, src, tgt)
	case key.Matches(msg, m.keymap.Up):
		src.ScrollBy(-1)
		m.engine.OnScroll(side, src, tgt)
	case key.Matches(msg, m.keymap.PageDown):
		src.ScrollBy(pageLines)
		m.engine.OnScroll(side, src, tgt)
	case key.Matches(msg, m.keymap.PageUp):
		src.ScrollBy(-pageLines)
		m.engine.OnScroll(side, src, tgt)
	case key.Matches(msg, m.keymap.Top):
		src.GotoTop()
		m.engine.OnScroll(side, src, tgt)
	case key.Matches(msg, m.keymap.Bottom):
		src.GotoBottom()
		m.engine.OnScroll(side, src, tgt)
	case key.Matches(msg, m.keymap.Right):
		src.HorizontalBy(hscrollStep)
		m.engine.OnScroll(side, src, tgt)
	case key.Matches(msg, m.keymap.Left):
		src.HorizontalBy(-hscrollStep)
		m.engine.OnScroll(side, src, tgt)
	}
}

func (m *Model) focusedPanes() (src, tgt *pane, side align.Side) {
	if m.focus == focusBefore {
		return m.before, m.after, align.SideBefore
	}
	return m.after, m.before, align.SideAfter
}

func (m Model) onSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Escape):
		m.searchOpen = false
		m.searchInput.Blur()
		m.layout()
		return m, nil

	case key.Matches(msg, m.keymap.SearchScope):
		if m.scope == search.ScopeAll {
			m.scope = search.ScopeChanges
		} else {
			m.scope = search.ScopeAll
		}
		return m, nil

	case msg.Type == tea.KeyEnter:
		query := m.searchInput.Value()
		m.searchOpen = false
		m.searchInput.Blur()
		m.layout()
		m.coord.Search(m.ctx, query, m.scope)
		return m, m.spin.Tick

	// Up/down recall recent queries, newest first. Plain typing is never
	// intercepted; only the arrow keys cycle.
	case msg.Type == tea.KeyUp:
		if len(m.recent) > 0 && m.recentIdx < len(m.recent)-1 {
			m.recentIdx++
			m.searchInput.SetValue(m.recent[m.recentIdx].Query)
			m.searchInput.CursorEnd()
		}
		return m, nil

	case msg.Type == tea.KeyDown:
		if m.recentIdx > 0 {
			m.recentIdx--
			m.searchInput.SetValue(m.recent[m.recentIdx].Query)
			m.searchInput.CursorEnd()
		} else if m.recentIdx == 0 {
			m.recentIdx = -1
			m.searchInput.SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) onMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		src, tgt, side := m.focusedPanes()
		src.ScrollBy(3)
		m.engine.OnScroll(side, src, tgt)
		return m, nil
	case tea.MouseButtonWheelUp:
		src, tgt, side := m.focusedPanes()
		src.ScrollBy(-3)
		m.engine.OnScroll(side, src, tgt)
		return m, nil
	}

	if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
		for i := range m.paths {
			if z := zone.Get(fmt.Sprintf("file_%d", i)); z != nil && z.InBounds(msg) {
				return m.selectFile(i)
			}
		}
	}
	return m, nil
}

// selectFile switches to the file at idx, remembering the current file's
// scroll positions first.
func (m Model) selectFile(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.paths) || idx == m.fileIdx {
		return m, nil
	}
	m.saveScrollMemory()
	m.fileIdx = idx
	return m, m.loadCurrent()
}

func (m *Model) saveScrollMemory() {
	if path := m.CurrentPath(); path != "" && m.current != nil {
		m.memory[path] = scrollMemory{
			beforeTop: m.before.ScrollTop(),
			afterTop:  m.after.ScrollTop(),
			left:      m.after.ScrollLeft(),
		}
	}
}

// gotoHunk jumps to the next or previous changed range relative to the
// focused pane's anchor row.
func (m *Model) gotoHunk(forward bool) {
	if m.current == nil || len(m.current.Alignment) == 0 {
		return
	}
	src, _, side := m.focusedPanes()
	anchor := int(math.Floor(src.ScrollTop() + src.ViewportHeight()*m.cfg.Sync.AnchorFraction))

	seq := m.current.Alignment
	best := -1
	if forward {
		for i, r := range seq {
			if r.Changed && r.Span(side).Start > anchor {
				best = i
				break
			}
		}
	} else {
		for i := len(seq) - 1; i >= 0; i-- {
			if seq[i].Changed && seq[i].Span(side).Start < anchor {
				best = i
				break
			}
		}
	}
	if best < 0 {
		return
	}
	m.engine.ScrollToRow(seq[best].Span(side).Start, side, m.before, m.after)
}

// gotoMatch advances the global match selection and jumps to it, loading the
// target file first when it is not the one on screen.
func (m Model) gotoMatch(forward bool) (tea.Model, tea.Cmd) {
	var (
		path string
		mt   search.Match
		ok   bool
	)
	if forward {
		path, mt, ok = m.coord.Next()
	} else {
		path, mt, ok = m.coord.Prev()
	}
	if !ok {
		return m, nil
	}

	if path != m.CurrentPath() {
		for i, p := range m.paths {
			if p == path {
				m.saveScrollMemory()
				m.fileIdx = i
				m.pendingJump = &mt
				return m, m.loadCurrent()
			}
		}
		return m, nil
	}

	m.engine.ScrollToRow(mt.Line, align.SideAfter, m.before, m.after)
	return m, nil
}

// currentMatches returns the selected file's match spans grouped by row, and
// the globally selected match if it lives in this file.
func (m Model) currentMatches() (map[int][]search.Match, *search.Match) {
	path := m.CurrentPath()
	if path == "" || m.searchState.Query == "" {
		return nil, nil
	}

	var byRow map[int][]search.Match
	for _, f := range m.searchState.Files {
		if f.Path != path {
			continue
		}
		byRow = make(map[int][]search.Match, len(f.Matches))
		for _, mt := range f.Matches {
			byRow[mt.Line] = append(byRow[mt.Line], mt)
		}
		break
	}
	if byRow == nil {
		return nil, nil
	}

	var selected *search.Match
	if selPath, selMatch, ok := m.searchState.MatchAt(m.searchState.Selected); ok && selPath == path {
		selected = &selMatch
	}
	return byRow, selected
}
