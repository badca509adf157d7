// Command romaudit-tui is a terminal browser over a romaudit store: a
// dat/set list on the left, a rom/match detail view on drilling in.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ryanm101/romaudit/internal/config"
	"github.com/ryanm101/romaudit/internal/datadir"
	"github.com/ryanm101/romaudit/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dir, err := datadir.Resolve()
		if err != nil {
			fmt.Printf("resolve data directory: %v\n", err)
			os.Exit(1)
		}
		dbPath = dir + "/romaudit.db"
	}

	st, err := store.Open(context.Background(), dbPath)
	if err != nil {
		fmt.Printf("open store %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	p := tea.NewProgram(initialModel(st), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

type panel int

const (
	panelDats panel = iota
	panelSets
)

type datRow struct {
	ID   store.DatID
	Name string
}

type setRow struct {
	ID      store.SetID
	Name    string
	Roms    int
	Matched int
}

type romRow struct {
	Name   string
	Size   uint64
	Status store.MatchStatus
}

type model struct {
	st *store.Store

	dats []datRow
	sets []setRow

	panel  panel
	cursor int
	width  int
	height int
	err    error

	inDetail    bool
	selectedSet setRow
	roms        []romRow
	romCursor   int

	statusMsg string

	spinner spinner.Model
	loading bool
}

func initialModel(st *store.Store) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{st: st, panel: panelDats, spinner: sp, loading: true}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadDats(m.st), m.spinner.Tick)
}

type datsMsg struct {
	dats []datRow
	err  error
}

type setsMsg struct {
	sets []setRow
	err  error
}

type romsMsg struct {
	roms []romRow
	err  error
}

func loadDats(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		dats, err := store.ListDats(ctx, st.Conn())
		if err != nil {
			return datsMsg{err: err}
		}
		rows := make([]datRow, len(dats))
		for i, d := range dats {
			rows[i] = datRow{ID: d.ID, Name: d.Name}
		}
		return datsMsg{dats: rows}
	}
}

func loadSets(st *store.Store, datID store.DatID) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sets, err := store.ListSetsByDat(ctx, st.Conn(), datID, "")
		if err != nil {
			return setsMsg{err: err}
		}
		matchedByRom := map[store.RomID]struct{}{}
		matches, err := store.GetMatchesByStatus(ctx, st.Conn(), datID, store.StatusMatch)
		if err == nil {
			for _, mt := range matches {
				matchedByRom[mt.RomID] = struct{}{}
			}
		}

		rows := make([]setRow, len(sets))
		for i, s := range sets {
			roms, err := store.ListRomsBySet(ctx, st.Conn(), s.ID)
			if err != nil {
				continue
			}
			matched := 0
			for _, r := range roms {
				if _, ok := matchedByRom[r.ID]; ok {
					matched++
				}
			}
			rows[i] = setRow{ID: s.ID, Name: s.Name, Roms: len(roms), Matched: matched}
		}
		return setsMsg{sets: rows}
	}
}

func loadRoms(st *store.Store, datID store.DatID, setID store.SetID) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		roms, err := store.ListRomsBySet(ctx, st.Conn(), setID)
		if err != nil {
			return romsMsg{err: err}
		}
		matchedByRom := map[store.RomID]struct{}{}
		matches, err := store.GetMatchesByStatus(ctx, st.Conn(), datID, store.StatusMatch)
		if err == nil {
			for _, mt := range matches {
				matchedByRom[mt.RomID] = struct{}{}
			}
		}
		rows := make([]romRow, len(roms))
		for i, r := range roms {
			status := store.StatusNone
			if _, ok := matchedByRom[r.ID]; ok {
				status = store.StatusMatch
			}
			rows[i] = romRow{Name: r.Name, Size: r.Size, Status: status}
		}
		return romsMsg{roms: rows}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if m.inDetail {
			switch msg.String() {
			case "q", "esc", "backspace":
				m.inDetail = false
				m.roms = nil
				return m, nil
			case "up", "k":
				if m.romCursor > 0 {
					m.romCursor--
				}
			case "down", "j":
				if m.romCursor < len(m.roms)-1 {
					m.romCursor++
				}
			case "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.panel == panelDats {
				m.panel = panelSets
			} else {
				m.panel = panelDats
			}
			m.cursor = 0
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < m.maxItems()-1 {
				m.cursor++
			}
		case "enter":
			if m.panel == panelDats && m.cursor < len(m.dats) {
				m.panel = panelSets
				m.cursor = 0
				m.loading = true
				return m, loadSets(m.st, m.dats[m.cursor].ID)
			}
			if m.panel == panelSets && m.cursor < len(m.sets) {
				m.inDetail = true
				m.romCursor = 0
				m.selectedSet = m.sets[m.cursor]
				m.loading = true
				return m, loadRoms(m.st, m.currentDatID(), m.selectedSet.ID)
			}
		case "r":
			m.statusMsg = "refreshing..."
			m.loading = true
			return m, loadDats(m.st)
		}

	case datsMsg:
		m.dats = msg.dats
		m.err = msg.err
		m.loading = false

	case setsMsg:
		m.sets = msg.sets
		m.err = msg.err
		m.loading = false

	case romsMsg:
		m.roms = msg.roms
		m.err = msg.err
		m.loading = false

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) currentDatID() store.DatID {
	if m.cursor < len(m.dats) {
		return m.dats[m.cursor].ID
	}
	if len(m.dats) > 0 {
		return m.dats[0].ID
	}
	return 0
}

func (m model) maxItems() int {
	if m.panel == panelDats {
		return len(m.dats)
	}
	return len(m.sets)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1)

	activePanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("57")).
			Foreground(lipgloss.Color("255"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func (m model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	if m.inDetail {
		return m.viewDetail()
	}
	return m.viewMain()
}

func (m model) viewMain() string {
	var datLines, setLines string
	for i, d := range m.dats {
		line := d.Name
		if m.panel == panelDats && i == m.cursor {
			line = selectedStyle.Render(line)
		}
		datLines += line + "\n"
	}
	for i, s := range m.sets {
		line := fmt.Sprintf("%s (%d/%d)", s.Name, s.Matched, s.Roms)
		if m.panel == panelSets && i == m.cursor {
			line = selectedStyle.Render(line)
		}
		setLines += line + "\n"
	}

	datStyle := panelStyle
	setStyle := panelStyle
	if m.panel == panelDats {
		datStyle = activePanelStyle
	} else {
		setStyle = activePanelStyle
	}

	left := datStyle.Width(m.width/2 - 4).Render("Catalogs\n\n" + datLines)
	right := setStyle.Width(m.width/2 - 4).Render("Sets\n\n" + setLines)

	header := titleStyle.Render("romaudit")
	footer := "tab: switch panel  enter: drill in  up/down: move  r: refresh  q: quit"
	if m.loading {
		footer = m.spinner.View() + " loading  |  " + footer
	} else if m.statusMsg != "" {
		footer = m.statusMsg + "  |  " + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, left, right), footer)
}

func (m model) viewDetail() string {
	var lines string
	for i, r := range m.roms {
		indicator := badStyle.Render("[XX]")
		switch r.Status {
		case store.StatusMatch:
			indicator = okStyle.Render("[OK]")
		case store.StatusHash, store.StatusName:
			indicator = warnStyle.Render("[??]")
		}
		line := fmt.Sprintf("%s %s", indicator, r.Name)
		if i == m.romCursor {
			line = selectedStyle.Render(line)
		}
		lines += line + "\n"
	}

	header := titleStyle.Render(fmt.Sprintf("%s — roms", m.selectedSet.Name))
	footer := "up/down: move  esc/q: back"
	if m.loading {
		footer = m.spinner.View() + " loading  |  " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, activePanelStyle.Width(m.width-4).Render(lines), footer)
}
