package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	matchMarker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")). // yellow
			Render("▌")

	currentMatchMarker = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")). // red
				Render("▌")

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(2)
)

type searchState struct {
	active       bool
	input        textinput.Model
	matches      []int // line numbers
	currentMatch int
}

// pagerModel scrolls rendered advisory details with less-like keys and a
// line search.
type pagerModel struct {
	viewport viewport.Model
	title    string
	lines    []string
	ready    bool
	search   searchState
}

func newPager(title, content string) *pagerModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return &pagerModel{
		title: title,
		lines: strings.Split(content, "\n"),
		search: searchState{
			input: ti,
		},
	}
}

// Searching reports whether the search prompt has focus.
func (m *pagerModel) Searching() bool {
	return m.search.active
}

func (m *pagerModel) Init() tea.Cmd {
	return nil
}

func (m *pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.search.active {
			switch msg.Type {
			case tea.KeyEscape:
				m.search.active = false
				m.search.input.Reset()
				m.clearMatches()
			case tea.KeyEnter:
				m.search.active = false
				m.performSearch(m.search.input.Value())
			default:
				var cmd tea.Cmd
				m.search.input, cmd = m.search.input.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "esc":
			m.clearMatches()
			return m, nil
		case "/":
			m.search.active = true
			m.search.input.Focus()
			return m, textinput.Blink
		case "n":
			m.jump(1)
			return m, nil
		case "N":
			m.jump(-1)
			return m, nil
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-3)
			m.viewport.Style = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				PaddingLeft(2).
				PaddingRight(2)
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 3
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *pagerModel) View() string {
	if !m.ready {
		return "\nInitializing..."
	}

	var help string
	if m.search.active {
		help = m.search.input.View()
	} else {
		search := "/ search"
		if len(m.search.matches) > 0 {
			search = fmt.Sprintf("/ search (%d/%d) • n next • N previous", m.search.currentMatch+1, len(m.search.matches))
		}
		help = helpStyle.Render("↑/k ↓/j scroll • g/G top/bottom • " + search + " • q back")
	}
	return titleStyle.Render(m.title) + "\n" + m.viewport.View() + "\n" + help
}

// performSearch collects the lines containing query, case-insensitively
// unless query has an upper-case letter.
func (m *pagerModel) performSearch(query string) {
	m.search.matches = nil
	m.search.currentMatch = 0
	if query == "" {
		m.refresh()
		return
	}

	caseSensitive := strings.ToLower(query) != query
	if !caseSensitive {
		query = strings.ToLower(query)
	}
	for i, line := range m.lines {
		if !caseSensitive {
			line = strings.ToLower(line)
		}
		if strings.Contains(line, query) {
			m.search.matches = append(m.search.matches, i)
		}
	}

	// start from the first match at or below the current view
	for i, line := range m.search.matches {
		if line >= m.viewport.YOffset {
			m.search.currentMatch = i
			break
		}
	}
	m.refresh()
	m.scrollToMatch()
}

func (m *pagerModel) jump(delta int) {
	n := len(m.search.matches)
	if n == 0 {
		return
	}
	m.search.currentMatch = (m.search.currentMatch + delta + n) % n
	m.refresh()
	m.scrollToMatch()
}

func (m *pagerModel) scrollToMatch() {
	if len(m.search.matches) == 0 {
		return
	}
	line := m.search.matches[m.search.currentMatch]
	if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line)
	}
}

func (m *pagerModel) clearMatches() {
	m.search.matches = nil
	m.search.currentMatch = 0
	m.refresh()
}

// refresh redraws the content with a gutter marking matching lines.
func (m *pagerModel) refresh() {
	if !m.ready {
		return
	}
	if len(m.search.matches) == 0 {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		return
	}

	marks := make(map[int]string, len(m.search.matches))
	for i, line := range m.search.matches {
		if i == m.search.currentMatch {
			marks[line] = currentMatchMarker
		} else {
			marks[line] = matchMarker
		}
	}
	var b strings.Builder
	for i, line := range m.lines {
		if mark, ok := marks[i]; ok {
			b.WriteString(mark)
		} else {
			b.WriteString(" ")
		}
		b.WriteString(line)
		if i < len(m.lines)-1 {
			b.WriteByte('\n')
		}
	}
	m.viewport.SetContent(b.String())
}
