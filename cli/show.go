package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/travelwarn/travelwarn/api/snapshot"
	"github.com/travelwarn/travelwarn/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			PaddingLeft(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			PaddingLeft(2)
)

func newShowCmd(load func(*cobra.Command) (config.Config, error)) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "show [snapshot]",
		Short: "Browse a snapshot",
		Long: `Show lists every country in a snapshot (the configured output by default).
Type / to filter, Enter to read the advisory details, o to open the advisory
page in a browser and q to quit. With --plain, or when stdout is not a
terminal, a plain listing is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readSnapshotArg(cmd, load, args)
			if err != nil {
				return err
			}
			if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
				printSnapshot(cmd.OutOrStdout(), doc)
				return nil
			}
			p := tea.NewProgram(newShowModel(doc), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return failure.Wrap(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print a plain listing")
	return cmd
}

// countryRow is one snapshot entry with its key.
type countryRow struct {
	Code  string
	Entry snapshot.Entry
}

func (r countryRow) level() string {
	if r.Entry.WarningLevels == nil {
		return "-"
	}
	return *r.Entry.WarningLevels
}

func (r countryRow) matches(query string) bool {
	query = strings.ToLower(query)
	return lo.SomeBy([]string{r.Code, r.Entry.EnglishName, r.Entry.HebrewName}, func(s string) bool {
		return strings.Contains(strings.ToLower(s), query)
	})
}

func snapshotRows(doc snapshot.Document) []countryRow {
	return lo.Map(doc.Codes(), func(code string, _ int) countryRow {
		return countryRow{Code: code, Entry: doc.Countries[code]}
	})
}

func printSnapshot(w io.Writer, doc snapshot.Document) {
	fmt.Fprintf(w, "Snapshot taken %s, %d countries\n\n", doc.Time().Format("2006-01-02 15:04"), len(doc.Countries))
	for _, r := range snapshotRows(doc) {
		fmt.Fprintf(w, "%-12s %-6s %-28s %s\n", r.Code, r.level(), r.Entry.EnglishName, r.Entry.HebrewName)
	}
}

type showModel struct {
	doc      snapshot.Document
	all      []countryRow
	filtered []countryRow

	table     table.Model
	filter    textinput.Model
	filtering bool

	// detail is the open advisory, nil while browsing the table
	detail *pagerModel

	status string
	width  int
	height int
}

func newShowModel(doc snapshot.Document) *showModel {
	columns := []table.Column{
		{Title: "Code", Width: 12},
		{Title: "Level", Width: 6},
		{Title: "Country", Width: 28},
		{Title: "שם", Width: 24},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "country or code"

	m := &showModel{
		doc:    doc,
		all:    snapshotRows(doc),
		table:  t,
		filter: ti,
	}
	m.applyFilter()
	return m
}

func (m *showModel) applyFilter() {
	query := m.filter.Value()
	m.filtered = lo.Filter(m.all, func(r countryRow, _ int) bool {
		return query == "" || r.matches(query)
	})
	m.table.SetRows(lo.Map(m.filtered, func(r countryRow, _ int) table.Row {
		return table.Row{r.Code, r.level(), r.Entry.EnglishName, r.Entry.HebrewName}
	}))
	m.table.SetCursor(0)
}

func (m *showModel) selected() (countryRow, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.filtered) {
		return countryRow{}, false
	}
	return m.filtered[i], true
}

func (m *showModel) Init() tea.Cmd {
	return nil
}

func (m *showModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
		m.table.SetHeight(max(size.Height-6, 3))
	}

	if m.detail != nil {
		if key, ok := msg.(tea.KeyMsg); ok && !m.detail.Searching() {
			switch key.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "q":
				m.detail = nil
				return m, nil
			}
		}
		_, cmd := m.detail.Update(msg)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	if m.filtering {
		switch key.Type {
		case tea.KeyEnter:
			m.filtering = false
			m.filter.Blur()
			m.table.Focus()
			return m, nil
		case tea.KeyEscape:
			m.filtering = false
			m.filter.Blur()
			m.filter.Reset()
			m.table.Focus()
			m.applyFilter()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	m.status = ""
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.filtering = true
		m.table.Blur()
		m.filter.Focus()
		return m, textinput.Blink
	case "esc":
		m.filter.Reset()
		m.applyFilter()
		return m, nil
	case "enter":
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.openDetail(row)
	case "o":
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := openAdvisory(row.Code, row.Entry); err != nil {
			m.status = errorMessage(err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *showModel) openDetail(row countryRow) tea.Cmd {
	width := m.width - 6
	out, err := renderDetails(row.Code, row.Entry, width)
	if err != nil {
		m.status = errorMessage(err)
		return nil
	}
	m.detail = newPager(fmt.Sprintf("%s  %s", row.Code, row.Entry.EnglishName), out)
	_, cmd := m.detail.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	return cmd
}

func (m *showModel) View() string {
	if m.detail != nil {
		return m.detail.View()
	}

	header := titleStyle.Render(fmt.Sprintf("Travel warnings  %s  (%d/%d)",
		m.doc.Time().Format("2006-01-02 15:04"), len(m.filtered), len(m.all)))

	var footer string
	switch {
	case m.filtering:
		footer = m.filter.View()
	case m.status != "":
		footer = statusStyle.Render(m.status)
	default:
		hint := "↑/↓ move • enter details • o open in browser • / filter • q quit"
		if m.filter.Value() != "" {
			hint = "filter: " + m.filter.Value() + " • esc clear • " + hint
		}
		footer = helpStyle.Render(hint)
	}
	return header + "\n" + m.table.View() + "\n" + footer
}

// errorMessage prefers the user-facing failure message.
func errorMessage(err error) string {
	if msg := failure.MessageOf(err); msg != "" {
		return msg.String()
	}
	return err.Error()
}
