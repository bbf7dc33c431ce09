package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/marcus/nodedeck/internal/deps"
	"github.com/marcus/nodedeck/internal/portscan"
	"github.com/marcus/nodedeck/internal/project"
	"github.com/marcus/nodedeck/internal/styles"
)

const (
	// detailsHeight is the details panel height when stacked below the list.
	detailsHeight   = 12
	sideBySideWidth = 96
	defaultWidth    = 80

	maxOtherBranches = 3
	maxStaleListed   = 8
)

// sideBySide reports whether the details panel sits right of the list.
func (m *Model) sideBySide() bool {
	return m.width >= sideBySideWidth
}

func (m *Model) viewWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

// View renders the entire application UI.
func (m *Model) View() string {
	switch m.view {
	case viewUnconfigured, viewReconfiguring, viewConfiguring:
		return m.renderConfig()
	case viewHelp:
		return m.renderHelpView()
	}

	width := m.viewWidth()
	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n\n")

	if prompt := m.renderPrompt(width); prompt != "" {
		b.WriteString(prompt)
		b.WriteString("\n\n")
	}
	if m.query != "" && m.view != viewSearching {
		b.WriteString(styles.StatusWarning.Render(fmt.Sprintf("Filter: %q", m.query)))
		b.WriteString(styles.Muted.Render("  (esc to clear)"))
		b.WriteString("\n")
	}
	b.WriteString(m.renderPorts(width))
	b.WriteString("\n")
	if bar := m.renderSizeProgress(); bar != "" {
		b.WriteString(bar)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.scanning && len(m.filtered) == 0 {
		b.WriteString(m.spinner.View() + " Scanning for projects...")
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderBody(width))
		b.WriteString("\n")
	}

	if m.toast != nil {
		b.WriteString("\n")
		b.WriteString(m.renderToast(width))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter(width))
	return b.String()
}

// renderHeader renders the title line with the project counter.
func (m *Model) renderHeader(width int) string {
	title := styles.Title.Render("nodedeck")
	if m.version != "" {
		title += " " + styles.Muted.Render(m.version)
	}

	current := 0
	if len(m.filtered) > 0 {
		current = m.nav.cursor + 1
	}
	counter := fmt.Sprintf("Projects: %d/%d", current, len(m.filtered))
	if m.query != "" {
		counter += fmt.Sprintf(" (filtered from %d)", len(m.mon.Projects()))
	}
	counter = styles.Header.Render(counter)

	spacing := max(width-lipgloss.Width(title)-lipgloss.Width(counter), 1)
	return title + strings.Repeat(" ", spacing) + counter
}

// renderPrompt renders the input or confirmation of the active modal view.
func (m *Model) renderPrompt(width int) string {
	switch m.view {
	case viewSearching:
		return m.input.View() + "\n" + styles.Muted.Render("enter keep filter • esc clear")

	case viewCloning:
		s := styles.ModalTitle.Render("Clone repository") + "\n" + m.input.View()
		if m.cloneErr != "" {
			s += "\n" + styles.StatusError.Render(m.cloneErr)
		}
		return s + "\n" + styles.Muted.Render(fmt.Sprintf("into %s • enter clone • esc cancel", m.root))

	case viewCleanupConfirm:
		return m.renderCleanupConfirm(width)

	case viewDeleteConfirm:
		if m.deleteTarget == nil {
			return ""
		}
		return styles.ModalTitle.Render(fmt.Sprintf("Delete project %s and all of its files?", m.deleteTarget.Name)) + "\n" +
			styles.Muted.Render(truncate(m.deleteTarget.Path, width)) + "\n" +
			styles.StatusError.Render("[Y]es") + " / " + styles.Body.Render("[N]o")

	case viewCreating:
		var b strings.Builder
		b.WriteString(styles.ModalTitle.Render(fmt.Sprintf("Create a project in %s", m.root)))
		for i, opt := range createOptions {
			b.WriteString("\n")
			if i == m.createCursor {
				b.WriteString(styles.ListCursor.Render("❯ ") + styles.ListItemSelected.Render(opt.Label))
			} else {
				b.WriteString("  " + styles.ListItemNormal.Render(opt.Label))
			}
			b.WriteString(" " + styles.Code.Render(opt.Command))
		}
		b.WriteString("\n" + styles.Muted.Render("enter create • esc cancel"))
		return b.String()
	}
	return ""
}

func (m *Model) renderCleanupConfirm(width int) string {
	if len(m.stale) == 0 {
		return styles.StatusRunning.Render("✓ No stale dependencies found!") + "\n" +
			styles.Muted.Render("Press any key to continue")
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render(fmt.Sprintf("Delete node_modules from %s (%s)?",
		plural(len(m.stale), "stale project", "stale projects"), deps.FormatBytes(deps.TotalBytes(m.stale)))))
	for i, c := range m.stale {
		if i == maxStaleListed {
			b.WriteString("\n" + styles.Muted.Render(fmt.Sprintf("  …and %d more", len(m.stale)-maxStaleListed)))
			break
		}
		line := fmt.Sprintf("  %s  %s  last started %s", filepath.Base(c.Path), c.Entry.Label(), humanize.Time(c.LastStarted))
		b.WriteString("\n" + styles.Muted.Render(truncate(line, width)))
	}
	b.WriteString("\n" + styles.StatusError.Render("[Y]es") + " / " + styles.Body.Render("[N]o"))
	return b.String()
}

// renderPorts renders the used-port summary, naming the owning project when
// one of its processes holds the port.
func (m *Model) renderPorts(width int) string {
	ports := m.mon.Ports()
	label := styles.Header.Render("Used Ports: ")
	if len(ports) == 0 {
		return label + styles.Subtle.Render("none")
	}

	owners := make(map[int]string)
	for _, p := range m.mon.Projects() {
		st, ok := m.mon.Status(p.Path)
		if !ok {
			continue
		}
		for _, pid := range st.PIDs {
			owners[pid] = p.Name
		}
	}

	var parts []string
	for _, port := range portscan.Sorted(ports) {
		name := owners[ports[port]]
		if name == "" {
			name = portscan.Label(port)
		}
		if name != "" {
			parts = append(parts, fmt.Sprintf("%d (%s)", port, name))
		} else {
			parts = append(parts, fmt.Sprintf("%d", port))
		}
	}
	return truncate(label+styles.Code.Render(strings.Join(parts, ", ")), width)
}

func (m *Model) renderSizeProgress() string {
	prog, ok := m.mon.Scanning()
	if !ok || prog.Total == 0 {
		return ""
	}
	pct := float64(prog.Current) / float64(prog.Total)
	return styles.Muted.Render("Scanning node_modules ") + m.progress.ViewAs(pct) +
		styles.Muted.Render(fmt.Sprintf(" %d/%d", prog.Current, prog.Total))
}

// renderBody lays out the list and the details panel.
func (m *Model) renderBody(width int) string {
	if !m.sideBySide() {
		list := m.renderList(width)
		return list + "\n\n" + m.renderDetails(width, detailsHeight)
	}
	listWidth := width * 55 / 100
	detailWidth := width - listWidth - 1
	list := m.renderList(listWidth)
	details := m.renderDetails(detailWidth, max(lipgloss.Height(list), detailsHeight))
	return lipgloss.JoinHorizontal(lipgloss.Top, list, " ", details)
}

// renderList renders the visible window of rows with scroll indicators.
func (m *Model) renderList(width int) string {
	if len(m.filtered) == 0 {
		if m.query != "" {
			return styles.Muted.Render(fmt.Sprintf("No projects match %q", m.query))
		}
		return styles.Muted.Render(fmt.Sprintf("No projects found in %s", m.root))
	}

	visible := m.visibleItems()
	start := m.nav.scroll
	end := min(start+visible, len(m.filtered))

	var lines []string
	if start > 0 {
		lines = append(lines, styles.Subtle.Render(fmt.Sprintf("  ↑ %d more above", start)))
	}
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(m.filtered[i], i == m.nav.cursor, width))
	}
	if end < len(m.filtered) {
		lines = append(lines, styles.Subtle.Render(fmt.Sprintf("  ↓ %d more below", len(m.filtered)-end)))
	}
	return strings.Join(lines, "\n")
}

// renderRow renders one project: name, framework, badges, size and branch.
func (m *Model) renderRow(p project.Project, selected bool, width int) string {
	nameWidth := min(max(width/3, 12), 32)
	name := runewidth.FillRight(runewidth.Truncate(p.Name, nameWidth, "…"), nameWidth)

	var parts []string
	if selected {
		parts = append(parts, styles.ListCursor.Render("❯")+" "+styles.ListItemSelected.Render(name))
	} else {
		parts = append(parts, "  "+styles.ListItemNormal.Render(name))
	}
	parts = append(parts, styles.Muted.Render(fmt.Sprintf("(%s)", p.Framework)))

	if !m.mon.Checked(p.Path) {
		parts = append(parts, styles.Subtle.Render("…"))
	} else if st, ok := m.mon.Status(p.Path); ok {
		if st.HasDevServer {
			parts = append(parts, styles.StatusRunning.Render("● running"))
		}
		if st.HasEditor {
			parts = append(parts, styles.StatusEditor.Render("vim"))
		}
	}
	if e, ok := m.mon.Size(p.Path); ok {
		switch {
		case !e.Exists:
			parts = append(parts, styles.StatusWarning.Render("no deps"))
		case e.Label() != "":
			parts = append(parts, styles.Muted.Render(e.Label()))
		}
	}
	if p.GitBranch != "" {
		parts = append(parts, styles.Code.Render("["+p.GitBranch+"]"))
	}
	return truncate(strings.Join(parts, " "), width)
}

// renderDetails renders the panel for the selected project.
func (m *Model) renderDetails(width, height int) string {
	p, ok := m.selected()
	if !ok {
		return styles.RenderPanel(styles.Muted.Render("No project selected"), "Details", width, height, false)
	}
	inner := max(width-4, 10)
	field := func(label, value string) string {
		return truncate(styles.Muted.Render(label+": ")+value, inner)
	}

	lines := []string{
		styles.Title.Render(truncate(p.Name, inner)),
		field("Framework", string(p.Framework)),
		field("Path", p.Path),
		field("Command", styles.Code.Render(p.Command)),
	}
	if p.GitBranch != "" {
		lines = append(lines, field("Branch", p.GitBranch))
		if others := otherBranches(p); others != "" {
			lines = append(lines, field("Other branches", others))
		}
	}
	lines = append(lines, field("node_modules", m.sizeLabel(p.Path)))

	status := styles.StatusIdle.Render("stopped")
	if !m.mon.Checked(p.Path) {
		status = m.spinner.View() + " checking"
	} else if st, ok := m.mon.Status(p.Path); ok {
		switch {
		case st.HasDevServer:
			status = styles.StatusRunning.Render(fmt.Sprintf("dev server (%s)", plural(st.Count, "process", "processes")))
		case st.HasEditor:
			status = styles.StatusEditor.Render("editor open")
		default:
			status = styles.Muted.Render(plural(st.Count, "process", "processes"))
		}
	}
	lines = append(lines, field("Status", status))

	if ports := m.mon.ProjectPorts(p.Path); len(ports) > 0 {
		labels := make([]string, len(ports))
		for i, port := range ports {
			labels[i] = fmt.Sprintf("%d", port)
			if l := portscan.Label(port); l != "" {
				labels[i] += " (" + l + ")"
			}
		}
		lines = append(lines, field("Ports", strings.Join(labels, ", ")))
	}

	last := "never"
	if at, ok := m.lastStarted[p.Path]; ok && !at.IsZero() {
		last = fmt.Sprintf("%s (%s)", at.Local().Format("2006-01-02 15:04"), humanize.Time(at))
	}
	lines = append(lines, field("Last started", last))

	return styles.RenderPanel(strings.Join(lines, "\n"), "Details", width, height, true)
}

func (m *Model) sizeLabel(path string) string {
	e, ok := m.mon.Size(path)
	switch {
	case !ok:
		return m.spinner.View() + " measuring"
	case e.Error != "":
		return styles.StatusWarning.Render("unknown")
	case !e.Exists:
		return styles.StatusWarning.Render("Not installed")
	case e.Label() == "":
		return m.spinner.View() + " measuring"
	}
	return e.Label()
}

// otherBranches lists up to three branches besides the current one.
func otherBranches(p project.Project) string {
	var others []string
	for _, b := range p.AvailableBranches {
		if b != p.GitBranch {
			others = append(others, b)
		}
	}
	if len(others) == 0 {
		return ""
	}
	s := strings.Join(others[:min(len(others), maxOtherBranches)], ", ")
	if extra := len(others) - maxOtherBranches; extra > 0 {
		s += fmt.Sprintf(" +%d more", extra)
	}
	return s
}

func (m *Model) renderToast(width int) string {
	if m.toast.isError {
		return styles.ToastError.Render(truncate(m.toast.text, width-2))
	}
	return styles.ToastInfo.Render(truncate(m.toast.text, width-2))
}

// renderFooter renders key hints and the auto-refresh indicator.
func (m *Model) renderFooter(width int) string {
	var b strings.Builder
	if m.auto != nil {
		waiting := "Waiting for new project"
		if m.auto.expected != "" {
			waiting = fmt.Sprintf("Waiting for %s", m.auto.expected)
		}
		b.WriteString(m.spinner.View() + " " + styles.StatusWarning.Render(waiting) +
			styles.Muted.Render(fmt.Sprintf(" (%d/%d, x to cancel)", m.auto.attempts, autoRefreshMax)))
		b.WriteString("\n")
	}
	if chord := m.pendingChord(); chord != "" {
		b.WriteString(styles.Muted.Render(truncate(chord, width)))
		b.WriteString("\n")
	}
	if m.showHints {
		b.WriteString(m.help.View(m.keys))
	} else {
		b.WriteString(styles.Footer.Render(truncate("h for help • ? for key hints • q to quit", width)))
	}
	return b.String()
}

// pendingChord describes a half-typed double-tap chord.
func (m *Model) pendingChord() string {
	w := m.taps.Window()
	switch {
	case m.taps.Pending("g"):
		return fmt.Sprintf("g… press g again within %s to jump to the top", w)
	case m.taps.Pending("d"):
		return fmt.Sprintf("d… press d again within %s to clean up stale dependencies", w)
	}
	return ""
}

// renderConfig renders the root directory prompt.
func (m *Model) renderConfig() string {
	var b strings.Builder
	switch m.view {
	case viewConfiguring:
		b.WriteString(m.spinner.View() + " Saving projects directory...")
		return b.String()
	case viewReconfiguring:
		b.WriteString(styles.Title.Render("Change projects directory"))
		b.WriteString("\n\n")
		if m.root != "" {
			b.WriteString(styles.Muted.Render("Current: " + m.root))
			b.WriteString("\n\n")
		}
	default:
		b.WriteString(styles.Title.Render("Welcome to nodedeck"))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.Body.Render("Enter the directory that holds your Node.js projects:"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	if m.configErr != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.StatusError.Render(truncate(m.configErr, m.viewWidth())))
	}
	b.WriteString("\n\n")
	if m.view == viewReconfiguring {
		b.WriteString(styles.Muted.Render("enter save • esc cancel • ctrl+c quit"))
	} else {
		b.WriteString(styles.Muted.Render("enter save • esc reset to default • ctrl+c quit"))
	}
	return b.String()
}

// renderHelpView renders the help text clipped to the terminal height.
func (m *Model) renderHelpView() string {
	text := strings.TrimRight(m.helpText, "\n")
	if m.height > 2 {
		lines := strings.Split(text, "\n")
		if len(lines) > m.height-2 {
			text = strings.Join(lines[:m.height-2], "\n")
		}
	}
	return text + "\n\n" + styles.Muted.Render("Press any key to close")
}

// truncate shortens s to width cells, keeping ANSI sequences intact.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
