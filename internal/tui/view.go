package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/damageflow/internal/stage"
)

const (
	minWidth  = 50
	minHeight = 16
)

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Handle too small terminal
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	w := safeWidth(m.width - 4) // Account for container borders

	var sections []string
	sections = append(sections, m.renderHeader(w))
	sections = append(sections, m.renderDivider(w))
	sections = append(sections, m.renderDiagram(w))
	sections = append(sections, m.renderSelector())
	sections = append(sections, m.renderAnnotation(w))

	// Recent transitions only when there is room left. The footer and the
	// container border take three more rows.
	used := lipgloss.Height(strings.Join(sections, "\n")) + 3
	if room := m.height - used; room > 0 && len(m.recent) > 0 {
		sections = append(sections, m.renderRecent(w, room))
	}
	sections = append(sections, m.renderFooter())

	content := strings.Join(sections, "\n")
	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(content)

	// Place container at top-left of terminal
	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

// renderHeader renders the title and run status on one line and the phase
// description on the next.
func (m model) renderHeader(w int) string {
	title := styles.Title.Render("damageflow")
	status := m.renderStatus()

	statusLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", max(1, w-lipgloss.Width(title)-lipgloss.Width(status))),
		status,
	)

	phaseText := describePhase(m.state.Phase, len(m.catalog.Main), len(m.catalog.BranchSubStages), len(m.catalog.Merge))
	return statusLine + "\n" + styles.Phase.Render(truncate(phaseText, w))
}

func (m model) renderStatus() string {
	if m.state.Running {
		return m.spinner.View() + " " + styles.StatusRunning.Render("RUNNING")
	}
	return styles.StatusPaused.Render("PAUSED")
}

// describePhase summarises a phase, e.g. "main 2/4" or "branches 1/2".
func describePhase(p stage.Phase, mainN, subN, mergeN int) string {
	switch p := p.(type) {
	case stage.MainPhase:
		return fmt.Sprintf("main %d/%d", p.Step+1, mainN)
	case stage.BranchPhase:
		return fmt.Sprintf("branches %d/%d", p.Progress[stage.Branches[0]], subN)
	case stage.SettlePhase:
		return "settling"
	case stage.MergePhase:
		return fmt.Sprintf("merge %d/%d", p.Step+1, mergeN)
	case stage.LoopPause:
		return "restarting"
	}
	return ""
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider(w int) string {
	return styles.Divider.Render(strings.Repeat("─", w))
}

// renderSelector renders the outcome badges with the selection highlighted.
func (m model) renderSelector() string {
	badges := make([]string, 0, len(stage.Branches))
	for i, id := range stage.Branches {
		label := fmt.Sprintf("%d %s", i+1, id.Info().Name)
		badges = append(badges, branchBadge(id, id == m.state.Selected).Render(label))
	}
	return strings.Join(badges, " ")
}

// renderAnnotation renders the title and status text of the active stage.
func (m model) renderAnnotation(w int) string {
	a := stage.Annotate(m.catalog, m.state.Phase, m.state.Selected)
	if a.StageID == "" {
		return styles.AnnotationText.Render(" ")
	}
	title := styles.AnnotationTitle.Render(truncate(a.Title, w))
	text := styles.AnnotationText.Render(truncate(a.Text, w))
	return title + "\n" + text
}

// renderRecent renders up to lines of the most recent transitions, newest last.
func (m model) renderRecent(w, lines int) string {
	recent := m.recent
	if len(recent) > lines {
		recent = recent[len(recent)-lines:]
	}
	out := make([]string, len(recent))
	for i, line := range recent {
		out[i] = styles.Recent.Render(truncate(line, w))
	}
	return strings.Join(out, "\n")
}

func (m model) renderFooter() string {
	return styles.Footer.Render(m.help.View(m.keys))
}

// safeWidth returns w, or 1 when w is not positive.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// truncate shortens s to w cells, ending in "..." when cut.
func truncate(s string, w int) string {
	if lipgloss.Width(s) <= w {
		return s
	}
	r := []rune(s)
	if w <= 3 {
		return string(r[:min(w, len(r))])
	}
	return string(r[:min(w-3, len(r))]) + "..."
}
