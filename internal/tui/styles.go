package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/damageflow/internal/stage"
)

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title  lipgloss.Style
	Phase  lipgloss.Style
	Recent lipgloss.Style

	// Footer style
	Footer lipgloss.Style

	// Status colors
	StatusRunning lipgloss.Style
	StatusPaused  lipgloss.Style

	// Annotation box
	AnnotationTitle lipgloss.Style
	AnnotationText  lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Phase: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Recent: lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	StatusRunning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StatusPaused: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	AnnotationTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")),

	AnnotationText: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),
}

// diagramStyles contains styles specific to diagram rendering.
var diagramStyles = struct {
	Node       lipgloss.Style // stage not reached yet
	NodeDone   lipgloss.Style // stage already passed in this cycle
	NodeActive lipgloss.Style // stage the marker sits on
	Edge       lipgloss.Style
	Label      lipgloss.Style
	Marker     lipgloss.Style // marker colour when no branch is selected
}{
	Node: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	NodeDone: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	NodeActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	Edge: lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")),

	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Marker: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")),
}

// branchStyle returns the foreground style for a branch's colour token.
func branchStyle(id stage.BranchID) lipgloss.Style {
	info := id.Info()
	if info.Color == "" {
		return diagramStyles.Marker
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(info.Color))
}

// branchBadge renders the selector entry for a branch, inverted when selected.
func branchBadge(id stage.BranchID, selected bool) lipgloss.Style {
	s := branchStyle(id).Padding(0, 1)
	if selected {
		return s.Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color(id.Info().Color))
	}
	return s
}
