package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/damageflow/internal/stage"
)

// Diagram scale. One unit of flow spans rowsPerUnit rows and a branch offset
// of 1 spans spread columns.
const (
	rowsPerUnit = 2
	spread      = 14
	labelGap    = 3
)

type cell struct {
	r     rune
	style lipgloss.Style
	set   bool
}

type label struct {
	col   int
	text  string
	style lipgloss.Style
}

// canvas is a fixed grid of styled runes with at most one text label per row.
type canvas struct {
	cells  [][]cell
	labels []*label
	width  int
}

func newCanvas(width, height int) *canvas {
	cells := make([][]cell, height)
	for i := range cells {
		cells[i] = make([]cell, width)
	}
	return &canvas{cells: cells, labels: make([]*label, height), width: width}
}

// set writes one rune. Out of range positions are dropped.
func (c *canvas) set(col, row int, r rune, style lipgloss.Style) {
	if row < 0 || row >= len(c.cells) || col < 0 || col >= c.width {
		return
	}
	c.cells[row][col] = cell{r: r, style: style, set: true}
}

// text attaches a label starting at col, replacing any earlier one on the row.
// Labels are drawn after the grid and clipped to the canvas width.
func (c *canvas) text(col, row int, s string, style lipgloss.Style) {
	if row < 0 || row >= len(c.labels) || col >= c.width {
		return
	}
	c.labels[row] = &label{col: col, text: s, style: style}
}

func (c *canvas) String() string {
	lines := make([]string, len(c.cells))
	for i, row := range c.cells {
		lbl := c.labels[i]
		last := -1
		for j := range row {
			if row[j].set && (lbl == nil || j < lbl.col) {
				last = j
			}
		}
		var b strings.Builder
		for j := 0; j <= last; j++ {
			if !row[j].set {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(row[j].style.Render(string(row[j].r)))
		}
		if lbl != nil {
			b.WriteString(strings.Repeat(" ", lbl.col-last-1))
			b.WriteString(lbl.style.Render(truncate(lbl.text, c.width-lbl.col)))
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// nodeState classifies a stage relative to the current phase.
type nodeState int

const (
	nodePending nodeState = iota
	nodeDone
	nodeActive
)

func (s nodeState) style() lipgloss.Style {
	switch s {
	case nodeDone:
		return diagramStyles.NodeDone
	case nodeActive:
		return diagramStyles.NodeActive
	default:
		return diagramStyles.Node
	}
}

func (s nodeState) glyph() rune {
	if s == nodePending {
		return '○'
	}
	return '●'
}

// order ranks phases along one pass of the pipeline.
func order(p stage.Phase) int {
	switch p.(type) {
	case stage.MainPhase:
		return 0
	case stage.BranchPhase:
		return 1
	case stage.SettlePhase:
		return 2
	case stage.MergePhase:
		return 3
	default:
		return 4
	}
}

// spineState reports the state of main or merge stage i. kind selects which
// part of the spine the stage belongs to.
func spineState(p stage.Phase, kind stage.PhaseKind, i int) nodeState {
	var rank int
	if kind == stage.KindMerge {
		rank = 3
	}
	switch {
	case order(p) > rank:
		return nodeDone
	case order(p) < rank:
		return nodePending
	}
	step := stage.StepOf(p)
	switch {
	case step == i:
		return nodeActive
	case step > i:
		return nodeDone
	}
	return nodePending
}

// branchState reports the state of sub-stage k on branch id. Point k is
// reached once the branch's progress is k+1.
func branchState(p stage.Phase, id stage.BranchID, k, n int) nodeState {
	switch p := p.(type) {
	case stage.MainPhase:
		return nodePending
	case stage.BranchPhase:
		switch done := p.Progress[id]; {
		case done == k+1:
			return nodeActive
		case done > k+1:
			return nodeDone
		}
		return nodePending
	case stage.SettlePhase:
		if k == n-1 {
			return nodeActive
		}
	}
	return nodeDone
}

// diagramRows returns the number of canvas rows the layout needs.
func diagramRows(l *stage.Layout) int {
	maxY := l.FanOut.Y
	for _, pts := range l.Branches {
		for _, p := range pts {
			maxY = math.Max(maxY, p.Y)
		}
	}
	for _, p := range l.Merge {
		maxY = math.Max(maxY, p.Y)
	}
	return int(math.Round(maxY*rowsPerUnit)) + 1
}

// toCell maps an abstract point to a canvas position.
func toCell(p stage.Point) (col, row int) {
	return spread + int(math.Round(p.X*spread)), int(math.Round(p.Y * rowsPerUnit))
}

// edge draws a connector on the rows strictly between a and b.
func (c *canvas) edge(a, b stage.Point) {
	ac, ar := toCell(a)
	bc, br := toCell(b)
	if br-ar < 2 {
		return
	}
	glyph := '│'
	switch {
	case bc > ac:
		glyph = '╲'
	case bc < ac:
		glyph = '╱'
	}
	for row := ar + 1; row < br; row++ {
		t := float64(row-ar) / float64(br-ar)
		col := ac + int(math.Round(t*float64(bc-ac)))
		c.set(col, row, glyph, diagramStyles.Edge)
	}
}

// renderDiagram draws the pipeline with its nodes, labels and markers, clipped
// to width columns.
func (m model) renderDiagram(width int) string {
	l := m.layout
	cv := newCanvas(width, diagramRows(l))
	phase := m.state.Phase
	labelCol := 2*spread + 1 + labelGap

	// Edges first so nodes and markers overwrite them.
	spine := append(append([]stage.Point{}, l.Main...), l.FanOut)
	for i := 1; i < len(spine); i++ {
		cv.edge(spine[i-1], spine[i])
	}
	for _, id := range stage.Branches {
		prev := l.FanOut
		for _, p := range l.Branches[id] {
			cv.edge(prev, p)
			prev = p
		}
		if len(l.Merge) > 0 {
			cv.edge(prev, l.Merge[0])
		}
	}
	for i := 1; i < len(l.Merge); i++ {
		cv.edge(l.Merge[i-1], l.Merge[i])
	}

	for i, p := range l.Main {
		st := spineState(phase, stage.KindMain, i)
		col, row := toCell(p)
		cv.set(col, row, st.glyph(), st.style())
		cv.text(labelCol, row, m.catalog.Main[i].Title, labelStyle(st))
	}

	fanState := nodePending
	if order(phase) > 0 {
		fanState = nodeDone
	}
	col, row := toCell(l.FanOut)
	cv.set(col, row, '◆', fanState.style())

	n := len(m.catalog.BranchSubStages)
	for _, id := range stage.Branches {
		for k, p := range l.Branches[id] {
			st := branchState(phase, id, k, n)
			style := branchStyle(id)
			if st == nodeDone {
				style = style.Faint(true)
			}
			col, row := toCell(p)
			cv.set(col, row, st.glyph(), style)
		}
	}
	if pts := l.Branches[stage.Branches[0]]; len(pts) == n {
		for k, s := range m.catalog.BranchSubStages {
			_, row := toCell(pts[k])
			cv.text(labelCol, row, s.Title, diagramStyles.Label)
		}
	}

	for i, p := range l.Merge {
		st := spineState(phase, stage.KindMerge, i)
		col, row := toCell(p)
		cv.set(col, row, st.glyph(), st.style())
		cv.text(labelCol, row, m.catalog.Merge[i].Title, labelStyle(st))
	}

	m.drawMarkers(cv)
	return cv.String()
}

// drawMarkers places the moving marker. While the branches run and all
// markers are enabled, every branch shows its own and the selected one is
// drawn last so it wins when markers overlap.
func (m model) drawMarkers(cv *canvas) {
	phase := m.state.Phase
	selected := m.state.Selected

	switch phase.(type) {
	case stage.BranchPhase, stage.SettlePhase:
		if m.showAll {
			for _, id := range stage.Branches {
				if id != selected {
					col, row := toCell(stage.BranchMarkerPosition(phase, id, m.layout))
					cv.set(col, row, '◉', branchStyle(id))
				}
			}
			if selected.Valid() {
				col, row := toCell(stage.BranchMarkerPosition(phase, selected, m.layout))
				cv.set(col, row, '◉', branchStyle(selected).Bold(true))
			}
			return
		}
	}

	style := diagramStyles.Marker
	if selected.Valid() {
		style = branchStyle(selected).Bold(true)
	}
	col, row := toCell(stage.MarkerPosition(phase, selected, m.layout))
	cv.set(col, row, '◉', style)
}

func labelStyle(st nodeState) lipgloss.Style {
	if st == nodeActive {
		return diagramStyles.NodeActive
	}
	return diagramStyles.Label
}
