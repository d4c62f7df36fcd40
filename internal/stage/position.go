package stage

// Point is an abstract diagram coordinate. X grows to the right, Y grows
// along the direction of flow. Renderers scale it to their own surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout holds the abstract coordinates of every stage in a catalog.
type Layout struct {
	Main     []Point
	FanOut   Point
	Branches map[BranchID][]Point
	Merge    []Point
}

// NewLayout places main stages on a vertical spine, fans the branches out
// below it towards their lateral offsets, and continues the spine with the
// merge stages beneath the branch endpoints.
func NewLayout(c *Catalog) *Layout {
	l := &Layout{
		Main:     make([]Point, len(c.Main)),
		Branches: make(map[BranchID][]Point, len(Branches)),
		Merge:    make([]Point, len(c.Merge)),
	}
	for i := range c.Main {
		l.Main[i] = Point{X: 0, Y: float64(i)}
	}
	l.FanOut = Point{X: 0, Y: float64(len(c.Main))}

	n := len(c.BranchSubStages)
	for _, b := range Branches {
		pts := make([]Point, n)
		for k := range pts {
			t := float64(k+1) / float64(n)
			pts[k] = Point{
				X: l.FanOut.X + t*b.Info().Offset,
				Y: l.FanOut.Y + t,
			}
		}
		l.Branches[b] = pts
	}

	base := l.FanOut.Y + 2
	for i := range c.Merge {
		l.Merge[i] = Point{X: 0, Y: base + float64(i)}
	}
	return l
}

// MarkerPosition returns where the moving marker sits for the given phase.
// Without a selected branch the marker waits at the fan-out origin while the
// branches run.
func MarkerPosition(p Phase, selected BranchID, l *Layout) Point {
	switch p.(type) {
	case BranchPhase, SettlePhase:
		if !selected.Valid() {
			return l.FanOut
		}
		return BranchMarkerPosition(p, selected, l)
	}
	return spinePosition(p, l)
}

// BranchMarkerPosition returns the marker position for one specific branch.
// Outside the branch phases it matches MarkerPosition.
func BranchMarkerPosition(p Phase, id BranchID, l *Layout) Point {
	pts := l.Branches[id]
	switch p := p.(type) {
	case BranchPhase:
		n := p.Progress[id]
		if n <= 0 || len(pts) == 0 {
			return l.FanOut
		}
		return pts[min(n, len(pts))-1]
	case SettlePhase:
		if len(pts) == 0 {
			return l.FanOut
		}
		return pts[len(pts)-1]
	}
	return spinePosition(p, l)
}

func spinePosition(p Phase, l *Layout) Point {
	switch p := p.(type) {
	case MainPhase:
		if p.Step >= 0 && p.Step < len(l.Main) {
			return l.Main[p.Step]
		}
		return l.FanOut
	case MergePhase:
		if p.Step >= 0 && p.Step < len(l.Merge) {
			return l.Merge[p.Step]
		}
	case LoopPause:
		if len(l.Merge) > 0 {
			return l.Merge[len(l.Merge)-1]
		}
	}
	return l.FanOut
}
