package stage

// Annotation is the status text shown next to the active stage.
type Annotation struct {
	StageID string `json:"stage_id"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

type annotationKey struct {
	stage  string
	branch BranchID
}

// annotations holds per-outcome statistics reported by the detection service
// for each stage. Stages without an entry fall back to their first detail line.
var annotations = map[annotationKey]string{
	{"detection", ExistingDamage}:  "12 total detections",
	{"detection", NewDamage}:       "18 total detections",
	{"detection", NoDamage}:        "0 total detections",
	{"reid", ExistingDamage}:       "2 unique damages",
	{"reid", NewDamage}:            "4 unique damages",
	{"reid", NoDamage}:             "0 unique damages",
	{"comparison", ExistingDamage}: "2 before, 2 after",
	{"comparison", NewDamage}:      "1 before, 3 after",
	{"comparison", NoDamage}:       "0 before, 0 after",
	{"decision", ExistingDamage}:   "0 new damages",
	{"decision", NewDamage}:        "2 new damages",
	{"decision", NoDamage}:         "0 new damages",
	{"classify", ExistingDamage}:   ExistingDamage.Info().Message,
	{"classify", NewDamage}:        NewDamage.Info().Message,
	{"classify", NoDamage}:         NoDamage.Info().Message,
}

// ActiveStage resolves the stage a phase is currently showing. ok is false
// only for MainPhase past the last main stage, which has no stage of its own.
func ActiveStage(c *Catalog, p Phase, selected BranchID) (Stage, bool) {
	switch p := p.(type) {
	case MainPhase:
		if p.Step >= 0 && p.Step < len(c.Main) {
			return c.Main[p.Step], true
		}
	case BranchPhase:
		if len(c.BranchSubStages) == 0 {
			return Stage{}, false
		}
		n := branchStep(p.Progress, selected)
		idx := min(max(n-1, 0), len(c.BranchSubStages)-1)
		return c.BranchSubStages[idx], true
	case SettlePhase:
		if n := len(c.BranchSubStages); n > 0 {
			return c.BranchSubStages[n-1], true
		}
	case MergePhase:
		if p.Step >= 0 && p.Step < len(c.Merge) {
			return c.Merge[p.Step], true
		}
	case LoopPause:
		if n := len(c.Merge); n > 0 {
			return c.Merge[n-1], true
		}
	}
	return Stage{}, false
}

// branchStep reads the progress of the selected branch. Branches move in
// lockstep, so any branch stands in when nothing is selected.
func branchStep(p Progress, selected BranchID) int {
	if selected.Valid() {
		return p[selected]
	}
	return p[Branches[0]]
}

// Annotate returns the status text for the active stage. Branch-specific
// entries take precedence; otherwise the stage's first detail line is used.
func Annotate(c *Catalog, p Phase, selected BranchID) Annotation {
	s, ok := ActiveStage(c, p, selected)
	if !ok {
		return Annotation{}
	}
	a := Annotation{StageID: s.ID, Title: s.Title, Text: s.DefaultDetail()}
	if text, ok := annotations[annotationKey{s.ID, selected}]; ok {
		a.Text = text
	}
	return a
}
