package stage

// PhaseKind identifies which variant of Phase is active.
type PhaseKind string

// Phase kinds.
const (
	KindMain      PhaseKind = "main"
	KindBranch    PhaseKind = "branch"
	KindSettle    PhaseKind = "settle"
	KindMerge     PhaseKind = "merge"
	KindLoopPause PhaseKind = "loop-pause"
)

// Phase is the controller's position in the pipeline. Exactly one of
// MainPhase, BranchPhase, SettlePhase, MergePhase or LoopPause.
type Phase interface {
	Kind() PhaseKind
	isPhase()
}

// MainPhase is the sequential part before the fan-out. Step 0 means not yet
// started; Step == len(Main) means every main stage is done.
type MainPhase struct {
	Step int
}

// BranchPhase is the fanned-out part where every branch advances together.
type BranchPhase struct {
	Progress Progress
}

// SettlePhase is the pause between the last branch finishing and the first
// merge stage.
type SettlePhase struct{}

// MergePhase is the sequential part after the barrier.
type MergePhase struct {
	Step int
}

// LoopPause is the pause after the last merge stage before starting over.
type LoopPause struct{}

func (MainPhase) Kind() PhaseKind   { return KindMain }
func (BranchPhase) Kind() PhaseKind { return KindBranch }
func (SettlePhase) Kind() PhaseKind { return KindSettle }
func (MergePhase) Kind() PhaseKind  { return KindMerge }
func (LoopPause) Kind() PhaseKind   { return KindLoopPause }

func (MainPhase) isPhase()   {}
func (BranchPhase) isPhase() {}
func (SettlePhase) isPhase() {}
func (MergePhase) isPhase()  {}
func (LoopPause) isPhase()   {}

// ClonePhase returns a copy of p that shares no mutable state with it.
func ClonePhase(p Phase) Phase {
	if bp, ok := p.(BranchPhase); ok {
		return BranchPhase{Progress: bp.Progress.Clone()}
	}
	return p
}

// StepOf returns the step index for main and merge phases, and -1 otherwise.
func StepOf(p Phase) int {
	switch p := p.(type) {
	case MainPhase:
		return p.Step
	case MergePhase:
		return p.Step
	default:
		return -1
	}
}
