package stage

// Progress maps each branch to the number of sub-stages it has completed.
type Progress map[BranchID]int

// NewProgress returns an all-zero progress map covering every branch.
func NewProgress() Progress {
	p := make(Progress, len(Branches))
	for _, b := range Branches {
		p[b] = 0
	}
	return p
}

// Clone returns an independent copy of p.
func (p Progress) Clone() Progress {
	out := make(Progress, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// AdvanceProgress moves every branch below limit forward by one sub-stage.
// All branches move on the same call, so none can lag another. The input is
// not modified. complete is true once every branch has reached limit.
func AdvanceProgress(p Progress, limit int) (next Progress, complete bool) {
	next = make(Progress, len(Branches))
	complete = true
	for _, b := range Branches {
		n := p[b]
		if n < limit {
			n++
		}
		next[b] = n
		if n < limit {
			complete = false
		}
	}
	return next, complete
}

// Tracker holds the per-branch progress while the pipeline is fanned out.
// It is not safe for concurrent use; the controller serializes access.
type Tracker struct {
	limit    int
	progress Progress
}

// NewTracker creates a tracker for branches with the given sub-stage count.
func NewTracker(subStages int) *Tracker {
	return &Tracker{
		limit:    subStages,
		progress: NewProgress(),
	}
}

// Advance steps every branch forward in lockstep and reports whether the
// barrier condition holds. The returned map is a copy.
func (t *Tracker) Advance() (Progress, bool) {
	next, complete := AdvanceProgress(t.progress, t.limit)
	t.progress = next
	return next.Clone(), complete
}

// Reset returns every branch to zero.
func (t *Tracker) Reset() {
	t.progress = NewProgress()
}

// Progress returns a copy of the current progress.
func (t *Tracker) Progress() Progress {
	return t.progress.Clone()
}

// Complete reports whether every branch has finished its sub-stages.
func (t *Tracker) Complete() bool {
	for _, b := range Branches {
		if t.progress[b] < t.limit {
			return false
		}
	}
	return true
}

// Limit returns the number of sub-stages per branch.
func (t *Tracker) Limit() int {
	return t.limit
}
