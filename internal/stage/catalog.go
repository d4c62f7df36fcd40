// Package stage describes the pipeline stages narrated by the flow diagram
// and the pure functions that derive marker positions and status text from a
// phase.
package stage

import (
	"errors"
	"fmt"
)

// Stage is a single step of the pipeline.
type Stage struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Details []string `yaml:"details,omitempty"`
}

// DefaultDetail returns the first detail line, or "" when there is none.
func (s Stage) DefaultDetail() string {
	if len(s.Details) == 0 {
		return ""
	}
	return s.Details[0]
}

// Catalog is the static description of the pipeline: main stages run once in
// order, every branch then runs the shared sub-stage sequence, and the merge
// stages run once after all branches are done.
type Catalog struct {
	Main            []Stage `yaml:"main"`
	BranchSubStages []Stage `yaml:"branch_sub_stages"`
	Merge           []Stage `yaml:"merge"`
}

// Validate reports every structural problem with the catalog.
func (c *Catalog) Validate() error {
	var errs []error
	if len(c.Main) == 0 {
		errs = append(errs, errors.New("main stages: must not be empty"))
	}
	if len(c.BranchSubStages) == 0 {
		errs = append(errs, errors.New("branch sub-stages: must not be empty"))
	}
	if len(c.Merge) == 0 {
		errs = append(errs, errors.New("merge stages: must not be empty"))
	}

	seen := make(map[string]bool)
	for _, s := range c.all() {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("stage %q: missing id", s.Title))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("stage %q: duplicate id", s.ID))
		}
		seen[s.ID] = true
	}
	return errors.Join(errs...)
}

// Stage returns the stage with the given id.
func (c *Catalog) Stage(id string) (Stage, bool) {
	for _, s := range c.all() {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func (c *Catalog) all() []Stage {
	out := make([]Stage, 0, len(c.Main)+len(c.BranchSubStages)+len(c.Merge))
	out = append(out, c.Main...)
	out = append(out, c.BranchSubStages...)
	return append(out, c.Merge...)
}

// Default returns the vehicle damage pipeline catalog.
func Default() *Catalog {
	return &Catalog{
		Main: []Stage{
			{ID: "upload", Title: "Upload Images", Details: []string{"6 Before positions - 6 After positions"}},
			{ID: "detection", Title: "YOLOv12 Detection", Details: []string{"Process all 12 images", "Extract bounding boxes", "Confidence filtering"}},
			{ID: "reid", Title: "ReID Deduplication", Details: []string{"Cross-view matching", "CLIP features", "Remove duplicates"}},
			{ID: "comparison", Title: "Before/After Analysis", Details: []string{"Match damages", "Find new/repaired", "Calculate statistics"}},
		},
		BranchSubStages: []Stage{
			{ID: "classify", Title: "Classify Outcome", Details: []string{"Assign damages to outcome"}},
			{ID: "verify", Title: "Verify Evidence", Details: []string{"Cross-check positions"}},
		},
		Merge: []Stage{
			{ID: "decision", Title: "Case Decision", Details: []string{"Determine final case", "Generate report"}},
			{ID: "report", Title: "Report", Details: []string{"Publish inspection report"}},
		},
	}
}
