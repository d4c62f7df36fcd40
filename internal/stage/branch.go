package stage

import (
	"fmt"
	"strings"
)

// BranchID names one of the fixed outcome paths.
type BranchID string

// Outcome branches. NoBranch means no branch is selected.
const (
	NoBranch       BranchID = ""
	ExistingDamage BranchID = "existing-damage"
	NewDamage      BranchID = "new-damage"
	NoDamage       BranchID = "no-damage"
)

// Branches lists every branch in display order.
var Branches = []BranchID{ExistingDamage, NewDamage, NoDamage}

// BranchInfo is the static display metadata for a branch.
type BranchInfo struct {
	Name    string
	Color   string  // hex color token
	Message string  // outcome summary shown once the branch completes
	Offset  float64 // lateral offset of the branch endpoint, used by layout only
}

var branchInfo = map[BranchID]BranchInfo{
	ExistingDamage: {Name: "EXISTING DAMAGE", Color: "#f59e0b", Message: "Pre-existing → Delivery OK", Offset: -1},
	NewDamage:      {Name: "NEW DAMAGE", Color: "#ef4444", Message: "New damage detected!", Offset: 0},
	NoDamage:       {Name: "NO DAMAGE", Color: "#10b981", Message: "No damage found", Offset: 1},
}

// Info returns the metadata for the branch. Unknown ids yield the zero value.
func (b BranchID) Info() BranchInfo {
	return branchInfo[b]
}

// Valid reports whether b is one of the fixed branches.
func (b BranchID) Valid() bool {
	_, ok := branchInfo[b]
	return ok
}

func (b BranchID) String() string {
	if b == NoBranch {
		return "none"
	}
	return string(b)
}

// ParseBranchID converts user input into a BranchID. "none" and "" clear the
// selection; numeric shortcuts 1-3 follow display order.
func ParseBranchID(s string) (BranchID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none":
		return NoBranch, nil
	case "1", "2", "3":
		return Branches[s[0]-'1'], nil
	}
	id := BranchID(s)
	if !id.Valid() {
		return NoBranch, fmt.Errorf("unknown branch %q (want one of %s)", s, branchList())
	}
	return id, nil
}

func branchList() string {
	names := make([]string, len(Branches))
	for i, b := range Branches {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
