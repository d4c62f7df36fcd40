package stage

import "testing"

func TestAdvanceProgress(t *testing.T) {
	t.Run("lockstep from zero", func(t *testing.T) {
		const limit = 4
		p := NewProgress()
		for step := 1; step <= limit; step++ {
			next, complete := AdvanceProgress(p, limit)
			for _, b := range Branches {
				if next[b] != step {
					t.Fatalf("step %d: branch %s at %d", step, b, next[b])
				}
			}
			if want := step == limit; complete != want {
				t.Fatalf("step %d: complete = %v, want %v", step, complete, want)
			}
			p = next
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		p := NewProgress()
		_, _ = AdvanceProgress(p, 2)
		for _, b := range Branches {
			if p[b] != 0 {
				t.Errorf("input mutated: %s = %d", b, p[b])
			}
		}
	})

	t.Run("clamps at limit", func(t *testing.T) {
		p := Progress{ExistingDamage: 2, NewDamage: 2, NoDamage: 2}
		next, complete := AdvanceProgress(p, 2)
		if !complete {
			t.Error("expected complete")
		}
		for _, b := range Branches {
			if next[b] != 2 {
				t.Errorf("%s exceeded limit: %d", b, next[b])
			}
		}
	})

	t.Run("lagging branch catches up without overshoot", func(t *testing.T) {
		p := Progress{ExistingDamage: 2, NewDamage: 1, NoDamage: 2}
		next, complete := AdvanceProgress(p, 2)
		if !complete || next[NewDamage] != 2 || next[ExistingDamage] != 2 {
			t.Errorf("got %v complete=%v", next, complete)
		}
	})
}

func TestTracker(t *testing.T) {
	tr := NewTracker(2)
	if tr.Complete() {
		t.Fatal("new tracker should not be complete")
	}

	p, complete := tr.Advance()
	if complete {
		t.Fatal("complete after one advance")
	}
	p[NewDamage] = 99
	if got := tr.Progress()[NewDamage]; got != 1 {
		t.Fatalf("returned map aliases tracker state: %d", got)
	}

	if _, complete = tr.Advance(); !complete {
		t.Fatal("expected complete after two advances")
	}
	if !tr.Complete() {
		t.Error("Complete() disagrees with Advance()")
	}

	tr.Reset()
	for _, b := range Branches {
		if tr.Progress()[b] != 0 {
			t.Errorf("reset left %s at %d", b, tr.Progress()[b])
		}
	}
	if tr.Limit() != 2 {
		t.Errorf("Limit() = %d", tr.Limit())
	}
}
