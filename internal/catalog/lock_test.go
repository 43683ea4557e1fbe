package catalog_test

import (
	"testing"

	"reelfeed/internal/catalog"
)

func TestLockedFreeEpisodesNeverLocked(t *testing.T) {
	unlocked := catalog.NewUnlockedSet()
	for seq := 1; seq <= 3; seq++ {
		ep := catalog.Episode{ID: "ep", Sequence: seq}
		if catalog.Locked(ep, 3, unlocked) {
			t.Fatalf("episode with sequence %d within free allotment should not be locked", seq)
		}
	}
}

func TestLockedPastFreeCountRequiresUnlock(t *testing.T) {
	unlocked := catalog.NewUnlockedSet("ep-5")

	locked := catalog.Episode{ID: "ep-4", Sequence: 4}
	if !catalog.Locked(locked, 3, unlocked) {
		t.Fatal("episode past free count and absent from set should be locked")
	}

	open := catalog.Episode{ID: "ep-5", Sequence: 5}
	if catalog.Locked(open, 3, unlocked) {
		t.Fatal("episode present in unlocked set should not be locked")
	}
}

func TestLockedCountsPendingEntries(t *testing.T) {
	unlocked := catalog.NewUnlockedSet()
	unlocked.Stage("ep-7")

	ep := catalog.Episode{ID: "ep-7", Sequence: 7}
	if catalog.Locked(ep, 0, unlocked) {
		t.Fatal("provisionally unlocked episode should be playable")
	}

	unlocked.Rollback("ep-7")
	if !catalog.Locked(ep, 0, unlocked) {
		t.Fatal("rolled-back episode should be locked again")
	}
}

func TestUnlockCostDefault(t *testing.T) {
	if got := (catalog.Episode{TokenCost: 25}).UnlockCost(); got != 25 {
		t.Fatalf("explicit cost: got %d", got)
	}
	if got := (catalog.Episode{}).UnlockCost(); got != catalog.DefaultEpisodeCost {
		t.Fatalf("default cost: got %d", got)
	}
}

func TestDisplayTitle(t *testing.T) {
	ep := catalog.Episode{Sequence: 4}
	if got := ep.DisplayTitle(); got != "Episode 4" {
		t.Fatalf("synthesized title: got %q", got)
	}
	ep.Title = "The Reveal"
	if got := ep.DisplayTitle(); got != "The Reveal" {
		t.Fatalf("explicit title: got %q", got)
	}
}
