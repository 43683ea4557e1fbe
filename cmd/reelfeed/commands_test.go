package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInit(t *testing.T) {
	setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Refuses to clobber without --overwrite.
	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error for existing config")
	}
}

func TestConfigPath(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"config", "path"}, "")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, filepath.Join(".config", "reelfeed", "config.toml")) {
		t.Fatalf("unexpected path output: %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "reelfeed")
}

func TestStoriesTableOutput(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"stories"}, "")
	if err != nil {
		t.Fatalf("stories: %v", err)
	}
	requireContains(t, out, "Crown of Ashes")
	requireContains(t, out, "Romance, Thriller")
}

func TestStoriesJSONOutput(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"stories", "--json"}, "")
	if err != nil {
		t.Fatalf("stories --json: %v", err)
	}
	requireContains(t, out, `"id": "story-1"`)
	requireContains(t, out, `"hasMore": false`)
}

func TestEpisodesShowsLockState(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"episodes", "story-1"}, "")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	requireContains(t, out, "Crown of Ashes (4 episodes, 2 free)")
	requireContains(t, out, "locked (10 coins)")
	requireContains(t, out, "free")
}

func TestWhoamiWithoutSession(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"whoami"}, "")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	requireContains(t, out, "No active session")
}

func TestUnlockRequiresSignIn(t *testing.T) {
	setupCLITestEnv(t)

	_, err := runCLI(t, []string{"unlock", "story-1", "3"}, "")
	if err == nil || !strings.Contains(err.Error(), "sign in") {
		t.Fatalf("expected sign-in error, got %v", err)
	}
}

func TestTopupListPacks(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"topup", "--list"}, "")
	if err != nil {
		t.Fatalf("topup --list: %v", err)
	}
	requireContains(t, out, "standard")
	requireContains(t, out, "150 coins")
}

func TestHistoryEmpty(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"history"}, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Nothing watched yet")
}

func TestUnlockTopupDetourRetriesPendingUnlock(t *testing.T) {
	setupCLITestEnv(t)

	if _, err := runCLI(t, []string{"login", "--email", "viewer@example.com", "--password", "pw"}, ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := runCLI(t, []string{"unlock", "story-1", "3", "--topup", "--pack", "starter"}, "sig-123\n")
	if err != nil {
		t.Fatalf("unlock --topup: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "Not enough coins: need 10 coins, have 0 coins")
	requireContains(t, out, "Payment confirmed. Balance: 50 coins")
	requireContains(t, out, "Unlocked (40 coins left)")
}

func TestUnlockWithoutTopupPointsAtPurchase(t *testing.T) {
	setupCLITestEnv(t)

	if _, err := runCLI(t, []string{"login", "--email", "viewer@example.com", "--password", "pw"}, ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := runCLI(t, []string{"unlock", "story-1", "3"}, "")
	if err != nil {
		t.Fatalf("unlock: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "Not enough coins")
	requireContains(t, out, "--topup")
}
