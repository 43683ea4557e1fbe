package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	server     *httptest.Server
	configPath string
	stateDir   string
}

// stubBackend serves a minimal story catalog for CLI tests.
func stubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /content", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stories": []map[string]any{
				{
					"id": "story-1", "title": "Crown of Ashes",
					"genres":       []string{"romance", "thriller"},
					"freeEpisodes": 2, "totalEpisodes": 4,
				},
			},
			"total": 1, "hasMore": false,
		})
	})
	mux.HandleFunc("GET /stories/story-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "story-1", "title": "Crown of Ashes",
			"freeEpisodes": 2, "totalEpisodes": 4,
		})
	})
	mux.HandleFunc("GET /stories/story-1/episodes", func(w http.ResponseWriter, r *http.Request) {
		episodes := make([]map[string]any, 0, 4)
		for i := 1; i <= 4; i++ {
			cost := 0
			if i > 2 {
				cost = 10
			}
			episodes = append(episodes, map[string]any{
				"id": fmt.Sprintf("ep-%d", i), "storyId": "story-1",
				"sequenceNumber": i, "title": fmt.Sprintf("Episode %d", i),
				"duration": 90, "tokenCost": cost,
			})
		}
		_ = json.NewEncoder(w).Encode(episodes)
	})
	mux.HandleFunc("GET /narrative", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"unlockedEpisodes": []string{}})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-1", "userId": "user-1",
			"expiresAt": "2030-01-01T00:00:00Z",
		})
	})
	mux.HandleFunc("POST /payments/solana/intent", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"intentId": "pi-1", "destination": "So1anaDest", "lamports": 1000,
			"memo": "reelfeed coins", "coins": 50,
		})
	})
	mux.HandleFunc("POST /payments/solana/confirm", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "confirmed", "balance": 50})
	})
	mux.HandleFunc("POST /unlock", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EpisodeID string `json:"episodeId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "episodeId": body.EpisodeID, "remainingTokens": 40,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("REELFEED_API_URL", "")

	server := stubBackend(t)
	stateDir := filepath.Join(base, "state")
	logDir := filepath.Join(base, "logs")

	configPath := filepath.Join(homeDir, ".config", "reelfeed", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`[api]
base_url = %q

[paths]
state_dir = %q
log_dir = %q

[telemetry]
enabled = false
`, server.URL, stateDir, logDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{server: server, configPath: configPath, stateDir: stateDir}
}

func runCLI(t *testing.T, args []string, stdin string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
