package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelfeed/internal/api"
	"reelfeed/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := api.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestListContentBuildsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/content" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("type") != "drama" || q.Get("limit") != "20" || q.Get("offset") != "40" {
			t.Fatalf("unexpected query: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"stories":[{"id":"s1","title":"Night Shift","freeEpisodes":3}],"total":1,"hasMore":false}`))
	})

	page, err := client.ListContent(context.Background(), api.ContentQuery{Type: "drama", Limit: 20, Offset: 40})
	if err != nil {
		t.Fatalf("ListContent returned error: %v", err)
	}
	if len(page.Stories) != 1 || page.Stories[0].ID != "s1" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Stories[0].FreeEpisodes != 3 {
		t.Fatalf("unexpected free episode count: %d", page.Stories[0].FreeEpisodes)
	}
}

func TestListEpisodesDecodesSequence(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stories/s1/episodes" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":"e1","storyId":"s1","sequenceNumber":1,"tokenCost":0},{"id":"e2","storyId":"s1","sequenceNumber":2,"tokenCost":15}]`))
	})

	episodes, err := client.ListEpisodes(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListEpisodes returned error: %v", err)
	}
	if len(episodes) != 2 || episodes[1].Sequence != 2 || episodes[1].TokenCost != 15 {
		t.Fatalf("unexpected episodes: %+v", episodes)
	}
}

func TestPlaybackURLPostsIdentifiers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/playback" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["userId"] != "u1" || body["episodeId"] != "e1" {
			t.Fatalf("unexpected body: %v", body)
		}
		_, _ = w.Write([]byte(`{"videoUrl":"https://cdn.example.com/e1.m3u8","duration":95}`))
	})

	playback, err := client.PlaybackURL(context.Background(), "u1", "e1")
	if err != nil {
		t.Fatalf("PlaybackURL returned error: %v", err)
	}
	if playback.VideoURL == "" || playback.DurationSeconds != 95 {
		t.Fatalf("unexpected playback: %+v", playback)
	}
}

func TestUnlockSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"episodeId":"e2","remainingTokens":10,"nextEpisodeId":"e3"}`))
	})

	result, err := client.Unlock(context.Background(), "e2", "s1")
	if err != nil {
		t.Fatalf("Unlock returned error: %v", err)
	}
	if result.RemainingTokens != 10 || result.NextEpisodeID != "e3" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestUnlockRejectedIsReturnedAsData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"episodeId":"e2"}`))
	})

	result, err := client.Unlock(context.Background(), "e2", "s1")
	if err != nil {
		t.Fatalf("Unlock returned error: %v", err)
	}
	if result.Success {
		t.Fatal("expected success=false to survive decoding")
	}
}

func TestWalletAuthFlowEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/wallet/nonce":
			_, _ = w.Write([]byte(`{"nonce":"sign-me"}`))
		case "/auth/wallet/verify":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["nonce"] != "sign-me" || body["signature"] != "sig" {
				t.Fatalf("unexpected verify body: %v", body)
			}
			_, _ = w.Write([]byte(`{"token":"tok","userId":"u9"}`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	})

	nonce, err := client.WalletNonce(context.Background(), "pubkey")
	if err != nil {
		t.Fatalf("WalletNonce returned error: %v", err)
	}
	creds, err := client.WalletVerify(context.Background(), "pubkey", "sig", nonce)
	if err != nil {
		t.Fatalf("WalletVerify returned error: %v", err)
	}
	if creds.UserID != "u9" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestSendTelemetrySkipsEmptyBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty batch")
	})
	if err := client.SendTelemetry(context.Background(), nil); err != nil {
		t.Fatalf("SendTelemetry returned error: %v", err)
	}
}

func TestSolanaIntentAndConfirm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/solana/intent":
			_, _ = w.Write([]byte(`{"intentId":"i1","destination":"addr","lamports":5000,"memo":"i1","coins":100}`))
		case "/payments/solana/confirm":
			_, _ = w.Write([]byte(`{"status":"confirmed","balance":120}`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	})

	intent, err := client.SolanaIntent(context.Background(), "standard")
	if err != nil {
		t.Fatalf("SolanaIntent returned error: %v", err)
	}
	if intent.Lamports != 5000 || intent.Memo != "i1" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	conf, err := client.SolanaConfirm(context.Background(), intent.IntentID, "sig")
	if err != nil {
		t.Fatalf("SolanaConfirm returned error: %v", err)
	}
	if conf.Status != api.PaymentStatusConfirmed || conf.Balance != 120 {
		t.Fatalf("unexpected confirmation: %+v", conf)
	}
}

func TestRequestIDHeaderFromContext(t *testing.T) {
	var got string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"balance":5}`))
	})

	ctx := services.WithRequestID(context.Background(), "rid-42")
	if _, err := client.Balance(ctx); err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if got != "rid-42" {
		t.Fatalf("expected request id header rid-42, got %q", got)
	}

	got = "unset"
	if _, err := client.Balance(context.Background()); err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected no request id header, got %q", got)
	}
}
