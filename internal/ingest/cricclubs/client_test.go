package cricclubs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchTeamPage(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != "/viewTeam.do" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("teamId") != "4371" {
			t.Errorf("unexpected teamId: %s", r.URL.Query().Get("teamId"))
		}
		w.Write([]byte("<html><body>roster</body></html>"))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	html, err := client.FetchTeamPage(context.Background())
	if err != nil {
		t.Fatalf("FetchTeamPage failed: %v", err)
	}
	if html != "<html><body>roster</body></html>" {
		t.Errorf("unexpected body: %q", html)
	}
	if gotUA != UserAgent {
		t.Errorf("expected User-Agent %q, got %q", UserAgent, gotUA)
	}
}

func TestFetchTeamPageNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	if _, err := client.FetchTeamPage(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestFetchTeamPageContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.FetchTeamPage(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
