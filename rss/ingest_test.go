package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"qbt-janitor/config"
)

type submission struct {
	url      string
	category string
}

type fakeDownloader struct {
	submissions []submission
	failLinks   map[string]bool
}

func (f *fakeDownloader) AddTorrent(ctx context.Context, url, category string) error {
	if f.failLinks[url] {
		return errors.New("client rejected download")
	}
	f.submissions = append(f.submissions, submission{url: url, category: category})
	return nil
}

func feedServer(t *testing.T, items ...string) *httptest.Server {
	t.Helper()
	body := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>test</title>`
	for _, item := range items {
		body += item
	}
	body += `</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rssItem(title, link string) string {
	return fmt.Sprintf("<item><title>%s</title><link>%s</link></item>", title, link)
}

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := LoadHistory(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestRunSubmitsNewItems(t *testing.T) {
	srv := feedServer(t,
		rssItem("Release A", "http://feed.example/a.torrent"),
		rssItem("Release B", "http://feed.example/b.torrent"),
	)

	dl := &fakeDownloader{}
	history := newTestHistory(t)
	ing := NewIngester(dl, history, zerolog.Nop())

	feeds := []config.FeedConfig{{URL: srv.URL, Category: "tv"}}
	if err := ing.Run(context.Background(), feeds); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(dl.submissions) != 2 {
		t.Fatalf("got %d submissions, want 2", len(dl.submissions))
	}
	for _, s := range dl.submissions {
		if s.category != "tv" {
			t.Errorf("submission category = %q, want %q", s.category, "tv")
		}
	}
	if !history.Contains("http://feed.example/a.torrent") || !history.Contains("http://feed.example/b.torrent") {
		t.Error("submitted links missing from history")
	}

	// The ledger was persisted at the end of the run.
	reloaded, err := LoadHistory(history.path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("persisted ledger has %d entries, want 2", reloaded.Len())
	}
}

func TestRunSkipsKnownLinks(t *testing.T) {
	srv := feedServer(t,
		rssItem("Release A", "http://feed.example/a.torrent"),
		rssItem("Release B", "http://feed.example/b.torrent"),
	)

	dl := &fakeDownloader{}
	history := newTestHistory(t)
	history.Add("http://feed.example/a.torrent", "Release A")
	ing := NewIngester(dl, history, zerolog.Nop())

	if err := ing.Run(context.Background(), []config.FeedConfig{{URL: srv.URL}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(dl.submissions) != 1 || dl.submissions[0].url != "http://feed.example/b.torrent" {
		t.Errorf("submissions = %v, want only the unseen link", dl.submissions)
	}
}

func TestRunDuplicateLinkWithinRun(t *testing.T) {
	// The same link showing up twice inside one run must reach the client
	// exactly once; the in-memory ledger dedupes before persistence.
	srv := feedServer(t,
		rssItem("Release A", "http://feed.example/a.torrent"),
		rssItem("Release A repost", "http://feed.example/a.torrent"),
	)

	dl := &fakeDownloader{}
	ing := NewIngester(dl, newTestHistory(t), zerolog.Nop())

	if err := ing.Run(context.Background(), []config.FeedConfig{{URL: srv.URL}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(dl.submissions) != 1 {
		t.Errorf("got %d submissions, want 1", len(dl.submissions))
	}
}

func TestRunFailedSubmitNotRecorded(t *testing.T) {
	srv := feedServer(t,
		rssItem("Release A", "http://feed.example/a.torrent"),
		rssItem("Release B", "http://feed.example/b.torrent"),
	)

	dl := &fakeDownloader{failLinks: map[string]bool{"http://feed.example/a.torrent": true}}
	history := newTestHistory(t)
	ing := NewIngester(dl, history, zerolog.Nop())

	if err := ing.Run(context.Background(), []config.FeedConfig{{URL: srv.URL}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if history.Contains("http://feed.example/a.torrent") {
		t.Error("rejected link was recorded, it would never be retried")
	}
	if !history.Contains("http://feed.example/b.torrent") {
		t.Error("accepted link missing from history")
	}
}

func TestRunUnreachableFeedContinues(t *testing.T) {
	srv := feedServer(t, rssItem("Release A", "http://feed.example/a.torrent"))

	dl := &fakeDownloader{}
	ing := NewIngester(dl, newTestHistory(t), zerolog.Nop())

	feeds := []config.FeedConfig{
		{URL: "http://127.0.0.1:1/feed.xml"},
		{URL: srv.URL},
	}
	if err := ing.Run(context.Background(), feeds); err != nil {
		t.Fatalf("Run() error = %v, an unreachable feed must not abort the run", err)
	}

	if len(dl.submissions) != 1 {
		t.Errorf("got %d submissions, want 1 from the healthy feed", len(dl.submissions))
	}
}

func TestRunDryRun(t *testing.T) {
	srv := feedServer(t, rssItem("Release A", "http://feed.example/a.torrent"))

	dl := &fakeDownloader{}
	history := newTestHistory(t)
	ing := NewIngester(dl, history, zerolog.Nop())
	ing.SetDryRun(true)

	if err := ing.Run(context.Background(), []config.FeedConfig{{URL: srv.URL}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(dl.submissions) != 0 {
		t.Errorf("dry run submitted %d downloads", len(dl.submissions))
	}
	if history.Len() != 0 {
		t.Errorf("dry run recorded %d history entries", history.Len())
	}
}
