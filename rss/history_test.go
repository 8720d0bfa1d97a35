package rss

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadHistoryMissingFile(t *testing.T) {
	h, err := LoadHistory(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadHistory() error = %v, want empty ledger for missing file", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestLoadHistoryMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHistory(path); err == nil {
		t.Fatal("LoadHistory() accepted malformed ledger")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")

	h, err := LoadHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	h.Add("http://feed.example/a.torrent", "Release A")
	h.Add("http://feed.example/b.torrent", "Release B")

	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory() after Save error = %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded Len() = %d, want 2", reloaded.Len())
	}
	for _, link := range []string{"http://feed.example/a.torrent", "http://feed.example/b.torrent"} {
		if !reloaded.Contains(link) {
			t.Errorf("Contains(%q) = false after reload", link)
		}
	}
	if reloaded.Contains("http://feed.example/c.torrent") {
		t.Error("Contains() reported a link that was never added")
	}
}

func TestHistoryAddIsIdempotent(t *testing.T) {
	h, err := LoadHistory(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	h.Add("http://feed.example/a.torrent", "Release A")
	h.Add("http://feed.example/a.torrent", "Release A (again)")

	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after adding the same link twice", h.Len())
	}
}

func TestSaveIsSortedByLink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	h, err := LoadHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	h.Add("http://feed.example/z.torrent", "Z")
	h.Add("http://feed.example/a.torrent", "A")
	if err := h.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if strings.Index(content, "a.torrent") > strings.Index(content, "z.torrent") {
		t.Error("ledger entries are not sorted by link")
	}
}
