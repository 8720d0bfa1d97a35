package rss

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// HistoryEntry is one previously submitted feed item, keyed by its canonical
// download link. Entries are never mutated once written.
type HistoryEntry struct {
	Link  string    `json:"link"`
	Title string    `json:"title"`
	Added time.Time `json:"added"`
}

// History is the persisted ledger of previously submitted feed links. It is
// loaded once per run and rewritten once at the end; records added during a
// run that never reaches Save are lost, which keeps re-submission at most
// once per successful run.
type History struct {
	path    string
	entries map[string]HistoryEntry
}

// LoadHistory reads the ledger from path. A missing file yields an empty
// ledger, not an error.
func LoadHistory(path string) (*History, error) {
	h := &History{
		path:    path,
		entries: make(map[string]HistoryEntry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("failed to read download history: %w", err)
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse download history %s: %w", path, err)
	}

	for _, e := range entries {
		h.entries[e.Link] = e
	}

	return h, nil
}

// Contains reports whether the link was already submitted in this or any
// prior run.
func (h *History) Contains(link string) bool {
	_, ok := h.entries[link]
	return ok
}

// Add records a successfully submitted link.
func (h *History) Add(link, title string) {
	h.entries[link] = HistoryEntry{Link: link, Title: title, Added: time.Now()}
}

// Len returns the number of recorded links.
func (h *History) Len() int {
	return len(h.entries)
}

// Save rewrites the full ledger.
func (h *History) Save() error {
	entries := make([]HistoryEntry, 0, len(h.entries))
	for _, e := range h.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Link < entries[j].Link })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode download history: %w", err)
	}

	if dir := filepath.Dir(h.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write download history: %w", err)
	}

	return nil
}
