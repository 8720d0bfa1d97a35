package cleanup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"qbt-janitor/qbt"
)

// Fingerprint derives a stable content identity from a torrent's file
// manifest, independent of its transport hash: entries sorted by name, each
// name concatenated with its size's decimal string, SHA-256 over the whole,
// rendered as lowercase hex. Renaming or resizing any file changes the
// result; reordering the manifest does not.
func Fingerprint(files []qbt.FileEntry) string {
	sorted := make([]qbt.FileEntry, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var combined strings.Builder
	for _, f := range sorted {
		combined.WriteString(f.Name)
		combined.WriteString(strconv.FormatInt(f.Size, 10))
	}

	sum := sha256.Sum256([]byte(combined.String()))
	return hex.EncodeToString(sum[:])
}
