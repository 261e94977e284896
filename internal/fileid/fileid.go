// Package fileid derives stable identifiers for chunks and document sets.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/hyperjump/sqlrag/internal/models"
)

// chunkNamespace scopes chunk UUIDs so they never collide with other name-based UUIDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sqlrag:chunk"))

// ChunkID returns a stable ID for the index-th chunk of source.
// The same source and index always yield the same ID, so re-ingesting overwrites instead of duplicating.
func ChunkID(source string, index int) string {
	name := filepath.Clean(source) + "#" + strconv.Itoa(index)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// Fingerprint returns a SHA-256 over the base names and contents of docs, independent of order.
// An empty set has a fingerprint too.
func Fingerprint(docs []models.SourceDocument) string {
	sorted := make([]models.SourceDocument, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.Base(sorted[i].Source) < filepath.Base(sorted[j].Source)
	})
	h := sha256.New()
	for _, d := range sorted {
		name := filepath.Base(d.Source)
		h.Write([]byte(strconv.Itoa(len(name))))
		h.Write([]byte{0})
		h.Write([]byte(name))
		h.Write([]byte(strconv.Itoa(len(d.Content))))
		h.Write([]byte{0})
		h.Write([]byte(d.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
