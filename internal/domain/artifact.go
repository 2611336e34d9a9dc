package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the second-granularity timestamp embedded in every
// artifact name. Lexical order of two names with the same prefix equals
// chronological order.
const TimestampLayout = "20060102_150405"

// PartialSuffix marks an artifact that is still being written. Files with
// this suffix never match the naming convention, so listing and retention
// cannot observe half-written backups.
const PartialSuffix = ".partial"

var artifactNameRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*)_backup_(\d{8}_\d{6})(\.[A-Za-z0-9.]+)$`)

// Artifact is one compressed point-in-time backup of a data source.
type Artifact struct {
	Name      string
	Prefix    string
	LocalPath string
	Size      int64
	CreatedAt time.Time
}

// ArtifactName builds the canonical name <prefix>_backup_<timestamp><ext>.
// The timestamp is UTC so that parsing a name back yields the original
// instant.
func ArtifactName(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_backup_%s%s", prefix, t.UTC().Format(TimestampLayout), ext)
}

// ParseArtifactName extracts prefix and creation time from a name following
// the convention. Names that do not follow it return an error and must be
// ignored by retention.
func ParseArtifactName(name string) (Artifact, error) {
	if strings.HasSuffix(name, PartialSuffix) {
		return Artifact{}, fmt.Errorf("name %q is a partial artifact", name)
	}

	m := artifactNameRe.FindStringSubmatch(name)
	if m == nil {
		return Artifact{}, fmt.Errorf("name %q does not match backup naming convention", name)
	}

	ts, err := time.Parse(TimestampLayout, m[2])
	if err != nil {
		return Artifact{}, fmt.Errorf("name %q carries invalid timestamp: %w", name, err)
	}

	return Artifact{
		Name:      name,
		Prefix:    m[1],
		CreatedAt: ts,
	}, nil
}

// MatchesConvention reports whether name is a backup artifact produced for
// the given source prefix.
func MatchesConvention(name, prefix string) bool {
	a, err := ParseArtifactName(name)
	return err == nil && a.Prefix == prefix
}

// FilterArtifacts keeps only the names matching the convention for prefix
// and returns them as parsed artifacts. Unrelated files are dropped
// silently.
func FilterArtifacts(names []string, prefix string) []Artifact {
	var out []Artifact
	for _, name := range names {
		a, err := ParseArtifactName(name)
		if err != nil || a.Prefix != prefix {
			continue
		}
		out = append(out, a)
	}
	return out
}

// SortNewestFirst orders artifacts by creation time descending. Equal
// timestamps fall back to lexical name order, descending, so the order is
// total and stable across runs.
func SortNewestFirst(artifacts []Artifact) {
	sort.Slice(artifacts, func(i, j int) bool {
		if !artifacts[i].CreatedAt.Equal(artifacts[j].CreatedAt) {
			return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
		}
		return artifacts[i].Name > artifacts[j].Name
	})
}
