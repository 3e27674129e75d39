package blocklist

import (
	"fmt"
	"io"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/addons-ops/blocktool/pkg/guidregex"
)

// Metadata carries the user-supplied attributes shared by every entry staged
// from one batch of new guids.
type Metadata struct {
	Name         string
	ReasonText   string
	Severity     Severity
	MinVersion   string
	MaxVersion   string
	BugReference string
}

// CreationRequest is the payload for one staged blocklist record, shaped for
// submission to the remote store's staging area.
type CreationRequest struct {
	Guid       string `json:"guid"`
	Bug        string `json:"bug,omitempty"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
	Severity   int    `json:"severity"`
	MinVersion string `json:"minVersion"`
	MaxVersion string `json:"maxVersion"`
}

// Builder turns classified new guids into creation requests.
type Builder struct {
	// MaxBlockLength overrides the pattern length limit when positive.
	MaxBlockLength int
	// Warnings receives notes about odd-looking metadata. Nil discards them.
	Warnings io.Writer
}

// toolkitVersion covers the add-on version grammar semver does not: four-part
// versions like 1.2.3.4 and alpha/beta parts like 56.0a1.
var toolkitVersion = regexp.MustCompile(`^[0-9]+(\.[0-9]+[A-Za-z]*[0-9]*)*$`)

// BuildRequests compiles newGuids into one or more guid patterns and emits a
// creation request per pattern, all sharing the same bug/name/reason metadata.
// When several guids collapse into a single alternation block the version
// range is forced to all versions; a custom range only makes sense on a
// single-guid literal entry. Empty min/max default to the all-versions
// endpoints. Versions the tool does not recognize are passed through with a
// warning, never rejected — the remote store is the authority on version
// syntax.
func (b Builder) BuildRequests(newGuids []string, meta Metadata) ([]CreationRequest, error) {
	if len(newGuids) == 0 {
		return nil, fmt.Errorf("no guids to block")
	}

	maxLen := b.MaxBlockLength
	if maxLen <= 0 {
		maxLen = guidregex.MaxBlockLength
	}
	blocks := guidregex.CompileBounded(newGuids, maxLen)

	severity := meta.Severity
	if severity == 0 {
		severity = SeverityHard
	}
	minVersion, maxVersion := meta.MinVersion, meta.MaxVersion
	if minVersion == "" {
		minVersion = "0"
	}
	if maxVersion == "" {
		maxVersion = "*"
	}
	if len(newGuids) > 1 && len(blocks) == 1 {
		minVersion, maxVersion = "0", "*"
	}
	b.checkVersion(minVersion)
	b.checkVersion(maxVersion)

	requests := make([]CreationRequest, 0, len(blocks))
	for _, block := range blocks {
		requests = append(requests, CreationRequest{
			Guid:       block,
			Bug:        meta.BugReference,
			Name:       meta.Name,
			Reason:     meta.ReasonText,
			Severity:   int(severity),
			MinVersion: minVersion,
			MaxVersion: maxVersion,
		})
	}
	return requests, nil
}

func (b Builder) checkVersion(version string) {
	if version == "0" || version == "*" {
		return
	}
	if _, err := semver.NewVersion(version); err == nil {
		return
	}
	if toolkitVersion.MatchString(version) {
		return
	}
	warnings := b.Warnings
	if warnings == nil {
		warnings = io.Discard
	}
	fmt.Fprintf(warnings, "WARNING: %q does not look like an add-on version\n", version)
}
