// Package blocklist classifies submitted guids against a fetched blocklist
// snapshot and assembles creation requests for guids not yet blocked.
package blocklist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Severity is the block strength attached to a version range.
type Severity int

const (
	SeveritySoft Severity = 1
	SeverityHard Severity = 3
)

// String renders known severities by name. Remote data occasionally carries
// other values; those render as unknown(N) rather than failing.
func (s Severity) String() string {
	switch s {
	case SeveritySoft:
		return "soft"
	case SeverityHard:
		return "hard"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// VersionRange restricts a block to a span of add-on versions.
type VersionRange struct {
	MinVersion string
	MaxVersion string
	Severity   Severity
}

// AllVersions is the range encoding "block every version".
func AllVersions(severity Severity) VersionRange {
	return VersionRange{MinVersion: "0", MaxVersion: "*", Severity: severity}
}

// Entry is one existing or prospective blocklist record.
type Entry struct {
	GuidPattern   string
	VersionRanges []VersionRange
	BugReference  string
	Name          string
	ReasonText    string
	Enabled       bool
	CreatedAt     time.Time
}

// IsRegex reports whether the guid pattern is a delimited regex rather than a
// literal guid.
func (e *Entry) IsRegex() bool {
	return strings.HasPrefix(e.GuidPattern, "/")
}

var bugIDPattern = regexp.MustCompile(`id=(\d+)`)

// BugID extracts the numeric tracker id from the entry's bug reference.
// References without an id= parameter yield ok=false; remote data tolerates
// free-form bug links, so a missing id is not an error.
func (e *Entry) BugID() (int, bool) {
	m := bugIDPattern.FindStringSubmatch(e.BugReference)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
