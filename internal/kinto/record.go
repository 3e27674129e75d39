package kinto

import (
	"time"

	"github.com/addons-ops/blocktool/pkg/blocklist"
)

// Record is the wire shape of one blocklist record. Only the fields the
// workflow reads or writes are mapped; the service stores more.
type Record struct {
	ID           string         `json:"id,omitempty"`
	Guid         string         `json:"guid"`
	Enabled      bool           `json:"enabled"`
	VersionRange []VersionRange `json:"versionRange"`
	Details      Details        `json:"details"`
	LastModified int64          `json:"last_modified,omitempty"`
}

type VersionRange struct {
	MinVersion string `json:"minVersion"`
	MaxVersion string `json:"maxVersion"`
	Severity   int    `json:"severity"`
}

type Details struct {
	Bug     string `json:"bug,omitempty"`
	Name    string `json:"name,omitempty"`
	Why     string `json:"why,omitempty"`
	Created string `json:"created,omitempty"`
}

// Entry maps a wire record onto the classification model. Records without an
// explicit version range get the all-versions default; records without a
// details.created timestamp fall back to last_modified for their creation
// time.
func (r Record) Entry() *blocklist.Entry {
	createdAt := time.UnixMilli(r.LastModified)
	if created, err := time.Parse(time.RFC3339, r.Details.Created); err == nil {
		createdAt = created
	}
	entry := &blocklist.Entry{
		GuidPattern:  r.Guid,
		BugReference: r.Details.Bug,
		Name:         r.Details.Name,
		ReasonText:   r.Details.Why,
		Enabled:      r.Enabled,
		CreatedAt:    createdAt,
	}
	for _, vr := range r.VersionRange {
		entry.VersionRanges = append(entry.VersionRanges, blocklist.VersionRange{
			MinVersion: vr.MinVersion,
			MaxVersion: vr.MaxVersion,
			Severity:   blocklist.Severity(vr.Severity),
		})
	}
	if len(entry.VersionRanges) == 0 {
		entry.VersionRanges = []blocklist.VersionRange{blocklist.AllVersions(blocklist.SeverityHard)}
	}
	return entry
}

// RecordFrom shapes a creation request for submission. Staged records are
// always enabled.
func RecordFrom(req blocklist.CreationRequest) Record {
	return Record{
		Guid:    req.Guid,
		Enabled: true,
		VersionRange: []VersionRange{{
			MinVersion: req.MinVersion,
			MaxVersion: req.MaxVersion,
			Severity:   req.Severity,
		}},
		Details: Details{
			Bug:  req.Bug,
			Name: req.Name,
			Why:  req.Reason,
		},
	}
}
