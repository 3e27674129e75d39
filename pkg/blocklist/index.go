package blocklist

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	f "github.com/addons-ops/blocktool/pkg/functional"
)

// MalformedPatternError reports a snapshot regex entry whose guid pattern does
// not compile.
type MalformedPatternError struct {
	Pattern string
	Err     error
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("malformed guid pattern %q: %v", e.Pattern, e.Err)
}

func (e *MalformedPatternError) Unwrap() error {
	return e.Err
}

// InvalidEntry pairs a snapshot entry with the reason it could not join the
// matching set.
type InvalidEntry struct {
	Entry *Entry
	Err   *MalformedPatternError
}

type regexEntry struct {
	matcher *regexp.Regexp
	entry   *Entry
}

// Index partitions a snapshot into exact-guid and regex entries for
// classification. Build one per operation from a freshly fetched snapshot and
// discard it afterwards; it is never updated in place.
type Index struct {
	exact    map[string]*Entry
	regexes  []regexEntry
	invalid  []InvalidEntry
	warnings io.Writer
}

// BuildIndex compiles a fetched snapshot into an Index. Regex entries that
// fail to compile are excluded from matching, reported to the warnings writer,
// and retained in the Invalid list; a bad pattern never aborts the build.
func BuildIndex(snapshot []*Entry, warnings io.Writer) *Index {
	if warnings == nil {
		warnings = io.Discard
	}
	idx := &Index{
		exact:    make(map[string]*Entry, len(snapshot)),
		warnings: warnings,
	}
	for _, entry := range snapshot {
		if !entry.IsRegex() {
			idx.exact[entry.GuidPattern] = entry
			continue
		}
		source := strings.TrimSuffix(strings.TrimPrefix(entry.GuidPattern, "/"), "/")
		matcher, err := regexp.Compile(source)
		if err != nil {
			invalid := InvalidEntry{Entry: entry, Err: &MalformedPatternError{Pattern: entry.GuidPattern, Err: err}}
			idx.invalid = append(idx.invalid, invalid)
			fmt.Fprintf(idx.warnings, "WARNING: skipping %v\n", invalid.Err)
			continue
		}
		idx.regexes = append(idx.regexes, regexEntry{matcher: matcher, entry: entry})
	}
	return idx
}

// Invalid returns the snapshot entries excluded from matching because their
// patterns failed to compile.
func (idx *Index) Invalid() []InvalidEntry {
	return idx.invalid
}

// Match pairs a candidate guid with the entry that already blocks it.
type Match struct {
	Guid  string
	Entry *Entry
}

// Classification is the total partition of a candidate batch: every candidate
// surviving trim and comment filtering lands in exactly one of Existing or
// New. Both preserve first-seen input order.
type Classification struct {
	Existing []Match
	New      []string
}

// EntryFor returns the blocking entry recorded for a classified guid.
func (c *Classification) EntryFor(guid string) (*Entry, bool) {
	for _, m := range c.Existing {
		if m.Guid == guid {
			return m.Entry, true
		}
	}
	return nil, false
}

// Classify partitions candidates into already-blocked and new guids.
// Candidates are trimmed first; blank lines and #-comments are skipped
// outright. An exact-guid match always wins over regex matches; regex entries
// are tested in snapshot order and the first match wins. Overlaps (exact plus
// regex, or several regexes) are reported to the warnings writer but never
// change the outcome.
func (idx *Index) Classify(candidates []string) Classification {
	result := Classification{}
	seen := f.NewSet[string]()
	for _, raw := range candidates {
		guid := strings.TrimSpace(raw)
		if guid == "" || strings.HasPrefix(guid, "#") {
			continue
		}
		if seen.Contains(guid) {
			continue
		}
		seen.Add(guid)

		matches := make([]regexEntry, 0, 1)
		for _, re := range idx.regexes {
			if re.matcher.MatchString(guid) {
				matches = append(matches, re)
			}
		}
		patterns := func() string {
			return strings.Join(f.Map(matches, func(re regexEntry) string { return re.entry.GuidPattern }), ", ")
		}

		if entry, ok := idx.exact[guid]; ok {
			if len(matches) > 0 {
				fmt.Fprintf(idx.warnings, "WARNING: %s has an exact entry but also matches regex pattern(s): %s\n", guid, patterns())
			}
			result.Existing = append(result.Existing, Match{Guid: guid, Entry: entry})
			continue
		}
		if len(matches) > 0 {
			if len(matches) > 1 {
				fmt.Fprintf(idx.warnings, "WARNING: %s matches multiple regex patterns, using the first: %s\n", guid, patterns())
			}
			result.Existing = append(result.Existing, Match{Guid: guid, Entry: matches[0].entry})
			continue
		}
		result.New = append(result.New, guid)
	}
	return result
}
