// Package guidregex converts between plain guid lists and the alternation
// regex block strings stored in remote blocklist records. Compile packs guids
// into one or more blocks bounded by the remote field length limit; Expand
// reverses only the exact shape Compile produces, since handwritten blocklist
// regexes can be arbitrarily complex and are not safely reversible.
package guidregex

import (
	"regexp"
	"strings"

	f "github.com/addons-ops/blocktool/pkg/functional"
)

// MaxBlockLength is the longest guid pattern string the remote record field
// accepts.
const MaxBlockLength = 4250

const (
	blockPrefix = "/^(("
	blockSuffix = "))$/"
	blockJoin   = ")|("
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`$`, `\$`,
	`^`, `\^`,
	`*`, `\*`,
	`+`, `\+`,
	`.`, `\.`,
	`?`, `\?`,
	`(`, `\(`,
	`)`, `\)`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`[`, `\[`,
	`]`, `\]`,
)

// idExpr matches one parenthesized guid alternative as emitted by Compile:
// alphanumerics, _, -, @, and literal . { } with only \. \{ \} escapes allowed.
const idExpr = `\((?:\\[.{}]|[A-Za-z0-9_@.{}-])+\)`

var (
	wrappedAlternation = regexp.MustCompile(`^/\^\((` + idExpr + `(?:\|` + idExpr + `)*)\)\$/$`)
	bareAlternation    = regexp.MustCompile(`^/\^(` + idExpr + `(?:\|` + idExpr + `)*)\$/$`)
)

// Compile converts a guid list into block strings bounded by MaxBlockLength.
func Compile(guids []string) []string {
	return CompileBounded(guids, MaxBlockLength)
}

// CompileBounded packs guids greedily, in input order, into alternation blocks
// no longer than maxLen. A single guid is returned verbatim without regex
// wrapping. A guid is never split across blocks and never dropped: one too
// long to fit under maxLen still becomes its own block.
func CompileBounded(guids []string, maxLen int) []string {
	if len(guids) == 0 {
		return nil
	}
	if len(guids) == 1 {
		return []string{guids[0]}
	}

	overhead := len(blockPrefix) + len(blockSuffix)
	blocks := make([]string, 0, 1)
	current := make([]string, 0, len(guids))
	length := overhead
	for _, guid := range guids {
		escaped := escaper.Replace(guid)
		add := len(escaped)
		if len(current) > 0 {
			add += len(blockJoin)
		}
		if len(current) > 0 && length+add > maxLen {
			blocks = append(blocks, wrap(current))
			current = current[:0]
			length = overhead
			add = len(escaped)
		}
		current = append(current, escaped)
		length += add
	}
	return append(blocks, wrap(current))
}

func wrap(escaped []string) string {
	return blockPrefix + strings.Join(escaped, blockJoin) + blockSuffix
}

// Expand recovers the guid list behind a pattern string. Literal patterns
// (no leading slash) expand to themselves. Regex patterns are expanded only
// when they have the exact alternation shape produced by Compile, optionally
// without the outer paren group; anything else returns nil. Duplicate guids
// collapse to their first occurrence.
func Expand(pattern string) []string {
	if !strings.HasPrefix(pattern, "/") {
		return []string{pattern}
	}
	m := wrappedAlternation.FindStringSubmatch(pattern)
	if m == nil {
		m = bareAlternation.FindStringSubmatch(pattern)
	}
	if m == nil {
		return nil
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(m[1], "("), ")")
	ids := strings.Split(inner, blockJoin)
	for i, id := range ids {
		ids[i] = strings.ReplaceAll(id, `\`, "")
	}
	return f.RemoveDuplicates(ids)
}
