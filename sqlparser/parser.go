// Package sqlparser turns a query's raw SQL template into a validation
// report and driver-ready positional SQL. Templates carry two embedded
// syntaxes: named wildcards (:identifier) and conditional blocks
// (-- {name} <fragment> -- }). The package never mutates a Query; every
// operation derives a new SQL string or parameter list from it.
package sqlparser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/teamquery/teamquery"
)

const (
	openMarkerPrefix = "-- {"
	closeMarker      = "-- }"
)

// ConditionalBlock is one occurrence of a conditional span in a template.
// Start and End delimit the full span including both markers; Fragment is
// the inner SQL kept verbatim when the block's name is provided.
type ConditionalBlock struct {
	Name     string
	Fragment string
	Start    int
	End      int
}

type segmentKind int

const (
	literalSegment segmentKind = iota
	conditionalSegment
)

// segment is one tagged span of a template: literal text or a conditional
// block. Both BuildDynamicSQL and the runtime restatement embedded in the
// generated utils modules follow this same scan, so the two cannot drift.
type segment struct {
	kind     segmentKind
	name     string
	fragment string
	text     string
	start    int
	end      int
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// scanSegments splits a template into literal and conditional spans.
// Malformed markers (no closing brace, no closing marker, invalid name)
// degrade to literal text; scanning resumes just past the broken marker.
func scanSegments(sql string) []segment {
	var segs []segment

	index := 0

	for {
		rel := strings.Index(sql[index:], openMarkerPrefix)
		if rel < 0 {
			break
		}

		start := index + rel

		braceRel := strings.IndexByte(sql[start+len(openMarkerPrefix):], '}')
		if braceRel < 0 {
			break
		}

		nameEnd := start + len(openMarkerPrefix) + braceRel
		name := strings.TrimSpace(sql[start+len(openMarkerPrefix) : nameEnd])

		closeRel := strings.Index(sql[nameEnd+1:], closeMarker)
		if closeRel < 0 || !identPattern.MatchString(name) {
			segs = append(segs, segment{kind: literalSegment, text: sql[index : nameEnd+1], start: index, end: nameEnd + 1})
			index = nameEnd + 1

			continue
		}

		end := nameEnd + 1 + closeRel + len(closeMarker)

		if start > index {
			segs = append(segs, segment{kind: literalSegment, text: sql[index:start], start: index, end: start})
		}

		segs = append(segs, segment{
			kind:     conditionalSegment,
			name:     name,
			fragment: sql[nameEnd+1 : end-len(closeMarker)],
			text:     sql[start:end],
			start:    start,
			end:      end,
		})

		index = end
	}

	if index < len(sql) {
		segs = append(segs, segment{kind: literalSegment, text: sql[index:], start: index, end: len(sql)})
	}

	return segs
}

// wildcardRef is one :name occurrence with its span in the SQL text.
type wildcardRef struct {
	name  string
	start int
	end   int
}

var wildcardPattern = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)

// scanWildcards returns every named wildcard occurrence in order.
// A colon that is part of a double-colon cast (::type) is not a wildcard,
// and positional markers ($1, %s, ?) carry no colon so they never match.
func scanWildcards(sql string) []wildcardRef {
	var refs []wildcardRef

	for _, loc := range wildcardPattern.FindAllStringIndex(sql, -1) {
		if loc[0] > 0 && sql[loc[0]-1] == ':' {
			continue
		}

		refs = append(refs, wildcardRef{
			name:  sql[loc[0]+1 : loc[1]],
			start: loc[0],
			end:   loc[1],
		})
	}

	return refs
}

// ExtractWildcards returns the set of distinct named wildcards in the
// query's SQL, regardless of which parameters are declared.
func ExtractWildcards(query *teamquery.Query) map[string]bool {
	names := make(map[string]bool)
	for _, ref := range scanWildcards(query.SQL) {
		names[ref.name] = true
	}

	return names
}

// ExtractConditionalBlocks returns every conditional block keyed by name.
// A name may guard several blocks; each name's occurrences keep template
// order.
func ExtractConditionalBlocks(sql string) map[string][]ConditionalBlock {
	blocks := make(map[string][]ConditionalBlock)

	for _, seg := range scanSegments(sql) {
		if seg.kind != conditionalSegment {
			continue
		}

		blocks[seg.name] = append(blocks[seg.name], ConditionalBlock{
			Name:     seg.name,
			Fragment: seg.fragment,
			Start:    seg.start,
			End:      seg.end,
		})
	}

	return blocks
}

// ValidateParams checks that every wildcard and conditional block name has
// a matching parameter declaration. Missing names are aggregated into a
// single error per query ("Missing parameter definitions: a, b"). Declared
// parameters that are never referenced are intentionally not an error.
func ValidateParams(query *teamquery.Query) []error {
	referenced := ExtractWildcards(query)
	for name := range ExtractConditionalBlocks(query.SQL) {
		referenced[name] = true
	}

	var missing []string

	for name := range referenced {
		if !query.HasParam(name) {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)

	return []error{fmt.Errorf("%w: %s", ErrMissingParameterDefinitions, strings.Join(missing, ", "))}
}

// ReplaceWildcards substitutes every :name occurrence with its literal
// value from params. Occurrences without a value are left untouched.
// This is a preview/debugging helper: values are spliced in verbatim with
// no escaping, so they must already be safe SQL literals.
func ReplaceWildcards(sql string, params map[string]string) string {
	var sb strings.Builder

	last := 0

	for _, ref := range scanWildcards(sql) {
		value, ok := params[ref.name]
		if !ok {
			continue
		}

		sb.WriteString(sql[last:ref.start])
		sb.WriteString(value)

		last = ref.end
	}

	sb.WriteString(sql[last:])

	return sb.String()
}

// BuildDynamicSQL keeps the fragment of every conditional block whose name
// is in provided and removes the others entirely, markers included. The
// result then goes through CleanupSQL so a hand-written WHERE 1=1 sentinel
// degrades gracefully when no optional filter survives.
func BuildDynamicSQL(sql string, provided map[string]bool) string {
	var sb strings.Builder

	for _, seg := range scanSegments(sql) {
		switch seg.kind {
		case literalSegment:
			sb.WriteString(seg.text)
		case conditionalSegment:
			if provided[seg.name] {
				sb.WriteString(seg.fragment)
			}
		}
	}

	return CleanupSQL(sb.String())
}

var (
	sentinelPattern = regexp.MustCompile(`(?i)WHERE\s+1\s*=\s*1`)
	andPattern      = regexp.MustCompile(`(?i)^AND\b`)
)

// CleanupSQL rewrites a lone WHERE 1=1 sentinel to WHERE TRUE. The
// sentinel stays untouched when an AND fragment directly follows it, so
// surviving conditional filters keep their anchor.
func CleanupSQL(sql string) string {
	var sb strings.Builder

	last := 0

	for _, loc := range sentinelPattern.FindAllStringIndex(sql, -1) {
		rest := strings.TrimLeft(sql[loc[1]:], " \t\r\n")

		sb.WriteString(sql[last:loc[0]])

		if andPattern.MatchString(rest) {
			sb.WriteString(sql[loc[0]:loc[1]])
		} else {
			sb.WriteString("WHERE TRUE")
		}

		last = loc[1]
	}

	sb.WriteString(sql[last:])

	return sb.String()
}

// PrepareQuery resolves a query's template into driver-ready SQL plus the
// canonical argument order. A nil provided set means "include every
// conditional block", the default generate-time behavior. Each distinct
// wildcard gets the next positional index ($1, $2, ...) in order of first
// appearance; repeated occurrences reuse their index. The returned names
// are the exact order callers must supply arguments in.
func PrepareQuery(query *teamquery.Query, provided map[string]bool) (string, []string) {
	sql := query.SQL

	if provided == nil {
		all := make(map[string]bool)
		for name := range ExtractConditionalBlocks(sql) {
			all[name] = true
		}

		sql = BuildDynamicSQL(sql, all)
	} else {
		sql = BuildDynamicSQL(sql, provided)
	}

	indexes := make(map[string]int)

	var (
		names []string
		sb    strings.Builder
	)

	last := 0

	for _, ref := range scanWildcards(sql) {
		idx, ok := indexes[ref.name]
		if !ok {
			names = append(names, ref.name)
			idx = len(names)
			indexes[ref.name] = idx
		}

		sb.WriteString(sql[last:ref.start])
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(idx))

		last = ref.end
	}

	sb.WriteString(sql[last:])

	return sb.String(), names
}
