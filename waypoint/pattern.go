// waypoint/pattern.go
package waypoint

import (
	"fmt"
	"regexp"
	"strings"
)

// trimmedConstraintChars are stripped from a constraint pattern before it is
// embedded into a compiled matcher. They mirror the sentinel characters a
// malformed `where()` call could otherwise smuggle into the generated regex.
const trimmedConstraintChars = "/~@;%`#"

// placeholderPattern finds `{name}` / `{?name}` placeholders inside an
// already regexp.QuoteMeta'd template. Because QuoteMeta escapes '{', '?' and
// '}' too, the placeholder markers show up backslash-escaped here.
var placeholderPattern = regexp.MustCompile(`\\\{(\\\?)?(\w+)\\\}`)

// Constraint restricts a named segment's value and may override whether the
// segment is required, independent of the template's own `?` marker.
type Constraint struct {
	Pattern  string
	Required *bool
}

// trimConstraintPattern strips the sentinel characters listed in the data
// model before a constraint's pattern is embedded into a compiled matcher.
func trimConstraintPattern(pattern string) string {
	return strings.Trim(pattern, trimmedConstraintChars)
}

// CompiledMatcher is the output of the pattern compiler: an anchored regular
// expression plus the ordered list of segment names as they appear in the
// template.
type CompiledMatcher struct {
	Source   string
	Regexp   *regexp.Regexp
	Segments []string
}

// CompileTemplate turns a RouteTemplate plus a constraint map into a
// CompiledMatcher. See SPEC_FULL.md §4.1 for the algorithm this follows.
func CompileTemplate(template string, constraints map[string]Constraint) (*CompiledMatcher, error) {
	quoted := regexp.QuoteMeta(template)
	locs := placeholderPattern.FindAllStringSubmatchIndex(quoted, -1)

	var body strings.Builder
	segments := make([]string, 0, len(locs))
	seen := make(map[string]bool, len(locs))
	cursor := 0

	for _, loc := range locs {
		start, end := loc[0], loc[1]
		literal := quoted[cursor:start]
		cursor = end

		optionalMarker := loc[2] != -1
		name := quoted[loc[4]:loc[5]]

		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate segment %q in template %q", ErrInvalidTemplate, name, template)
		}
		seen[name] = true
		segments = append(segments, name)

		pattern := `\w+`
		required := !optionalMarker
		if c, ok := constraints[name]; ok {
			if c.Pattern != "" {
				pattern = trimConstraintPattern(c.Pattern)
			}
			if c.Required != nil {
				required = *c.Required
			}
		}

		// An optional segment preceded by its own '/' separator must make
		// the separator optional too, or a bare path like "/search" (with
		// the segment entirely absent) fails to match. Fold the separator
		// into the non-capturing optional group rather than leaving it
		// mandatory outside the group.
		if !required && strings.HasSuffix(literal, `/`) {
			body.WriteString(literal[:len(literal)-1])
			fmt.Fprintf(&body, "(?:/(?P<%s>%s))?", name, pattern)
			continue
		}

		body.WriteString(literal)
		fmt.Fprintf(&body, "(?P<%s>%s)", name, pattern)
		if !required {
			body.WriteString("?")
		}
	}
	body.WriteString(quoted[cursor:])

	re, err := regexp.Compile("^" + body.String() + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	return &CompiledMatcher{
		Source:   template,
		Regexp:   re,
		Segments: segments,
	}, nil
}

// MatchResult is the outcome of applying a CompiledMatcher to a request
// path: a boolean, a mapping from segment name to captured string, and that
// mapping in the matcher's declaration order.
type MatchResult struct {
	Matched bool
	named   map[string]*string
	order   []string
}

// Match applies m against path, returning a MatchResult whose Values()
// preserve the segment declaration order recorded on m, not any sort order.
func (m *CompiledMatcher) Match(path string) MatchResult {
	idx := m.Regexp.FindStringSubmatchIndex(path)
	if idx == nil {
		return MatchResult{Matched: false}
	}

	groupForName := make(map[string]int, len(m.Segments))
	for i, n := range m.Regexp.SubexpNames() {
		if n != "" {
			groupForName[n] = i
		}
	}

	named := make(map[string]*string, len(m.Segments))
	for _, seg := range m.Segments {
		gi, ok := groupForName[seg]
		if !ok {
			named[seg] = nil
			continue
		}
		start, end := idx[2*gi], idx[2*gi+1]
		if start == -1 {
			named[seg] = nil
			continue
		}
		v := path[start:end]
		named[seg] = &v
	}

	return MatchResult{Matched: true, named: named, order: m.Segments}
}

// Named returns the captured value for name and whether the segment
// participated in the match (false for an absent optional segment).
func (r MatchResult) Named(name string) (string, bool) {
	v, ok := r.named[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Values returns the captured values in the matcher's declaration order.
// A nil entry marks an absent optional segment.
func (r MatchResult) Values() []*string {
	values := make([]*string, len(r.order))
	for i, name := range r.order {
		values[i] = r.named[name]
	}
	return values
}

// Names returns the segment names in declaration order.
func (r MatchResult) Names() []string {
	return r.order
}
