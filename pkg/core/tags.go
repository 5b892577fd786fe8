package core

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// tagPattern matches a single tag token: '#' followed by letters, digits, '_' or '-'.
var tagPattern = regexp.MustCompile(`#[\p{L}\p{N}_-]+`)

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	spaceBeforeEOL  = regexp.MustCompile(` +\n`)
)

// IDGenerator returns a new globally unique identifier.
type IDGenerator func() string

// NewID is the default IDGenerator, backed by random (v4) UUIDs.
func NewID() string {
	return uuid.NewString()
}

// ExtractTags returns the distinct tags found in text, in order of first appearance.
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		tags = append(tags, m)
	}
	return tags
}

// IsTag reports whether s is exactly one tag token.
func IsTag(s string) bool {
	loc := tagPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// DeriveTags computes the tag set of a header title.
//
// If the title already carries tags they are returned with the title unchanged.
// Otherwise a fresh tag is synthesized from prefix and gen, appended to the title,
// and returned as the only tag. The result always holds at least one tag.
func DeriveTags(title, prefix string, gen IDGenerator) (string, []string) {
	if tags := ExtractTags(title); len(tags) > 0 {
		return title, tags
	}
	tag := synthesizeTag(prefix, gen)
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return tag, []string{tag}
	}
	return trimmed + " " + tag, []string{tag}
}

func synthesizeTag(prefix string, gen IDGenerator) string {
	if gen == nil {
		gen = NewID
	}
	p := sanitizeTagWord(strings.TrimPrefix(prefix, "#"))
	suffix := sanitizeTagWord(strings.ReplaceAll(gen(), "-", ""))
	if suffix == "" {
		suffix = strings.ReplaceAll(NewID(), "-", "")
	}
	return "#" + p + suffix
}

func sanitizeTagWord(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			return r
		}
		return -1
	}, s)
}

// RemoveTags deletes every occurrence of the given tags from text, each with at
// most one adjacent space or tab. The rest of the text is left untouched.
// Tokens are compared whole, so removing "#a" leaves "#ab" alone.
func RemoveTags(text string, tags []string) string {
	if len(tags) == 0 {
		return text
	}
	drop := toSet(tags)
	var sb strings.Builder
	last := 0
	for _, loc := range tagPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if _, ok := drop[text[start:end]]; !ok {
			continue
		}
		switch {
		case start > last && isBlank(text[start-1]):
			start--
		case end < len(text) && isBlank(text[end]):
			end++
		}
		sb.WriteString(text[last:start])
		last = end
	}
	if last == 0 {
		return text
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// AppendTags adds the tags that text does not already carry, at the end.
func AppendTags(text string, tags []string) string {
	have := toSet(ExtractTags(text))
	var missing []string
	for _, t := range tags {
		if _, ok := have[t]; ok {
			continue
		}
		have[t] = struct{}{}
		missing = append(missing, t)
	}
	if len(missing) == 0 {
		return text
	}
	base := strings.TrimRight(text, " \t")
	if base == "" || strings.HasSuffix(base, "\n") {
		return base + strings.Join(missing, " ")
	}
	return base + " " + strings.Join(missing, " ")
}

// DisplayText strips every tag from text for rendering. Stored text is never modified.
func DisplayText(text string) string {
	return tidy(tagPattern.ReplaceAllString(text, ""))
}

func tidy(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = spaceBeforeEOL.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// containsAll reports whether have includes every tag in want.
func containsAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := toSet(have)
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// unionTags merges tag lists, keeping first-appearance order.
func unionTags(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, t := range list {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// minusTags returns the tags of a that are not in b.
func minusTags(a, b []string) []string {
	drop := toSet(b)
	var out []string
	for _, t := range a {
		if _, ok := drop[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func sameTags(a, b []string) bool {
	return containsAll(a, b) && containsAll(b, a)
}
