package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Reserved tag namespaces. A well-formed tag set carries at most one tag per
// reserved namespace; everything else passes through the codec untouched.
const (
	NamespaceStatus   = "status"
	NamespaceSource   = "src"
	NamespaceCategory = "cat"
)

var (
	slugStripPattern = regexp.MustCompile(`[^a-z0-9 _-]+`)

	// asciiFold decomposes accented letters and drops the combining marks,
	// so "relógios" folds to "relogios" instead of losing the vowel.
	asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// ParsedTags is the structured view of a product's tag set. Reserved
// namespaces are surfaced as named fields; all remaining tags are kept
// verbatim in Plain, in their original order. Instances are produced only by
// DecodeTags so the single-value-per-namespace invariant always holds.
type ParsedTags struct {
	Status   string
	Source   string
	Category string
	Plain    []string
}

// DecodeTags parses a raw tag set into its structured form. It fails with a
// MalformedTagSet error when a reserved namespace appears more than once, or
// when a reserved tag carries an empty value. An empty value would decode
// into the same field state as an absent tag and then vanish on re-encoding,
// so it is rejected up front rather than silently dropped on write-back.
func DecodeTags(tags []string) (ParsedTags, error) {
	var parsed ParsedTags
	seen := make(map[string]bool, 3)

	for _, tag := range tags {
		prefix, value, found := strings.Cut(tag, ":")
		if !found {
			parsed.Plain = append(parsed.Plain, tag)
			continue
		}

		switch prefix {
		case NamespaceStatus, NamespaceSource, NamespaceCategory:
			if value == "" {
				return ParsedTags{}, NewEmptyReservedTagError(prefix)
			}
			if seen[prefix] {
				return ParsedTags{}, NewMalformedTagSetError(prefix)
			}
			seen[prefix] = true

			switch prefix {
			case NamespaceStatus:
				parsed.Status = value
			case NamespaceSource:
				parsed.Source = value
			case NamespaceCategory:
				parsed.Category = value
			}
		default:
			parsed.Plain = append(parsed.Plain, tag)
		}
	}

	return parsed, nil
}

// Encode serializes the structured form back into a flat tag set. Reserved
// tags come first in a fixed namespace order, followed by plain tags in their
// original order. Encode is the exact inverse of DecodeTags for any input
// DecodeTags accepts.
func (p ParsedTags) Encode() []string {
	tags := make([]string, 0, 3+len(p.Plain))
	if p.Status != "" {
		tags = append(tags, NamespaceStatus+":"+p.Status)
	}
	if p.Source != "" {
		tags = append(tags, NamespaceSource+":"+p.Source)
	}
	if p.Category != "" {
		tags = append(tags, NamespaceCategory+":"+p.Category)
	}
	return append(tags, p.Plain...)
}

// HasPlain reports whether the plain tag is already present.
func (p ParsedTags) HasPlain(tag string) bool {
	for _, t := range p.Plain {
		if t == tag {
			return true
		}
	}
	return false
}

// AddPlain appends a plain tag unless it is already present.
func (p *ParsedTags) AddPlain(tag string) {
	if tag == "" || p.HasPlain(tag) {
		return
	}
	p.Plain = append(p.Plain, tag)
}

// Slugify normalizes free-form supplier text into a tag-safe value:
// accents folded to ASCII, lowercase, punctuation stripped, whitespace
// collapsed to dashes.
func Slugify(s string) string {
	if folded, _, err := transform.String(asciiFold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripPattern.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	return strings.ReplaceAll(s, "_", "-")
}
