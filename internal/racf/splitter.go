package racf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// notFoundPhrases are fragments of host messages reporting that the
// addressed entity does not exist.
var notFoundPhrases = []string{
	"UNABLE TO LOCATE USER",
	"NAME NOT FOUND IN RACF DATA SET",
	"NOT DEFINED TO RACF",
	"INVALID USERID",
	"INVALID GROUP",
}

// noEntriesPhrase is printed by SEARCH when no profile matches the mask.
const noEntriesPhrase = "NO ENTRIES MEET SEARCH CRITERIA"

// IsNotFoundOutput reports whether text contains a not-found phrase.
func IsNotFoundOutput(text string) bool {
	upper := strings.ToUpper(text)
	for _, phrase := range notFoundPhrases {
		if strings.Contains(upper, phrase) {
			return true
		}
	}
	return false
}

// ClassifyOutput turns a command error into a NotFound error when its output
// carries a not-found phrase. Other errors are returned unchanged.
func ClassifyOutput(operation, target string, err error) error {
	if err == nil {
		return nil
	}
	if out := ErrorOutput(err); IsNotFoundOutput(out) {
		return NewNotFoundError(operation, target, out)
	}
	return err
}

// SegmentText is one slice of a split response.
type SegmentText struct {
	Text string
	// Present is false when the host printed NO <SEGMENT> INFORMATION.
	Present bool
}

// SplitResult maps each requested segment to its slice of a response.
type SplitResult struct {
	Base     string
	HasBase  bool
	Segments map[string]SegmentText
}

// Split slices a listing response into the base section and one substring
// per extra segment with a single composite pattern.
func Split(text string, basePresent bool, extra []string) (*SplitResult, error) {
	order := orderByAppearance(text, extra)

	var sb strings.Builder
	sb.WriteString(`(?s)\A`)
	if basePresent {
		sb.WriteString(`(.*?)`)
	} else {
		sb.WriteString(`.*?`)
	}
	for _, seg := range order {
		sb.WriteString(`^(NO )?`)
		sb.WriteString(regexp2.Escape(strings.ToUpper(seg)))
		sb.WriteString(` INFORMATION(.*?)`)
	}
	sb.WriteString(`\s*\z`)

	re, err := regexp2.Compile(sb.String(), regexp2.Multiline)
	if err != nil {
		return nil, fmt.Errorf("failed to build split pattern: %w", err)
	}
	re.MatchTimeout = patternMatchTimeout

	m, err := re.FindStringMatch(text)
	if err != nil {
		return nil, NewParseError("split", err.Error(), text)
	}
	if m == nil {
		if IsNotFoundOutput(text) {
			return nil, NewNotFoundError("split", "", text)
		}
		return nil, NewParseError("split", "response does not match the requested segments", text)
	}

	groups := m.Groups()
	result := &SplitResult{Segments: make(map[string]SegmentText, len(order))}
	next := 1
	if basePresent {
		result.Base = groups[next].String()
		result.HasBase = true
		next++
	}
	for _, seg := range order {
		suppressed := len(groups[next].Captures) > 0
		body := groups[next+1].String()
		next += 2
		if suppressed {
			result.Segments[strings.ToUpper(seg)] = SegmentText{Present: false}
			continue
		}
		result.Segments[strings.ToUpper(seg)] = SegmentText{Text: body, Present: true}
	}
	return result, nil
}

// orderByAppearance sorts segments by the position of their header in
// text. Segments without a header keep their relative order at the end.
func orderByAppearance(text string, segments []string) []string {
	out := make([]string, len(segments))
	copy(out, segments)

	pos := func(seg string) int {
		i := headerIndex(text, seg)
		if i < 0 {
			return len(text) + 1
		}
		return i
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pos(out[i]) < pos(out[j])
	})
	return out
}

// headerIndex returns the offset of the line holding the header of seg,
// printed as "SEG INFORMATION" or "NO SEG INFORMATION" at the start of a
// line, or -1.
func headerIndex(text, seg string) int {
	header := strings.ToUpper(seg) + " INFORMATION"
	for off := 0; off < len(text); {
		line := text[off:]
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		if strings.HasPrefix(line, header) || strings.HasPrefix(line, "NO "+header) {
			return off
		}
		off += len(line) + 1
	}
	return -1
}

// PrintedSegments returns the non-base segments of entity whose header,
// present or suppressed, starts a line of text.
func PrintedSegments(grammars *GrammarSet, entity, text string) []string {
	var out []string
	for _, seg := range grammars.Segments(entity) {
		if strings.EqualFold(seg, BaseSegment) {
			continue
		}
		if headerIndex(text, seg) >= 0 {
			out = append(out, seg)
		}
	}
	return out
}

// Listing is a parsed LISTUSER or LISTGRP response.
type Listing struct {
	Attributes *Attributes
	// Segments records which requested extra segments were present.
	Segments map[string]bool
}

// ParseListing splits text and applies the grammar of every present segment.
// Attribute names are SEGMENT.FIELD; base fields use the RACF prefix.
func ParseListing(grammars *GrammarSet, entity, text string, base bool, segments []string) (*Listing, error) {
	entity = strings.ToUpper(entity)

	split, err := Split(text, base, segments)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Attributes: NewAttributes(),
		Segments:   make(map[string]bool, len(segments)),
	}

	if split.HasBase {
		g, ok := grammars.Get(SegmentKey{Entity: entity, Segment: BaseSegment})
		if !ok {
			return nil, fmt.Errorf("no grammar for %s.%s", entity, BaseSegment)
		}
		attrs, err := g.Apply(split.Base)
		if err != nil {
			return nil, err
		}
		listing.Attributes.Merge(attrs, BaseSegment)
	}

	for _, seg := range segments {
		seg = strings.ToUpper(seg)
		slice := split.Segments[seg]
		listing.Segments[seg] = slice.Present
		if !slice.Present {
			continue
		}
		g, ok := grammars.Get(SegmentKey{Entity: entity, Segment: seg})
		if !ok {
			return nil, fmt.Errorf("no grammar for %s.%s", entity, seg)
		}
		attrs, err := g.Apply(slice.Text)
		if err != nil {
			return nil, err
		}
		listing.Attributes.Merge(attrs, seg)
	}

	return listing, nil
}
