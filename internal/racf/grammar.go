package racf

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// patternMatchTimeout bounds a single regular expression evaluation so a
// badly authored grammar cannot hang a command cycle.
const patternMatchTimeout = 10 * time.Second

// TransformKind identifies a rule post-processor.
type TransformKind string

const (
	// TransformSubstitute replaces every match of Pattern with Replacement.
	// Replacement may reference groups as $1 or ${name}.
	TransformSubstitute TransformKind = "substitute"

	// TransformSplit tokenises the value on Pattern, producing a list.
	TransformSplit TransformKind = "split"
)

// Transform is a post-processor applied to a rule's captured value.
type Transform struct {
	Kind        TransformKind
	Pattern     string
	Replacement string

	re *regexp2.Regexp
}

// SegmentRule maps one regular expression capture to an attribute.
type SegmentRule struct {
	Name       string
	Pattern    string
	Optional   bool
	Reset      bool // search the full text instead of what earlier rules left
	Transforms []Transform

	re *regexp2.Regexp
}

// SegmentKey identifies a grammar: the entity type and the output segment it parses.
type SegmentKey struct {
	Entity  string // USER or GROUP
	Segment string // RACF (base), TSO, OMVS, CICS, ...
}

// String renders the key as ENTITY.SEGMENT.
func (k SegmentKey) String() string {
	return k.Entity + "." + k.Segment
}

// ParseSegmentKey parses an ENTITY.SEGMENT key.
func ParseSegmentKey(s string) (SegmentKey, error) {
	entity, segment, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || entity == "" || segment == "" {
		return SegmentKey{}, fmt.Errorf("segment key %q must have the form ENTITY.SEGMENT", s)
	}
	return SegmentKey{Entity: strings.ToUpper(entity), Segment: strings.ToUpper(segment)}, nil
}

// Grammar is an ordered list of rules for one segment. It is immutable once
// built and safe for concurrent use.
type Grammar struct {
	Key   SegmentKey
	Rules []SegmentRule
}

// NewGrammar compiles rules into a grammar.
func NewGrammar(key SegmentKey, rules []SegmentRule) (*Grammar, error) {
	g := &Grammar{Key: key, Rules: make([]SegmentRule, len(rules))}

	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if strings.TrimSpace(rule.Name) == "" {
			return nil, fmt.Errorf("grammar %s: rule %d has no name", key, i)
		}
		if seen[strings.ToUpper(rule.Name)] {
			return nil, fmt.Errorf("grammar %s: duplicate rule %q", key, rule.Name)
		}
		seen[strings.ToUpper(rule.Name)] = true

		re, err := compilePattern(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("grammar %s: rule %q: %w", key, rule.Name, err)
		}
		rule.re = re

		transforms := make([]Transform, len(rule.Transforms))
		for j, t := range rule.Transforms {
			if t.Kind != TransformSubstitute && t.Kind != TransformSplit {
				return nil, fmt.Errorf("grammar %s: rule %q: unknown transform %q", key, rule.Name, t.Kind)
			}
			tre, err := compilePattern(t.Pattern)
			if err != nil {
				return nil, fmt.Errorf("grammar %s: rule %q transform %d: %w", key, rule.Name, j, err)
			}
			t.re = tre
			transforms[j] = t
		}
		rule.Transforms = transforms
		g.Rules[i] = rule
	}

	return g, nil
}

func compilePattern(pattern string) (*regexp2.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	re, err := regexp2.Compile(pattern, regexp2.Multiline)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = patternMatchTimeout
	return re, nil
}

// Apply runs every rule against text. It fails only when a required rule
// does not match.
func (g *Grammar) Apply(text string) (*Attributes, error) {
	attrs := NewAttributes()
	working := text

	for i := range g.Rules {
		rule := &g.Rules[i]
		if rule.Reset {
			working = text
		}

		m, err := rule.re.FindStringMatch(working)
		if err != nil {
			return nil, NewParseError("parse", fmt.Sprintf("grammar %s rule %s: %v", g.Key, rule.Name, err), text)
		}
		if m == nil {
			if rule.Optional {
				continue
			}
			return nil, NewParseError("parse", fmt.Sprintf("grammar %s: required rule %s did not match", g.Key, rule.Name), text)
		}

		raw := m.String()
		if m.GroupCount() > 1 {
			raw = m.GroupByNumber(1).String()
		}

		value, err := rule.apply(raw)
		if err != nil {
			return nil, NewParseError("parse", fmt.Sprintf("grammar %s rule %s: %v", g.Key, rule.Name, err), text)
		}
		attrs.Set(rule.Name, value)

		runes := []rune(working)
		working = string(runes[m.Index+m.Length:])
	}

	return attrs, nil
}

// apply runs the rule's transforms over a captured value.
func (r *SegmentRule) apply(raw string) (Value, error) {
	items := []string{raw}
	isList := false

	for _, t := range r.Transforms {
		next := make([]string, 0, len(items))
		for _, item := range items {
			switch t.Kind {
			case TransformSubstitute:
				replaced, err := t.re.Replace(item, t.Replacement, -1, -1)
				if err != nil {
					return Value{}, err
				}
				next = append(next, replaced)
			case TransformSplit:
				tokens, err := splitPattern(t.re, item)
				if err != nil {
					return Value{}, err
				}
				next = append(next, tokens...)
			}
		}
		if t.Kind == TransformSplit {
			isList = true
		}
		items = next
	}

	if isList {
		return ListValue(items), nil
	}
	return ScalarValue(items[0]), nil
}

// splitPattern tokenises s on re, dropping empty tokens.
func splitPattern(re *regexp2.Regexp, s string) ([]string, error) {
	runes := []rune(s)
	var tokens []string
	last := 0

	m, err := re.FindStringMatch(s)
	for m != nil && err == nil {
		if m.Length > 0 {
			tokens = append(tokens, string(runes[last:m.Index]))
			last = m.Index + m.Length
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	tokens = append(tokens, string(runes[last:]))

	out := tokens[:0]
	for _, tok := range tokens {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out, nil
}
