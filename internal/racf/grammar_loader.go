package racf

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed grammars/default.yaml
var defaultGrammarDocument []byte

// grammarDocument is the serialized form of a grammar set. JSON documents
// decode through the same path since JSON is valid YAML.
type grammarDocument struct {
	Grammars []grammarRecord `mapstructure:"grammars"`
}

type grammarRecord struct {
	Key   string       `mapstructure:"key"`
	Rules []ruleRecord `mapstructure:"rules"`
}

type ruleRecord struct {
	Name       string            `mapstructure:"name"`
	Pattern    string            `mapstructure:"pattern"`
	Optional   bool              `mapstructure:"optional"`
	Reset      bool              `mapstructure:"reset"`
	Transforms []transformRecord `mapstructure:"transforms"`
}

type transformRecord struct {
	Type        string `mapstructure:"type"`
	Pattern     string `mapstructure:"pattern"`
	Replacement string `mapstructure:"replacement"`
}

// GrammarSet holds the grammars for every configured segment key.
type GrammarSet struct {
	grammars map[SegmentKey]*Grammar
	order    map[string][]string
}

// NewGrammarSet returns an empty set.
func NewGrammarSet() *GrammarSet {
	return &GrammarSet{
		grammars: make(map[SegmentKey]*Grammar),
		order:    make(map[string][]string),
	}
}

// Add registers a grammar. Keys must be unique.
func (s *GrammarSet) Add(g *Grammar) error {
	if _, exists := s.grammars[g.Key]; exists {
		return fmt.Errorf("duplicate grammar %s", g.Key)
	}
	s.grammars[g.Key] = g
	s.order[g.Key.Entity] = append(s.order[g.Key.Entity], g.Key.Segment)
	return nil
}

// Get returns the grammar for key.
func (s *GrammarSet) Get(key SegmentKey) (*Grammar, bool) {
	g, ok := s.grammars[key]
	return g, ok
}

// Segments returns the segments configured for entity in declaration order.
// Declaration order is also the order segments appear in command output.
func (s *GrammarSet) Segments(entity string) []string {
	segs := s.order[strings.ToUpper(entity)]
	out := make([]string, len(segs))
	copy(out, segs)
	return out
}

// Merge returns a new set holding the grammars of s with those of overlay
// replacing or extending them. New segments follow the existing ones.
func (s *GrammarSet) Merge(overlay *GrammarSet) *GrammarSet {
	out := NewGrammarSet()
	for entity, segs := range s.order {
		out.order[entity] = append([]string(nil), segs...)
	}
	maps.Copy(out.grammars, s.grammars)

	if overlay == nil {
		return out
	}
	for entity, segs := range overlay.order {
		for _, seg := range segs {
			key := SegmentKey{Entity: entity, Segment: seg}
			if _, exists := out.grammars[key]; !exists {
				out.order[entity] = append(out.order[entity], seg)
			}
			out.grammars[key] = overlay.grammars[key]
		}
	}
	return out
}

// Len returns the number of grammars.
func (s *GrammarSet) Len() int {
	return len(s.grammars)
}

// LoadGrammars decodes a YAML or JSON grammar document.
func LoadGrammars(data []byte) (*GrammarSet, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse grammar document: %w", err)
	}

	var doc grammarDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid grammar document: %w", err)
	}

	set := NewGrammarSet()
	for _, rec := range doc.Grammars {
		key, err := ParseSegmentKey(rec.Key)
		if err != nil {
			return nil, err
		}

		rules := make([]SegmentRule, 0, len(rec.Rules))
		for _, r := range rec.Rules {
			rule := SegmentRule{
				Name:     r.Name,
				Pattern:  r.Pattern,
				Optional: r.Optional,
				Reset:    r.Reset,
			}
			for _, t := range r.Transforms {
				rule.Transforms = append(rule.Transforms, Transform{
					Kind:        TransformKind(strings.ToLower(t.Type)),
					Pattern:     t.Pattern,
					Replacement: t.Replacement,
				})
			}
			rules = append(rules, rule)
		}

		g, err := NewGrammar(key, rules)
		if err != nil {
			return nil, err
		}
		if err := set.Add(g); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// LoadGrammarFile reads and decodes a grammar document from path.
func LoadGrammarFile(path string) (*GrammarSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar file: %w", err)
	}
	return LoadGrammars(data)
}

var (
	defaultGrammarsOnce sync.Once
	defaultGrammars     *GrammarSet
	defaultGrammarsErr  error
)

// DefaultGrammars returns the built-in grammars for LISTUSER and LISTGRP output.
func DefaultGrammars() (*GrammarSet, error) {
	defaultGrammarsOnce.Do(func() {
		defaultGrammars, defaultGrammarsErr = LoadGrammars(defaultGrammarDocument)
	})
	return defaultGrammars, defaultGrammarsErr
}
