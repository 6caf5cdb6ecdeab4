package racf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrammar(t *testing.T, key string, rules ...SegmentRule) *Grammar {
	t.Helper()
	k, err := ParseSegmentKey(key)
	require.NoError(t, err)
	g, err := NewGrammar(k, rules)
	require.NoError(t, err)
	return g
}

func TestGrammarRoundTrip(t *testing.T) {
	g := mustGrammar(t, "USER.TSO",
		SegmentRule{Name: "ACCTNUM", Pattern: `^ ACCTNUM= *(.*?) *$`, Optional: true, Reset: true},
		SegmentRule{Name: "HOLDCLASS", Pattern: `^ HOLDCLASS= *(.*?) *$`, Optional: true, Reset: true},
	)

	attrs, err := g.Apply(" ACCTNUM= ACCT#\n HOLDCLASS= X\n")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"ACCTNUM": "ACCT#", "HOLDCLASS": "X"}, attrs.ToMap())
}

func TestGrammarIsIdempotent(t *testing.T) {
	g := mustGrammar(t, "USER.TSO",
		SegmentRule{Name: "ACCTNUM", Pattern: `^ ACCTNUM= *(.*?) *$`},
	)

	first, err := g.Apply(" ACCTNUM= A1\n")
	require.NoError(t, err)
	second, err := g.Apply(" ACCTNUM= A1\n")
	require.NoError(t, err)

	assert.Equal(t, first.ToMap(), second.ToMap())
}

func TestGrammarRequiredRuleMissing(t *testing.T) {
	g := mustGrammar(t, "USER.RACF",
		SegmentRule{Name: "USERID", Pattern: `^USER=(\S+)`},
	)

	_, err := g.Apply("NOTHING USEFUL")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "USERID")
	assert.Equal(t, "NOTHING USEFUL", ErrorOutput(err))
}

func TestGrammarOptionalRuleSkipped(t *testing.T) {
	g := mustGrammar(t, "USER.TSO",
		SegmentRule{Name: "PROC", Pattern: `^ PROC= *(\S+)`, Optional: true},
	)

	attrs, err := g.Apply(" SIZE= 1")
	require.NoError(t, err)
	assert.False(t, attrs.Has("PROC"))
	assert.Zero(t, attrs.Len())
}

func TestGrammarConsumesTextUnlessReset(t *testing.T) {
	text := "OWNER=FIRST\nOWNER=SECOND"

	consuming := mustGrammar(t, "GROUP.RACF",
		SegmentRule{Name: "A", Pattern: `OWNER=(\S+)`},
		SegmentRule{Name: "B", Pattern: `OWNER=(\S+)`},
	)
	attrs, err := consuming.Apply(text)
	require.NoError(t, err)
	assert.Equal(t, "FIRST", attrs.GetString("A"))
	assert.Equal(t, "SECOND", attrs.GetString("B"))

	resetting := mustGrammar(t, "GROUP.RACF",
		SegmentRule{Name: "A", Pattern: `OWNER=(\S+)`},
		SegmentRule{Name: "B", Pattern: `OWNER=(\S+)`, Reset: true},
	)
	attrs, err = resetting.Apply(text)
	require.NoError(t, err)
	assert.Equal(t, "FIRST", attrs.GetString("B"))
}

func TestGrammarLookaheadScopesField(t *testing.T) {
	g := mustGrammar(t, "USER.RACF",
		SegmentRule{Name: "NAME", Pattern: `NAME=(.*?)(?= +OWNER=)`},
		SegmentRule{Name: "OWNER", Pattern: `OWNER=(\S+)`},
	)

	attrs, err := g.Apply("USER=JOE  NAME=JOE Q. PUBLIC  OWNER=SYS1")
	require.NoError(t, err)
	assert.Equal(t, "JOE Q. PUBLIC", attrs.GetString("name"))
	assert.Equal(t, "SYS1", attrs.GetString("OWNER"))
}

func TestGrammarTransforms(t *testing.T) {
	tests := []struct {
		name       string
		transforms []Transform
		input      string
		want       Value
	}{
		{
			name:       "substitute sentinel",
			transforms: []Transform{{Kind: TransformSubstitute, Pattern: `^NONE SPECIFIED$`, Replacement: "NONE"}},
			input:      "LEVEL=NONE SPECIFIED",
			want:       ScalarValue("NONE"),
		},
		{
			name:       "substitute with group reference",
			transforms: []Transform{{Kind: TransformSubstitute, Pattern: `^0+(?=\d)`, Replacement: ""}},
			input:      "LEVEL=000042",
			want:       ScalarValue("42"),
		},
		{
			name:       "split drops empty tokens",
			transforms: []Transform{{Kind: TransformSplit, Pattern: `\s+`}},
			input:      "LEVEL=  SPECIAL   AUDITOR ",
			want:       ListValue([]string{"SPECIAL", "AUDITOR"}),
		},
		{
			name: "substitute after split applies per element",
			transforms: []Transform{
				{Kind: TransformSplit, Pattern: `,`},
				{Kind: TransformSubstitute, Pattern: `^(\w)\w*$`, Replacement: "$1"},
			},
			input: "LEVEL=ALPHA,BRAVO,CHARLIE",
			want:  ListValue([]string{"A", "B", "C"}),
		},
		{
			name:       "split of empty value is an empty list",
			transforms: []Transform{{Kind: TransformSplit, Pattern: `\s+`}},
			input:      "LEVEL=",
			want:       ListValue(nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGrammar(t, "USER.TEST", SegmentRule{
				Name:       "LEVEL",
				Pattern:    `^LEVEL=(.*?) *$`,
				Transforms: tt.transforms,
			})

			attrs, err := g.Apply(tt.input)
			require.NoError(t, err)

			got, ok := attrs.Get("LEVEL")
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %#v, want %#v", got, tt.want)
		})
	}
}

func TestNewGrammarValidation(t *testing.T) {
	key := SegmentKey{Entity: "USER", Segment: "TSO"}

	tests := []struct {
		name  string
		rules []SegmentRule
	}{
		{name: "empty name", rules: []SegmentRule{{Pattern: `x`}}},
		{name: "duplicate name", rules: []SegmentRule{{Name: "A", Pattern: `x`}, {Name: "a", Pattern: `y`}}},
		{name: "empty pattern", rules: []SegmentRule{{Name: "A"}}},
		{name: "bad pattern", rules: []SegmentRule{{Name: "A", Pattern: `(`}}},
		{name: "unknown transform", rules: []SegmentRule{{Name: "A", Pattern: `x`, Transforms: []Transform{{Kind: "upper", Pattern: `x`}}}}},
		{name: "bad transform pattern", rules: []SegmentRule{{Name: "A", Pattern: `x`, Transforms: []Transform{{Kind: TransformSplit, Pattern: `[`}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrammar(key, tt.rules)
			assert.Error(t, err)
		})
	}
}

func TestParseSegmentKey(t *testing.T) {
	k, err := ParseSegmentKey(" user.tso ")
	require.NoError(t, err)
	assert.Equal(t, SegmentKey{Entity: "USER", Segment: "TSO"}, k)
	assert.Equal(t, "USER.TSO", k.String())

	for _, bad := range []string{"", "USER", ".TSO", "USER."} {
		_, err := ParseSegmentKey(bad)
		assert.Error(t, err, bad)
	}
}
