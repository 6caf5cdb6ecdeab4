package racf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		input    RenderInput
		expected string
	}{
		{
			name:     "empty",
			input:    RenderInput{},
			expected: "",
		},
		{
			name: "base fields",
			input: RenderInput{Edits: []AttributeEdit{
				SetEdit("NAME", "JOE SMITH"),
				SetEdit("OWNER", "SYS1"),
			}},
			expected: " NAME('JOE SMITH') OWNER(SYS1)",
		},
		{
			name: "segment fields are grouped",
			input: RenderInput{Edits: []AttributeEdit{
				SetEdit("TSO.SIZE", "4096"),
				SetEdit("OWNER", "SYS1"),
				SetEdit("tso.proc", "IKJACCNT"),
			}},
			expected: " TSO(SIZE(4096) PROC(IKJACCNT)) OWNER(SYS1)",
		},
		{
			name: "segment override",
			input: RenderInput{Edits: []AttributeEdit{
				{Name: "UID", Segment: "omvs", Value: ScalarValue("100")},
				SetEdit("OMVS.HOME", "/u/joe"),
			}},
			expected: " OMVS(UID(100) HOME('/u/joe'))",
		},
		{
			name: "deleted segment drops its edits",
			input: RenderInput{
				Edits:          []AttributeEdit{SetEdit("OMVS.UID", "1"), SetEdit("OWNER", "SYS1")},
				DeleteSegments: []string{"omvs", "OMVS"},
			},
			expected: " NOOMVS OWNER(SYS1)",
		},
		{
			name: "deleted fields",
			input: RenderInput{Edits: []AttributeEdit{
				DeleteEdit("DATA"),
				DeleteEdit("TSO.UNIT"),
			}},
			expected: " NODATA TSO(NOUNIT)",
		},
		{
			name: "list operand",
			input: RenderInput{Edits: []AttributeEdit{
				SetListEdit("CLAUTH", []string{"USER", "TERMINAL"}),
			}},
			expected: " CLAUTH(USER TERMINAL)",
		},
		{
			name: "list items are quoted individually",
			input: RenderInput{Edits: []AttributeEdit{
				SetListEdit("WHEN", []string{"DAYS(ANYDAY)", "TIME"}),
			}},
			expected: " WHEN('DAYS(ANYDAY)' TIME)",
		},
		{
			name: "flags follow segments",
			input: RenderInput{
				Edits: []AttributeEdit{SetEdit("TSO.PROC", "IKJACCNT")},
				Flags: Flags{
					Modifiers:  []string{"special", " ", "NOOPERATIONS"},
					Expired:    boolPtr(true),
					Enabled:    boolPtr(false),
					EnableDate: "12/31/25",
				},
			},
			expected: " TSO(PROC(IKJACCNT)) SPECIAL NOOPERATIONS EXPIRED REVOKE(12/31/25)",
		},
		{
			name:     "resume without date",
			input:    RenderInput{Flags: Flags{Enabled: boolPtr(true), Expired: boolPtr(false)}},
			expected: " NOEXPIRED RESUME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.input))
		})
	}
}

func TestRenderIsPure(t *testing.T) {
	in := RenderInput{Edits: []AttributeEdit{SetEdit("DATA", "IT'S MINE"), SetEdit("TSO.SIZE", "1")}}
	assert.Equal(t, Render(in), Render(in))
}

func TestQuote(t *testing.T) {
	tests := []struct {
		field    string
		value    string
		expected string
	}{
		{field: "OWNER", value: "SYS1", expected: "SYS1"},
		{field: "NAME", value: "JOE", expected: "'JOE'"},
		{field: "data", value: "X", expected: "'X'"},
		{field: "PROC", value: "A B", expected: "'A B'"},
		{field: "PROC", value: "A,B", expected: "'A,B'"},
		{field: "DATA", value: "IT'S", expected: "'IT''S'"},
		{field: "OWNER", value: "O'BRIEN", expected: "'O''BRIEN'"},
		{field: "UNIT", value: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.value, func(t *testing.T) {
			quoted := Quote(tt.field, tt.value)
			assert.Equal(t, tt.expected, quoted)
			assert.Equal(t, tt.value, Unquote(quoted))
		})
	}
}

func TestUnquoteBareToken(t *testing.T) {
	assert.Equal(t, "SYS1", Unquote("SYS1"))
	assert.Equal(t, "'", Unquote("'"))
	assert.Equal(t, "", Unquote("''"))
}

func TestFlagsIsZero(t *testing.T) {
	assert.True(t, Flags{}.IsZero())
	assert.True(t, Flags{EnableDate: "01/01/25"}.IsZero())
	assert.False(t, Flags{Modifiers: []string{"SPECIAL"}}.IsZero())
	assert.False(t, Flags{Expired: boolPtr(false)}.IsZero())
}
