package racf

import (
	"strings"
)

// BaseSegment is the pass-through segment whose fields are rendered without
// a wrapping SEGMENT(...) block.
const BaseSegment = "RACF"

// AlwaysQuoted lists keywords whose operands are quoted regardless of content.
var AlwaysQuoted = map[string]bool{
	"NAME":    true,
	"DATA":    true,
	"HOME":    true,
	"PROGRAM": true,
}

// quoteTriggers are the characters that force an operand to be quoted.
const quoteTriggers = "() ,;'"

// AttributeEdit is one attribute change to render. Name is SEGMENT.FIELD or,
// for the base segment, just FIELD.
type AttributeEdit struct {
	Name    string
	Segment string // overrides the prefix of Name when set
	Value   Value
	Delete  bool // emit NO<FIELD>
}

// SetEdit returns an edit assigning a scalar value.
func SetEdit(name, value string) AttributeEdit {
	return AttributeEdit{Name: name, Value: ScalarValue(value)}
}

// SetListEdit returns an edit assigning a list value.
func SetListEdit(name string, values []string) AttributeEdit {
	return AttributeEdit{Name: name, Value: ListValue(values)}
}

// DeleteEdit returns an edit removing a field.
func DeleteEdit(name string) AttributeEdit {
	return AttributeEdit{Name: name, Delete: true}
}

// segmentAndField splits an edit into its segment and field keyword.
func (e AttributeEdit) segmentAndField() (string, string) {
	seg, field, ok := strings.Cut(e.Name, ".")
	if !ok {
		field = seg
		seg = BaseSegment
	}
	if e.Segment != "" {
		seg = e.Segment
	}
	return strings.ToUpper(strings.TrimSpace(seg)), strings.ToUpper(strings.TrimSpace(field))
}

// Flags are top-level tokens appended after all segment blocks.
type Flags struct {
	Modifiers []string // bare keywords such as SPECIAL or NOOPERATIONS
	Expired   *bool    // EXPIRED or NOEXPIRED
	Enabled   *bool    // RESUME or REVOKE
	// EnableDate is the effective date for RESUME/REVOKE in mm/dd/yy form.
	EnableDate string
}

// IsZero reports whether no flag is set.
func (f Flags) IsZero() bool {
	return len(f.Modifiers) == 0 && f.Expired == nil && f.Enabled == nil
}

// RenderInput is the full input of Render.
type RenderInput struct {
	Edits          []AttributeEdit
	DeleteSegments []string
	Flags          Flags
}

// Render produces the operand suffix of a command (with a leading space when
// not empty). It performs no I/O.
func Render(in RenderInput) string {
	var sb strings.Builder

	deleted := make(map[string]bool, len(in.DeleteSegments))
	var segOrder []string
	for _, seg := range in.DeleteSegments {
		seg = strings.ToUpper(strings.TrimSpace(seg))
		if !deleted[seg] {
			deleted[seg] = true
			segOrder = append(segOrder, seg)
		}
	}

	bySegment := make(map[string][]AttributeEdit)
	for _, e := range in.Edits {
		seg, _ := e.segmentAndField()
		if _, seen := bySegment[seg]; !seen && !deleted[seg] {
			segOrder = append(segOrder, seg)
		}
		bySegment[seg] = append(bySegment[seg], e)
	}

	for _, seg := range segOrder {
		if deleted[seg] {
			sb.WriteString(" NO")
			sb.WriteString(seg)
			continue
		}

		fields := renderFields(bySegment[seg])
		if seg == BaseSegment {
			sb.WriteString(fields)
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(seg)
		sb.WriteString("(")
		sb.WriteString(strings.TrimPrefix(fields, " "))
		sb.WriteString(")")
	}

	sb.WriteString(renderFlags(in.Flags))
	return sb.String()
}

func renderFields(edits []AttributeEdit) string {
	var sb strings.Builder
	for _, e := range edits {
		_, field := e.segmentAndField()
		if e.Delete {
			sb.WriteString(" NO")
			sb.WriteString(field)
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(field)
		sb.WriteString("(")
		sb.WriteString(renderOperand(field, e.Value))
		sb.WriteString(")")
	}
	return sb.String()
}

func renderOperand(field string, v Value) string {
	if !v.IsList() {
		return Quote(field, v.String())
	}
	items := v.List()
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = Quote(field, item)
	}
	return strings.Join(quoted, " ")
}

func renderFlags(f Flags) string {
	var sb strings.Builder
	for _, m := range f.Modifiers {
		if m = strings.TrimSpace(m); m != "" {
			sb.WriteString(" ")
			sb.WriteString(strings.ToUpper(m))
		}
	}
	if f.Expired != nil {
		if *f.Expired {
			sb.WriteString(" EXPIRED")
		} else {
			sb.WriteString(" NOEXPIRED")
		}
	}
	if f.Enabled != nil {
		if *f.Enabled {
			sb.WriteString(" RESUME")
		} else {
			sb.WriteString(" REVOKE")
		}
		if f.EnableDate != "" {
			sb.WriteString("(")
			sb.WriteString(f.EnableDate)
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// Quote renders an operand value for keyword field.
func Quote(field, value string) string {
	if !AlwaysQuoted[strings.ToUpper(field)] && !strings.ContainsAny(value, quoteTriggers) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// Unquote reverses Quote.
func Unquote(token string) string {
	if len(token) < 2 || token[0] != '\'' || token[len(token)-1] != '\'' {
		return token
	}
	return strings.ReplaceAll(token[1:len(token)-1], "''", "'")
}
