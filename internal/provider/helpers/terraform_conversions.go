// Package helpers provides common utility functions for Terraform type conversions
// that are reused across resources and data sources.
package helpers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
)

// SegmentsType is the Terraform type of a segments attribute: segment name
// to field name to value.
var SegmentsType = types.MapType{ElemType: types.MapType{ElemType: types.StringType}}

// SegmentsFromTerraform converts a segments map into the client form. Keys
// keep the spelling of the configuration. Null and unknown values convert
// to nil.
func SegmentsFromTerraform(ctx context.Context, value types.Map) (map[string]map[string]string, diag.Diagnostics) {
	if value.IsNull() || value.IsUnknown() {
		return nil, nil
	}

	var result map[string]map[string]string
	diags := value.ElementsAs(ctx, &result, false)
	if diags.HasError() {
		return nil, diags
	}
	return result, diags
}

// SegmentsToTerraform converts client segments into a Terraform map. A nil
// map converts to null.
func SegmentsToTerraform(ctx context.Context, segments map[string]map[string]string) (types.Map, diag.Diagnostics) {
	if segments == nil {
		return types.MapNull(SegmentsType.ElemType), nil
	}
	return types.MapValueFrom(ctx, SegmentsType.ElemType, segments)
}

// FilterSegments keeps the segments and fields of current that appear in
// configured, using the key spelling of configured. Keys match
// case-insensitively, and a configured value that differs from the host
// value only in case is kept. Configured fields the host did not report are
// left out so that a plan shows them as drift.
func FilterSegments(current, configured map[string]map[string]string) map[string]map[string]string {
	if configured == nil {
		return nil
	}

	result := make(map[string]map[string]string, len(configured))
	for seg, fields := range configured {
		have, ok := lookupFold(current, seg)
		if !ok {
			continue
		}
		kept := make(map[string]string, len(fields))
		for field, want := range fields {
			v, ok := lookupFold(have, field)
			if !ok {
				continue
			}
			if strings.EqualFold(v, want) {
				v = want
			}
			kept[field] = v
		}
		result[seg] = kept
	}
	return result
}

// DiffSegments compares prior and planned segments. It returns the field
// edits to send, with "" deleting a field the plan dropped, and the
// segments the plan dropped entirely.
func DiffSegments(prior, planned map[string]map[string]string) (map[string]map[string]string, []string) {
	edits := make(map[string]map[string]string)
	var deleted []string

	for seg := range prior {
		if _, ok := lookupFold(planned, seg); !ok {
			deleted = append(deleted, strings.ToUpper(seg))
		}
	}
	sort.Strings(deleted)

	for seg, fields := range planned {
		old, _ := lookupFold(prior, seg)
		changes := make(map[string]string)
		for field, v := range fields {
			if was, ok := lookupFold(old, field); !ok || was != v {
				changes[strings.ToUpper(field)] = v
			}
		}
		for field := range old {
			if _, ok := lookupFold(fields, field); !ok {
				changes[strings.ToUpper(field)] = ""
			}
		}
		if len(changes) > 0 || old == nil {
			edits[strings.ToUpper(seg)] = changes
		}
	}

	return edits, deleted
}

// lookupFold finds key in m ignoring case.
func lookupFold[V any](m map[string]V, key string) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// StringSlice extracts the elements of a string set. Null and unknown sets
// yield nil.
func StringSlice(ctx context.Context, set basetypes.SetValue) ([]string, diag.Diagnostics) {
	if set.IsNull() || set.IsUnknown() {
		return nil, nil
	}
	var out []string
	diags := set.ElementsAs(ctx, &out, false)
	return out, diags
}

// StringMap extracts a map of strings. Null and unknown maps yield nil.
func StringMap(ctx context.Context, m types.Map) (map[string]string, diag.Diagnostics) {
	if m.IsNull() || m.IsUnknown() {
		return nil, nil
	}
	var out map[string]string
	diags := m.ElementsAs(ctx, &out, false)
	return out, diags
}

// UpperStrings returns a copy of values folded to upper case.
func UpperStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}

// StringValueOrNull returns null for the empty string.
func StringValueOrNull(s string) types.String {
	if s == "" {
		return types.StringNull()
	}
	return types.StringValue(s)
}

// DateValue renders t as YYYY-MM-DD, or null when t is nil.
func DateValue(t *time.Time) types.String {
	if t == nil {
		return types.StringNull()
	}
	return types.StringValue(t.Format(time.DateOnly))
}

// TimestampValue renders t in RFC 3339, or null when t is nil.
func TimestampValue(t *time.Time) types.String {
	if t == nil {
		return types.StringNull()
	}
	return types.StringValue(t.Format(time.RFC3339))
}

// AttributesToObject converts parsed listing attributes to an object with one
// attribute per name. String values become strings and list values become
// lists of strings.
func AttributesToObject(ctx context.Context, values map[string]any) (types.Object, diag.Diagnostics) {
	var diags diag.Diagnostics
	attrTypes := make(map[string]attr.Type, len(values))
	attrValues := make(map[string]attr.Value, len(values))

	for name, v := range values {
		switch v := v.(type) {
		case string:
			attrTypes[name] = types.StringType
			attrValues[name] = types.StringValue(v)
		case []string:
			list, d := types.ListValueFrom(ctx, types.StringType, v)
			diags.Append(d...)
			attrTypes[name] = types.ListType{ElemType: types.StringType}
			attrValues[name] = list
		default:
			diags.AddError("Unsupported Attribute Value", fmt.Sprintf("attribute %s has unsupported type %T", name, v))
		}
	}
	if diags.HasError() {
		return types.ObjectNull(attrTypes), diags
	}

	obj, d := types.ObjectValue(attrTypes, attrValues)
	diags.Append(d...)
	return obj, diags
}
