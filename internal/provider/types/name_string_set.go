package types

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
)

// Ensure the implementation satisfies the expected interfaces.
var (
	_ basetypes.SetTypable                    = NameStringSetType{}
	_ basetypes.SetValuable                   = NameStringSetValue{}
	_ basetypes.SetValuableWithSemanticEquals = NameStringSetValue{}
)

// NameStringSetType is a custom set type for sets of RACF names that
// implements case-insensitive semantic equality.
type NameStringSetType struct {
	basetypes.SetType
}

// NewNameStringSetType creates a new NameStringSetType with proper element type initialization.
func NewNameStringSetType() NameStringSetType {
	return NameStringSetType{
		SetType: basetypes.SetType{
			ElemType: basetypes.StringType{},
		},
	}
}

// String returns a human readable string of the type name.
func (t NameStringSetType) String() string {
	return "NameStringSetType"
}

// ValueType returns the Value type.
func (t NameStringSetType) ValueType(ctx context.Context) attr.Value {
	return NameStringSetValue{}
}

// Equal returns true if the given type is equivalent.
func (t NameStringSetType) Equal(o attr.Type) bool {
	other, ok := o.(NameStringSetType)
	if !ok {
		return false
	}

	return t.SetType.Equal(other.SetType)
}

// ValueFromSet returns a SetValuable type given a SetValue.
func (t NameStringSetType) ValueFromSet(ctx context.Context, in basetypes.SetValue) (basetypes.SetValuable, diag.Diagnostics) {
	return NameStringSetValue{SetValue: in}, nil
}

// ValueFromTerraform returns a Value given a tftypes.Value.
func (t NameStringSetType) ValueFromTerraform(ctx context.Context, in tftypes.Value) (attr.Value, error) {
	attrValue, err := t.SetType.ValueFromTerraform(ctx, in)
	if err != nil {
		return nil, err
	}

	setValue, ok := attrValue.(basetypes.SetValue)
	if !ok {
		return nil, fmt.Errorf("expected basetypes.SetValue, got: %T", attrValue)
	}

	setValuable, diags := t.ValueFromSet(ctx, setValue)
	if diags.HasError() {
		return nil, fmt.Errorf("could not create NameStringSetValue: %v", diags.Errors())
	}

	return setValuable, nil
}

// NameStringSetValue is a set of RACF names with case-insensitive semantic equality.
type NameStringSetValue struct {
	basetypes.SetValue
}

// Equal returns true if the given value is equivalent.
func (v NameStringSetValue) Equal(o attr.Value) bool {
	other, ok := o.(NameStringSetValue)
	if !ok {
		return false
	}

	return v.SetValue.Equal(other.SetValue)
}

// Type returns the type of the value.
func (v NameStringSetValue) Type(ctx context.Context) attr.Type {
	return NewNameStringSetType()
}

// SetSemanticEquals compares the sets after normalizing every name.
func (v NameStringSetValue) SetSemanticEquals(ctx context.Context, newValuable basetypes.SetValuable) (bool, diag.Diagnostics) {
	var diags diag.Diagnostics

	newValue, ok := newValuable.(NameStringSetValue)
	if !ok {
		diags.AddError(
			"Semantic Equality Check Error",
			"An unexpected value type was received while attempting to perform semantic equality checks. "+
				"This is always an error in the provider. Please report the following to the provider developer:\n\n"+
				fmt.Sprintf("Expected NameStringSetValue, but got: %T", newValuable),
		)
		return false, diags
	}

	if v.IsNull() || v.IsUnknown() || newValue.IsNull() || newValue.IsUnknown() {
		return v.Equal(newValue), diags
	}

	var oldNames, newNames []string
	diags.Append(v.ElementsAs(ctx, &oldNames, false)...)
	diags.Append(newValue.ElementsAs(ctx, &newNames, false)...)
	if diags.HasError() {
		return false, diags
	}

	return sameNames(oldNames, newNames), diags
}

// sameNames reports whether a and b hold the same normalized names.
func sameNames(a, b []string) bool {
	left := make(map[string]bool, len(a))
	for _, n := range a {
		left[NormalizeName(n)] = true
	}
	right := make(map[string]bool, len(b))
	for _, n := range b {
		right[NormalizeName(n)] = true
	}

	if len(left) != len(right) {
		return false
	}
	for n := range left {
		if !right[n] {
			return false
		}
	}
	return true
}

// NameStringSet is a helper function to create a NameStringSetValue from a slice of strings.
func NameStringSet(ctx context.Context, elements []string) (NameStringSetValue, diag.Diagnostics) {
	attrValues := make([]attr.Value, len(elements))
	for i, element := range elements {
		attrValues[i] = basetypes.NewStringValue(element)
	}

	setValue, diags := basetypes.NewSetValue(basetypes.StringType{}, attrValues)
	if diags.HasError() {
		return NameStringSetValue{}, diags
	}

	return NameStringSetValue{SetValue: setValue}, diags
}

// NameStringSetNull is a helper function to create a null NameStringSetValue.
func NameStringSetNull() NameStringSetValue {
	return NameStringSetValue{
		SetValue: basetypes.NewSetNull(basetypes.StringType{}),
	}
}

// NameStringSetUnknown is a helper function to create an unknown NameStringSetValue.
func NameStringSetUnknown() NameStringSetValue {
	return NameStringSetValue{
		SetValue: basetypes.NewSetUnknown(basetypes.StringType{}),
	}
}
