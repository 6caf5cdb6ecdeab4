package types

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
)

// Ensure the implementation satisfies the expected interfaces.
var (
	_ basetypes.StringTypable                    = NameStringType{}
	_ basetypes.StringValuable                   = NameStringValue{}
	_ basetypes.StringValuableWithSemanticEquals = NameStringValue{}
)

// NameStringType is a custom string type for RACF profile names (user IDs
// and group names). The host folds names to upper case, so equality is
// case-insensitive.
type NameStringType struct {
	basetypes.StringType
}

// String returns a human readable string of the type name.
func (t NameStringType) String() string {
	return "NameStringType"
}

// ValueType returns the Value type.
func (t NameStringType) ValueType(ctx context.Context) attr.Value {
	return NameStringValue{}
}

// Equal returns true if the given type is equivalent.
func (t NameStringType) Equal(o attr.Type) bool {
	other, ok := o.(NameStringType)
	if !ok {
		return false
	}

	return t.StringType.Equal(other.StringType)
}

// ValueFromString returns a StringValuable type given a StringValue.
func (t NameStringType) ValueFromString(ctx context.Context, in basetypes.StringValue) (basetypes.StringValuable, diag.Diagnostics) {
	return NameStringValue{StringValue: in}, nil
}

// ValueFromTerraform returns a Value given a tftypes.Value.
func (t NameStringType) ValueFromTerraform(ctx context.Context, in tftypes.Value) (attr.Value, error) {
	attrValue, err := t.StringType.ValueFromTerraform(ctx, in)
	if err != nil {
		return nil, err
	}

	stringValue, ok := attrValue.(basetypes.StringValue)
	if !ok {
		return nil, fmt.Errorf("expected basetypes.StringValue, got: %T", attrValue)
	}

	stringValuable, diags := t.ValueFromString(ctx, stringValue)
	if diags.HasError() {
		return nil, fmt.Errorf("could not create NameStringValue: %v", diags.Errors())
	}

	return stringValuable, nil
}

// NameStringValue is a RACF name with case-insensitive semantic equality.
type NameStringValue struct {
	basetypes.StringValue
}

// Equal returns true if the given value is equivalent.
func (v NameStringValue) Equal(o attr.Value) bool {
	other, ok := o.(NameStringValue)
	if !ok {
		return false
	}

	return v.StringValue.Equal(other.StringValue)
}

// Type returns the type of the value.
func (v NameStringValue) Type(ctx context.Context) attr.Type {
	return NameStringType{}
}

// StringSemanticEquals compares names ignoring case and surrounding blanks.
func (v NameStringValue) StringSemanticEquals(ctx context.Context, newValuable basetypes.StringValuable) (bool, diag.Diagnostics) {
	var diags diag.Diagnostics

	newValue, ok := newValuable.(NameStringValue)
	if !ok {
		diags.AddError(
			"Semantic Equality Check Error",
			"An unexpected value type was received while attempting to perform semantic equality checks. "+
				"This is always an error in the provider. Please report the following to the provider developer:\n\n"+
				fmt.Sprintf("Expected NameStringValue, but got: %T", newValuable),
		)
		return false, diags
	}

	if v.IsNull() || v.IsUnknown() || newValue.IsNull() || newValue.IsUnknown() {
		return v.Equal(newValue), diags
	}

	return NormalizeName(v.ValueString()) == NormalizeName(newValue.ValueString()), diags
}

// NormalizeName returns the canonical host form of a RACF name.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NameString is a helper function to create a NameStringValue.
func NameString(value string) NameStringValue {
	return NameStringValue{
		StringValue: basetypes.NewStringValue(value),
	}
}

// NameStringNull is a helper function to create a null NameStringValue.
func NameStringNull() NameStringValue {
	return NameStringValue{
		StringValue: basetypes.NewStringNull(),
	}
}

// NameStringUnknown is a helper function to create an unknown NameStringValue.
func NameStringUnknown() NameStringValue {
	return NameStringValue{
		StringValue: basetypes.NewStringUnknown(),
	}
}
