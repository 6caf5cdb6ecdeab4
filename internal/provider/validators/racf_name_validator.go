package validators

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Ensure the implementation satisfies the expected interfaces.
var (
	_ validator.String = racfNameValidator{}
	_ validator.Set    = racfNameSetValidator{}
	_ validator.String = datasetNameValidator{}
)

// racfNameValidator validates that a string is a legal user ID or group name.
type racfNameValidator struct {
	kind string
}

// Description describes the validation in plain text.
func (v racfNameValidator) Description(_ context.Context) string {
	return fmt.Sprintf("value must be a valid RACF %s name (1-%d characters, alphanumeric or #$@, not starting with a digit)", v.kind, racf.MaxNameLength)
}

// MarkdownDescription describes the validation in Markdown.
func (v racfNameValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

// ValidateString performs the validation.
func (v racfNameValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if err := racf.ValidateName(v.kind, value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid RACF Name",
			fmt.Sprintf("The value %q is not a valid RACF %s name: %s", value, v.kind, err.Error()),
		)
	}
}

// IsValidRACFName returns a validator which ensures that any configured
// attribute value is a valid RACF name. kind ("user" or "group") appears
// in diagnostics.
//
// Unknown values and null values are skipped from validation.
func IsValidRACFName(kind string) validator.String {
	return racfNameValidator{kind: kind}
}

// racfNameSetValidator applies racfNameValidator to every set element.
type racfNameSetValidator struct {
	kind string
}

// Description describes the validation in plain text.
func (v racfNameSetValidator) Description(ctx context.Context) string {
	return "each element " + racfNameValidator(v).Description(ctx)
}

// MarkdownDescription describes the validation in Markdown.
func (v racfNameSetValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

// ValidateSet performs the validation.
func (v racfNameSetValidator) ValidateSet(ctx context.Context, request validator.SetRequest, response *validator.SetResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	var names []string
	response.Diagnostics.Append(request.ConfigValue.ElementsAs(ctx, &names, true)...)
	if response.Diagnostics.HasError() {
		return
	}

	for _, name := range names {
		if err := racf.ValidateName(v.kind, name); err != nil {
			response.Diagnostics.AddAttributeError(
				request.Path,
				"Invalid RACF Name",
				fmt.Sprintf("The value %q is not a valid RACF %s name: %s", name, v.kind, err.Error()),
			)
		}
	}
}

// AllValidRACFNames returns a set validator which checks every element with
// IsValidRACFName.
func AllValidRACFNames(kind string) validator.Set {
	return racfNameSetValidator{kind: kind}
}

// datasetNameValidator validates catalog and alias names.
type datasetNameValidator struct{}

// Description describes the validation in plain text.
func (v datasetNameValidator) Description(_ context.Context) string {
	return "value must be a valid data set name (qualifiers of 1-8 characters separated by periods)"
}

// MarkdownDescription describes the validation in Markdown.
func (v datasetNameValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

// ValidateString performs the validation.
func (v datasetNameValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if err := racf.ValidateDatasetName(value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Data Set Name",
			fmt.Sprintf("The value %q is not a valid data set name: %s", value, err.Error()),
		)
	}
}

// IsValidDatasetName returns a validator for catalog and alias names.
func IsValidDatasetName() validator.String {
	return datasetNameValidator{}
}
