package planmodifiers

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// useAttributeValue implements the plan modifier.
type useAttributeValue struct {
	source string
}

// UseAttributeValue returns a plan modifier that plans the value of the
// source attribute when this attribute is neither configured nor known from
// state. It models host defaults such as ADDGROUP making the superior group
// the owner of a new group.
//
// Place it after UseStateForUnknown so that only new resources are affected.
func UseAttributeValue(source string) planmodifier.String {
	return useAttributeValue{source: source}
}

// Description returns a human-readable description of the plan modifier.
func (m useAttributeValue) Description(_ context.Context) string {
	return fmt.Sprintf("defaults to the value of %s when not explicitly configured", m.source)
}

// MarkdownDescription returns a markdown description of the plan modifier.
func (m useAttributeValue) MarkdownDescription(_ context.Context) string {
	return fmt.Sprintf("defaults to the value of `%s` when not explicitly configured", m.source)
}

// PlanModifyString implements the plan modification logic.
func (m useAttributeValue) PlanModifyString(ctx context.Context, req planmodifier.StringRequest, resp *planmodifier.StringResponse) {
	if !req.ConfigValue.IsNull() {
		return
	}

	// Already resolved, typically from state
	if !req.PlanValue.IsUnknown() {
		return
	}

	var source types.String
	resp.Diagnostics.Append(req.Plan.GetAttribute(ctx, path.Root(m.source), &source)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if source.IsUnknown() || source.IsNull() || source.ValueString() == "" {
		return
	}

	if err := racf.ValidateName("owner", source.ValueString()); err != nil {
		return
	}

	resp.PlanValue = types.StringValue(source.ValueString())
}
