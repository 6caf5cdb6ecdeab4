package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/booldefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-racf/internal/provider/helpers"
	"github.com/isometry/terraform-provider-racf/internal/provider/planmodifiers"
	customtypes "github.com/isometry/terraform-provider-racf/internal/provider/types"
	"github.com/isometry/terraform-provider-racf/internal/provider/validators"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &GroupResource{}
var _ resource.ResourceWithImportState = &GroupResource{}

// NewGroupResource creates a new instance of the group resource.
func NewGroupResource() resource.Resource {
	return &GroupResource{}
}

// GroupResource defines the resource implementation.
type GroupResource struct {
	groups *racf.GroupManager
}

// GroupResourceModel describes the resource data model.
type GroupResourceModel struct {
	ID            types.String                   `tfsdk:"id"`             // group name (computed)
	Name          customtypes.NameStringValue    `tfsdk:"name"`           // Required
	SuperiorGroup customtypes.NameStringValue    `tfsdk:"superior_group"` // Optional+Computed - SUPGROUP
	Owner         customtypes.NameStringValue    `tfsdk:"owner"`          // Optional+Computed
	Data          types.String                   `tfsdk:"data"`           // Optional
	Model         types.String                   `tfsdk:"model"`          // Optional
	TermUACC      types.Bool                     `tfsdk:"term_uacc"`      // Optional+Computed+Default: true
	Segments      types.Map                      `tfsdk:"segments"`       // Optional
	Subgroups     customtypes.NameStringSetValue `tfsdk:"subgroups"`      // Computed
	Created       types.String                   `tfsdk:"created"`        // Computed
}

func (r *GroupResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group"
}

func (r *GroupResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		// This description is used by the documentation generator and the language server.
		MarkdownDescription: "Manages a RACF group with ADDGROUP, ALTGROUP and DELGROUP. Groups form a tree under their superior groups.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The group name in upper case.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "The group name: 1-8 alphanumeric or national characters, not starting with a digit. " +
					"Changing it forces a new group.",
				Required:   true,
				CustomType: customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("group"),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"superior_group": schema.StringAttribute{
				MarkdownDescription: "The superior group (`SUPGROUP`). Defaults to the current connect group of the logon user.",
				Optional:            true,
				Computed:            true,
				CustomType:          customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("group"),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"owner": schema.StringAttribute{
				MarkdownDescription: "The owning user or group. Defaults to `superior_group`.",
				Optional:            true,
				Computed:            true,
				CustomType:          customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("owner"),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
					planmodifiers.UseAttributeValue("superior_group"),
				},
			},
			"data": schema.StringAttribute{
				MarkdownDescription: "Installation data. Removed with `NODATA` when unset.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 255),
				},
			},
			"model": schema.StringAttribute{
				MarkdownDescription: "Model data set name. Removed with `NOMODEL` when unset.",
				Optional:            true,
			},
			"term_uacc": schema.BoolAttribute{
				MarkdownDescription: "Whether members may use terminals through the universal access of the TERMINAL class. Defaults to `true`.",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(true),
			},
			"segments": schema.MapAttribute{
				MarkdownDescription: "Non-base segments such as `OMVS`, keyed by segment name then field name. " +
					"Only the configured fields are compared on refresh.",
				Optional:    true,
				ElementType: types.MapType{ElemType: types.StringType},
			},
			"subgroups": schema.SetAttribute{
				MarkdownDescription: "Groups whose superior group is this group.",
				Computed:            true,
				CustomType:          customtypes.NewNameStringSetType(),
				ElementType:         types.StringType,
			},
			"created": schema.StringAttribute{
				MarkdownDescription: "Creation date (`YYYY-MM-DD`).",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *GroupResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*racf.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *racf.ProviderData, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	r.groups = providerData.Groups
}

func (r *GroupResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data GroupResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform plan data into the model
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	// Set up entry/exit logging
	start := time.Now()
	tflog.Debug(ctx, "Starting resource operation", map[string]any{
		"operation":      "create",
		"resource":       "racf_group",
		"name":           data.Name.ValueString(),
		"superior_group": data.SuperiorGroup.ValueString(),
	})
	defer logOperationResult(ctx, "create", "racf_group", start, &resp.Diagnostics)

	segments, diags := helpers.SegmentsFromTerraform(ctx, data.Segments)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	// Convert Terraform model to a create request
	createReq := &racf.CreateGroupRequest{
		Name:          data.Name.ValueString(),
		SuperiorGroup: knownString(data.SuperiorGroup.StringValue),
		Owner:         knownString(data.Owner.StringValue),
		Data:          data.Data.ValueString(),
		Model:         data.Model.ValueString(),
		Segments:      segments,
	}
	if !data.TermUACC.IsNull() && !data.TermUACC.IsUnknown() && !data.TermUACC.ValueBool() {
		termUACC := false
		createReq.TermUACC = &termUACC
	}

	group, err := r.groups.CreateGroup(ctx, createReq)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Creating Group",
			"Could not create group, unexpected error: "+err.Error(),
		)
		return
	}

	tflog.Debug(ctx, "Created RACF group", map[string]any{
		"group":          group.Name,
		"superior_group": group.SuperiorGroup,
	})

	resp.Diagnostics.Append(updateModelFromGroup(ctx, &data, group)...)

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data GroupResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	name := data.ID.ValueString()
	tflog.Debug(ctx, "Reading RACF group", map[string]any{
		"group": name,
	})

	group, err := r.groups.GetGroup(ctx, name, nil)
	if err != nil {
		if racf.IsNotFoundError(err) {
			tflog.Info(ctx, "Group no longer exists, removing from state", map[string]any{
				"group": name,
			})
			resp.State.RemoveResource(ctx)
			return
		}

		resp.Diagnostics.AddError(
			"Error Reading Group",
			fmt.Sprintf("Could not read group %s: %s", name, err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(updateModelFromGroup(ctx, &data, group)...)

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data, state GroupResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform plan and prior state into the models
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)

	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	tflog.Debug(ctx, "Starting resource operation", map[string]any{
		"operation": "update",
		"resource":  "racf_group",
		"name":      state.ID.ValueString(),
	})
	defer logOperationResult(ctx, "update", "racf_group", start, &resp.Diagnostics)

	updateReq, diags := buildGroupUpdateRequest(ctx, &data, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := state.ID.ValueString()
	group, err := r.groups.UpdateGroup(ctx, name, updateReq)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Updating Group",
			fmt.Sprintf("Could not update group %s: %s", name, err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(updateModelFromGroup(ctx, &data, group)...)

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data GroupResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "delete", "racf_group", start, &resp.Diagnostics)

	name := data.ID.ValueString()
	if err := r.groups.DeleteGroup(ctx, name); err != nil {
		if racf.IsNotFoundError(err) {
			tflog.Debug(ctx, "Group already deleted", map[string]any{"group": name})
			return
		}
		resp.Diagnostics.AddError(
			"Error Deleting Group",
			fmt.Sprintf("Could not delete group %s: %s", name, err.Error()),
		)
	}
}

func (r *GroupResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	name := strings.ToUpper(strings.TrimSpace(req.ID))
	if err := racf.ValidateName("group", name); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			"The import ID must be a RACF group name: "+err.Error(),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), name)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("name"), customtypes.NameString(name))...)
}

// buildGroupUpdateRequest compares plan and state.
func buildGroupUpdateRequest(ctx context.Context, plan, state *GroupResourceModel) (*racf.UpdateGroupRequest, diag.Diagnostics) {
	var diags diag.Diagnostics
	updateReq := &racf.UpdateGroupRequest{}

	if !plan.SuperiorGroup.IsUnknown() && !strings.EqualFold(plan.SuperiorGroup.ValueString(), state.SuperiorGroup.ValueString()) {
		v := plan.SuperiorGroup.ValueString()
		updateReq.SuperiorGroup = &v
	}
	if !plan.Owner.IsUnknown() && !strings.EqualFold(plan.Owner.ValueString(), state.Owner.ValueString()) {
		v := plan.Owner.ValueString()
		updateReq.Owner = &v
	}
	if !plan.Data.Equal(state.Data) {
		v := plan.Data.ValueString()
		updateReq.Data = &v
	}
	if !plan.Model.Equal(state.Model) {
		v := plan.Model.ValueString()
		updateReq.Model = &v
	}
	if !plan.TermUACC.IsUnknown() && !plan.TermUACC.Equal(state.TermUACC) {
		v := plan.TermUACC.ValueBool()
		updateReq.TermUACC = &v
	}
	if !plan.Segments.Equal(state.Segments) {
		planned, d := helpers.SegmentsFromTerraform(ctx, plan.Segments)
		diags.Append(d...)
		current, d := helpers.SegmentsFromTerraform(ctx, state.Segments)
		diags.Append(d...)
		updateReq.Segments, updateReq.DeleteSegments = helpers.DiffSegments(current, planned)
	}

	return updateReq, diags
}

// updateModelFromGroup copies host state into the model.
func updateModelFromGroup(ctx context.Context, data *GroupResourceModel, group *racf.Group) diag.Diagnostics {
	var diags diag.Diagnostics

	data.ID = types.StringValue(group.Name)
	if data.Name.IsNull() || data.Name.IsUnknown() {
		data.Name = customtypes.NameString(group.Name)
	}
	data.SuperiorGroup = customtypes.NameString(group.SuperiorGroup)
	data.Owner = customtypes.NameString(group.Owner)
	data.Data = preferConfigured(data.Data, group.Data)
	data.Model = preferConfigured(data.Model, group.Model)
	data.TermUACC = types.BoolValue(group.TermUACC)
	data.Created = helpers.DateValue(group.Created)

	subgroups, d := customtypes.NameStringSet(ctx, group.Subgroups)
	diags.Append(d...)
	data.Subgroups = subgroups

	configured, d := helpers.SegmentsFromTerraform(ctx, data.Segments)
	diags.Append(d...)
	data.Segments, d = helpers.SegmentsToTerraform(ctx, helpers.FilterSegments(group.Segments, configured))
	diags.Append(d...)

	return diags
}
