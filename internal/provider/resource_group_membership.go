package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-racf/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-racf/internal/provider/types"
	"github.com/isometry/terraform-provider-racf/internal/provider/validators"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &GroupMembershipResource{}
var _ resource.ResourceWithImportState = &GroupMembershipResource{}

// groupAuthorities are the CONNECT group authorities, weakest first.
var groupAuthorities = []string{"USE", "CREATE", "CONNECT", "JOIN"}

func NewGroupMembershipResource() resource.Resource {
	return &GroupMembershipResource{}
}

// GroupMembershipResource defines the resource implementation.
type GroupMembershipResource struct {
	groups *racf.GroupManager
}

// GroupMembershipResourceModel describes the resource data model.
type GroupMembershipResourceModel struct {
	ID        types.String                   `tfsdk:"id"`        // Group name (same as group)
	Group     customtypes.NameStringValue    `tfsdk:"group"`     // Required
	Members   customtypes.NameStringSetValue `tfsdk:"members"`   // Required
	Authority types.String                   `tfsdk:"authority"` // Optional
}

func (r *GroupMembershipResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group_membership"
}

func (r *GroupMembershipResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages the complete set of users connected to a RACF group with CONNECT and REMOVE. " +
			"Users connected to the group but not listed in `members` are removed.\n\n" +
			"A user cannot be removed from its default group; RACF rejects the REMOVE and the apply fails.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The resource identifier, which is the group name in upper case.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"group": schema.StringAttribute{
				MarkdownDescription: "The group whose members are managed. Changing it forces a new resource.",
				Required:            true,
				CustomType:          customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("group"),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"members": schema.SetAttribute{
				MarkdownDescription: "User IDs connected to the group. Compared case-insensitively.",
				Required:            true,
				ElementType:         types.StringType,
				CustomType:          customtypes.NewNameStringSetType(),
				Validators: []validator.Set{
					validators.AllValidRACFNames("user"),
				},
			},
			"authority": schema.StringAttribute{
				MarkdownDescription: "Group authority given to every member: one of `USE`, `CREATE`, `CONNECT` or `JOIN`. " +
					"When unset, new members get the RACF default and existing authorities are left alone.",
				Optional: true,
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf(groupAuthorities...),
				},
			},
		},
	}
}

func (r *GroupMembershipResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *GroupMembershipResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	// Read Terraform plan data into the model
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "create", "racf_group_membership", start, &resp.Diagnostics)

	r.apply(ctx, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupMembershipResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := data.ID.ValueString()
	group, err := r.groups.GetGroup(ctx, name, &racf.ListingPlan{Base: true})
	if err != nil {
		if racf.IsNotFoundError(err) {
			tflog.Info(ctx, "Group no longer exists, removing membership from state", map[string]any{
				"group": name,
			})
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError(
			"Error Reading Group Membership",
			fmt.Sprintf("Could not read members of group %s: %s", name, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Read group members", map[string]any{
		"group":        group.Name,
		"member_count": len(group.Members),
	})

	members, diags := customtypes.NameStringSet(ctx, group.Members)
	resp.Diagnostics.Append(diags...)
	data.Members = members
	data.Authority = memberAuthority(data.Authority, group.MemberAuthorities)

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupMembershipResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	// Read Terraform plan data into the model
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "update", "racf_group_membership", start, &resp.Diagnostics)

	r.apply(ctx, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupMembershipResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "delete", "racf_group_membership", start, &resp.Diagnostics)

	name := data.ID.ValueString()
	if err := r.groups.SetGroupMembers(ctx, name, nil, ""); err != nil {
		if racf.IsNotFoundError(err) {
			tflog.Debug(ctx, "Group already deleted", map[string]any{"group": name})
			return
		}
		resp.Diagnostics.AddError(
			"Error Removing Group Members",
			fmt.Sprintf("Could not remove the members of group %s: %s", name, err.Error()),
		)
	}
}

func (r *GroupMembershipResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	name := strings.ToUpper(strings.TrimSpace(req.ID))
	if err := racf.ValidateName("group", name); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			"The import ID must be a RACF group name: "+err.Error(),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), name)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("group"), customtypes.NameString(name))...)
}

// apply connects and removes members so the host matches data.
func (r *GroupMembershipResource) apply(ctx context.Context, data *GroupMembershipResourceModel, diags *diag.Diagnostics) {
	members, d := helpers.StringSlice(ctx, data.Members.SetValue)
	diags.Append(d...)
	if diags.HasError() {
		return
	}

	name := data.Group.ValueString()
	auth := strings.ToUpper(knownString(data.Authority))
	tflog.Debug(ctx, "Setting group members", map[string]any{
		"group":        name,
		"member_count": len(members),
		"authority":    auth,
	})

	if err := r.groups.SetGroupMembers(ctx, name, members, auth); err != nil {
		diags.AddError(
			"Error Setting Group Members",
			fmt.Sprintf("Could not set the members of group %s: %s", name, err.Error()),
		)
		return
	}

	data.ID = types.StringValue(customtypes.NormalizeName(name))
}

// memberAuthority reports the configured authority while every member holds
// it, otherwise the authority the members share or MIXED. It stays null
// when no authority is configured.
func memberAuthority(configured types.String, authorities []string) types.String {
	if len(authorities) == 0 {
		return configured
	}
	common := strings.ToUpper(authorities[0])
	for _, a := range authorities[1:] {
		if !strings.EqualFold(a, common) {
			common = ""
			break
		}
	}
	switch {
	case configured.IsNull():
		return configured
	case strings.EqualFold(configured.ValueString(), common):
		return configured
	case common == "":
		return types.StringValue("MIXED")
	default:
		return types.StringValue(common)
	}
}
