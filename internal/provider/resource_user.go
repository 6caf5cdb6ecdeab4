package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/boolvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/setvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/booldefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/boolplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/setplanmodifier"
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
var _ resource.Resource = &UserResource{}
var _ resource.ResourceWithImportState = &UserResource{}

// userAttributeKeywords are the user attributes managed through the
// attributes set. REVOKED is managed through enabled.
var userAttributeKeywords = []string{
	"SPECIAL", "OPERATIONS", "AUDITOR", "ROAUDIT", "CLAUTH",
	"ADSP", "GRPACC", "OIDCARD", "UAUDIT", "RESTRICTED",
}

// NewUserResource creates a new instance of the user resource.
func NewUserResource() resource.Resource {
	return &UserResource{}
}

// UserResource defines the resource implementation.
type UserResource struct {
	users *racf.UserManager
}

// UserResourceModel describes the resource data model.
type UserResourceModel struct {
	ID           types.String                `tfsdk:"id"`            // user ID (computed)
	Name         customtypes.NameStringValue `tfsdk:"name"`          // Required
	FullName     types.String                `tfsdk:"full_name"`     // NAME
	Owner        customtypes.NameStringValue `tfsdk:"owner"`         // Optional+Computed
	DefaultGroup customtypes.NameStringValue `tfsdk:"default_group"` // Optional+Computed - DFLTGRP
	Data         types.String                `tfsdk:"data"`
	Model        types.String                `tfsdk:"model"`

	Password types.String `tfsdk:"password"` // Sensitive, never read back
	Expired  types.Bool   `tfsdk:"expired"`

	Attributes customtypes.NameStringSetValue `tfsdk:"attributes"`
	Enabled    types.Bool                     `tfsdk:"enabled"`
	EnableDate types.String                   `tfsdk:"enable_date"`

	Groups      customtypes.NameStringSetValue `tfsdk:"groups"`
	GroupOwners types.Map                      `tfsdk:"group_owners"`

	Segments types.Map `tfsdk:"segments"`

	CatalogAlias  types.String `tfsdk:"catalog_alias"`
	MasterCatalog types.String `tfsdk:"master_catalog"`
	UserCatalog   types.String `tfsdk:"user_catalog"`

	// Computed attributes
	Created      types.String `tfsdk:"created"`
	PasswordDate types.String `tfsdk:"password_date"`
	LastAccess   types.String `tfsdk:"last_access"`
	RevokeDate   types.String `tfsdk:"revoke_date"`
	ResumeDate   types.String `tfsdk:"resume_date"`
}

func (r *UserResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_user"
}

func (r *UserResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		// This description is used by the documentation generator and the language server.
		MarkdownDescription: "Manages a RACF user profile with ADDUSER, ALTUSER and DELUSER, including segments, " +
			"password, revoke state, group connections and an optional user catalog alias.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The user ID in upper case.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "The user ID: 1-8 alphanumeric or national (`#`, `$`, `@`) characters, not starting with a digit. " +
					"Compared case-insensitively. Changing it forces a new user.",
				Required:   true,
				CustomType: customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("user"),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"full_name": schema.StringAttribute{
				MarkdownDescription: "The programmer name (`NAME` operand). At most 20 characters.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 20),
				},
			},
			"owner": schema.StringAttribute{
				MarkdownDescription: "The owning user or group. Defaults to the provider logon user on the host.",
				Optional:            true,
				Computed:            true,
				CustomType:          customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("owner"),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"default_group": schema.StringAttribute{
				MarkdownDescription: "The default group (`DFLTGRP`). Defaults to the current connect group of the logon user.",
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
			"password": schema.StringAttribute{
				MarkdownDescription: "Logon password. It is sent only inside wiped command buffers and is never read back.",
				Optional:            true,
				Sensitive:           true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 8),
				},
			},
			"expired": schema.BoolAttribute{
				MarkdownDescription: "Whether the password is expired, so it must be changed at next logon. " +
					"Applies when `password` is set and defaults to `true` there.",
				Optional: true,
				Computed: true,
				Validators: []validator.Bool{
					boolvalidator.AlsoRequires(path.MatchRoot("password")),
				},
				PlanModifiers: []planmodifier.Bool{
					boolplanmodifier.UseStateForUnknown(),
				},
			},
			"attributes": schema.SetAttribute{
				MarkdownDescription: "User attributes such as `SPECIAL`, `OPERATIONS` and `AUDITOR`. Compared case-insensitively.",
				Optional:            true,
				Computed:            true,
				CustomType:          customtypes.NewNameStringSetType(),
				ElementType:         types.StringType,
				Validators: []validator.Set{
					setvalidator.ValueStringsAre(validators.CaseInsensitiveOneOf(userAttributeKeywords...)),
				},
				PlanModifiers: []planmodifier.Set{
					setplanmodifier.UseStateForUnknown(),
				},
			},
			"enabled": schema.BoolAttribute{
				MarkdownDescription: "Whether the user may log on. `false` revokes the user, `true` resumes it. Defaults to `true`.",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(true),
			},
			"enable_date": schema.StringAttribute{
				MarkdownDescription: "Date (`YYYY-MM-DD`) on which the `enabled` state takes effect, sent as `REVOKE(date)` or `RESUME(date)`. " +
					"Requires `enabled` to be set explicitly.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.AlsoRequires(path.MatchRoot("enabled")),
				},
			},
			"groups": schema.SetAttribute{
				MarkdownDescription: "Groups the user is connected to in addition to the default group. When set, connections are " +
					"made authoritative: missing ones are added with `CONNECT` and extra ones removed with `REMOVE`.",
				Optional:    true,
				Computed:    true,
				CustomType:  customtypes.NewNameStringSetType(),
				ElementType: types.StringType,
				Validators: []validator.Set{
					validators.AllValidRACFNames("group"),
				},
				PlanModifiers: []planmodifier.Set{
					setplanmodifier.UseStateForUnknown(),
				},
			},
			"group_owners": schema.MapAttribute{
				MarkdownDescription: "Connect owner per group in `groups`, keyed by group name.",
				Optional:            true,
				ElementType:         types.StringType,
			},
			"segments": schema.MapAttribute{
				MarkdownDescription: "Non-base segments, keyed by segment name (`TSO`, `OMVS`, `CICS`, ...) then field name. " +
					"Only the configured fields are compared on refresh. A field removed from configuration is deleted " +
					"with `NO<FIELD>`, a removed segment with `NO<SEGMENT>`.",
				Optional:    true,
				ElementType: types.MapType{ElemType: types.StringType},
			},
			"catalog_alias": schema.StringAttribute{
				MarkdownDescription: "Alias defined in the master catalog for the user's data sets. Requires `master_catalog` and `user_catalog`.",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidDatasetName(),
					stringvalidator.AlsoRequires(path.MatchRoot("master_catalog"), path.MatchRoot("user_catalog")),
				},
			},
			"master_catalog": schema.StringAttribute{
				MarkdownDescription: "Master catalog in which the alias is defined.",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidDatasetName(),
					stringvalidator.AlsoRequires(path.MatchRoot("catalog_alias"), path.MatchRoot("user_catalog")),
				},
			},
			"user_catalog": schema.StringAttribute{
				MarkdownDescription: "User catalog the alias relates to.",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidDatasetName(),
					stringvalidator.AlsoRequires(path.MatchRoot("catalog_alias"), path.MatchRoot("master_catalog")),
				},
			},
			"created": schema.StringAttribute{
				MarkdownDescription: "Creation date (`YYYY-MM-DD`).",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"password_date": schema.StringAttribute{
				MarkdownDescription: "Date the password was last changed.",
				Computed:            true,
			},
			"last_access": schema.StringAttribute{
				MarkdownDescription: "Time of the last logon (RFC 3339).",
				Computed:            true,
			},
			"revoke_date": schema.StringAttribute{
				MarkdownDescription: "Pending revoke date.",
				Computed:            true,
			},
			"resume_date": schema.StringAttribute{
				MarkdownDescription: "Pending resume date.",
				Computed:            true,
			},
		},
	}
}

func (r *UserResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

	r.users = providerData.Users
}

func (r *UserResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data UserResourceModel

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
		"operation": "create",
		"resource":  "racf_user",
		"name":      data.Name.ValueString(),
	})
	defer logOperationResult(ctx, "create", "racf_user", start, &resp.Diagnostics)

	createReq, diags := r.buildCreateRequest(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	user, err := r.users.CreateUser(ctx, createReq)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Creating User",
			"Could not create user, unexpected error: "+err.Error(),
		)
		return
	}

	tflog.Debug(ctx, "Created RACF user", map[string]any{
		"user":          user.Name,
		"default_group": user.DefaultGroup,
	})

	resp.Diagnostics.Append(r.updateModelFromUser(ctx, &data, user)...)

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *UserResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data UserResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	name := data.Name.ValueString()
	if name == "" {
		name = data.ID.ValueString()
	}

	tflog.Debug(ctx, "Reading RACF user", map[string]any{
		"user": name,
	})

	user, err := r.users.GetUser(ctx, name, nil)
	if err != nil {
		if racf.IsNotFoundError(err) {
			tflog.Info(ctx, "User no longer exists, removing from state", map[string]any{
				"user": name,
			})
			resp.State.RemoveResource(ctx)
			return
		}

		resp.Diagnostics.AddError(
			"Error Reading User",
			fmt.Sprintf("Could not read user %s: %s", name, err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(r.updateModelFromUser(ctx, &data, user)...)

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *UserResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data, state UserResourceModel

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
		"resource":  "racf_user",
		"name":      state.ID.ValueString(),
	})
	defer logOperationResult(ctx, "update", "racf_user", start, &resp.Diagnostics)

	updateReq, hasChanges, diags := r.buildUpdateRequest(ctx, &data, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := state.ID.ValueString()

	var user *racf.User
	var err error
	if hasChanges {
		user, err = r.users.UpdateUser(ctx, name, updateReq)
	} else {
		tflog.Debug(ctx, "No host changes detected", map[string]any{"user": name})
		user, err = r.users.GetUser(ctx, name, nil)
	}
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Updating User",
			fmt.Sprintf("Could not update user %s: %s", name, err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(r.updateModelFromUser(ctx, &data, user)...)

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *UserResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data UserResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "delete", "racf_user", start, &resp.Diagnostics)

	name := data.ID.ValueString()
	if err := r.users.DeleteUser(ctx, name); err != nil {
		if racf.IsNotFoundError(err) {
			tflog.Debug(ctx, "User already deleted", map[string]any{"user": name})
			return
		}
		resp.Diagnostics.AddError(
			"Error Deleting User",
			fmt.Sprintf("Could not delete user %s: %s", name, err.Error()),
		)
	}
}

func (r *UserResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	name := strings.ToUpper(strings.TrimSpace(req.ID))
	if err := racf.ValidateName("user", name); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			"The import ID must be a RACF user ID: "+err.Error(),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), name)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("name"), customtypes.NameString(name))...)
}

// buildCreateRequest converts the planned model to a create request.
func (r *UserResource) buildCreateRequest(ctx context.Context, data *UserResourceModel) (*racf.CreateUserRequest, diag.Diagnostics) {
	var diags diag.Diagnostics

	createReq := &racf.CreateUserRequest{
		Name:         data.Name.ValueString(),
		FullName:     data.FullName.ValueString(),
		Owner:        knownString(data.Owner.StringValue),
		DefaultGroup: knownString(data.DefaultGroup.StringValue),
		Data:         data.Data.ValueString(),
		Model:        data.Model.ValueString(),
		Catalog: racf.CatalogAlias{
			Alias:         data.CatalogAlias.ValueString(),
			MasterCatalog: data.MasterCatalog.ValueString(),
			UserCatalog:   data.UserCatalog.ValueString(),
		},
	}

	if !data.Password.IsNull() && data.Password.ValueString() != "" {
		createReq.Password = []byte(data.Password.ValueString())
		createReq.Expired = data.Expired.IsNull() || data.Expired.IsUnknown() || data.Expired.ValueBool()
	}

	attrs, d := helpers.StringSlice(ctx, data.Attributes.SetValue)
	diags.Append(d...)
	createReq.Attributes = helpers.UpperStrings(attrs)

	if !data.Enabled.IsNull() && !data.Enabled.IsUnknown() {
		enabled := data.Enabled.ValueBool()
		createReq.Enabled = &enabled
	}
	createReq.EnableDate, d = parseEnableDate(data.EnableDate)
	diags.Append(d...)

	createReq.Groups, createReq.GroupOwners, d = groupConnections(ctx, data.Groups, data.GroupOwners)
	diags.Append(d...)

	createReq.Segments, d = helpers.SegmentsFromTerraform(ctx, data.Segments)
	diags.Append(d...)

	return createReq, diags
}

// buildUpdateRequest compares plan and state. It reports whether anything
// needs to be sent to the host.
func (r *UserResource) buildUpdateRequest(ctx context.Context, plan, state *UserResourceModel) (*racf.UpdateUserRequest, bool, diag.Diagnostics) {
	var diags diag.Diagnostics
	updateReq := &racf.UpdateUserRequest{}
	hasChanges := false

	changedString := func(p, s types.String, dst **string) {
		if p.IsUnknown() || p.Equal(s) {
			return
		}
		v := p.ValueString()
		*dst = &v
		hasChanges = true
	}
	changedName := func(p, s customtypes.NameStringValue, dst **string) {
		if p.IsUnknown() || p.IsNull() || strings.EqualFold(p.ValueString(), s.ValueString()) {
			return
		}
		v := p.ValueString()
		*dst = &v
		hasChanges = true
	}

	changedString(plan.FullName, state.FullName, &updateReq.FullName)
	changedName(plan.Owner, state.Owner, &updateReq.Owner)
	changedName(plan.DefaultGroup, state.DefaultGroup, &updateReq.DefaultGroup)
	changedString(plan.Data, state.Data, &updateReq.Data)
	changedString(plan.Model, state.Model, &updateReq.Model)

	// Password and expiry travel together
	passwordChanged := !plan.Password.Equal(state.Password)
	expiredChanged := !plan.Expired.IsUnknown() && !plan.Expired.Equal(state.Expired)
	if (passwordChanged || expiredChanged) && !plan.Password.IsNull() && plan.Password.ValueString() != "" {
		updateReq.Password = []byte(plan.Password.ValueString())
		expired := plan.Expired.IsNull() || plan.Expired.IsUnknown() || plan.Expired.ValueBool()
		updateReq.Expired = &expired
		hasChanges = true
	}

	// Attributes
	if !plan.Attributes.IsUnknown() {
		planned, d := helpers.StringSlice(ctx, plan.Attributes.SetValue)
		diags.Append(d...)
		current, d := helpers.StringSlice(ctx, state.Attributes.SetValue)
		diags.Append(d...)
		updateReq.AddAttributes, updateReq.RemoveAttributes = diffNames(current, planned)
		if len(updateReq.AddAttributes) > 0 || len(updateReq.RemoveAttributes) > 0 {
			hasChanges = true
		}
	}

	// Revoke state
	if !plan.Enabled.Equal(state.Enabled) || !plan.EnableDate.Equal(state.EnableDate) {
		enabled := plan.Enabled.ValueBool()
		updateReq.Enabled = &enabled
		var d diag.Diagnostics
		updateReq.EnableDate, d = parseEnableDate(plan.EnableDate)
		diags.Append(d...)
		hasChanges = true
	}

	// Group connections
	groupsChanged := !plan.Groups.IsUnknown() && !plan.Groups.IsNull()
	if groupsChanged {
		equal, d := plan.Groups.SetSemanticEquals(ctx, state.Groups)
		diags.Append(d...)
		groupsChanged = !equal || !plan.GroupOwners.Equal(state.GroupOwners)
	}
	if groupsChanged {
		groups, owners, d := groupConnections(ctx, plan.Groups, plan.GroupOwners)
		diags.Append(d...)
		updateReq.Groups = &racf.GroupConnections{Groups: groups, Owners: owners}
		hasChanges = true
	}

	// Segments
	if !plan.Segments.Equal(state.Segments) {
		planned, d := helpers.SegmentsFromTerraform(ctx, plan.Segments)
		diags.Append(d...)
		current, d := helpers.SegmentsFromTerraform(ctx, state.Segments)
		diags.Append(d...)
		updateReq.Segments, updateReq.DeleteSegments = helpers.DiffSegments(current, planned)
		if len(updateReq.Segments) > 0 || len(updateReq.DeleteSegments) > 0 {
			hasChanges = true
		}
	}

	// Catalog alias, defined again when any part changes
	if !plan.CatalogAlias.Equal(state.CatalogAlias) || !plan.MasterCatalog.Equal(state.MasterCatalog) ||
		!plan.UserCatalog.Equal(state.UserCatalog) {
		alias := racf.CatalogAlias{
			Alias:         plan.CatalogAlias.ValueString(),
			MasterCatalog: plan.MasterCatalog.ValueString(),
			UserCatalog:   plan.UserCatalog.ValueString(),
		}
		if alias.IsSet() {
			updateReq.Catalog = &alias
			hasChanges = true
		}
	}

	return updateReq, hasChanges, diags
}

// updateModelFromUser copies host state into the model. Inputs that cannot
// be read back (password, catalog alias, enable date, group owners) keep
// their planned values.
func (r *UserResource) updateModelFromUser(ctx context.Context, data *UserResourceModel, user *racf.User) diag.Diagnostics {
	var diags diag.Diagnostics

	data.ID = types.StringValue(user.Name)
	if data.Name.IsNull() || data.Name.IsUnknown() {
		data.Name = customtypes.NameString(user.Name)
	}
	data.FullName = preferConfigured(data.FullName, user.FullName)
	data.Owner = customtypes.NameString(user.Owner)
	data.DefaultGroup = customtypes.NameString(user.DefaultGroup)
	data.Data = preferConfigured(data.Data, user.Data)
	data.Model = preferConfigured(data.Model, user.Model)
	data.Enabled = types.BoolValue(user.Enabled)

	if !data.Password.IsNull() || data.Expired.IsUnknown() {
		data.Expired = types.BoolValue(user.PasswordExpired)
	}

	attrs, d := customtypes.NameStringSet(ctx, managedAttributes(user.Attributes))
	diags.Append(d...)
	data.Attributes = attrs

	var prior []string
	if !data.Groups.IsUnknown() {
		prior, d = helpers.StringSlice(ctx, data.Groups.SetValue)
		diags.Append(d...)
	}
	groups, d := customtypes.NameStringSet(ctx, connectedGroups(user.Groups, user.DefaultGroup, prior))
	diags.Append(d...)
	data.Groups = groups

	configured, d := helpers.SegmentsFromTerraform(ctx, data.Segments)
	diags.Append(d...)
	data.Segments, d = helpers.SegmentsToTerraform(ctx, helpers.FilterSegments(user.Segments, configured))
	diags.Append(d...)

	data.Created = helpers.DateValue(user.Created)
	data.PasswordDate = helpers.DateValue(user.PasswordDate)
	data.LastAccess = helpers.TimestampValue(user.LastAccess)
	data.RevokeDate = helpers.DateValue(user.RevokeDate)
	data.ResumeDate = helpers.DateValue(user.ResumeDate)

	return diags
}

// managedAttributes keeps the attributes the attributes set manages.
func managedAttributes(hostAttributes []string) []string {
	out := make([]string, 0, len(hostAttributes))
	for _, a := range hostAttributes {
		for _, k := range userAttributeKeywords {
			if strings.EqualFold(a, k) {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// connectedGroups returns the host connections to report in groups. The
// default group is reported only when prior already listed it.
func connectedGroups(hostGroups []string, defaultGroup string, prior []string) []string {
	keepDefault := false
	for _, g := range prior {
		if strings.EqualFold(g, defaultGroup) {
			keepDefault = true
		}
	}

	out := make([]string, 0, len(hostGroups))
	for _, g := range hostGroups {
		if strings.EqualFold(g, defaultGroup) && !keepDefault {
			continue
		}
		out = append(out, g)
	}
	return out
}

// groupConnections flattens groups and their optional owners into the
// parallel slices the client expects. Owners are nil when none is set.
func groupConnections(ctx context.Context, groups customtypes.NameStringSetValue, owners types.Map) ([]string, []string, diag.Diagnostics) {
	var diags diag.Diagnostics

	names, d := helpers.StringSlice(ctx, groups.SetValue)
	diags.Append(d...)
	ownerMap, d := helpers.StringMap(ctx, owners)
	diags.Append(d...)
	if diags.HasError() || names == nil {
		return nil, nil, diags
	}

	names = helpers.UpperStrings(names)
	if len(ownerMap) == 0 {
		return names, nil, diags
	}

	byGroup := make(map[string]string, len(ownerMap))
	for g, o := range ownerMap {
		byGroup[strings.ToUpper(g)] = strings.ToUpper(o)
	}

	list := make([]string, len(names))
	for i, g := range names {
		list[i] = byGroup[g]
		delete(byGroup, g)
	}
	for g := range byGroup {
		diags.AddAttributeError(
			path.Root("group_owners"),
			"Unknown Group in group_owners",
			fmt.Sprintf("group_owners names %s, which is not in groups.", g),
		)
	}
	return names, list, diags
}

// diffNames returns the names to add and remove to turn current into
// desired, compared case-insensitively.
func diffNames(current, desired []string) (add, remove []string) {
	delta := racf.CalculateMembershipDelta(helpers.UpperStrings(current), helpers.UpperStrings(desired), "")
	return delta.ToAdd, delta.ToRemove
}

// parseEnableDate decodes enable_date.
func parseEnableDate(v types.String) (*time.Time, diag.Diagnostics) {
	var diags diag.Diagnostics
	if v.IsNull() || v.IsUnknown() || v.ValueString() == "" {
		return nil, diags
	}
	t, err := racf.ParseInputDate(v.ValueString())
	if err != nil {
		diags.AddAttributeError(path.Root("enable_date"), "Invalid Enable Date", err.Error())
		return nil, diags
	}
	return &t, diags
}

// knownString returns the value of v, or "" when it is null or unknown.
func knownString(v types.String) string {
	if v.IsNull() || v.IsUnknown() {
		return ""
	}
	return v.ValueString()
}

// preferConfigured keeps a configured value that differs from the host only
// in case or surrounding blanks, which the host normalizes.
func preferConfigured(configured types.String, host string) types.String {
	if !configured.IsNull() && !configured.IsUnknown() &&
		strings.EqualFold(strings.TrimSpace(configured.ValueString()), strings.TrimSpace(host)) {
		return configured
	}
	return helpers.StringValueOrNull(host)
}

// logOperationResult logs the outcome of a resource or data source
// operation started at start.
func logOperationResult(ctx context.Context, operation, resourceType string, start time.Time, diags *diag.Diagnostics) {
	duration := time.Since(start)
	if diags.HasError() {
		tflog.Error(ctx, "Resource operation failed", map[string]any{
			"operation":   operation,
			"resource":    resourceType,
			"duration_ms": duration.Milliseconds(),
		})
		return
	}
	tflog.Info(ctx, "Resource operation completed", map[string]any{
		"operation":   operation,
		"resource":    resourceType,
		"duration_ms": duration.Milliseconds(),
	})
}
