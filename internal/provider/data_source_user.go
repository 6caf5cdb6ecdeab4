package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-racf/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-racf/internal/provider/types"
	"github.com/isometry/terraform-provider-racf/internal/provider/validators"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &UserDataSource{}

func NewUserDataSource() datasource.DataSource {
	return &UserDataSource{}
}

// UserDataSource defines the data source implementation.
type UserDataSource struct {
	users    *racf.UserManager
	grammars *racf.GrammarSet
}

// UserDataSourceModel describes the data source data model.
type UserDataSourceModel struct {
	// Lookup
	Name   customtypes.NameStringValue `tfsdk:"name"`
	Fields types.List                  `tfsdk:"fields"`

	// Base segment
	ID                  types.String `tfsdk:"id"`
	FullName            types.String `tfsdk:"full_name"`
	Owner               types.String `tfsdk:"owner"`
	DefaultGroup        types.String `tfsdk:"default_group"`
	Data                types.String `tfsdk:"data"`
	Model               types.String `tfsdk:"model"`
	Attributes          types.Set    `tfsdk:"attributes"`
	ClassAuthorizations types.Set    `tfsdk:"class_authorizations"`
	PasswordInterval    types.String `tfsdk:"password_interval"`
	SecurityLevel       types.String `tfsdk:"security_level"`
	SecurityLabel       types.String `tfsdk:"security_label"`
	Enabled             types.Bool   `tfsdk:"enabled"`
	PasswordExpired     types.Bool   `tfsdk:"password_expired"`
	Groups              types.List   `tfsdk:"groups"`
	GroupOwners         types.Map    `tfsdk:"group_owners"`
	Created             types.String `tfsdk:"created"`
	PasswordDate        types.String `tfsdk:"password_date"`
	LastAccess          types.String `tfsdk:"last_access"`
	RevokeDate          types.String `tfsdk:"revoke_date"`
	ResumeDate          types.String `tfsdk:"resume_date"`

	// Other segments
	Segments types.Map `tfsdk:"segments"`
}

func (d *UserDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_user"
}

func (d *UserDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Reads a RACF user profile with LISTUSER. " +
			"Use `fields` to list only the segments you need; the others stay null.",

		Attributes: map[string]schema.Attribute{
			"name": schema.StringAttribute{
				MarkdownDescription: "The user ID to read.",
				Required:            true,
				CustomType:          customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("user"),
				},
			},
			"fields": schema.ListAttribute{
				MarkdownDescription: "Attributes to read, as `SEGMENT.FIELD`, a base field, a segment name such as `OMVS`, " +
					"or `GROUPS`. Defaults to the base segment and every known segment.",
				Optional:    true,
				ElementType: types.StringType,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "The user ID in upper case.",
				Computed:            true,
			},
			"full_name": schema.StringAttribute{
				MarkdownDescription: "The NAME field.",
				Computed:            true,
			},
			"owner": schema.StringAttribute{
				MarkdownDescription: "The owning user or group.",
				Computed:            true,
			},
			"default_group": schema.StringAttribute{
				MarkdownDescription: "The default group (`DFLTGRP`).",
				Computed:            true,
			},
			"data": schema.StringAttribute{
				MarkdownDescription: "Installation data.",
				Computed:            true,
			},
			"model": schema.StringAttribute{
				MarkdownDescription: "Model data set name.",
				Computed:            true,
			},
			"attributes": schema.SetAttribute{
				MarkdownDescription: "User attributes such as `SPECIAL` or `REVOKED`.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"class_authorizations": schema.SetAttribute{
				MarkdownDescription: "Classes in which the user may define profiles (`CLAUTH`).",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"password_interval": schema.StringAttribute{
				MarkdownDescription: "Password change interval in days, or `NOINTERVAL`.",
				Computed:            true,
			},
			"security_level": schema.StringAttribute{
				MarkdownDescription: "Security level.",
				Computed:            true,
			},
			"security_label": schema.StringAttribute{
				MarkdownDescription: "Security label.",
				Computed:            true,
			},
			"enabled": schema.BoolAttribute{
				MarkdownDescription: "Whether the user is not revoked.",
				Computed:            true,
			},
			"password_expired": schema.BoolAttribute{
				MarkdownDescription: "Whether the password must be changed at next logon.",
				Computed:            true,
			},
			"groups": schema.ListAttribute{
				MarkdownDescription: "Connected groups in listing order. The default group is included.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"group_owners": schema.MapAttribute{
				MarkdownDescription: "Connect owner of each connected group.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"created": schema.StringAttribute{
				MarkdownDescription: "Creation date (`YYYY-MM-DD`).",
				Computed:            true,
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
				MarkdownDescription: "Scheduled revoke date.",
				Computed:            true,
			},
			"resume_date": schema.StringAttribute{
				MarkdownDescription: "Scheduled resume date.",
				Computed:            true,
			},
			"segments": schema.MapAttribute{
				MarkdownDescription: "Fields of every non-base segment present, keyed by segment then field.",
				Computed:            true,
				ElementType:         types.MapType{ElemType: types.StringType},
			},
		},
	}
}

func (d *UserDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*racf.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *racf.ProviderData, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	d.users = providerData.Users
	d.grammars = providerData.Grammars
}

func (d *UserDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data UserDataSourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform configuration data into the model
	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "read", "racf_user_data_source", start, &resp.Diagnostics)

	plan, diags := listingPlan(ctx, d.grammars, "USER", data.Fields)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := data.Name.ValueString()
	tflog.Debug(ctx, "Reading RACF user", map[string]any{
		"user":     name,
		"base":     plan.Base,
		"segments": plan.Segments,
	})

	user, err := d.users.GetUser(ctx, name, plan)
	if err != nil {
		if racf.IsNotFoundError(err) {
			resp.Diagnostics.AddAttributeError(
				path.Root("name"),
				"User Not Found",
				fmt.Sprintf("No RACF user %s is defined.", strings.ToUpper(name)),
			)
			return
		}
		resp.Diagnostics.AddError(
			"Error Reading User",
			fmt.Sprintf("Could not read user %s: %s", name, err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(userDataFromUser(ctx, &data, user)...)

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// userDataFromUser fills every computed attribute of data.
func userDataFromUser(ctx context.Context, data *UserDataSourceModel, user *racf.User) diag.Diagnostics {
	var diags diag.Diagnostics
	var d diag.Diagnostics

	data.ID = types.StringValue(user.Name)
	data.FullName = helpers.StringValueOrNull(user.FullName)
	data.Owner = helpers.StringValueOrNull(user.Owner)
	data.DefaultGroup = helpers.StringValueOrNull(user.DefaultGroup)
	data.Data = helpers.StringValueOrNull(user.Data)
	data.Model = helpers.StringValueOrNull(user.Model)
	data.PasswordInterval = helpers.StringValueOrNull(user.PasswordInterval)
	data.SecurityLevel = helpers.StringValueOrNull(user.SecurityLevel)
	data.SecurityLabel = helpers.StringValueOrNull(user.SecurityLabel)
	data.Enabled = types.BoolValue(user.Enabled)
	data.PasswordExpired = types.BoolValue(user.PasswordExpired)
	data.Created = helpers.DateValue(user.Created)
	data.PasswordDate = helpers.DateValue(user.PasswordDate)
	data.LastAccess = helpers.TimestampValue(user.LastAccess)
	data.RevokeDate = helpers.DateValue(user.RevokeDate)
	data.ResumeDate = helpers.DateValue(user.ResumeDate)

	data.Attributes, d = types.SetValueFrom(ctx, types.StringType, nonNil(user.Attributes))
	diags.Append(d...)
	data.ClassAuthorizations, d = types.SetValueFrom(ctx, types.StringType, nonNil(user.ClassAuthorizations))
	diags.Append(d...)
	data.Groups, d = types.ListValueFrom(ctx, types.StringType, nonNil(user.Groups))
	diags.Append(d...)
	data.GroupOwners, d = types.MapValueFrom(ctx, types.StringType, pairValues(user.Groups, user.GroupOwners))
	diags.Append(d...)
	data.Segments, d = helpers.SegmentsToTerraform(ctx, user.Segments)
	diags.Append(d...)

	return diags
}

// listingPlan turns the optional fields list into a listing plan for entity.
func listingPlan(ctx context.Context, grammars *racf.GrammarSet, entity string, fields types.List) (*racf.ListingPlan, diag.Diagnostics) {
	var diags diag.Diagnostics
	var requested []string
	if !fields.IsNull() && !fields.IsUnknown() {
		diags.Append(fields.ElementsAs(ctx, &requested, false)...)
		if diags.HasError() {
			return nil, diags
		}
		if requested == nil {
			requested = []string{}
		}
	}

	plan := racf.PlanListing(requested, grammars.Segments(entity))
	if !plan.Base && len(plan.Segments) == 0 {
		diags.AddAttributeError(
			path.Root("fields"),
			"Nothing to Read",
			"None of the requested fields names a known segment or attribute.",
		)
	}
	return &plan, diags
}

// pairValues maps keys[i] to values[i] for the keys that have a value.
func pairValues(keys, values []string) map[string]string {
	out := make(map[string]string, len(keys))
	for i, k := range keys {
		if i < len(values) {
			out[k] = values[i]
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
