package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-racf/internal/provider/helpers"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &UsersDataSource{}

// userSummaryType is the element type of the users list.
var userSummaryType = types.ObjectType{
	AttrTypes: map[string]attr.Type{
		"name":          types.StringType,
		"full_name":     types.StringType,
		"owner":         types.StringType,
		"default_group": types.StringType,
		"data":          types.StringType,
		"enabled":       types.BoolType,
		"groups":        types.ListType{ElemType: types.StringType},
		"created":       types.StringType,
		"last_access":   types.StringType,
		"segments":      types.MapType{ElemType: types.MapType{ElemType: types.StringType}},
	},
}

func NewUsersDataSource() datasource.DataSource {
	return &UsersDataSource{}
}

// UsersDataSource defines the data source implementation.
type UsersDataSource struct {
	users    *racf.UserManager
	grammars *racf.GrammarSet
}

// UsersDataSourceModel describes the data source data model.
type UsersDataSourceModel struct {
	// Search configuration
	Mask      types.String `tfsdk:"mask"`       // SEARCH MASK; empty matches every user
	Fields    types.List   `tfsdk:"fields"`     // Attributes to list for each match
	NamesOnly types.Bool   `tfsdk:"names_only"` // Skip LISTUSER

	// Output
	ID        types.String `tfsdk:"id"`
	Names     types.List   `tfsdk:"names"`
	Users     types.List   `tfsdk:"users"`
	UserCount types.Int64  `tfsdk:"user_count"`
}

func (d *UsersDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_users"
}

func (d *UsersDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Finds RACF users with `SEARCH CLASS(USER)` and lists each match. " +
			"Every match costs one LISTUSER; set `names_only` to skip them.",

		Attributes: map[string]schema.Attribute{
			"mask": schema.StringAttribute{
				MarkdownDescription: "Leading characters of the user IDs to find. Matches every user when unset.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 8),
				},
			},
			"fields": schema.ListAttribute{
				MarkdownDescription: "Attributes to read for each user, as in the `racf_user` data source.",
				Optional:            true,
				ElementType:         types.StringType,
			},
			"names_only": schema.BoolAttribute{
				MarkdownDescription: "Return only `names` and leave `users` empty.",
				Optional:            true,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "Identifier of the search.",
				Computed:            true,
			},
			"names": schema.ListAttribute{
				MarkdownDescription: "Matching user IDs in SEARCH order.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"users": schema.ListNestedAttribute{
				MarkdownDescription: "Each matching user that still existed when listed.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"name":          schema.StringAttribute{Computed: true, MarkdownDescription: "User ID."},
						"full_name":     schema.StringAttribute{Computed: true, MarkdownDescription: "The NAME field."},
						"owner":         schema.StringAttribute{Computed: true, MarkdownDescription: "Owning user or group."},
						"default_group": schema.StringAttribute{Computed: true, MarkdownDescription: "Default group."},
						"data":          schema.StringAttribute{Computed: true, MarkdownDescription: "Installation data."},
						"enabled":       schema.BoolAttribute{Computed: true, MarkdownDescription: "Whether the user is not revoked."},
						"groups": schema.ListAttribute{
							Computed:            true,
							ElementType:         types.StringType,
							MarkdownDescription: "Connected groups.",
						},
						"created":     schema.StringAttribute{Computed: true, MarkdownDescription: "Creation date."},
						"last_access": schema.StringAttribute{Computed: true, MarkdownDescription: "Time of the last logon."},
						"segments": schema.MapAttribute{
							Computed:            true,
							ElementType:         types.MapType{ElemType: types.StringType},
							MarkdownDescription: "Fields of the listed non-base segments.",
						},
					},
				},
			},
			"user_count": schema.Int64Attribute{
				MarkdownDescription: "Number of matching user IDs.",
				Computed:            true,
			},
		},
	}
}

func (d *UsersDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

func (d *UsersDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data UsersDataSourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform configuration data into the model
	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "read", "racf_users_data_source", start, &resp.Diagnostics)

	mask := data.Mask.ValueString()
	tflog.Debug(ctx, "Searching RACF users", map[string]any{
		"mask":       mask,
		"names_only": data.NamesOnly.ValueBool(),
	})

	var users []*racf.User
	var names []string
	var err error
	if data.NamesOnly.ValueBool() {
		names, err = d.users.SearchUsers(ctx, mask)
	} else {
		plan, diags := listingPlan(ctx, d.grammars, "USER", data.Fields)
		resp.Diagnostics.Append(diags...)
		if resp.Diagnostics.HasError() {
			return
		}
		users, err = d.users.ListUsers(ctx, mask, plan)
		for _, u := range users {
			names = append(names, u.Name)
		}
	}
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Searching Users",
			fmt.Sprintf("Could not search RACF users: %s", err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Found RACF users", map[string]any{
		"user_count": len(names),
	})

	var diags diag.Diagnostics
	data.Names, diags = types.ListValueFrom(ctx, types.StringType, nonNil(names))
	resp.Diagnostics.Append(diags...)
	data.Users, diags = userSummaries(ctx, users)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.UserCount = types.Int64Value(int64(len(names)))
	data.ID = types.StringValue(searchID("users", mask, len(names)))

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// userSummaries converts users to the elements of the users list.
func userSummaries(ctx context.Context, users []*racf.User) (types.List, diag.Diagnostics) {
	var diags diag.Diagnostics

	elements := make([]attr.Value, 0, len(users))
	for _, u := range users {
		groups, d := types.ListValueFrom(ctx, types.StringType, nonNil(u.Groups))
		diags.Append(d...)
		segments, d := helpers.SegmentsToTerraform(ctx, u.Segments)
		diags.Append(d...)

		obj, d := types.ObjectValue(userSummaryType.AttrTypes, map[string]attr.Value{
			"name":          types.StringValue(u.Name),
			"full_name":     helpers.StringValueOrNull(u.FullName),
			"owner":         helpers.StringValueOrNull(u.Owner),
			"default_group": helpers.StringValueOrNull(u.DefaultGroup),
			"data":          helpers.StringValueOrNull(u.Data),
			"enabled":       types.BoolValue(u.Enabled),
			"groups":        groups,
			"created":       helpers.DateValue(u.Created),
			"last_access":   helpers.TimestampValue(u.LastAccess),
			"segments":      segments,
		})
		diags.Append(d...)
		if diags.HasError() {
			return types.ListNull(userSummaryType), diags
		}
		elements = append(elements, obj)
	}

	list, d := types.ListValue(userSummaryType, elements)
	diags.Append(d...)
	return list, diags
}

// searchID identifies a search result in state.
func searchID(class, mask string, count int) string {
	if mask == "" {
		mask = "*"
	}
	return fmt.Sprintf("%s-search-%s-%d", class, mask, count)
}
