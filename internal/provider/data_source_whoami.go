package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-racf/internal/provider/helpers"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &WhoAmIDataSource{}

func NewWhoAmIDataSource() datasource.DataSource {
	return &WhoAmIDataSource{}
}

// WhoAmIDataSource defines the data source implementation.
type WhoAmIDataSource struct {
	data *racf.ProviderData
}

// WhoAmIDataSourceModel describes the data source data model.
type WhoAmIDataSourceModel struct {
	ID           types.String `tfsdk:"id"`            // Logon user ID
	Username     types.String `tfsdk:"username"`      // Logon user ID
	FullName     types.String `tfsdk:"full_name"`     // NAME of the logon user
	DefaultGroup types.String `tfsdk:"default_group"` // DFLTGRP of the logon user
	Attributes   types.Set    `tfsdk:"attributes"`    // SPECIAL, OPERATIONS, ...
	Groups       types.List   `tfsdk:"groups"`        // Connected groups
	Sessions     types.Int64  `tfsdk:"sessions"`      // Open sessions in the pool
}

func (d *WhoAmIDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_whoami"
}

func (d *WhoAmIDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Describes the user the provider logs on as. " +
			"Useful to check that the provider has the SPECIAL attribute before managing profiles.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Same as `username`.",
				Computed:            true,
			},
			"username": schema.StringAttribute{
				MarkdownDescription: "The logon user ID in upper case.",
				Computed:            true,
			},
			"full_name": schema.StringAttribute{
				MarkdownDescription: "The NAME field of the logon user.",
				Computed:            true,
			},
			"default_group": schema.StringAttribute{
				MarkdownDescription: "The default group of the logon user.",
				Computed:            true,
			},
			"attributes": schema.SetAttribute{
				MarkdownDescription: "User attributes of the logon user, such as `SPECIAL`.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"groups": schema.ListAttribute{
				MarkdownDescription: "Groups the logon user is connected to.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"sessions": schema.Int64Attribute{
				MarkdownDescription: "Number of host sessions the provider holds open.",
				Computed:            true,
			},
		},
	}
}

func (d *WhoAmIDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

	d.data = providerData
}

func (d *WhoAmIDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data WhoAmIDataSourceModel

	ctx = initializeLogging(ctx)

	start := time.Now()
	defer logOperationResult(ctx, "read", "racf_whoami_data_source", start, &resp.Diagnostics)

	username := d.data.Username
	if username == "" {
		resp.Diagnostics.AddError(
			"Unknown Logon User",
			"The provider has no logon user ID. Please report this issue to the provider developers.",
		)
		return
	}

	user, err := d.data.Users.GetUser(ctx, username, &racf.ListingPlan{Base: true})
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Logon User",
			fmt.Sprintf("Could not list user %s: %s", username, err.Error()),
		)
		return
	}

	stats := d.data.GetClientStats()
	tflog.Debug(ctx, "Read logon user", map[string]any{
		"user":     user.Name,
		"sessions": stats.Total,
	})

	data.ID = types.StringValue(user.Name)
	data.Username = types.StringValue(user.Name)
	data.FullName = helpers.StringValueOrNull(user.FullName)
	data.DefaultGroup = helpers.StringValueOrNull(user.DefaultGroup)
	data.Sessions = types.Int64Value(int64(stats.Total))

	attributes, diags := types.SetValueFrom(ctx, types.StringType, nonNil(user.Attributes))
	resp.Diagnostics.Append(diags...)
	data.Attributes = attributes
	groups, diags := types.ListValueFrom(ctx, types.StringType, nonNil(user.Groups))
	resp.Diagnostics.Append(diags...)
	data.Groups = groups

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
