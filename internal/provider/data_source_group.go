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
var _ datasource.DataSource = &GroupDataSource{}

func NewGroupDataSource() datasource.DataSource {
	return &GroupDataSource{}
}

// GroupDataSource defines the data source implementation.
type GroupDataSource struct {
	groups   *racf.GroupManager
	grammars *racf.GrammarSet
}

// GroupDataSourceModel describes the data source data model.
type GroupDataSourceModel struct {
	Name   customtypes.NameStringValue `tfsdk:"name"`
	Fields types.List                  `tfsdk:"fields"`

	ID                types.String `tfsdk:"id"`
	SuperiorGroup     types.String `tfsdk:"superior_group"`
	Owner             types.String `tfsdk:"owner"`
	Data              types.String `tfsdk:"data"`
	Model             types.String `tfsdk:"model"`
	TermUACC          types.Bool   `tfsdk:"term_uacc"`
	Subgroups         types.List   `tfsdk:"subgroups"`
	Members           types.List   `tfsdk:"members"`
	MemberAuthorities types.Map    `tfsdk:"member_authorities"`
	Created           types.String `tfsdk:"created"`
	Segments          types.Map    `tfsdk:"segments"`
}

func (d *GroupDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group"
}

func (d *GroupDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Reads a RACF group profile with LISTGRP.",

		Attributes: map[string]schema.Attribute{
			"name": schema.StringAttribute{
				MarkdownDescription: "The group to read.",
				Required:            true,
				CustomType:          customtypes.NameStringType{},
				Validators: []validator.String{
					validators.IsValidRACFName("group"),
				},
			},
			"fields": schema.ListAttribute{
				MarkdownDescription: "Attributes to read, as `SEGMENT.FIELD`, a base field, a segment name, " +
					"`MEMBERS` or `SUBGROUPS`. Defaults to everything.",
				Optional:    true,
				ElementType: types.StringType,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "The group name in upper case.",
				Computed:            true,
			},
			"superior_group": schema.StringAttribute{
				MarkdownDescription: "The superior group.",
				Computed:            true,
			},
			"owner": schema.StringAttribute{
				MarkdownDescription: "The owning user or group.",
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
			"term_uacc": schema.BoolAttribute{
				MarkdownDescription: "Whether TERMUACC is in effect.",
				Computed:            true,
			},
			"subgroups": schema.ListAttribute{
				MarkdownDescription: "Groups whose superior group is this group.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"members": schema.ListAttribute{
				MarkdownDescription: "Connected users in listing order.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"member_authorities": schema.MapAttribute{
				MarkdownDescription: "Group authority of each member.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"created": schema.StringAttribute{
				MarkdownDescription: "Creation date (`YYYY-MM-DD`).",
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

func (d *GroupDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

	d.groups = providerData.Groups
	d.grammars = providerData.Grammars
}

func (d *GroupDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data GroupDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "read", "racf_group_data_source", start, &resp.Diagnostics)

	plan, diags := listingPlan(ctx, d.grammars, "GROUP", data.Fields)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := data.Name.ValueString()
	tflog.Debug(ctx, "Reading RACF group", map[string]any{
		"group":    name,
		"base":     plan.Base,
		"segments": plan.Segments,
	})

	group, err := d.groups.GetGroup(ctx, name, plan)
	if err != nil {
		if racf.IsNotFoundError(err) {
			resp.Diagnostics.AddAttributeError(
				path.Root("name"),
				"Group Not Found",
				fmt.Sprintf("No RACF group %s is defined.", strings.ToUpper(name)),
			)
			return
		}
		resp.Diagnostics.AddError(
			"Error Reading Group",
			fmt.Sprintf("Could not read group %s: %s", name, err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(groupDataFromGroup(ctx, &data, group)...)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// groupDataFromGroup fills every computed attribute of data.
func groupDataFromGroup(ctx context.Context, data *GroupDataSourceModel, group *racf.Group) diag.Diagnostics {
	var diags diag.Diagnostics
	var d diag.Diagnostics

	data.ID = types.StringValue(group.Name)
	data.SuperiorGroup = helpers.StringValueOrNull(group.SuperiorGroup)
	data.Owner = helpers.StringValueOrNull(group.Owner)
	data.Data = helpers.StringValueOrNull(group.Data)
	data.Model = helpers.StringValueOrNull(group.Model)
	data.TermUACC = types.BoolValue(group.TermUACC)
	data.Created = helpers.DateValue(group.Created)

	data.Subgroups, d = types.ListValueFrom(ctx, types.StringType, nonNil(group.Subgroups))
	diags.Append(d...)
	data.Members, d = types.ListValueFrom(ctx, types.StringType, nonNil(group.Members))
	diags.Append(d...)
	data.MemberAuthorities, d = types.MapValueFrom(ctx, types.StringType, pairValues(group.Members, group.MemberAuthorities))
	diags.Append(d...)
	data.Segments, d = helpers.SegmentsToTerraform(ctx, group.Segments)
	diags.Append(d...)

	return diags
}
