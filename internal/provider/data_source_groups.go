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
var _ datasource.DataSource = &GroupsDataSource{}

var groupSummaryType = types.ObjectType{
	AttrTypes: map[string]attr.Type{
		"name":           types.StringType,
		"superior_group": types.StringType,
		"owner":          types.StringType,
		"data":           types.StringType,
		"subgroups":      types.ListType{ElemType: types.StringType},
		"members":        types.ListType{ElemType: types.StringType},
		"created":        types.StringType,
		"segments":       types.MapType{ElemType: types.MapType{ElemType: types.StringType}},
	},
}

func NewGroupsDataSource() datasource.DataSource {
	return &GroupsDataSource{}
}

// GroupsDataSource defines the data source implementation.
type GroupsDataSource struct {
	groups   *racf.GroupManager
	grammars *racf.GrammarSet
}

// GroupsDataSourceModel describes the data source data model.
type GroupsDataSourceModel struct {
	Mask      types.String `tfsdk:"mask"`
	Fields    types.List   `tfsdk:"fields"`
	NamesOnly types.Bool   `tfsdk:"names_only"`

	ID         types.String `tfsdk:"id"`
	Names      types.List   `tfsdk:"names"`
	Groups     types.List   `tfsdk:"groups"`
	GroupCount types.Int64  `tfsdk:"group_count"`
}

func (d *GroupsDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_groups"
}

func (d *GroupsDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Finds RACF groups with `SEARCH CLASS(GROUP)` and lists each match with LISTGRP.",

		Attributes: map[string]schema.Attribute{
			"mask": schema.StringAttribute{
				MarkdownDescription: "Leading characters of the group names to find. Matches every group when unset.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 8),
				},
			},
			"fields": schema.ListAttribute{
				MarkdownDescription: "Attributes to read for each group, as in the `racf_group` data source.",
				Optional:            true,
				ElementType:         types.StringType,
			},
			"names_only": schema.BoolAttribute{
				MarkdownDescription: "Return only `names` and leave `groups` empty.",
				Optional:            true,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "Identifier of the search.",
				Computed:            true,
			},
			"names": schema.ListAttribute{
				MarkdownDescription: "Matching group names in SEARCH order.",
				Computed:            true,
				ElementType:         types.StringType,
			},
			"groups": schema.ListNestedAttribute{
				MarkdownDescription: "Each matching group that still existed when listed.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"name":           schema.StringAttribute{Computed: true},
						"superior_group": schema.StringAttribute{Computed: true},
						"owner":          schema.StringAttribute{Computed: true},
						"data":           schema.StringAttribute{Computed: true},
						"subgroups":      schema.ListAttribute{Computed: true, ElementType: types.StringType},
						"members":        schema.ListAttribute{Computed: true, ElementType: types.StringType},
						"created":        schema.StringAttribute{Computed: true},
						"segments": schema.MapAttribute{
							Computed:    true,
							ElementType: types.MapType{ElemType: types.StringType},
						},
					},
				},
			},
			"group_count": schema.Int64Attribute{
				MarkdownDescription: "Number of matching groups.",
				Computed:            true,
			},
		},
	}
}

func (d *GroupsDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

func (d *GroupsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data GroupsDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	defer logOperationResult(ctx, "read", "racf_groups_data_source", start, &resp.Diagnostics)

	mask := data.Mask.ValueString()
	tflog.Debug(ctx, "Searching RACF groups", map[string]any{
		"mask":       mask,
		"names_only": data.NamesOnly.ValueBool(),
	})

	var groups []*racf.Group
	var names []string
	var err error
	if data.NamesOnly.ValueBool() {
		names, err = d.groups.SearchGroups(ctx, mask)
	} else {
		plan, diags := listingPlan(ctx, d.grammars, "GROUP", data.Fields)
		resp.Diagnostics.Append(diags...)
		if resp.Diagnostics.HasError() {
			return
		}
		groups, err = d.groups.ListGroups(ctx, mask, plan)
		for _, g := range groups {
			names = append(names, g.Name)
		}
	}
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Searching Groups",
			fmt.Sprintf("Could not search RACF groups: %s", err.Error()),
		)
		return
	}

	var diags diag.Diagnostics
	data.Names, diags = types.ListValueFrom(ctx, types.StringType, nonNil(names))
	resp.Diagnostics.Append(diags...)
	data.Groups, diags = groupSummaries(ctx, groups)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.GroupCount = types.Int64Value(int64(len(names)))
	data.ID = types.StringValue(searchID("groups", mask, len(names)))

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func groupSummaries(ctx context.Context, groups []*racf.Group) (types.List, diag.Diagnostics) {
	var diags diag.Diagnostics

	elements := make([]attr.Value, 0, len(groups))
	for _, g := range groups {
		subgroups, d := types.ListValueFrom(ctx, types.StringType, nonNil(g.Subgroups))
		diags.Append(d...)
		members, d := types.ListValueFrom(ctx, types.StringType, nonNil(g.Members))
		diags.Append(d...)
		segments, d := helpers.SegmentsToTerraform(ctx, g.Segments)
		diags.Append(d...)

		obj, d := types.ObjectValue(groupSummaryType.AttrTypes, map[string]attr.Value{
			"name":           types.StringValue(g.Name),
			"superior_group": helpers.StringValueOrNull(g.SuperiorGroup),
			"owner":          helpers.StringValueOrNull(g.Owner),
			"data":           helpers.StringValueOrNull(g.Data),
			"subgroups":      subgroups,
			"members":        members,
			"created":        helpers.DateValue(g.Created),
			"segments":       segments,
		})
		diags.Append(d...)
		if diags.HasError() {
			return types.ListNull(groupSummaryType), diags
		}
		elements = append(elements, obj)
	}

	list, d := types.ListValue(groupSummaryType, elements)
	diags.Append(d...)
	return list, diags
}
