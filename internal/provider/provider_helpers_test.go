package provider

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customtypes "github.com/isometry/terraform-provider-racf/internal/provider/types"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

func TestManagedAttributes(t *testing.T) {
	got := managedAttributes([]string{"special", "REVOKED", "Operations", "PROTECTED"})
	assert.Equal(t, []string{"SPECIAL", "OPERATIONS"}, got)
	assert.Empty(t, managedAttributes(nil))
}

func TestConnectedGroups(t *testing.T) {
	host := []string{"SYS1", "TEST", "PAYROLL"}

	tests := []struct {
		name  string
		prior []string
		want  []string
	}{
		{name: "default group hidden", prior: nil, want: []string{"TEST", "PAYROLL"}},
		{name: "default group kept when listed", prior: []string{"sys1", "TEST"}, want: []string{"SYS1", "TEST", "PAYROLL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connectedGroups(host, "SYS1", tt.prior))
		})
	}
}

func TestGroupConnections(t *testing.T) {
	ctx := context.Background()
	groups, diags := customtypes.NameStringSet(ctx, []string{"test", "payroll"})
	require.False(t, diags.HasError())

	t.Run("without owners", func(t *testing.T) {
		names, owners, diags := groupConnections(ctx, groups, types.MapNull(types.StringType))
		require.False(t, diags.HasError())
		assert.ElementsMatch(t, []string{"TEST", "PAYROLL"}, names)
		assert.Nil(t, owners)
	})

	t.Run("with owners", func(t *testing.T) {
		ownerMap := types.MapValueMust(types.StringType, map[string]attr.Value{
			"Test": types.StringValue("admin"),
		})
		names, owners, diags := groupConnections(ctx, groups, ownerMap)
		require.False(t, diags.HasError())
		require.Len(t, owners, len(names))
		for i, g := range names {
			if g == "TEST" {
				assert.Equal(t, "ADMIN", owners[i])
			} else {
				assert.Empty(t, owners[i])
			}
		}
	})

	t.Run("owner for unknown group", func(t *testing.T) {
		ownerMap := types.MapValueMust(types.StringType, map[string]attr.Value{
			"OTHER": types.StringValue("ADMIN"),
		})
		_, _, diags := groupConnections(ctx, groups, ownerMap)
		require.True(t, diags.HasError())
		assert.Equal(t, "Unknown Group in group_owners", diags.Errors()[0].Summary())
	})

	t.Run("null groups", func(t *testing.T) {
		names, owners, diags := groupConnections(ctx, customtypes.NameStringSetNull(), types.MapNull(types.StringType))
		require.False(t, diags.HasError())
		assert.Nil(t, names)
		assert.Nil(t, owners)
	})
}

func TestDiffNames(t *testing.T) {
	add, remove := diffNames([]string{"sys1", "TEST"}, []string{"TEST", "payroll"})
	assert.Equal(t, []string{"PAYROLL"}, add)
	assert.Equal(t, []string{"SYS1"}, remove)
}

func TestPreferConfigured(t *testing.T) {
	tests := []struct {
		name       string
		configured types.String
		host       string
		want       types.String
	}{
		{name: "case differs", configured: types.StringValue("Payroll team"), host: "PAYROLL TEAM", want: types.StringValue("Payroll team")},
		{name: "value differs", configured: types.StringValue("OLD"), host: "NEW", want: types.StringValue("NEW")},
		{name: "null configured", configured: types.StringNull(), host: "NEW", want: types.StringValue("NEW")},
		{name: "empty host", configured: types.StringNull(), host: "", want: types.StringNull()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, preferConfigured(tt.configured, tt.host))
		})
	}
}

func TestMemberAuthority(t *testing.T) {
	tests := []struct {
		name        string
		configured  types.String
		authorities []string
		want        types.String
	}{
		{name: "not configured", configured: types.StringNull(), authorities: []string{"USE"}, want: types.StringNull()},
		{name: "no members", configured: types.StringValue("use"), authorities: nil, want: types.StringValue("use")},
		{name: "all match", configured: types.StringValue("use"), authorities: []string{"USE", "USE"}, want: types.StringValue("use")},
		{name: "all differ", configured: types.StringValue("use"), authorities: []string{"JOIN", "JOIN"}, want: types.StringValue("JOIN")},
		{name: "mixed", configured: types.StringValue("use"), authorities: []string{"USE", "JOIN"}, want: types.StringValue("MIXED")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, memberAuthority(tt.configured, tt.authorities))
		})
	}
}

func TestPairValues(t *testing.T) {
	got := pairValues([]string{"SYS1", "TEST", "PAYROLL"}, []string{"IBMUSER", "ADMIN"})
	assert.Equal(t, map[string]string{"SYS1": "IBMUSER", "TEST": "ADMIN"}, got)
}

func TestSearchID(t *testing.T) {
	assert.Equal(t, "users-search-*-3", searchID("users", "", 3))
	assert.Equal(t, "groups-search-SYS-1", searchID("groups", "SYS", 1))
}

func TestListingPlan(t *testing.T) {
	ctx := context.Background()
	grammars, err := racf.DefaultGrammars()
	require.NoError(t, err)

	tests := []struct {
		name     string
		fields   types.List
		base     bool
		segments []string
		wantErr  bool
	}{
		{
			name:     "null lists everything",
			fields:   types.ListNull(types.StringType),
			base:     true,
			segments: []string{"TSO", "OMVS", "CICS"},
		},
		{
			name:     "segment field only",
			fields:   types.ListValueMust(types.StringType, []attr.Value{types.StringValue("omvs.home")}),
			segments: []string{"OMVS"},
		},
		{
			name:   "base field",
			fields: types.ListValueMust(types.StringType, []attr.Value{types.StringValue("OWNER")}),
			base:   true,
		},
		{
			name:    "empty list",
			fields:  types.ListValueMust(types.StringType, []attr.Value{}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, diags := listingPlan(ctx, grammars, "USER", tt.fields)
			if tt.wantErr {
				require.True(t, diags.HasError())
				assert.Equal(t, "Nothing to Read", diags.Errors()[0].Summary())
				return
			}
			require.False(t, diags.HasError())
			assert.Equal(t, tt.base, plan.Base)
			assert.ElementsMatch(t, tt.segments, plan.Segments)
		})
	}
}

func TestPrintedSegments(t *testing.T) {
	grammars, err := racf.DefaultGrammars()
	require.NoError(t, err)

	text := "USER=JOE\n\nNO TSO INFORMATION\n\nOMVS INFORMATION\n----------------\nUID= 0000000100"
	assert.ElementsMatch(t, []string{"TSO", "OMVS"}, racf.PrintedSegments(grammars, "USER", text))
	assert.Empty(t, racf.PrintedSegments(grammars, "GROUP", "INFORMATION FOR GROUP SYS1"))

	data := "USER=JOE\n INSTALLATION-DATA=SEE TSO INFORMATION\n\nOMVS INFORMATION\nUID= 0000000100"
	assert.Equal(t, []string{"OMVS"}, racf.PrintedSegments(grammars, "USER", data))
}
