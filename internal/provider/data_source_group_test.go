package provider_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-racf/internal/provider"
)

const listGroupOutput = `INFORMATION FOR GROUP SYS1
    SUPERIOR GROUP=NONE      OWNER=IBMUSER   CREATED=99.001
    INSTALLATION DATA=SYSTEM GROUP
    NO MODEL DATA SET
    TERMUACC
    SUBGROUP(S)= TEST     PAYROLL
    USER(S)=      ACCESS=      ACCESS COUNT=      UNIVERSAL ACCESS=
      IBMUSER      JOIN           000000               NONE
         CONNECT ATTRIBUTES=NONE
         REVOKE DATE=NONE                  RESUME DATE=NONE
      JOE          USE            000000               NONE
         CONNECT ATTRIBUTES=NONE
         REVOKE DATE=NONE                  RESUME DATE=NONE

OMVS INFORMATION
----------------
GID= 0000000100`

func TestGroupDataSource_Read(t *testing.T) {
	mockClient := provider.NewMockRACFClient()
	mockClient.SetOutput("LISTGRP SYS1", listGroupOutput)
	dataSource := configureDataSource(t, provider.NewGroupDataSource(), mockClient)

	req := createConfiguredReadRequest(dataSource, map[string]tftypes.Value{
		"name": tftypes.NewValue(tftypes.String, "sys1"),
	})
	resp := createReadResponse(dataSource)

	dataSource.Read(context.Background(), req, resp)
	logReadErrors(t, resp)
	require.False(t, resp.Diagnostics.HasError())

	var data provider.GroupDataSourceModel
	require.False(t, resp.State.Get(context.Background(), &data).HasError())

	assert.Equal(t, "SYS1", data.ID.ValueString())
	assert.Equal(t, "IBMUSER", data.Owner.ValueString())
	assert.Equal(t, "SYSTEM GROUP", data.Data.ValueString())
	assert.True(t, data.TermUACC.ValueBool())

	var subgroups []string
	require.False(t, data.Subgroups.ElementsAs(context.Background(), &subgroups, false).HasError())
	assert.Equal(t, []string{"TEST", "PAYROLL"}, subgroups)

	var members []string
	require.False(t, data.Members.ElementsAs(context.Background(), &members, false).HasError())
	assert.Equal(t, []string{"IBMUSER", "JOE"}, members)

	authorities := map[string]string{}
	require.False(t, data.MemberAuthorities.ElementsAs(context.Background(), &authorities, false).HasError())
	assert.Equal(t, map[string]string{"IBMUSER": "JOIN", "JOE": "USE"}, authorities)

	segments := map[string]map[string]string{}
	require.False(t, data.Segments.ElementsAs(context.Background(), &segments, false).HasError())
	assert.Contains(t, segments, "OMVS")
}

func TestGroupDataSource_Read_NotFound(t *testing.T) {
	dataSource := configureDataSource(t, provider.NewGroupDataSource(), provider.NewMockRACFClient())

	req := createConfiguredReadRequest(dataSource, map[string]tftypes.Value{
		"name": tftypes.NewValue(tftypes.String, "NOGROUP"),
	})
	resp := createReadResponse(dataSource)

	dataSource.Read(context.Background(), req, resp)

	require.True(t, resp.Diagnostics.HasError())
	assert.Equal(t, "Group Not Found", resp.Diagnostics.Errors()[0].Summary())
}

func TestGroupsDataSource_Read(t *testing.T) {
	mockClient := provider.NewMockRACFClient()
	mockClient.SetOutput("SEARCH CLASS(GROUP)", "SYS1")
	mockClient.SetOutput("LISTGRP SYS1", listGroupOutput)
	dataSource := configureDataSource(t, provider.NewGroupsDataSource(), mockClient)

	req := createConfiguredReadRequest(dataSource, map[string]tftypes.Value{
		"mask": tftypes.NewValue(tftypes.String, "SYS"),
	})
	resp := createReadResponse(dataSource)

	dataSource.Read(context.Background(), req, resp)
	logReadErrors(t, resp)
	require.False(t, resp.Diagnostics.HasError())

	var data provider.GroupsDataSourceModel
	require.False(t, resp.State.Get(context.Background(), &data).HasError())

	assert.Equal(t, int64(1), data.GroupCount.ValueInt64())
	assert.Equal(t, "groups-search-SYS-1", data.ID.ValueString())
	assert.Len(t, data.Groups.Elements(), 1)
	assert.Equal(t, "SEARCH CLASS(GROUP) MASK(SYS)", mockClient.Commands()[0])
}

func TestGroupsDataSource_Read_SearchError(t *testing.T) {
	mockClient := provider.NewMockRACFClient()
	mockClient.SetError(assert.AnError)
	dataSource := configureDataSource(t, provider.NewGroupsDataSource(), mockClient)

	req := createReadRequest(dataSource)
	resp := createReadResponse(dataSource)

	dataSource.Read(context.Background(), req, resp)

	require.True(t, resp.Diagnostics.HasError())
	assert.Equal(t, "Error Searching Groups", resp.Diagnostics.Errors()[0].Summary())
}
