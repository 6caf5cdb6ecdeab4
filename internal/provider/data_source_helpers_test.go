package provider_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

// createReadRequest builds a datasource.ReadRequest with every attribute null.
func createReadRequest(dataSource datasource.DataSource) datasource.ReadRequest {
	return createConfiguredReadRequest(dataSource, map[string]tftypes.Value{})
}

// createConfiguredReadRequest builds a datasource.ReadRequest whose
// configuration holds values and null for every other attribute.
func createConfiguredReadRequest(dataSource datasource.DataSource, values map[string]tftypes.Value) datasource.ReadRequest {
	ctx := context.Background()
	schemaResp := &datasource.SchemaResponse{}
	dataSource.Schema(ctx, datasource.SchemaRequest{}, schemaResp)

	objectType := schemaResp.Schema.Type().TerraformType(ctx).(tftypes.Object)
	raw := tftypes.NewValue(objectType, nil)
	if values != nil {
		attrs := make(map[string]tftypes.Value, len(objectType.AttributeTypes))
		for name, typ := range objectType.AttributeTypes {
			if v, ok := values[name]; ok {
				attrs[name] = v
				continue
			}
			attrs[name] = tftypes.NewValue(typ, nil)
		}
		raw = tftypes.NewValue(objectType, attrs)
	}

	return datasource.ReadRequest{
		Config: tfsdk.Config{
			Schema: schemaResp.Schema,
			Raw:    raw,
		},
	}
}

// createReadResponse builds a datasource.ReadResponse with an empty state.
func createReadResponse(dataSource datasource.DataSource) *datasource.ReadResponse {
	schemaResp := &datasource.SchemaResponse{}
	dataSource.Schema(context.Background(), datasource.SchemaRequest{}, schemaResp)

	return &datasource.ReadResponse{
		State: tfsdk.State{
			Schema: schemaResp.Schema,
			Raw:    tftypes.NewValue(schemaResp.Schema.Type().TerraformType(context.Background()), nil),
		},
	}
}

// configureDataSource returns dataSource configured with a client.
func configureDataSource(t *testing.T, dataSource datasource.DataSource, client racf.Client) datasource.DataSource {
	t.Helper()

	providerData, err := racf.NewProviderData(client, nil)
	require.NoError(t, err)

	configurable, ok := dataSource.(datasource.DataSourceWithConfigure)
	require.True(t, ok)

	resp := &datasource.ConfigureResponse{}
	configurable.Configure(context.Background(), datasource.ConfigureRequest{ProviderData: providerData}, resp)
	require.False(t, resp.Diagnostics.HasError())

	return dataSource
}

// stringList returns a tftypes list of strings.
func stringList(values ...string) tftypes.Value {
	elems := make([]tftypes.Value, len(values))
	for i, v := range values {
		elems[i] = tftypes.NewValue(tftypes.String, v)
	}
	return tftypes.NewValue(tftypes.List{ElementType: tftypes.String}, elems)
}

// logReadErrors reports diagnostics to the test log.
func logReadErrors(t *testing.T, resp *datasource.ReadResponse) {
	t.Helper()
	for _, diag := range resp.Diagnostics.Errors() {
		t.Logf("Error: %s: %s", diag.Summary(), diag.Detail())
	}
}
