package provider_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-racf/internal/provider"
)

func TestQuoteFunction_Metadata(t *testing.T) {
	f := &provider.QuoteFunction{}

	var resp function.MetadataResponse
	f.Metadata(context.Background(), function.MetadataRequest{}, &resp)

	assert.Equal(t, "quote", resp.Name)
}

func TestQuoteFunction_Run(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		expected string
	}{
		{name: "plain operand", field: "UID", value: "100", expected: "100"},
		{name: "always quoted keyword", field: "data", value: "PAYROLL", expected: "'PAYROLL'"},
		{name: "blank forces quotes", field: "OWNER", value: "A B", expected: "'A B'"},
		{name: "embedded quote doubled", field: "NAME", value: "O'BRIEN", expected: "'O''BRIEN'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := &provider.QuoteFunction{}

			req := function.RunRequest{
				Arguments: function.NewArgumentsData([]attr.Value{types.StringValue(tt.field), types.StringValue(tt.value)}),
			}
			resp := function.RunResponse{
				Result: function.NewResultData(types.StringUnknown()),
			}
			f.Run(ctx, req, &resp)
			require.Nil(t, resp.Error)

			assert.Equal(t, types.StringValue(tt.expected), resp.Result.Value())
		})
	}
}
