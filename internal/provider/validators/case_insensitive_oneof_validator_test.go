package validators

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseInsensitiveOneOf(t *testing.T) {
	t.Parallel()

	authorities := CaseInsensitiveOneOf("USE", "CREATE", "CONNECT", "JOIN")

	tests := map[string]struct {
		input      types.String
		wantErr    bool
		wantDetail string
	}{
		"exact":              {input: types.StringValue("USE")},
		"lowercase":          {input: types.StringValue("join")},
		"mixed case":         {input: types.StringValue("Connect")},
		"surrounding blanks": {input: types.StringValue("  create ")},
		"null":               {input: types.StringNull()},
		"unknown":            {input: types.StringUnknown()},
		"not a keyword": {
			input:      types.StringValue("OWNER"),
			wantErr:    true,
			wantDetail: `"OWNER" is not a recognised keyword`,
		},
		"abbreviation hint": {
			input:      types.StringValue("conn"),
			wantErr:    true,
			wantDetail: `Did you mean "CONNECT"?`,
		},
		"ambiguous prefix has no hint": {
			input:      types.StringValue("C"),
			wantErr:    true,
			wantDetail: "Expected one of: USE, CREATE, CONNECT, JOIN.",
		},
		"empty": {
			input:      types.StringValue(" "),
			wantErr:    true,
			wantDetail: "A keyword is required",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req := validator.StringRequest{
				Path:        path.Root("authority"),
				ConfigValue: tt.input,
			}
			resp := &validator.StringResponse{}
			authorities.ValidateString(context.Background(), req, resp)

			if !tt.wantErr {
				assert.False(t, resp.Diagnostics.HasError(), "unexpected diagnostics: %v", resp.Diagnostics)
				return
			}
			require.True(t, resp.Diagnostics.HasError())
			assert.Equal(t, "Invalid Keyword", resp.Diagnostics[0].Summary())
			assert.Contains(t, resp.Diagnostics[0].Detail(), tt.wantDetail)
			if name == "ambiguous prefix has no hint" {
				assert.NotContains(t, resp.Diagnostics[0].Detail(), "Did you mean")
			}
		})
	}
}

func TestCaseInsensitiveOneOf_NormalizesKeywords(t *testing.T) {
	v := CaseInsensitiveOneOf("telnet", "ssh")

	assert.Equal(t, "value must be one of TELNET, SSH, in any case", v.Description(context.Background()))
	assert.Equal(t, "value must be one of `TELNET`, `SSH`, in any case", v.MarkdownDescription(context.Background()))

	resp := &validator.StringResponse{}
	v.ValidateString(context.Background(), validator.StringRequest{
		Path:        path.Root("transport"),
		ConfigValue: types.StringValue("SSH"),
	}, resp)
	assert.False(t, resp.Diagnostics.HasError())
}
