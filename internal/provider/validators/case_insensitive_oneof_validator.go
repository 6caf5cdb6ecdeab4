package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

var _ validator.String = keywordValidator{}

// keywordValidator accepts one of a fixed set of RACF keywords in any case.
type keywordValidator struct {
	keywords []string
	set      map[string]struct{}
}

func (v keywordValidator) Description(_ context.Context) string {
	return fmt.Sprintf("value must be one of %s, in any case", strings.Join(v.keywords, ", "))
}

func (v keywordValidator) MarkdownDescription(_ context.Context) string {
	quoted := make([]string, len(v.keywords))
	for i, k := range v.keywords {
		quoted[i] = "`" + k + "`"
	}
	return fmt.Sprintf("value must be one of %s, in any case", strings.Join(quoted, ", "))
}

func (v keywordValidator) ValidateString(_ context.Context, req validator.StringRequest, resp *validator.StringResponse) {
	if req.ConfigValue.IsNull() || req.ConfigValue.IsUnknown() {
		return
	}

	raw := req.ConfigValue.ValueString()
	keyword := strings.ToUpper(strings.TrimSpace(raw))
	if _, ok := v.set[keyword]; ok {
		return
	}

	detail := fmt.Sprintf("%q is not a recognised keyword. Expected one of: %s.", raw, strings.Join(v.keywords, ", "))
	if keyword == "" {
		detail = fmt.Sprintf("A keyword is required. Expected one of: %s.", strings.Join(v.keywords, ", "))
	} else if hint := v.closest(keyword); hint != "" {
		detail += fmt.Sprintf(" Did you mean %q?", hint)
	}
	resp.Diagnostics.AddAttributeError(req.Path, "Invalid Keyword", detail)
}

// closest returns the single keyword that keyword abbreviates or extends.
func (v keywordValidator) closest(keyword string) string {
	var match string
	for _, k := range v.keywords {
		if strings.HasPrefix(k, keyword) || strings.HasPrefix(keyword, k) {
			if match != "" {
				return ""
			}
			match = k
		}
	}
	return match
}

// CaseInsensitiveOneOf returns a validator for keyword operands such as
// connect authorities or user attributes. Matching ignores case and
// surrounding blanks; null and unknown values are skipped.
func CaseInsensitiveOneOf(keywords ...string) validator.String {
	v := keywordValidator{
		keywords: make([]string, len(keywords)),
		set:      make(map[string]struct{}, len(keywords)),
	}
	for i, k := range keywords {
		k = strings.ToUpper(k)
		v.keywords[i] = k
		v.set[k] = struct{}{}
	}
	return v
}
