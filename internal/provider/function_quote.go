package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/function"

	"github.com/isometry/terraform-provider-racf/internal/racf"
)

var _ function.Function = &QuoteFunction{}

// NewQuoteFunction creates the quote function.
func NewQuoteFunction() function.Function {
	return &QuoteFunction{}
}

// QuoteFunction implements the quote function.
type QuoteFunction struct{}

func (f QuoteFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "quote"
}

func (f QuoteFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary: "Quote a RACF command operand",
		MarkdownDescription: "Renders `value` the way the provider writes it as the operand of keyword `field`: " +
			"wrapped in single quotes with embedded quotes doubled when the value contains blanks, commas, semicolons, " +
			"parentheses or quotes, or when the keyword always takes a quoted operand (such as `NAME` or `DATA`).",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "field",
				MarkdownDescription: "The command keyword, such as `DATA` or `HOME`.",
			},
			function.StringParameter{
				Name:                "value",
				MarkdownDescription: "The operand value.",
			},
		},
		Return: function.StringReturn{},
	}
}

func (f QuoteFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var field, value string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &field, &value))
	if resp.Error != nil {
		return
	}

	resp.Error = function.ConcatFuncErrors(resp.Error, resp.Result.Set(ctx, racf.Quote(field, value)))
}
