package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/isometry/terraform-provider-racf/internal/provider/helpers"
	"github.com/isometry/terraform-provider-racf/internal/racf"
)

var _ function.Function = &ParseListingFunction{}

// NewParseListingFunction creates the parse_listing function.
func NewParseListingFunction() function.Function {
	return &ParseListingFunction{}
}

// ParseListingFunction implements the parse_listing function.
type ParseListingFunction struct{}

// Metadata returns the function name.
func (f ParseListingFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "parse_listing"
}

// Definition returns the function schema including parameters and return types.
func (f ParseListingFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary: "Parse a LISTUSER or LISTGRP response",
		MarkdownDescription: "Parses the captured output of a `LISTUSER` or `LISTGRP` command with the built-in grammars " +
			"and returns an object keyed by `SEGMENT.FIELD`. Base segment fields use the `RACF` prefix. " +
			"Repeating fields such as `RACF.GROUPS` are lists; everything else is a string.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "entity",
				MarkdownDescription: "Profile type of the listing: `USER` or `GROUP`.",
			},
			function.StringParameter{
				Name:                "text",
				MarkdownDescription: "The listing text as printed by the host.",
			},
		},
		Return: function.DynamicReturn{},
	}
}

// Run implements the function logic.
func (f ParseListingFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var entity, text string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &entity, &text))
	if resp.Error != nil {
		return
	}

	entity = strings.ToUpper(strings.TrimSpace(entity))
	if entity != "USER" && entity != "GROUP" {
		resp.Error = function.NewArgumentFuncError(0, fmt.Sprintf("entity must be USER or GROUP, got %q", entity))
		return
	}

	grammars, err := racf.DefaultGrammars()
	if err != nil {
		resp.Error = function.NewFuncError(fmt.Sprintf("Failed to load grammars: %s", err.Error()))
		return
	}

	listing, err := racf.ParseListing(grammars, entity, text, true, racf.PrintedSegments(grammars, entity, text))
	if err != nil {
		resp.Error = function.NewArgumentFuncError(1, fmt.Sprintf("Failed to parse listing: %s", err.Error()))
		return
	}

	obj, diags := helpers.AttributesToObject(ctx, listing.Attributes.ToMap())
	if diags.HasError() {
		resp.Error = function.FuncErrorFromDiags(ctx, diags)
		return
	}

	resp.Error = function.ConcatFuncErrors(resp.Error, resp.Result.Set(ctx, types.DynamicValue(obj)))
}
