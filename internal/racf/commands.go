package racf

import (
	"context"
	"sort"
	"strings"
)

// commandRunner executes commands through a Client and classifies their
// results. It is shared by the user and group managers.
type commandRunner struct {
	client Client
}

// query runs a read-only command and returns its output. Not-found phrases
// become NotFound errors.
func (r commandRunner) query(ctx context.Context, operation, target string, command []byte) (string, error) {
	out, err := r.client.Execute(ctx, command)
	if err != nil {
		return out, ClassifyOutput(operation, target, err)
	}
	return out, nil
}

// mutate runs a command that prints nothing on success. Residual output
// fails the operation unless accept recognises it.
func (r commandRunner) mutate(ctx context.Context, operation, target string, command []byte, accept func(string) bool) error {
	out, err := r.client.Execute(ctx, command)
	if err != nil {
		return ClassifyOutput(operation, target, err)
	}
	if strings.TrimSpace(out) == "" || (accept != nil && accept(out)) {
		return nil
	}
	if IsNotFoundOutput(out) {
		return NewNotFoundError(operation, target, out)
	}
	return NewCommandFailedError(operation, CommandVerb(command), target, out)
}

// command joins a verb, its target and a rendered operand suffix.
func command(verb, target, suffix string) []byte {
	return []byte(verb + " " + strings.ToUpper(target) + suffix)
}

// segmentEdits turns segment field maps into render edits. Empty values
// delete the field when deleteEmpty is set and are skipped otherwise.
// Output is sorted so rendering is deterministic.
func segmentEdits(segments map[string]map[string]string, deleteEmpty bool) []AttributeEdit {
	segs := make([]string, 0, len(segments))
	for seg := range segments {
		segs = append(segs, seg)
	}
	sort.Strings(segs)

	var edits []AttributeEdit
	for _, seg := range segs {
		fields := segments[seg]
		names := make([]string, 0, len(fields))
		for f := range fields {
			names = append(names, f)
		}
		sort.Strings(names)

		for _, f := range names {
			name := strings.ToUpper(seg) + "." + strings.ToUpper(f)
			v := fields[f]
			switch {
			case v != "":
				edits = append(edits, SetEdit(name, v))
			case deleteEmpty:
				edits = append(edits, DeleteEdit(name))
			}
		}
	}
	return edits
}

// segmentsFromListing collects SEGMENT.FIELD attributes of every present
// extra segment into nested maps. List values are joined with spaces.
func segmentsFromListing(l *Listing) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for seg, present := range l.Segments {
		if present {
			out[seg] = make(map[string]string)
		}
	}
	for _, name := range l.Attributes.Names() {
		seg, field, ok := strings.Cut(name, ".")
		if !ok {
			continue
		}
		seg = strings.ToUpper(seg)
		fields, wanted := out[seg]
		if !wanted {
			continue
		}
		fields[strings.ToUpper(field)] = l.Attributes.GetString(name)
	}
	return out
}

// ListingPlan names the parts of a LISTUSER or LISTGRP response a caller
// needs.
type ListingPlan struct {
	Base     bool
	Segments []string
}

// membershipAttributes are derived from the base segment.
var membershipAttributes = map[string]bool{
	"GROUPS":            true,
	"GROUP_CONN_OWNERS": true,
	"MEMBERS":           true,
	"MEMBER_AUTHS":      true,
	"SUBGROUPS":         true,
}

// PlanListing computes which segments to request for the given attribute
// names. Names are SEGMENT.FIELD, a bare base field, a bare segment name or
// a membership-derived attribute. A nil request asks for the base segment
// plus every segment in available.
func PlanListing(requested []string, available []string) ListingPlan {
	if requested == nil {
		plan := ListingPlan{Base: true}
		for _, seg := range available {
			if !strings.EqualFold(seg, BaseSegment) {
				plan.Segments = append(plan.Segments, strings.ToUpper(seg))
			}
		}
		return plan
	}

	known := make(map[string]bool, len(available))
	for _, seg := range available {
		known[strings.ToUpper(seg)] = true
	}

	var plan ListingPlan
	seen := make(map[string]bool)
	for _, name := range requested {
		name = strings.ToUpper(strings.TrimSpace(name))
		seg, _, qualified := strings.Cut(name, ".")
		switch {
		case membershipAttributes[name]:
			plan.Base = true
		case !qualified && known[name] && name != BaseSegment:
			fallthrough
		case qualified && seg != BaseSegment:
			if !seen[seg] {
				seen[seg] = true
				plan.Segments = append(plan.Segments, seg)
			}
		default:
			plan.Base = true
		}
	}
	return plan
}

// listingSuffix renders the segment operands of a listing command.
func listingSuffix(plan ListingPlan) string {
	var sb strings.Builder
	if !plan.Base {
		sb.WriteString(" NORACF")
	}
	for _, seg := range plan.Segments {
		sb.WriteString(" ")
		sb.WriteString(strings.ToUpper(seg))
	}
	return sb.String()
}

// searchNames extracts profile names from SEARCH output. No-entries output
// yields an empty result.
func searchNames(out string) []string {
	if strings.Contains(strings.ToUpper(out), noEntriesPhrase) {
		return nil
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		for _, tok := range strings.Fields(line) {
			if ValidateName("profile", tok) == nil {
				names = append(names, strings.ToUpper(tok))
			}
		}
	}
	return names
}

// search runs SEARCH CLASS(class) with an optional mask.
func (r commandRunner) search(ctx context.Context, operation, class, mask string) ([]string, error) {
	suffix := ""
	if mask != "" {
		suffix = " MASK(" + Quote("MASK", strings.ToUpper(mask)) + ")"
	}
	out, err := r.client.Execute(ctx, []byte("SEARCH CLASS("+class+")"+suffix))
	if err != nil {
		if strings.Contains(strings.ToUpper(ErrorOutput(err)), noEntriesPhrase) {
			return nil, nil
		}
		return nil, WrapError(operation, err)
	}
	return searchNames(out), nil
}
