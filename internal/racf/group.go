package racf

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Group represents a RACF group profile.
type Group struct {
	// Core identification
	Name          string `json:"name"`
	SuperiorGroup string `json:"superiorGroup,omitempty"`
	Owner         string `json:"owner,omitempty"`

	// Base segment
	Data     string `json:"data,omitempty"`
	Model    string `json:"model,omitempty"`
	TermUACC bool   `json:"termUACC"`

	// Membership information
	Subgroups         []string `json:"subgroups,omitempty"`
	Members           []string `json:"members,omitempty"`
	MemberAuthorities []string `json:"memberAuthorities,omitempty"` // parallel to Members

	// Timestamps
	Created *time.Time `json:"created,omitempty"`

	// Segments holds the fields of every present non-base segment.
	Segments map[string]map[string]string `json:"segments,omitempty"`
}

// CreateGroupRequest represents a request to create a new group.
type CreateGroupRequest struct {
	Name          string // Required: group name
	SuperiorGroup string
	Owner         string
	Data          string
	Model         string
	TermUACC      *bool
	Segments      map[string]map[string]string
}

// UpdateGroupRequest represents a request to update an existing group. Nil
// fields are left unchanged.
type UpdateGroupRequest struct {
	Name           string // Must match the group being updated when set
	SuperiorGroup  *string
	Owner          *string
	Data           *string // empty removes
	Model          *string // empty removes
	TermUACC       *bool
	Segments       map[string]map[string]string
	DeleteSegments []string
}

// GroupManager handles RACF group operations.
type GroupManager struct {
	runner     commandRunner
	grammars   *GrammarSet
	membership *MembershipManager
}

// NewGroupManager creates a new group manager instance.
func NewGroupManager(client Client, grammars *GrammarSet) *GroupManager {
	return &GroupManager{
		runner:     commandRunner{client: client},
		grammars:   grammars,
		membership: NewMembershipManager(client),
	}
}

// ValidateGroupRequest validates a group creation request.
func (gm *GroupManager) ValidateGroupRequest(req *CreateGroupRequest) error {
	if req == nil {
		return NewValidationError("create_group", "create group request cannot be nil")
	}
	if err := ValidateName("group", req.Name); err != nil {
		return err
	}
	if err := validateOptionalName("superior group", req.SuperiorGroup); err != nil {
		return err
	}
	if err := validateOptionalName("owner", req.Owner); err != nil {
		return err
	}
	return validateSegments(req.Segments, nil)
}

// CreateGroup creates a new group.
func (gm *GroupManager) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*Group, error) {
	if err := gm.ValidateGroupRequest(req); err != nil {
		return nil, err
	}
	name := strings.ToUpper(req.Name)

	err := LogOperation(ctx, SubsystemRACF, "create_group", map[string]any{"group": name}, func() error {
		if err := gm.ensureAbsent(ctx, name); err != nil {
			return err
		}

		edits := baseEdits(map[string]string{
			"SUPGROUP": req.SuperiorGroup,
			"OWNER":    req.Owner,
			"DATA":     req.Data,
			"MODEL":    req.Model,
		}, false)
		edits = append(edits, segmentEdits(req.Segments, false)...)

		cmd := command("ADDGROUP", name, Render(RenderInput{Edits: edits, Flags: termUACCFlags(req.TermUACC)}))
		return gm.runner.mutate(ctx, "create_group", name, cmd, nil)
	})
	if err != nil {
		return nil, err
	}

	return gm.GetGroup(ctx, name, nil)
}

// UpdateGroup applies the changes in req to an existing group.
func (gm *GroupManager) UpdateGroup(ctx context.Context, name string, req *UpdateGroupRequest) (*Group, error) {
	if req == nil {
		return nil, NewValidationError("update_group", "update group request cannot be nil")
	}
	if err := ValidateName("group", name); err != nil {
		return nil, err
	}
	if req.Name != "" && !strings.EqualFold(req.Name, name) {
		return nil, NewValidationError("update_group", "group %s cannot be renamed to %s", name, req.Name)
	}
	if err := validateSegments(req.Segments, req.DeleteSegments); err != nil {
		return nil, err
	}
	name = strings.ToUpper(name)

	fields := make(map[string]string)
	if req.SuperiorGroup != nil && *req.SuperiorGroup != "" {
		if err := ValidateName("superior group", *req.SuperiorGroup); err != nil {
			return nil, err
		}
		fields["SUPGROUP"] = *req.SuperiorGroup
	}
	if req.Owner != nil && *req.Owner != "" {
		if err := ValidateName("owner", *req.Owner); err != nil {
			return nil, err
		}
		fields["OWNER"] = *req.Owner
	}
	if req.Data != nil {
		fields["DATA"] = *req.Data
	}
	if req.Model != nil {
		fields["MODEL"] = *req.Model
	}

	edits := baseEdits(fields, true)
	edits = append(edits, segmentEdits(req.Segments, true)...)
	suffix := Render(RenderInput{Edits: edits, DeleteSegments: req.DeleteSegments, Flags: termUACCFlags(req.TermUACC)})

	if suffix != "" {
		err := LogOperation(ctx, SubsystemRACF, "update_group", map[string]any{"group": name}, func() error {
			return gm.runner.mutate(ctx, "update_group", name, command("ALTGROUP", name, suffix), nil)
		})
		if err != nil {
			return nil, err
		}
	}

	return gm.GetGroup(ctx, name, nil)
}

// DeleteGroup deletes a group.
func (gm *GroupManager) DeleteGroup(ctx context.Context, name string) error {
	if err := ValidateName("group", name); err != nil {
		return err
	}
	name = strings.ToUpper(name)

	return LogOperation(ctx, SubsystemRACF, "delete_group", map[string]any{"group": name}, func() error {
		return gm.runner.mutate(ctx, "delete_group", name, command("DELGROUP", name, ""), nil)
	})
}

// GetGroup lists a group and parses the response. A nil plan requests the
// base segment and every segment with a grammar.
func (gm *GroupManager) GetGroup(ctx context.Context, name string, plan *ListingPlan) (*Group, error) {
	if err := ValidateName("group", name); err != nil {
		return nil, err
	}
	name = strings.ToUpper(name)

	if plan == nil {
		p := PlanListing(nil, gm.grammars.Segments("GROUP"))
		plan = &p
	}

	out, err := gm.runner.query(ctx, "read_group", name, command("LISTGRP", name, listingSuffix(*plan)))
	if err != nil {
		return nil, err
	}

	listing, err := ParseListing(gm.grammars, "GROUP", out, plan.Base, plan.Segments)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, NewNotFoundError("read_group", name, out)
		}
		return nil, WrapError("read_group", err)
	}

	return groupFromListing(name, listing, plan.Base)
}

// SearchGroups returns the group names matching mask. An empty mask matches
// every group.
func (gm *GroupManager) SearchGroups(ctx context.Context, mask string) ([]string, error) {
	return gm.runner.search(ctx, "search_groups", "GROUP", mask)
}

// ListGroups searches by mask and lists each match, skipping groups that
// disappear in between.
func (gm *GroupManager) ListGroups(ctx context.Context, mask string, plan *ListingPlan) ([]*Group, error) {
	names, err := gm.SearchGroups(ctx, mask)
	if err != nil {
		return nil, err
	}

	groups := make([]*Group, 0, len(names))
	for _, n := range names {
		g, err := gm.GetGroup(ctx, n, plan)
		if err != nil {
			if IsNotFoundError(err) {
				continue
			}
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// SetGroupMembers connects and removes users so the members of group match
// desired. When auth is set every remaining member ends up with that group
// authority.
func (gm *GroupManager) SetGroupMembers(ctx context.Context, name string, desired []string, auth string) error {
	for _, u := range desired {
		if err := ValidateName("user", u); err != nil {
			return err
		}
	}

	current, err := gm.GetGroup(ctx, name, &ListingPlan{Base: true})
	if err != nil {
		return WrapError("get_current_members", err)
	}

	delta := CalculateMembershipDelta(current.Members, desired, "")
	if err := gm.checkRemovable(ctx, current.Name, delta.ToRemove); err != nil {
		return err
	}

	return gm.membership.ReconcileGroupMembers(ctx, current.Name, current.Members, current.MemberAuthorities, desired, auth)
}

// checkRemovable fails before any REMOVE is sent when a user to be removed
// has group as its default group, since the host rejects that removal.
func (gm *GroupManager) checkRemovable(ctx context.Context, group string, users []string) error {
	if len(users) == 0 {
		return nil
	}
	um := NewUserManager(gm.runner.client, gm.grammars)

	var pinned []string
	for _, u := range users {
		user, err := um.GetUser(ctx, u, &ListingPlan{Base: true})
		if err != nil {
			if IsNotFoundError(err) {
				continue
			}
			return WrapError("check_default_group", err)
		}
		if strings.EqualFold(user.DefaultGroup, group) {
			pinned = append(pinned, user.Name)
		}
	}
	if len(pinned) > 0 {
		return NewValidationError("set_group_members",
			"cannot remove %s from %s: it is their default group; change DFLTGRP first",
			strings.Join(pinned, ", "), strings.ToUpper(group))
	}
	return nil
}

// ensureAbsent fails with AlreadyExists when the group is defined.
func (gm *GroupManager) ensureAbsent(ctx context.Context, name string) error {
	_, err := gm.GetGroup(ctx, name, &ListingPlan{Base: true})
	switch {
	case err == nil:
		return NewAlreadyExistsError("create_group", name)
	case IsNotFoundError(err):
		return nil
	default:
		return WrapError("create_group_precheck", err)
	}
}

func termUACCFlags(termUACC *bool) Flags {
	if termUACC == nil {
		return Flags{}
	}
	if *termUACC {
		return Flags{Modifiers: []string{"TERMUACC"}}
	}
	return Flags{Modifiers: []string{"NOTERMUACC"}}
}

// groupFromListing converts a parsed LISTGRP response.
func groupFromListing(name string, l *Listing, base bool) (*Group, error) {
	g := &Group{
		Name:     name,
		Segments: segmentsFromListing(l),
	}
	if !base {
		return g, nil
	}

	a := l.Attributes
	if id := a.GetString("RACF.GROUPID"); id != "" {
		g.Name = strings.ToUpper(id)
	}
	g.SuperiorGroup = NormalizeValue(a.GetString("RACF.SUPGROUP"))
	g.Owner = NormalizeValue(a.GetString("RACF.OWNER"))
	g.Data = NormalizeValue(a.GetString("RACF.DATA"))
	g.Model = NormalizeValue(a.GetString("RACF.MODEL"))
	g.TermUACC = strings.EqualFold(a.GetString("RACF.TERMUACC"), "TERMUACC")
	g.Subgroups = withoutSentinels(a.GetList("RACF.SUBGROUPS"))
	g.Members = a.GetList("RACF.MEMBERS")
	g.MemberAuthorities = a.GetList("RACF.MEMBER_AUTHS")

	created, err := ParseRACFDate(a.GetString("RACF.CREATED"))
	if err != nil {
		return nil, NewParseError("read_group", fmt.Sprintf("RACF.CREATED: %v", err), "")
	}
	g.Created = created

	return g, nil
}
