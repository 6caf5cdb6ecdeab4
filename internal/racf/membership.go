package racf

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// MembershipDelta represents the changes needed to achieve desired membership state.
type MembershipDelta struct {
	ToAdd    []string // Groups or members to connect
	ToRemove []string // Groups or members to remove
}

// IsEmpty reports whether no change is needed.
func (d *MembershipDelta) IsEmpty() bool {
	return d == nil || (len(d.ToAdd) == 0 && len(d.ToRemove) == 0)
}

// CalculateMembershipDelta compares current and desired relationship sets
// case-insensitively. defaultMember is never added or removed.
func CalculateMembershipDelta(current, desired []string, defaultMember string) *MembershipDelta {
	currentMap := make(map[string]string, len(current))
	desiredMap := make(map[string]string, len(desired))
	skip := strings.ToUpper(strings.TrimSpace(defaultMember))

	for _, c := range current {
		key := strings.ToUpper(strings.TrimSpace(c))
		if key != "" && key != skip {
			currentMap[key] = key
		}
	}
	for _, d := range desired {
		key := strings.ToUpper(strings.TrimSpace(d))
		if key != "" && key != skip {
			desiredMap[key] = key
		}
	}

	delta := &MembershipDelta{}
	for key, name := range desiredMap {
		if _, exists := currentMap[key]; !exists {
			delta.ToAdd = append(delta.ToAdd, name)
		}
	}
	for key, name := range currentMap {
		if _, exists := desiredMap[key]; !exists {
			delta.ToRemove = append(delta.ToRemove, name)
		}
	}

	sort.Strings(delta.ToAdd)
	sort.Strings(delta.ToRemove)
	return delta
}

// MembershipManager issues CONNECT and REMOVE commands.
type MembershipManager struct {
	runner commandRunner
}

// NewMembershipManager creates a membership manager.
func NewMembershipManager(client Client) *MembershipManager {
	return &MembershipManager{runner: commandRunner{client: client}}
}

// Connect connects user to group. owner and auth are optional.
func (mm *MembershipManager) Connect(ctx context.Context, user, group, owner, auth string) error {
	edits := []AttributeEdit{SetEdit("GROUP", strings.ToUpper(group))}
	if owner != "" {
		edits = append(edits, SetEdit("OWNER", strings.ToUpper(owner)))
	}
	if auth != "" {
		edits = append(edits, SetEdit("AUTH", strings.ToUpper(auth)))
	}
	cmd := command("CONNECT", user, Render(RenderInput{Edits: edits}))
	return mm.runner.mutate(ctx, "connect", user, cmd, nil)
}

// Remove removes user from group.
func (mm *MembershipManager) Remove(ctx context.Context, user, group string) error {
	cmd := command("REMOVE", user, Render(RenderInput{Edits: []AttributeEdit{SetEdit("GROUP", strings.ToUpper(group))}}))
	return mm.runner.mutate(ctx, "remove", user, cmd, nil)
}

// ReconcileUserGroups applies the difference between current and desired
// groups of user: removals first, then connections. owners holds the owner
// for desired[i] when it is not empty. The default group is skipped.
func (mm *MembershipManager) ReconcileUserGroups(ctx context.Context, user string, current, desired, owners []string, defaultGroup string) error {
	delta := CalculateMembershipDelta(current, desired, defaultGroup)
	if delta.IsEmpty() {
		return nil
	}

	tflog.SubsystemDebug(ctx, SubsystemRACF, "Reconciling group connections", map[string]any{
		"user":      user,
		"to_add":    delta.ToAdd,
		"to_remove": delta.ToRemove,
	})

	ownerOf := make(map[string]string, len(owners))
	for i, g := range desired {
		if i < len(owners) {
			ownerOf[strings.ToUpper(strings.TrimSpace(g))] = owners[i]
		}
	}

	for _, g := range delta.ToRemove {
		if err := mm.Remove(ctx, user, g); err != nil {
			return WrapError("remove_user_group", err)
		}
	}
	for _, g := range delta.ToAdd {
		if err := mm.Connect(ctx, user, g, ownerOf[g], ""); err != nil {
			return WrapError("connect_user_group", err)
		}
	}
	return nil
}

// ReconcileGroupMembers applies the difference between current and desired
// members of group. New members are connected with auth when it is set, and
// retained members whose authority in currentAuth differs are connected
// again to change it. currentAuth is parallel to current.
func (mm *MembershipManager) ReconcileGroupMembers(ctx context.Context, group string, current, currentAuth, desired []string, auth string) error {
	delta := CalculateMembershipDelta(current, desired, "")
	for _, u := range delta.ToRemove {
		if err := mm.Remove(ctx, u, group); err != nil {
			return WrapError("remove_group_member", err)
		}
	}
	for _, u := range delta.ToAdd {
		if err := mm.Connect(ctx, u, group, "", auth); err != nil {
			return WrapError("connect_group_member", err)
		}
	}
	if auth == "" {
		return nil
	}

	removed := make(map[string]bool, len(delta.ToRemove))
	for _, u := range delta.ToRemove {
		removed[u] = true
	}
	for i, u := range current {
		u = strings.ToUpper(strings.TrimSpace(u))
		if removed[u] || i >= len(currentAuth) || strings.EqualFold(currentAuth[i], auth) {
			continue
		}
		if err := mm.Connect(ctx, u, group, "", auth); err != nil {
			return WrapError("change_member_authority", err)
		}
	}
	return nil
}
