package racf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CatalogAlias describes the catalog alias defined for a user's high-level
// qualifier.
type CatalogAlias struct {
	Alias         string `json:"alias,omitempty"`
	MasterCatalog string `json:"masterCatalog,omitempty"`
	UserCatalog   string `json:"userCatalog,omitempty"`
}

// IsSet reports whether all catalog fields are present.
func (c CatalogAlias) IsSet() bool {
	return c.Alias != "" && c.MasterCatalog != "" && c.UserCatalog != ""
}

// User represents a RACF user profile.
type User struct {
	// Core identification
	Name     string `json:"name"`
	FullName string `json:"fullName,omitempty"` // NAME
	Owner    string `json:"owner,omitempty"`

	// Base segment
	DefaultGroup        string   `json:"defaultGroup,omitempty"`
	Data                string   `json:"data,omitempty"`
	Model               string   `json:"model,omitempty"`
	Attributes          []string `json:"attributes,omitempty"` // SPECIAL, OPERATIONS, REVOKED, ...
	ClassAuthorizations []string `json:"classAuthorizations,omitempty"`
	PasswordInterval    string   `json:"passwordInterval,omitempty"`
	SecurityLevel       string   `json:"securityLevel,omitempty"`
	SecurityLabel       string   `json:"securityLabel,omitempty"`

	// Derived state
	Enabled         bool `json:"enabled"`
	PasswordExpired bool `json:"passwordExpired"`

	// Group connections, parallel slices
	Groups      []string `json:"groups,omitempty"`
	GroupOwners []string `json:"groupOwners,omitempty"`

	// Timestamps
	Created      *time.Time `json:"created,omitempty"`
	PasswordDate *time.Time `json:"passwordDate,omitempty"`
	LastAccess   *time.Time `json:"lastAccess,omitempty"`
	RevokeDate   *time.Time `json:"revokeDate,omitempty"`
	ResumeDate   *time.Time `json:"resumeDate,omitempty"`

	// Segments holds the fields of every present non-base segment.
	Segments map[string]map[string]string `json:"segments,omitempty"`
}

// CreateUserRequest represents a request to create a new user.
type CreateUserRequest struct {
	Name         string // Required: user ID
	FullName     string
	Owner        string
	DefaultGroup string
	Data         string
	Model        string

	// Password is composed into the command inside a SecretBuffer. The
	// caller owns the slice.
	Password []byte
	Expired  bool

	Attributes []string // SPECIAL, OPERATIONS, AUDITOR, ...

	Enabled    *bool
	EnableDate *time.Time

	Groups      []string
	GroupOwners []string

	Segments map[string]map[string]string
	Catalog  CatalogAlias
}

// GroupConnections is the desired set of group connections of a user.
type GroupConnections struct {
	Groups []string
	Owners []string
}

// UpdateUserRequest represents a request to update an existing user. Nil
// fields are left unchanged.
type UpdateUserRequest struct {
	Name string // Must match the user being updated when set

	FullName     *string
	Owner        *string
	DefaultGroup *string
	Data         *string // empty removes
	Model        *string // empty removes

	Password []byte
	Expired  *bool

	AddAttributes    []string
	RemoveAttributes []string

	Enabled    *bool
	EnableDate *time.Time

	Groups *GroupConnections

	// Segments sets fields; an empty value removes the field.
	Segments       map[string]map[string]string
	DeleteSegments []string

	Catalog *CatalogAlias
}

// UserManager handles RACF user operations.
type UserManager struct {
	runner     commandRunner
	grammars   *GrammarSet
	membership *MembershipManager
}

// NewUserManager creates a new user manager instance.
func NewUserManager(client Client, grammars *GrammarSet) *UserManager {
	return &UserManager{
		runner:     commandRunner{client: client},
		grammars:   grammars,
		membership: NewMembershipManager(client),
	}
}

// ValidateCreateRequest validates a user creation request.
func (um *UserManager) ValidateCreateRequest(req *CreateUserRequest) error {
	if req == nil {
		return NewValidationError("create_user", "create user request cannot be nil")
	}
	if err := ValidateName("user", req.Name); err != nil {
		return err
	}
	if err := validateOptionalName("owner", req.Owner); err != nil {
		return err
	}
	if err := validateOptionalName("default group", req.DefaultGroup); err != nil {
		return err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if err := validateExpiredPassword(req.Expired, req.Password); err != nil {
		return err
	}
	if err := validateGroupOwners(req.Groups, req.GroupOwners); err != nil {
		return err
	}
	if err := validateCatalog(req.Catalog); err != nil {
		return err
	}
	if err := validateEnableDate(req.Enabled, req.EnableDate); err != nil {
		return err
	}
	return validateSegments(req.Segments, nil)
}

// ValidateUpdateRequest validates a user update request.
func (um *UserManager) ValidateUpdateRequest(name string, req *UpdateUserRequest) error {
	if req == nil {
		return NewValidationError("update_user", "update user request cannot be nil")
	}
	if err := ValidateName("user", name); err != nil {
		return err
	}
	if req.Name != "" && !strings.EqualFold(req.Name, name) {
		return NewValidationError("update_user", "user %s cannot be renamed to %s", name, req.Name)
	}
	if req.Owner != nil {
		if err := validateOptionalName("owner", *req.Owner); err != nil {
			return err
		}
	}
	if req.DefaultGroup != nil {
		if err := validateOptionalName("default group", *req.DefaultGroup); err != nil {
			return err
		}
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if err := validateExpiredPassword(req.Expired != nil && *req.Expired, req.Password); err != nil {
		return err
	}
	if req.Groups != nil {
		if err := validateGroupOwners(req.Groups.Groups, req.Groups.Owners); err != nil {
			return err
		}
	}
	if req.Catalog != nil {
		if err := validateCatalog(*req.Catalog); err != nil {
			return err
		}
	}
	for _, attr := range append(append([]string{}, req.AddAttributes...), req.RemoveAttributes...) {
		if err := validateKeyword("attribute", attr); err != nil {
			return err
		}
	}
	if err := validateEnableDate(req.Enabled, req.EnableDate); err != nil {
		return err
	}
	return validateSegments(req.Segments, req.DeleteSegments)
}

func validateEnableDate(enabled *bool, date *time.Time) error {
	if date != nil && enabled == nil {
		return NewValidationError("validate", "an enable date requires enabled to be set")
	}
	return nil
}

// CreateUser creates a new user, then applies the follow-up commands for
// password expiry, revoke or resume dates, the catalog alias and group
// connections.
func (um *UserManager) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if err := um.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	name := strings.ToUpper(req.Name)

	err := LogOperation(ctx, SubsystemRACF, "create_user", map[string]any{"user": name}, func() error {
		if err := um.ensureAbsent(ctx, name); err != nil {
			return err
		}

		edits := baseEdits(map[string]string{
			"NAME":    req.FullName,
			"OWNER":   req.Owner,
			"DFLTGRP": req.DefaultGroup,
			"DATA":    req.Data,
			"MODEL":   req.Model,
		}, false)
		edits = append(edits, segmentEdits(req.Segments, false)...)
		suffix := Render(RenderInput{Edits: edits, Flags: Flags{Modifiers: req.Attributes}})

		if err := um.sendWithPassword(ctx, "create_user", "ADDUSER", name, suffix, req.Password, ""); err != nil {
			return err
		}

		if len(req.Password) > 0 && !req.Expired {
			if err := um.sendWithPassword(ctx, "create_user", "ALTUSER", name, "", req.Password, " NOEXPIRED"); err != nil {
				return WrapError("set_password_noexpired", err)
			}
		}

		if req.Enabled != nil && (!*req.Enabled || req.EnableDate != nil) {
			if err := um.setEnabled(ctx, name, *req.Enabled, req.EnableDate); err != nil {
				return err
			}
		}

		if req.Catalog.IsSet() {
			if err := um.defineAlias(ctx, name, req.Catalog); err != nil {
				return err
			}
		}

		if len(req.Groups) > 0 {
			return um.SetUserGroups(ctx, name, req.Groups, req.GroupOwners, req.DefaultGroup)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return um.GetUser(ctx, name, nil)
}

// UpdateUser applies the changes in req to an existing user.
func (um *UserManager) UpdateUser(ctx context.Context, name string, req *UpdateUserRequest) (*User, error) {
	if err := um.ValidateUpdateRequest(name, req); err != nil {
		return nil, err
	}
	name = strings.ToUpper(name)

	err := LogOperation(ctx, SubsystemRACF, "update_user", map[string]any{"user": name}, func() error {
		// Fields that cannot be removed are skipped when empty.
		fields := make(map[string]string)
		setIf := func(keyword string, v *string, canDelete bool) {
			if v == nil || (*v == "" && !canDelete) {
				return
			}
			fields[keyword] = *v
		}
		setIf("NAME", req.FullName, false)
		setIf("OWNER", req.Owner, false)
		setIf("DFLTGRP", req.DefaultGroup, false)
		setIf("DATA", req.Data, true)
		setIf("MODEL", req.Model, true)

		edits := baseEdits(fields, true)
		edits = append(edits, segmentEdits(req.Segments, true)...)

		flags := Flags{}
		for _, a := range req.AddAttributes {
			flags.Modifiers = append(flags.Modifiers, strings.ToUpper(a))
		}
		for _, a := range req.RemoveAttributes {
			flags.Modifiers = append(flags.Modifiers, "NO"+strings.ToUpper(a))
		}
		if req.Enabled != nil && req.EnableDate == nil {
			flags.Enabled = req.Enabled
		}

		suffix := Render(RenderInput{Edits: edits, DeleteSegments: req.DeleteSegments, Flags: flags})

		passwordSuffix := ""
		if len(req.Password) > 0 && req.Expired != nil {
			if *req.Expired {
				passwordSuffix = " EXPIRED"
			} else {
				passwordSuffix = " NOEXPIRED"
			}
		}

		if suffix != "" || len(req.Password) > 0 {
			if err := um.sendWithPassword(ctx, "update_user", "ALTUSER", name, suffix, req.Password, passwordSuffix); err != nil {
				return err
			}
		}

		if req.Enabled != nil && req.EnableDate != nil {
			if err := um.setEnabled(ctx, name, *req.Enabled, req.EnableDate); err != nil {
				return err
			}
		}

		if req.Catalog != nil && req.Catalog.IsSet() {
			if err := um.defineAlias(ctx, name, *req.Catalog); err != nil {
				return err
			}
		}

		if req.Groups != nil {
			defaultGroup := ""
			if req.DefaultGroup != nil {
				defaultGroup = *req.DefaultGroup
			}
			return um.SetUserGroups(ctx, name, req.Groups.Groups, req.Groups.Owners, defaultGroup)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return um.GetUser(ctx, name, nil)
}

// DeleteUser deletes a user.
func (um *UserManager) DeleteUser(ctx context.Context, name string) error {
	if err := ValidateName("user", name); err != nil {
		return err
	}
	name = strings.ToUpper(name)

	return LogOperation(ctx, SubsystemRACF, "delete_user", map[string]any{"user": name}, func() error {
		return um.runner.mutate(ctx, "delete_user", name, command("DELUSER", name, ""), nil)
	})
}

// GetUser lists a user and parses the response. plan selects the segments
// to request; nil requests the base segment and every segment with a
// grammar.
func (um *UserManager) GetUser(ctx context.Context, name string, plan *ListingPlan) (*User, error) {
	if err := ValidateName("user", name); err != nil {
		return nil, err
	}
	name = strings.ToUpper(name)

	if plan == nil {
		p := PlanListing(nil, um.grammars.Segments("USER"))
		plan = &p
	}

	out, err := um.runner.query(ctx, "read_user", name, command("LISTUSER", name, listingSuffix(*plan)))
	if err != nil {
		return nil, err
	}

	listing, err := ParseListing(um.grammars, "USER", out, plan.Base, plan.Segments)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, NewNotFoundError("read_user", name, out)
		}
		return nil, WrapError("read_user", err)
	}

	return userFromListing(name, listing, plan.Base)
}

// SearchUsers returns the user IDs matching mask. An empty mask matches
// every user.
func (um *UserManager) SearchUsers(ctx context.Context, mask string) ([]string, error) {
	return um.runner.search(ctx, "search_users", "USER", mask)
}

// ListUsers searches by mask and lists each match. Users deleted between
// the search and the listing are skipped.
func (um *UserManager) ListUsers(ctx context.Context, mask string, plan *ListingPlan) ([]*User, error) {
	names, err := um.SearchUsers(ctx, mask)
	if err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(names))
	for _, n := range names {
		u, err := um.GetUser(ctx, n, plan)
		if err != nil {
			if IsNotFoundError(err) {
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// SetUserGroups connects and removes user so that its groups match
// desired. owners holds the connect owner of desired[i]. The default group
// is never removed; when defaultGroup is empty the current one is used.
func (um *UserManager) SetUserGroups(ctx context.Context, name string, desired, owners []string, defaultGroup string) error {
	if err := validateGroupOwners(desired, owners); err != nil {
		return err
	}

	current, err := um.GetUser(ctx, name, &ListingPlan{Base: true})
	if err != nil {
		return WrapError("get_current_groups", err)
	}
	if defaultGroup == "" {
		defaultGroup = current.DefaultGroup
	}

	return um.membership.ReconcileUserGroups(ctx, current.Name, current.Groups, desired, owners, defaultGroup)
}

// ensureAbsent fails with AlreadyExists when the user is defined.
func (um *UserManager) ensureAbsent(ctx context.Context, name string) error {
	_, err := um.GetUser(ctx, name, &ListingPlan{Base: true})
	switch {
	case err == nil:
		return NewAlreadyExistsError("create_user", name)
	case IsNotFoundError(err):
		return nil
	default:
		return WrapError("create_user_precheck", err)
	}
}

// sendWithPassword composes VERB NAME suffix [PASSWORD(pw)] trailer in a
// SecretBuffer and sends it. The buffer is wiped before returning.
func (um *UserManager) sendWithPassword(ctx context.Context, operation, verb, name, suffix string, password []byte, trailer string) error {
	size := len(verb) + len(name) + len(suffix) + len(password) + len(trailer) + 16
	return WithSecret(size, func(sb *SecretBuffer) error {
		sb.WriteString(verb)
		sb.WriteString(" ")
		sb.WriteString(name)
		sb.WriteString(suffix)
		if len(password) > 0 {
			sb.WriteString(" PASSWORD(")
			sb.Write(password)
			sb.WriteString(")")
		}
		sb.WriteString(trailer)
		err := um.runner.mutate(ctx, operation, name, sb.Bytes(), nil)
		var re *RACFError
		if len(password) > 0 && errors.As(err, &re) {
			re.Message = Redact(re.Message, password)
			re.Output = Redact(re.Output, password)
		}
		return err
	})
}

// setEnabled sends ALTUSER REVOKE or RESUME, with an effective date when set.
func (um *UserManager) setEnabled(ctx context.Context, name string, enabled bool, date *time.Time) error {
	flags := Flags{Enabled: &enabled}
	if date != nil {
		flags.EnableDate = FormatRACFDate(*date)
	}
	cmd := command("ALTUSER", name, Render(RenderInput{Flags: flags}))
	if err := um.runner.mutate(ctx, "set_user_enabled", name, cmd, nil); err != nil {
		return WrapError("set_user_enabled", err)
	}
	return nil
}

// defineAlias defines the user catalog alias. IDCAMS reports success with a
// zero condition code.
func (um *UserManager) defineAlias(ctx context.Context, name string, c CatalogAlias) error {
	cmd := fmt.Sprintf("DEFINE ALIAS (NAME('%s') RELATE('%s')) CATALOG('%s')",
		strings.ToUpper(c.Alias), strings.ToUpper(c.UserCatalog), strings.ToUpper(c.MasterCatalog))
	accept := func(out string) bool {
		return strings.Contains(strings.ToUpper(out), "CONDITION CODE WAS 0")
	}
	if err := um.runner.mutate(ctx, "define_alias", name, []byte(cmd), accept); err != nil {
		return WrapError("define_alias", err)
	}
	return nil
}

// baseEdits turns keyword/value pairs into edits in a stable order.
// Empty values become deletions when deleteEmpty is set.
func baseEdits(fields map[string]string, deleteEmpty bool) []AttributeEdit {
	return segmentEdits(map[string]map[string]string{BaseSegment: fields}, deleteEmpty)
}

// userFromListing converts a parsed LISTUSER response.
func userFromListing(name string, l *Listing, base bool) (*User, error) {
	u := &User{
		Name:     name,
		Enabled:  true,
		Segments: segmentsFromListing(l),
	}
	if !base {
		return u, nil
	}

	a := l.Attributes
	if id := a.GetString("RACF.USERID"); id != "" {
		u.Name = strings.ToUpper(id)
	}
	u.FullName = NormalizeValue(a.GetString("RACF.NAME"))
	u.Owner = NormalizeValue(a.GetString("RACF.OWNER"))
	u.DefaultGroup = NormalizeValue(a.GetString("RACF.DFLTGRP"))
	u.Data = NormalizeValue(a.GetString("RACF.DATA"))
	u.Model = NormalizeValue(a.GetString("RACF.MODEL"))
	u.PasswordInterval = NormalizeValue(a.GetString("RACF.PASSWORD_INTERVAL"))
	u.SecurityLevel = NormalizeValue(a.GetString("RACF.SECLEVEL"))
	u.SecurityLabel = NormalizeValue(a.GetString("RACF.SECLABEL"))
	u.Attributes = withoutSentinels(a.GetList("RACF.ATTRIBUTES"))
	u.ClassAuthorizations = withoutSentinels(a.GetList("RACF.CLAUTH"))
	u.Groups = a.GetList("RACF.GROUPS")
	u.GroupOwners = a.GetList("RACF.GROUP_CONN_OWNERS")

	u.Enabled = UserEnabled(u.Attributes)
	u.PasswordExpired = PasswordExpired(a.GetString("RACF.PASSDATE"))

	var err error
	dates := []struct {
		field string
		dst   **time.Time
		parse func(string) (*time.Time, error)
	}{
		{"RACF.CREATED", &u.Created, ParseRACFDate},
		{"RACF.PASSDATE", &u.PasswordDate, ParseRACFDate},
		{"RACF.LAST_ACCESS", &u.LastAccess, ParseRACFTimestamp},
		{"RACF.REVOKE_DATE", &u.RevokeDate, ParseRACFDate},
		{"RACF.RESUME_DATE", &u.ResumeDate, ParseRACFDate},
	}
	for _, d := range dates {
		if *d.dst, err = d.parse(a.GetString(d.field)); err != nil {
			return nil, NewParseError("read_user", fmt.Sprintf("%s: %v", d.field, err), "")
		}
	}

	return u, nil
}

// withoutSentinels drops placeholder items such as NONE from a list.
func withoutSentinels(items []string) []string {
	var out []string
	for _, item := range items {
		if !IsSentinel(item) {
			out = append(out, item)
		}
	}
	return out
}
