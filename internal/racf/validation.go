package racf

import (
	"strings"
)

// MaxNameLength is the longest user ID or group name RACF accepts.
const MaxNameLength = 8

// nationalChars are the non-alphanumeric characters allowed in RACF names.
const nationalChars = "#$@"

// passwordForbidden are characters that would break the PASSWORD operand.
const passwordForbidden = "() ,;'\t\r\n"

// ValidateName checks a user ID or group name: 1-8 characters, alphanumeric
// or national, not starting with a digit.
func ValidateName(kind, name string) error {
	if name == "" {
		return NewValidationError("validate", "%s name is required", kind)
	}
	if len(name) > MaxNameLength {
		return NewValidationError("validate", "%s name %q is longer than %d characters", kind, name, MaxNameLength)
	}
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', strings.ContainsRune(nationalChars, r):
		case r >= '0' && r <= '9':
			if i == 0 {
				return NewValidationError("validate", "%s name %q must not start with a digit", kind, name)
			}
		default:
			return NewValidationError("validate", "%s name %q contains invalid character %q", kind, name, r)
		}
	}
	return nil
}

// validateOptionalName runs ValidateName when name is set.
func validateOptionalName(kind, name string) error {
	if name == "" {
		return nil
	}
	return ValidateName(kind, name)
}

// ValidatePassword rejects passwords that cannot be placed in a PASSWORD
// operand unquoted.
func ValidatePassword(password []byte) error {
	if len(password) == 0 {
		return nil
	}
	if len(password) > 100 {
		return NewValidationError("validate", "password is longer than 100 characters")
	}
	for _, b := range password {
		if strings.IndexByte(passwordForbidden, b) >= 0 {
			return NewValidationError("validate", "password contains a character that is not allowed")
		}
	}
	return nil
}

// validateExpiredPassword requires a password whenever the password is to
// be marked expired.
func validateExpiredPassword(expired bool, password []byte) error {
	if expired && len(password) == 0 {
		return NewValidationError("validate", "a password is required when expired is set")
	}
	return nil
}

// validateGroupOwners requires one owner per group when owners are given.
func validateGroupOwners(groups, owners []string) error {
	if len(owners) > 0 && len(owners) != len(groups) {
		return NewValidationError("validate", "group_owners has %d entries but groups has %d", len(owners), len(groups))
	}
	for _, g := range groups {
		if err := ValidateName("group", g); err != nil {
			return err
		}
	}
	for _, o := range owners {
		if err := validateOptionalName("owner", o); err != nil {
			return err
		}
	}
	return nil
}

// validateCatalog requires the catalog alias fields to be given together.
func validateCatalog(c CatalogAlias) error {
	set := 0
	for _, v := range []string{c.Alias, c.MasterCatalog, c.UserCatalog} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return NewValidationError("validate", "catalog alias, master catalog and user catalog must be set together")
	}
	if set == 0 {
		return nil
	}
	for _, v := range []string{c.Alias, c.MasterCatalog, c.UserCatalog} {
		if err := ValidateDatasetName(v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDatasetName checks a catalog or alias name: qualifiers of 1-8
// alphanumeric or national characters separated by periods.
func ValidateDatasetName(name string) error {
	if len(name) > 44 {
		return NewValidationError("validate", "data set name %q is longer than 44 characters", name)
	}
	for _, q := range strings.Split(name, ".") {
		if err := ValidateName("qualifier", q); err != nil {
			return NewValidationError("validate", "data set name %q is invalid: %s", name, err.(*RACFError).Message)
		}
	}
	return nil
}

// validateSegments checks segment and field names used in edits.
func validateSegments(segments map[string]map[string]string, deleted []string) error {
	for seg, fields := range segments {
		if err := validateKeyword("segment", seg); err != nil {
			return err
		}
		if strings.EqualFold(seg, BaseSegment) {
			return NewValidationError("validate", "base segment fields cannot be set through segments")
		}
		for field := range fields {
			if err := validateKeyword("field", field); err != nil {
				return err
			}
		}
	}
	for _, seg := range deleted {
		if err := validateKeyword("segment", seg); err != nil {
			return err
		}
		if strings.EqualFold(seg, BaseSegment) {
			return NewValidationError("validate", "the base segment cannot be deleted")
		}
	}
	return nil
}

// validateKeyword accepts command keywords: letters and digits only.
func validateKeyword(kind, word string) error {
	if word == "" {
		return NewValidationError("validate", "%s name is required", kind)
	}
	for _, r := range word {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return NewValidationError("validate", "%s name %q contains invalid character %q", kind, word, r)
		}
	}
	return nil
}
