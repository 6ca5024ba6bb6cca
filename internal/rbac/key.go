package rbac

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/alumnihub/alumnihub/internal/platform/validate"
)

// PermissionKey identifies a permission by module and action. Keys are
// compared by exact identity; there is no prefix or wildcard matching.
type PermissionKey struct {
	Module string
	Action string
}

func (k PermissionKey) String() string {
	return k.Module + "." + k.Action
}

// NewPermissionKey case-folds and validates module and action.
func NewPermissionKey(module, action string) (PermissionKey, error) {
	// cases.Caser is stateful, so build one per call.
	fold := cases.Fold()
	k := PermissionKey{
		Module: fold.String(strings.TrimSpace(module)),
		Action: fold.String(strings.TrimSpace(action)),
	}
	if err := validToken(k.Module, true); err != nil {
		return PermissionKey{}, validate.Field("module", err.Error())
	}
	if err := validToken(k.Action, false); err != nil {
		return PermissionKey{}, validate.Field("action", err.Error())
	}
	return k, nil
}

// ParsePermissionKey parses "module.action". The action is the segment after
// the last dot, so modules may be namespaced ("finance.ap.view").
func ParsePermissionKey(raw string) (PermissionKey, error) {
	raw = strings.TrimSpace(raw)
	i := strings.LastIndexByte(raw, '.')
	if i <= 0 || i == len(raw)-1 {
		return PermissionKey{}, validate.Field("permission", fmt.Sprintf("%q is not of the form module.action", raw))
	}
	return NewPermissionKey(raw[:i], raw[i+1:])
}

// MustParsePermissionKey is ParsePermissionKey for compile-time constants.
func MustParsePermissionKey(raw string) PermissionKey {
	k, err := ParsePermissionKey(raw)
	if err != nil {
		panic(err)
	}
	return k
}

func validToken(s string, allowDots bool) error {
	if s == "" {
		return fmt.Errorf("must not be empty")
	}
	if len(s) > 64 {
		return fmt.Errorf("must be at most 64 characters")
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		case r == '.' && allowDots && i > 0 && i < len(s)-1:
		default:
			return fmt.Errorf("invalid character %q", r)
		}
	}
	if strings.Contains(s, "..") {
		return fmt.Errorf("must not contain empty segments")
	}
	return nil
}
