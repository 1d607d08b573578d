package account

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials covers unknown identifiers and wrong secrets
	// alike, so responses never reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPassword is returned by the password-change flow when the
	// current password does not match.
	ErrWrongPassword = errors.New("wrong password")

	// ErrProvisioningFailed means provisioning still hit validation
	// conflicts after the targeted retries. Fatal for the request.
	ErrProvisioningFailed = errors.New("account provisioning failed")
)

// ValidationError carries field-level messages for form redisplay.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
