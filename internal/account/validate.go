package account

import (
	"regexp"
	"strings"
)

var usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{2,31}$`)

func validateUsername(username string) string {
	if strings.TrimSpace(username) == "" {
		return "username is required"
	}
	if !usernameRegexp.MatchString(username) {
		return "username must be 3-32 characters: letters, digits, '_', '.' or '-'"
	}
	return ""
}

func validateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "email is required"
	}
	if len(email) > 255 || strings.Count(email, "@") != 1 || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return "email is not valid"
	}
	return ""
}

func validatePassword(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
