package utils

import "strings"

// AnonymizeEmail masks the local part of an address, keeping the first three
// characters (one, for short locals) and the full domain:
//
//	"joaosilva@email.com" -> "joa******@email.com"
//	"ab@dominio.com"      -> "a*@dominio.com"
//
// Used in the password-reset confirmation message so the page confirms a mail
// was sent without exposing the whole address to an onlooker.
func AnonymizeEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}

	var masked string
	if len(local) > 3 {
		masked = local[:3] + strings.Repeat("*", len(local)-3)
	} else {
		masked = local[:1] + strings.Repeat("*", len(local)-1)
	}

	return masked + "@" + domain
}
