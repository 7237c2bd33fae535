package auth

import (
	"net/http"
	"strings"
)

// BearerToken returns the credential of an "Authorization: Bearer <token>" header. The scheme is
// matched case-insensitively; an empty credential counts as absent.
func BearerToken(r *http.Request) (string, bool) {
	scheme, credential, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(credential)
	return token, token != ""
}
