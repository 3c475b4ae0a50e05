// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerToken rejects requests whose Authorization header does not carry
// token. An empty token disables the check. Unauthorized requests get a 401
// through onFail.
func BearerToken(token string, onFail http.HandlerFunc) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="serverpilot"`)
				onFail(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
