// Package auth issues and verifies the HS256 bearer tokens that guard
// Hearth's mutating HTTP routes.
//
// Three roles exist: viewer, operator and admin. Each maps to a static
// permission set; there is no user database. Tokens are minted offline
// with cmd/hearth-token from the shared secret.
package auth
