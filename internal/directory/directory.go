// Package directory is the user directory the gateway consults when running
// standalone. It owns the find-or-provision step of the OAuth callback: the
// lookup and the conditional create happen in one atomic statement, so two
// concurrent callbacks presenting the same email converge on a single
// account.
package directory

import (
	"time"
)

// Provision describes an OAuth-authenticated principal to reconcile with the
// directory. Provider tokens follow last-writer-wins: whichever callback
// lands second overwrites the linked tokens.
type Provision struct {
	Email          string
	Username       string
	ProviderUserID string
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
}
