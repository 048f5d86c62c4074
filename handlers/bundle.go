package handlers

import "staycal/services/identity"

// HandlerBundle groups the assembled handlers for route registration.
type HandlerBundle struct {
	// Sessions backs the auth middleware's revocation check.
	Sessions identity.SessionStore

	Auth     *AuthHandler
	Calendar *CalendarHandler
	Stream   *StreamHandler
}
