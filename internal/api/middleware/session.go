package middleware

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/chitralai/chitralai/internal/domain"
)

const (
	// LocalUserEmail is the key to retrieve the session user from context
	LocalUserEmail = "user_email"
	// LocalSession is the key to retrieve the full session from context
	LocalSession = "session"

	HeaderUserEmail     = "X-User-Email"
	HeaderPendingAction = "X-Pending-Action"
)

// Session builds the per-request domain.Session from the identity headers
// set by the upstream auth layer. It never rejects a request; handlers
// that need a user check Session.Authenticated.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := domain.Session{
			PendingAction: pendingAction(c.Get(HeaderPendingAction)),
		}
		if email := strings.TrimSpace(c.Get(HeaderUserEmail)); email != "" {
			if addr, err := mail.ParseAddress(email); err == nil {
				sess.UserEmail = strings.ToLower(addr.Address)
			}
		}

		c.Locals(LocalSession, sess)
		if sess.UserEmail != "" {
			c.Locals(LocalUserEmail, sess.UserEmail)
		}
		return c.Next()
	}
}

func pendingAction(raw string) domain.PendingAction {
	switch a := domain.PendingAction(strings.TrimSpace(raw)); a {
	case domain.PendingGetPhotos, domain.PendingUploadPhoto, domain.PendingCreateEvent:
		return a
	}
	return domain.PendingNone
}

// GetSession returns the request session with CurrentEventID taken from
// the :id route param when there is one.
func GetSession(c *fiber.Ctx) domain.Session {
	sess, _ := c.Locals(LocalSession).(domain.Session)
	if id := c.Params("id"); id != "" {
		sess.CurrentEventID = id
	}
	return sess
}

// RequireUser rejects anonymous requests.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !GetSession(c).Authenticated() {
			return domain.ErrUnauthorized
		}
		return c.Next()
	}
}
