package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/fablehouse/fable-api/internal/logger"
)

const (
	sessionName  = "fable_session"
	sessionIDKey = "id"

	// ContextSessionID is where downstream handlers find the session ID
	ContextSessionID = "session_id"

	sessionMaxAgeSeconds = 60 * 60 * 24 * 7
)

// NewSessionStore creates the cookie store the session middleware signs
// cookies with.
func NewSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAgeSeconds,
		HttpOnly: true,
		SameSite: 0, // browser default
	}
	return store
}

// Session assigns each browser a stable session ID via a signed cookie. The
// ID keys the in-memory story state: one live document per session, nothing
// persisted server-side beyond the session cache.
func Session(store *sessions.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			// Tampered or stale cookie: fall through with a fresh session
			logger.Warn("Session cookie rejected, issuing a new one", logger.Fields{
				"request_id": c.GetString("request_id"),
			})
		}

		id, ok := session.Values[sessionIDKey].(string)
		if !ok || id == "" {
			id = uuid.New().String()
			session.Values[sessionIDKey] = id
			if err := session.Save(c.Request, c.Writer); err != nil {
				logger.Warn("Failed to save session cookie", logger.Fields{
					"request_id": c.GetString("request_id"),
				})
			}
		}

		c.Set(ContextSessionID, id)
		c.Next()
	}
}

// GetSessionID retrieves the session ID assigned by the Session middleware
func GetSessionID(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}
