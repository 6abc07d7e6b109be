package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"feedbackbot/internal/logger"
	"feedbackbot/internal/pkg/jwtutil"
	"feedbackbot/internal/session"
)

const (
	SessionCookieName = "feedbackbot_session"
	ContextSessionKey = "session"
)

type SessionOptions struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// Session loads the browser's state from store, identified by a signed
// cookie. A missing or invalid cookie starts a fresh session. The state is
// saved again after the handler returns.
func Session(store session.Store, opts SessionOptions) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id := ""
		if raw, err := c.Cookie(SessionCookieName); err == nil {
			if claims, err := jwtutil.ParseToken(opts.Secret, raw); err == nil {
				id = claims.SessionID
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		state, err := store.Load(ctx, id)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				logger.L.Warn("load session failed", "session_id", id, "error", err)
			}
			state = session.NewState()
		}

		token, err := jwtutil.GenerateToken(opts.Secret, id, opts.TTL)
		if err != nil {
			logger.L.Error("sign session cookie failed", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookieName, token, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)

		sess := session.New(id, state, store)
		c.Set(ContextSessionKey, sess)
		c.Next()

		if err := sess.Save(ctx); err != nil {
			logger.L.Warn("save session failed", "session_id", id, "error", err)
		}
	}
}

// CurrentSession returns the session placed by Session. It panics when the
// middleware is not installed on the route.
func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet(ContextSessionKey).(*session.Session)
}
