package api

import (
	"github.com/gin-gonic/gin"

	"conduit/backend/internal/identity"
	"conduit/backend/internal/model"
	apperrors "conduit/backend/pkg/errors"
)

const accountKey = "conduit.account"

// authenticate resolves HTTP Basic credentials (email, password) to the
// viewer's account. Supplied but wrong credentials are always rejected;
// missing credentials are rejected only when required is set.
func authenticate(h *Handler, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			if required {
				h.fail(c, apperrors.NewUnauthorized("Authentication credentials were not provided."))
				return
			}
			c.Next()
			return
		}

		acct, err := h.sm.Identity.Authenticate(c.Request.Context(), email, password)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Set(accountKey, acct)
		c.Next()
	}
}

func account(c *gin.Context) *identity.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	acct, _ := v.(*identity.Account)
	return acct
}

// viewer returns the authenticated profile, or nil for anonymous requests.
func viewer(c *gin.Context) *model.Profile {
	if acct := account(c); acct != nil {
		return acct.Profile
	}
	return nil
}
