package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"conduit/backend/internal/feed"
	"conduit/backend/internal/identity"
	apperrors "conduit/backend/pkg/errors"
)

type registerRequest struct {
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type loginRequest struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type updateUserRequest struct {
	User struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

type articleRequest struct {
	Article struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

type updateArticleRequest struct {
	Article struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	} `json:"article"`
}

type commentRequest struct {
	Comment struct {
		Body string `json:"body"`
	} `json:"comment"`
}

type userResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

func newUserResponse(acct *identity.Account) gin.H {
	return gin.H{"user": userResponse{
		Email:    acct.User.Email,
		Username: acct.User.Username,
		Bio:      acct.Profile.Bio,
		Image:    acct.Profile.Image,
	}}
}

// parsePage reads offset and limit from the query string. Absent values stay
// nil so the feed service applies its defaults.
func parsePage(c *gin.Context) (feed.Page, error) {
	var page feed.Page
	verr := apperrors.NewValidation()
	for _, p := range []struct {
		name string
		dst  **int
	}{{"offset", &page.Offset}, {"limit", &page.Limit}} {
		raw, ok := c.GetQuery(p.name)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add(p.name, "must be an integer")
			continue
		}
		*p.dst = &n
	}
	return page, verr.OrNil()
}
