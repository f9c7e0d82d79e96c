package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conduit/backend/internal/identity"
	"conduit/backend/internal/model"
)

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	acct, err := h.sm.Identity.Register(c.Request.Context(), identity.Registration{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(acct))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	acct, err := h.sm.Identity.Login(c.Request.Context(), req.User.Email, req.User.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(acct))
}

func (h *Handler) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(account(c)))
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if !h.bind(c, &req) {
		return
	}

	acct, err := h.sm.Identity.Update(c.Request.Context(), account(c).User.ID, model.UserPatch{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(acct))
}

// deleteUser removes the viewer with its profile, edges, articles and comments.
func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.sm.Identity.Delete(c.Request.Context(), account(c).User.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
