package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) getProfile(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.sm.Identity.Profile(ctx, c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}

	v, err := h.sm.Views.Profile(ctx, viewer(c), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": v})
}

func (h *Handler) follow(c *gin.Context) {
	h.setFollow(c, true)
}

func (h *Handler) unfollow(c *gin.Context) {
	h.setFollow(c, false)
}

func (h *Handler) setFollow(c *gin.Context, on bool) {
	ctx := c.Request.Context()
	me := viewer(c)
	target, err := h.sm.Identity.Profile(ctx, c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}

	status, op := http.StatusCreated, "add"
	if on {
		err = h.sm.Social.Follow(ctx, me, target)
	} else {
		status, op = http.StatusOK, "remove"
		err = h.sm.Social.Unfollow(ctx, me, target)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	graphMutations.WithLabelValues("follow", op).Inc()
	h.log.Debug("Follow edge updated",
		zap.String("follower", me.Username),
		zap.String("followee", target.Username),
		zap.Bool("following", on))

	v, err := h.sm.Views.Profile(ctx, me, target)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, gin.H{"profile": v})
}
