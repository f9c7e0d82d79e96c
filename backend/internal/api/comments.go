package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listComments(c *gin.Context) {
	ctx := c.Request.Context()
	comments, err := h.sm.Content.ListComments(ctx, c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}

	views, err := h.sm.Views.Comments(ctx, viewer(c), comments)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": views})
}

func (h *Handler) createComment(c *gin.Context) {
	var req commentRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	cm, err := h.sm.Content.CreateComment(ctx, c.Param("slug"), viewer(c), req.Comment.Body)
	if err != nil {
		h.fail(c, err)
		return
	}

	v, err := h.sm.Views.Comment(ctx, viewer(c), cm)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": v})
}

// deleteComment removes any comment on the article; authorship is not checked.
func (h *Handler) deleteComment(c *gin.Context) {
	if err := h.sm.Content.DeleteComment(c.Request.Context(), c.Param("slug"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
