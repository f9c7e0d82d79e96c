package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conduit/backend/internal/content"
	"conduit/backend/internal/feed"
	"conduit/backend/internal/model"
)

func (h *Handler) listArticles(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.sm.Feed.List(c.Request.Context(), feed.Query{
		Author:    c.Query("author"),
		Tag:       c.Query("tag"),
		Favorited: c.Query("favorited"),
		Page:      page,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderArticles(c, res)
}

func (h *Handler) feed(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.sm.Feed.Feed(c.Request.Context(), viewer(c), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderArticles(c, res)
}

func (h *Handler) renderArticles(c *gin.Context, res *feed.Result) {
	views, err := h.sm.Views.Articles(c.Request.Context(), viewer(c), res.Articles)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": views, "articlesCount": res.Count})
}

func (h *Handler) renderArticle(c *gin.Context, status int, a *model.Article) {
	v, err := h.sm.Views.Article(c.Request.Context(), viewer(c), a)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, gin.H{"article": v})
}

func (h *Handler) createArticle(c *gin.Context) {
	var req articleRequest
	if !h.bind(c, &req) {
		return
	}

	a, err := h.sm.Content.CreateArticle(c.Request.Context(), viewer(c), content.ArticleInput{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderArticle(c, http.StatusCreated, a)
}

func (h *Handler) getArticle(c *gin.Context) {
	a, err := h.sm.Content.GetArticle(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderArticle(c, http.StatusOK, a)
}

func (h *Handler) updateArticle(c *gin.Context) {
	var req updateArticleRequest
	if !h.bind(c, &req) {
		return
	}

	a, err := h.sm.Content.UpdateArticle(c.Request.Context(), c.Param("slug"), model.ArticlePatch{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderArticle(c, http.StatusOK, a)
}

func (h *Handler) deleteArticle(c *gin.Context) {
	if err := h.sm.Content.DeleteArticle(c.Request.Context(), viewer(c), c.Param("slug")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) favorite(c *gin.Context) {
	h.setFavorite(c, true)
}

func (h *Handler) unfavorite(c *gin.Context) {
	h.setFavorite(c, false)
}

func (h *Handler) setFavorite(c *gin.Context, on bool) {
	ctx := c.Request.Context()
	a, err := h.sm.Content.GetArticle(ctx, c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}

	status, op := http.StatusCreated, "add"
	if on {
		err = h.sm.Social.Favorite(ctx, viewer(c), a)
	} else {
		status, op = http.StatusOK, "remove"
		err = h.sm.Social.Unfavorite(ctx, viewer(c), a)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	graphMutations.WithLabelValues("favorite", op).Inc()
	h.renderArticle(c, status, a)
}

func (h *Handler) listTags(c *gin.Context) {
	tags, err := h.sm.Content.ListTags(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
