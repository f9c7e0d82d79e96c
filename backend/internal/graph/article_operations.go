package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

// ============================================================================
// Article, Comment and Tag Operations
// ============================================================================

// articleProjection expects a and author bound and returns the columns read
// by articleFromRecord. Tags keep their creation order.
const articleProjection = `
	OPTIONAL MATCH (a)-[tr:TAGGED]->(t:Tag)
	WITH a, author, t, tr ORDER BY tr.position
	WITH a, author, collect(t.label) AS tags
	RETURN a{.*} AS article, author{.*} AS author, tags
`

func fetchArticle(ctx context.Context, tx neo4j.ManagedTransaction, slug string) (*model.Article, error) {
	rec, err := first(ctx, tx, `
		MATCH (author:Profile)-[:WROTE]->(a:Article {slug: $slug})
	`+articleProjection, map[string]any{"slug": slug})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, store.ErrNotFound
	}
	a := articleFromRecord(rec)
	return &a, nil
}

// CreateArticle writes the article, its authorship and its tag edges together.
// Tags are MERGEd on slug so an existing tag keeps its label.
func (r *Repository) CreateArticle(ctx context.Context, article *model.Article, tags []model.Tag) error {
	var stored *model.Article
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		taken, err := first(ctx, tx, `
			MATCH (a:Article)
			WHERE a.slug = $slug OR a.id = $id
			RETURN a.slug = $slug AS slug
			LIMIT 1
		`, map[string]any{"slug": article.Slug, "id": article.ID})
		if err != nil {
			return err
		}
		if taken != nil {
			field := "id"
			if getBoolFromRecord(taken, "slug") {
				field = "slug"
			}
			return &store.ConflictError{Entity: "article", Field: field}
		}

		rec, err := first(ctx, tx, `
			MATCH (p:Profile {id: $authorID})
			CREATE (p)-[:WROTE]->(a:Article {
				id: $id,
				slug: $slug,
				title: $title,
				description: $description,
				body: $body,
				created_at: $createdAt,
				updated_at: $updatedAt
			})
			RETURN a.id AS id
		`, map[string]any{
			"authorID":    article.Author.ID,
			"id":          article.ID,
			"slug":        article.Slug,
			"title":       article.Title,
			"description": article.Description,
			"body":        article.Body,
			"createdAt":   article.CreatedAt,
			"updatedAt":   article.UpdatedAt,
		})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}

		if len(tags) > 0 {
			rows := make([]map[string]any, 0, len(tags))
			for i, t := range tags {
				rows = append(rows, map[string]any{"id": t.ID, "label": t.Label, "slug": t.Slug, "position": i})
			}
			_, err = collect(ctx, tx, `
				MATCH (a:Article {id: $id})
				UNWIND $tags AS tag
				MERGE (t:Tag {slug: tag.slug})
				ON CREATE SET t.id = tag.id, t.label = tag.label
				MERGE (a)-[tr:TAGGED]->(t)
				ON CREATE SET tr.position = tag.position
			`, map[string]any{"id": article.ID, "tags": rows})
			if err != nil {
				return err
			}
		}

		stored, err = fetchArticle(ctx, tx, article.Slug)
		return err
	})
	if err != nil {
		return translate("article", "create article", err)
	}

	*article = *stored
	r.logger.Debug("Article node created",
		zap.String("slug", article.Slug),
		zap.Int("tags", len(article.TagList)))
	return nil
}

func (r *Repository) ArticleBySlug(ctx context.Context, slug string) (*model.Article, error) {
	var article *model.Article
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		var err error
		article, err = fetchArticle(ctx, tx, slug)
		return err
	})
	if err != nil {
		return nil, translate("article", "fetch article", err)
	}
	return article, nil
}

// UpdateArticle sets only the supplied properties; coalesce keeps the stored
// value for every property left out of the patch.
func (r *Repository) UpdateArticle(ctx context.Context, id string, patch model.ArticlePatch, updatedAt time.Time) (*model.Article, error) {
	var article *model.Article
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, `
			MATCH (a:Article {id: $id})
			SET a.title = coalesce($title, a.title),
				a.description = coalesce($description, a.description),
				a.body = coalesce($body, a.body),
				a.updated_at = $updatedAt
			RETURN a.slug AS slug
		`, map[string]any{
			"id":          id,
			"title":       optional(patch.Title),
			"description": optional(patch.Description),
			"body":        optional(patch.Body),
			"updatedAt":   updatedAt,
		})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		article, err = fetchArticle(ctx, tx, getStringFromRecord(rec, "slug"))
		return err
	})
	if err != nil {
		return nil, translate("article", "update article", err)
	}
	return article, nil
}

// DeleteArticle removes the article with its comments. DETACH DELETE drops
// the favorite, tag and authorship edges.
func (r *Repository) DeleteArticle(ctx context.Context, id string) error {
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, `MATCH (a:Article {id: $id}) RETURN a.id AS id`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		if _, err := collect(ctx, tx, `MATCH (c:Comment)-[:ON]->(:Article {id: $id}) DETACH DELETE c`, map[string]any{"id": id}); err != nil {
			return err
		}
		_, err = collect(ctx, tx, `MATCH (a:Article {id: $id}) DETACH DELETE a`, map[string]any{"id": id})
		return err
	})
	return translate("article", "delete article", err)
}

func (r *Repository) CreateComment(ctx context.Context, comment *model.Comment) error {
	var author model.Profile
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, `
			MATCH (a:Article {id: $articleID}), (p:Profile {id: $authorID})
			CREATE (p)-[:AUTHORED]->(c:Comment {
				id: $id,
				body: $body,
				created_at: $createdAt,
				updated_at: $updatedAt
			})-[:ON]->(a)
			RETURN p{.*} AS author
		`, map[string]any{
			"articleID": comment.ArticleID,
			"authorID":  comment.Author.ID,
			"id":        comment.ID,
			"body":      comment.Body,
			"createdAt": comment.CreatedAt,
			"updatedAt": comment.UpdatedAt,
		})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		author = profileFromMap(getMapFromRecord(rec, "author"))
		return nil
	})
	if err != nil {
		return translate("comment", "create comment", err)
	}
	comment.Author = author
	return nil
}

const commentProjection = `
	RETURN c{.*} AS comment, a.id AS article_id, author{.*} AS author
`

func (r *Repository) CommentByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment *model.Comment
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, `
			MATCH (author:Profile)-[:AUTHORED]->(c:Comment {id: $id})-[:ON]->(a:Article)
		`+commentProjection, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		c := commentFromRecord(rec)
		comment = &c
		return nil
	})
	if err != nil {
		return nil, translate("comment", "fetch comment", err)
	}
	return comment, nil
}

func (r *Repository) ListComments(ctx context.Context, articleID string) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		records, err := collect(ctx, tx, `
			MATCH (author:Profile)-[:AUTHORED]->(c:Comment)-[:ON]->(a:Article {id: $id})
		`+commentProjection+`
			ORDER BY c.created_at ASC, c.id ASC
		`, map[string]any{"id": articleID})
		if err != nil {
			return err
		}
		for _, rec := range records {
			out = append(out, commentFromRecord(rec))
		}
		return nil
	})
	if err != nil {
		return nil, translate("comment", "list comments", err)
	}
	return out, nil
}

func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, `MATCH (c:Comment {id: $id}) RETURN c.id AS id`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		_, err = collect(ctx, tx, `MATCH (c:Comment {id: $id}) DETACH DELETE c`, map[string]any{"id": id})
		return err
	})
	return translate("comment", "delete comment", err)
}

func (r *Repository) ListTags(ctx context.Context) ([]model.Tag, error) {
	out := make([]model.Tag, 0)
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		records, err := collect(ctx, tx, `MATCH (t:Tag) RETURN t{.*} AS tag ORDER BY t.label`, nil)
		if err != nil {
			return err
		}
		for _, rec := range records {
			m := getMapFromRecord(rec, "tag")
			out = append(out, model.Tag{
				ID:    getStringFromMap(m, "id"),
				Label: getStringFromMap(m, "label"),
				Slug:  getStringFromMap(m, "slug"),
			})
		}
		return nil
	})
	if err != nil {
		return nil, translate("tag", "list tags", err)
	}
	return out, nil
}
