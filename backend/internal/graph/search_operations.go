package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"conduit/backend/internal/model"
)

// ============================================================================
// Article Listing
// ============================================================================

// articleMatch builds the MATCH ... WHERE prefix shared by the count and
// page queries.
func articleMatch(filter model.ArticleFilter) (string, map[string]any) {
	var where []string
	params := map[string]any{}

	if filter.Author != "" {
		where = append(where, "author.username = $author")
		params["author"] = filter.Author
	}
	if filter.TagSlug != "" {
		where = append(where, "EXISTS { MATCH (a)-[:TAGGED]->(:Tag {slug: $tag}) }")
		params["tag"] = filter.TagSlug
	}
	if filter.FavoritedBy != "" {
		where = append(where, "EXISTS { MATCH (:Profile {username: $favorited})-[:FAVORITED]->(a) }")
		params["favorited"] = filter.FavoritedBy
	}
	if filter.FollowerID != "" {
		where = append(where, "EXISTS { MATCH (:Profile {id: $follower})-[:FOLLOWS]->(author) }")
		params["follower"] = filter.FollowerID
	}

	q := "MATCH (author:Profile)-[:WROTE]->(a:Article)"
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, "\n  AND ")
	}
	return q, params
}

// ListArticles counts the matches and reads one page in the same read
// transaction so both see one snapshot.
func (r *Repository) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.Article, int, error) {
	match, params := articleMatch(filter)
	params["offset"] = int64(max(filter.Offset, 0))
	params["limit"] = int64(max(filter.Limit, 0))

	var (
		total    int
		articles = make([]model.Article, 0)
	)
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, match+"\nRETURN count(a) AS total", params)
		if err != nil {
			return err
		}
		if rec != nil {
			total = getIntFromRecord(rec, "total")
		}
		if total == 0 || filter.Limit == 0 {
			return nil
		}

		records, err := collect(ctx, tx, match+`
			WITH a, author
			ORDER BY a.created_at DESC, a.id DESC
			SKIP $offset LIMIT $limit
			OPTIONAL MATCH (a)-[tr:TAGGED]->(t:Tag)
			WITH a, author, t, tr ORDER BY tr.position
			WITH a, author, collect(t.label) AS tags
			RETURN a{.*} AS article, author{.*} AS author, tags
			ORDER BY a.created_at DESC, a.id DESC
		`, params)
		if err != nil {
			return err
		}
		for _, rec := range records {
			articles = append(articles, articleFromRecord(rec))
		}
		return nil
	})
	if err != nil {
		return nil, 0, translate("article", "list articles", err)
	}
	return articles, total, nil
}
