package postgres

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

func (s *Store) CreateArticle(ctx context.Context, article *model.Article, tags []model.Tag) error {
	var stored model.Article
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []articleRow
		if err := tx.Where("slug = ? OR id = ?", article.Slug, article.ID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			field := "id"
			if existing[0].Slug == article.Slug {
				field = "slug"
			}
			return &store.ConflictError{Entity: "article", Field: field}
		}
		if err := exists(&profileRow{}, article.Author.ID)(tx); err != nil {
			return err
		}

		row := articleRow{
			ID:          article.ID,
			Slug:        article.Slug,
			Title:       article.Title,
			Description: article.Description,
			Body:        article.Body,
			AuthorID:    article.Author.ID,
			CreatedAt:   article.CreatedAt,
			UpdatedAt:   article.UpdatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for i, t := range tags {
			err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
				Create(&tagRow{ID: t.ID, Slug: t.Slug, Label: t.Label}).Error
			if err != nil {
				return err
			}
			var tag tagRow
			if err := tx.Take(&tag, "slug = ?", t.Slug).Error; err != nil {
				return err
			}
			err = tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&articleTagRow{ArticleID: row.ID, TagID: tag.ID, Position: i}).Error
			if err != nil {
				return err
			}
		}

		hydrated, err := hydrateArticles(tx, []articleRow{row})
		if err != nil {
			return err
		}
		stored = hydrated[0]
		return nil
	})
	if err != nil {
		return translate("article", "create article", err)
	}
	*article = stored
	return nil
}

// hydrateArticles resolves authors and ordered tag labels for rows.
func hydrateArticles(db *gorm.DB, rows []articleRow) ([]model.Article, error) {
	out := make([]model.Article, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(rows))
	authorIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	var authors []profileRow
	if err := db.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.Profile, len(authors))
	for _, a := range authors {
		byID[a.ID] = a.toModel()
	}

	var tagged []struct {
		ArticleID string
		Label     string
	}
	err := db.Table("article_tags").
		Select("article_tags.article_id, tags.label").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where("article_tags.article_id IN ?", ids).
		Order("article_tags.position").
		Scan(&tagged).Error
	if err != nil {
		return nil, err
	}
	labels := make(map[string][]string, len(rows))
	for _, t := range tagged {
		labels[t.ArticleID] = append(labels[t.ArticleID], t.Label)
	}

	for _, r := range rows {
		tags := labels[r.ID]
		if tags == nil {
			tags = []string{}
		}
		out = append(out, model.Article{
			ID:          r.ID,
			Slug:        r.Slug,
			Title:       r.Title,
			Description: r.Description,
			Body:        r.Body,
			Author:      byID[r.AuthorID],
			TagList:     tags,
			CreatedAt:   r.CreatedAt.UTC(),
			UpdatedAt:   r.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

func (s *Store) ArticleBySlug(ctx context.Context, slug string) (*model.Article, error) {
	var row articleRow
	if err := s.conn(ctx).Take(&row, "slug = ?", slug).Error; err != nil {
		return nil, translate("article", "fetch article", err)
	}
	hydrated, err := hydrateArticles(s.conn(ctx), []articleRow{row})
	if err != nil {
		return nil, translate("article", "fetch article", err)
	}
	return &hydrated[0], nil
}

// UpdateArticle locks the row and writes only the supplied columns.
func (s *Store) UpdateArticle(ctx context.Context, id string, patch model.ArticlePatch, updatedAt time.Time) (*model.Article, error) {
	var stored model.Article
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var row articleRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&row, "id = ?", id).Error; err != nil {
			return err
		}

		columns := map[string]any{"updated_at": updatedAt}
		if patch.Title != nil {
			columns["title"] = *patch.Title
		}
		if patch.Description != nil {
			columns["description"] = *patch.Description
		}
		if patch.Body != nil {
			columns["body"] = *patch.Body
		}
		if err := tx.Model(&articleRow{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return err
		}

		if err := tx.Take(&row, "id = ?", id).Error; err != nil {
			return err
		}
		hydrated, err := hydrateArticles(tx, []articleRow{row})
		if err != nil {
			return err
		}
		stored = hydrated[0]
		return nil
	})
	if err != nil {
		return nil, translate("article", "update article", err)
	}
	return &stored, nil
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(&articleRow{}, id)(tx); err != nil {
			return err
		}
		for _, m := range []any{&commentRow{}, &favoriteRow{}, &articleTagRow{}} {
			if err := tx.Where("article_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&articleRow{}).Error
	})
	return translate("article", "delete article", err)
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	var author profileRow
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(&articleRow{}, comment.ArticleID)(tx); err != nil {
			return err
		}
		if err := tx.Take(&author, "id = ?", comment.Author.ID).Error; err != nil {
			return err
		}
		return tx.Create(&commentRow{
			ID:        comment.ID,
			ArticleID: comment.ArticleID,
			AuthorID:  comment.Author.ID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
			UpdatedAt: comment.UpdatedAt,
		}).Error
	})
	if err != nil {
		return translate("comment", "create comment", err)
	}
	comment.Author = author.toModel()
	return nil
}

func hydrateComments(db *gorm.DB, rows []commentRow) ([]model.Comment, error) {
	out := make([]model.Comment, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	authorIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		authorIDs = append(authorIDs, r.AuthorID)
	}
	var authors []profileRow
	if err := db.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.Profile, len(authors))
	for _, a := range authors {
		byID[a.ID] = a.toModel()
	}
	for _, r := range rows {
		out = append(out, model.Comment{
			ID:        r.ID,
			ArticleID: r.ArticleID,
			Body:      r.Body,
			Author:    byID[r.AuthorID],
			CreatedAt: r.CreatedAt.UTC(),
			UpdatedAt: r.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

func (s *Store) CommentByID(ctx context.Context, id string) (*model.Comment, error) {
	var row commentRow
	if err := s.conn(ctx).Take(&row, "id = ?", id).Error; err != nil {
		return nil, translate("comment", "fetch comment", err)
	}
	comments, err := hydrateComments(s.conn(ctx), []commentRow{row})
	if err != nil {
		return nil, translate("comment", "fetch comment", err)
	}
	return &comments[0], nil
}

func (s *Store) ListComments(ctx context.Context, articleID string) ([]model.Comment, error) {
	var rows []commentRow
	err := s.conn(ctx).Where("article_id = ?", articleID).Order("created_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, translate("comment", "list comments", err)
	}
	comments, err := hydrateComments(s.conn(ctx), rows)
	return comments, translate("comment", "list comments", err)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&commentRow{})
	if res.Error != nil {
		return translate("comment", "delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTags(ctx context.Context) ([]model.Tag, error) {
	var rows []tagRow
	if err := s.conn(ctx).Order("label").Find(&rows).Error; err != nil {
		return nil, translate("tag", "list tags", err)
	}
	out := make([]model.Tag, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Tag{ID: r.ID, Label: r.Label, Slug: r.Slug})
	}
	return out, nil
}

// ListArticles counts and pages inside one repeatable-read transaction so
// the total and the page come from the same snapshot.
func (s *Store) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.Article, int, error) {
	var (
		total    int64
		articles = make([]model.Article, 0)
	)
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&articleRow{})
		if filter.Author != "" {
			q = q.Where("articles.author_id IN (SELECT id FROM profiles WHERE username = ?)", filter.Author)
		}
		if filter.TagSlug != "" {
			q = q.Where(`EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON t.id = at.tag_id
				WHERE at.article_id = articles.id AND t.slug = ?)`, filter.TagSlug)
		}
		if filter.FavoritedBy != "" {
			q = q.Where(`EXISTS (SELECT 1 FROM favorites f JOIN profiles fp ON fp.id = f.profile_id
				WHERE f.article_id = articles.id AND fp.username = ?)`, filter.FavoritedBy)
		}
		if filter.FollowerID != "" {
			q = q.Where(`EXISTS (SELECT 1 FROM follows fo
				WHERE fo.followee_id = articles.author_id AND fo.follower_id = ?)`, filter.FollowerID)
		}

		if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 || filter.Limit == 0 {
			return nil
		}

		var rows []articleRow
		page := q.Session(&gorm.Session{}).
			Order("articles.created_at DESC, articles.id DESC").
			Offset(max(filter.Offset, 0))
		if filter.Limit > 0 {
			page = page.Limit(filter.Limit)
		}
		if err := page.Find(&rows).Error; err != nil {
			return err
		}

		var err error
		articles, err = hydrateArticles(tx, rows)
		return err
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, translate("article", "list articles", err)
	}
	return articles, int(total), nil
}
