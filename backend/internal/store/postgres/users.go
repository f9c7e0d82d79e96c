package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []userRow
		err := tx.Where("id = ? OR username = ? OR email = ?", user.ID, user.Username, user.Email).
			Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			field := "email"
			switch {
			case existing[0].ID == user.ID:
				field = "id"
			case existing[0].Username == user.Username:
				field = "username"
			}
			return &store.ConflictError{Entity: "user", Field: field}
		}

		if err := tx.Create(&userRow{
			ID:           user.ID,
			Username:     user.Username,
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
			UpdatedAt:    user.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&profileRow{
			ID:       profile.ID,
			UserID:   user.ID,
			Username: user.Username,
			Bio:      profile.Bio,
			Image:    profile.Image,
		}).Error
	})
	if err != nil {
		return translate("user", "create user", err)
	}
	profile.UserID = user.ID
	profile.Username = user.Username
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	if err := s.conn(ctx).Take(&row, "id = ?", id).Error; err != nil {
		return nil, translate("user", "fetch user", err)
	}
	return row.toModel(), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	if err := s.conn(ctx).Take(&row, "email = ?", email).Error; err != nil {
		return nil, translate("user", "fetch user", err)
	}
	return row.toModel(), nil
}

// UpdateUser locks the user row and writes only the supplied columns of the
// user and its profile.
func (s *Store) UpdateUser(ctx context.Context, userID string, patch model.UserPatch, updatedAt time.Time) (*model.User, *model.Profile, error) {
	var (
		user    userRow
		profile profileRow
	)
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		for _, unique := range []struct {
			column string
			value  *string
		}{{"username", patch.Username}, {"email", patch.Email}} {
			if unique.value == nil {
				continue
			}
			var n int64
			err := tx.Model(&userRow{}).Where("id <> ? AND "+unique.column+" = ?", userID, *unique.value).Count(&n).Error
			if err != nil {
				return err
			}
			if n > 0 {
				return &store.ConflictError{Entity: "user", Field: unique.column}
			}
		}

		userColumns := map[string]any{"updated_at": updatedAt}
		profileColumns := map[string]any{}
		if patch.Username != nil {
			userColumns["username"] = *patch.Username
			profileColumns["username"] = *patch.Username
		}
		if patch.Email != nil {
			userColumns["email"] = *patch.Email
		}
		if patch.PasswordHash != nil {
			userColumns["password_hash"] = *patch.PasswordHash
		}
		if patch.Bio != nil {
			profileColumns["bio"] = *patch.Bio
		}
		if patch.Image != nil {
			profileColumns["image"] = *patch.Image
		}

		if err := tx.Model(&userRow{}).Where("id = ?", userID).Updates(userColumns).Error; err != nil {
			return err
		}
		if len(profileColumns) > 0 {
			if err := tx.Model(&profileRow{}).Where("user_id = ?", userID).Updates(profileColumns).Error; err != nil {
				return err
			}
		}

		if err := tx.Take(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		return tx.Take(&profile, "user_id = ?", userID).Error
	})
	if err != nil {
		return nil, nil, translate("user", "update user", err)
	}
	p := profile.toModel()
	return user.toModel(), &p, nil
}

// DeleteUser removes the user, its profile, its edges and its content.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var p profileRow
		if err := tx.Take(&p, "user_id = ?", id).Error; err != nil {
			return err
		}
		authored := tx.Model(&articleRow{}).Select("id").Where("author_id = ?", p.ID)

		deletes := []struct {
			model any
			where string
			args  []any
		}{
			{&commentRow{}, "author_id = ? OR article_id IN (?)", []any{p.ID, authored}},
			{&favoriteRow{}, "profile_id = ? OR article_id IN (?)", []any{p.ID, authored}},
			{&articleTagRow{}, "article_id IN (?)", []any{authored}},
			{&articleRow{}, "author_id = ?", []any{p.ID}},
			{&followRow{}, "follower_id = ? OR followee_id = ?", []any{p.ID, p.ID}},
			{&profileRow{}, "id = ?", []any{p.ID}},
			{&userRow{}, "id = ?", []any{id}},
		}
		for _, d := range deletes {
			if err := tx.Where(d.where, d.args...).Delete(d.model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate("user", "delete user", err)
}

func (s *Store) ProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var row profileRow
	if err := s.conn(ctx).Take(&row, "user_id = ?", userID).Error; err != nil {
		return nil, translate("profile", "fetch profile", err)
	}
	p := row.toModel()
	return &p, nil
}

func (s *Store) ProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var row profileRow
	if err := s.conn(ctx).Take(&row, "username = ?", username).Error; err != nil {
		return nil, translate("profile", "fetch profile", err)
	}
	p := row.toModel()
	return &p, nil
}
