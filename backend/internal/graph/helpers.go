package graph

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

// ============================================================================
// Helper Functions
// ============================================================================

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	b, _ := val.(bool)
	return b
}

func getMapFromRecord(record *neo4j.Record, key string) map[string]any {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return map[string]any{}
	}
	if m, ok := val.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]any); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getStringFromMap(m map[string]any, key string) string {
	if str, ok := m[key].(string); ok {
		return str
	}
	return ""
}

func getTimeFromMap(m map[string]any, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v.UTC()
	case neo4j.LocalDateTime:
		return time.Time(v).UTC()
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func userFromMap(m map[string]any) *model.User {
	return &model.User{
		ID:           getStringFromMap(m, "id"),
		Username:     getStringFromMap(m, "username"),
		Email:        getStringFromMap(m, "email"),
		PasswordHash: getStringFromMap(m, "password_hash"),
		CreatedAt:    getTimeFromMap(m, "created_at"),
		UpdatedAt:    getTimeFromMap(m, "updated_at"),
	}
}

func profileFromMap(m map[string]any) model.Profile {
	return model.Profile{
		ID:       getStringFromMap(m, "id"),
		UserID:   getStringFromMap(m, "user_id"),
		Username: getStringFromMap(m, "username"),
		Bio:      getStringFromMap(m, "bio"),
		Image:    getStringFromMap(m, "image"),
	}
}

// articleFromRecord reads the article, author and tags columns.
func articleFromRecord(record *neo4j.Record) model.Article {
	m := getMapFromRecord(record, "article")
	return model.Article{
		ID:          getStringFromMap(m, "id"),
		Slug:        getStringFromMap(m, "slug"),
		Title:       getStringFromMap(m, "title"),
		Description: getStringFromMap(m, "description"),
		Body:        getStringFromMap(m, "body"),
		Author:      profileFromMap(getMapFromRecord(record, "author")),
		TagList:     getStringSliceFromRecord(record, "tags"),
		CreatedAt:   getTimeFromMap(m, "created_at"),
		UpdatedAt:   getTimeFromMap(m, "updated_at"),
	}
}

// commentFromRecord reads the comment, article_id and author columns.
func commentFromRecord(record *neo4j.Record) model.Comment {
	m := getMapFromRecord(record, "comment")
	return model.Comment{
		ID:        getStringFromMap(m, "id"),
		ArticleID: getStringFromRecord(record, "article_id"),
		Body:      getStringFromMap(m, "body"),
		Author:    profileFromMap(getMapFromRecord(record, "author")),
		CreatedAt: getTimeFromMap(m, "created_at"),
		UpdatedAt: getTimeFromMap(m, "updated_at"),
	}
}

// translate maps driver errors onto the store sentinels. Constraint
// violations name the offending property in the message.
// optional turns an absent patch field into a Cypher null.
func optional(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func translate(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
		return err
	}
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) && nerr.Code == constraintViolation {
		field := "id"
		for _, f := range []string{"slug", "username", "email"} {
			if strings.Contains(nerr.Msg, "`"+f+"`") {
				field = f
				break
			}
		}
		return &store.ConflictError{Entity: entity, Field: field}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
