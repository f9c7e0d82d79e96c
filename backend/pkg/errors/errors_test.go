package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf_FollowsWrapping(t *testing.T) {
	nf := NewNotFound("article", "An article with this slug does not exist.")
	wrapped := fmt.Errorf("loading article: %w", nf)

	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.True(t, IsErrorType(wrapped, ErrorTypeNotFound))

	var target *ErrNotFound
	require.True(t, stderrors.As(wrapped, &target))
	assert.Equal(t, "article", target.Entity)
}

func TestTypeOf_UntypedIsInternal(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("boom")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.False(t, IsErrorType(nil, ErrorTypeInternal))
}

func TestValidation_OrNil(t *testing.T) {
	v := NewValidation()
	assert.NoError(t, v.OrNil())

	v.Add("title", "can't be blank").Add("title", "is too long").Add("body", "can't be blank")
	err := v.OrNil()
	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, TypeOf(err))
	assert.Equal(t, []string{"can't be blank", "is too long"}, v.Fields["title"])
	assert.Contains(t, err.Error(), "body: can't be blank; title: can't be blank, is too long")
}

func TestStoreFailure_Unwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewStoreFailure("follow", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeStore, TypeOf(err))
	assert.Equal(t, "follow", err.Operation)
}

func TestAccessErrors(t *testing.T) {
	assert.Equal(t, ErrorTypeUnauthorized, TypeOf(NewUnauthorized("authentication required")))
	assert.Equal(t, ErrorTypeForbidden, TypeOf(NewForbidden("not the author")))
	assert.Equal(t, ErrorTypeConflict, TypeOf(NewConflict("email", "has already been taken")))
}
