// Package identity registers users, checks their credentials and keeps each
// user's profile in step with it.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
	apperrors "conduit/backend/pkg/errors"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxUsernameLength = 255
)

const (
	msgBadCredentials  = "A user with this email and password was not found."
	msgProfileNotFound = "A profile with this username was not found."
	msgUserNotFound    = "A user with this id was not found."
)

// Account pairs a user with its profile.
type Account struct {
	User    *model.User
	Profile *model.Profile
}

// Registration is the input to Register.
type Registration struct {
	Username string
	Email    string
	Password string
}

// Service manages users and their profiles.
type Service struct {
	store      store.Identity
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates an identity service hashing passwords at bcryptCost.
func NewService(st store.Identity, bcryptCost int, logger *zap.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:      st,
		bcryptCost: bcryptCost,
		logger:     logger.Named("identity"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user and its empty profile in one store call.
func (s *Service) Register(ctx context.Context, reg Registration) (*Account, error) {
	username := strings.TrimSpace(reg.Username)
	email := normalizeEmail(reg.Email)

	verr := apperrors.NewValidation()
	validateUsername(verr, username)
	validateEmail(verr, email)
	validatePassword(verr, reg.Password)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewBaseError(apperrors.ErrorTypeInternal, "failed to hash password", err)
	}

	now := s.now()
	user := &model.User{
		ID:           model.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &model.Profile{ID: model.NewID(), UserID: user.ID, Username: username}

	if err := s.store.CreateUser(ctx, user, profile); err != nil {
		return nil, s.storeErr("create_user", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("username", username))
	return &Account{User: user, Profile: profile}, nil
}

// Login checks an email and password pair. A mismatch is a validation error
// carrying the same message whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, error) {
	email = normalizeEmail(email)
	verr := apperrors.NewValidation()
	if email == "" {
		verr.Add("email", "An email address is required to log in.")
	}
	if password == "" {
		verr.Add("password", "A password is required to log in.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	acct, err := s.verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, apperrors.NewValidationFailed("credentials", msgBadCredentials)
	}
	return acct, nil
}

// Authenticate resolves request credentials to an account. Any mismatch is
// Unauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acct, err := s.verify(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, apperrors.NewUnauthorized("Invalid authentication credentials.")
	}
	return acct, nil
}

// verify returns (nil, nil) when the credentials do not match.
func (s *Service) verify(ctx context.Context, email, password string) (*Account, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	user, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storeErr("user_by_email", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	profile, err := s.store.ProfileByUserID(ctx, user.ID)
	if err != nil {
		return nil, s.storeErr("profile_by_user", err)
	}
	return &Account{User: user, Profile: profile}, nil
}

// Current loads the account for a user id.
func (s *Service) Current(ctx context.Context, userID string) (*Account, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, s.storeErr("user_by_id", err)
	}
	profile, err := s.store.ProfileByUserID(ctx, userID)
	if err != nil {
		return nil, s.storeErr("profile_by_user", err)
	}
	return &Account{User: user, Profile: profile}, nil
}

// Profile looks up a profile by username.
func (s *Service) Profile(ctx context.Context, username string) (*model.Profile, error) {
	p, err := s.store.ProfileByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFound("profile", msgProfileNotFound)
	}
	if err != nil {
		return nil, s.storeErr("profile_by_username", err)
	}
	return p, nil
}

// Update applies a partial change to the user and its profile. Only supplied
// fields change; a supplied password is rehashed. The store applies the patch
// atomically, so concurrent updates of different fields do not overwrite
// each other.
func (s *Service) Update(ctx context.Context, userID string, patch model.UserPatch) (*Account, error) {
	verr := apperrors.NewValidation()
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		validateUsername(verr, username)
		patch.Username = &username
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		validateEmail(verr, email)
		patch.Email = &email
	}
	if patch.Password != nil {
		validatePassword(verr, *patch.Password)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	patch.PasswordHash = nil
	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewBaseError(apperrors.ErrorTypeInternal, "failed to hash password", err)
		}
		h := string(hash)
		patch.PasswordHash = &h
		patch.Password = nil
	}
	if patch.Image != nil {
		image := strings.TrimSpace(*patch.Image)
		patch.Image = &image
	}

	user, profile, err := s.store.UpdateUser(ctx, userID, patch, s.now())
	if err != nil {
		return nil, s.storeErr("update_user", err)
	}

	s.logger.Info("User updated", zap.String("user_id", user.ID))
	return &Account{User: user, Profile: profile}, nil
}

// Delete removes the user together with everything it owns.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return s.storeErr("delete_user", err)
	}
	s.logger.Info("User deleted", zap.String("user_id", userID))
	return nil
}

func (s *Service) storeErr(op string, err error) error {
	var conflict *store.ConflictError
	switch {
	case errors.As(err, &conflict):
		return apperrors.NewConflict(conflict.Field, "has already been taken")
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewNotFound("user", msgUserNotFound)
	default:
		s.logger.Error("Identity store failure", zap.String("op", op), zap.Error(err))
		return apperrors.NewStoreFailure(op, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(verr *apperrors.ErrValidation, username string) {
	switch {
	case username == "":
		verr.Add("username", "can't be blank")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		verr.Add("username", "is too long")
	case strings.ContainsAny(username, " \t\n/"):
		verr.Add("username", "is invalid")
	}
}

func validateEmail(verr *apperrors.ErrValidation, email string) {
	if email == "" {
		verr.Add("email", "can't be blank")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		verr.Add("email", "is invalid")
	}
}

func validatePassword(verr *apperrors.ErrValidation, password string) {
	n := utf8.RuneCountInString(password)
	switch {
	case password == "":
		verr.Add("password", "can't be blank")
	case n < minPasswordLength:
		verr.Add("password", "is too short (minimum is 8 characters)")
	case n > maxPasswordLength:
		verr.Add("password", "is too long (maximum is 128 characters)")
	}
}
