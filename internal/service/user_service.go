package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/resort-backend/internal/database"
	"github.com/iliyamo/resort-backend/internal/model"
	"github.com/iliyamo/resort-backend/internal/repository"
	"github.com/iliyamo/resort-backend/internal/utils"
	"github.com/iliyamo/resort-backend/internal/validate"
)

// UserStore is the persistence the user directory needs. It is satisfied by
// *repository.UserRepo and by the in-memory store used in tests.
type UserStore interface {
	Create(ctx context.Context, u *model.User, password string) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByLogin(ctx context.Context, identifier string) (*model.User, error)
	FindConflict(ctx context.Context, email, username, phone string, excludeID uint64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, p model.UserPatch) error
	CountByRole(ctx context.Context, role string) (int64, error)
	SetRole(ctx context.Context, id uint64, role string) error
	SetActive(ctx context.Context, id uint64, active bool) error
}

// TokenService issues and verifies access tokens.
type TokenService interface {
	Ready() bool
	Issue(userID uint64) (utils.AccessToken, error)
	Verify(raw string) (uint64, error)
}

// RegisterInput is the payload of a registration or admin creation.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Password string
}

// ProfileInput is a partial profile update. Nil fields are not changed. An
// empty DateOfBirth clears the stored date.
type ProfileInput struct {
	Name           *string
	Email          *string
	Phone          *string
	Username       *string
	Address        *model.Address
	DateOfBirth    *string
	ProfilePicture *string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *model.User
	Token utils.AccessToken
}

type UserService struct {
	users  UserStore
	tokens TokenService
	log    *zap.Logger
}

func NewUserService(users UserStore, tokens TokenService, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, tokens: tokens, log: log}
}

// Register validates in, creates a regular user and issues a token for it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if !s.tokens.Ready() {
		return nil, Internal("register", utils.ErrSigningKeyMissing)
	}
	u, err := s.create(ctx, in, model.RoleUser)
	if err != nil {
		return nil, err
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, Internal("issue token", err)
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID), zap.String("username", u.Username))
	return &AuthResult{User: u, Token: tok}, nil
}

// CreateAdmin validates in like Register and creates an admin account. No
// token is issued.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (*model.User, error) {
	u, err := s.create(ctx, in, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin created", zap.Uint64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role string) (*model.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	u := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Username: strings.ToLower(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    validate.CleanPhone(in.Phone),
		Role:     role,
		IsActive: true,
	}

	existing, err := s.users.FindConflict(ctx, u.Email, u.Username, u.Phone, 0)
	switch {
	case err == nil:
		return nil, registrationConflict(existing, u)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, Internal("check existing user", err)
	}

	if err := s.users.Create(ctx, u, in.Password); err != nil {
		var dup *repository.DuplicateError
		switch {
		case errors.As(err, &dup):
			return nil, duplicateConflict(dup.Field)
		case errors.Is(err, repository.ErrValueTooLong):
			return nil, Validation(msgTooLong)
		}
		return nil, Internal("create user", err)
	}
	return u, nil
}

func validateRegistration(in RegisterInput) error {
	if in.Name == "" || in.Username == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return Validation("All required fields must be provided")
	}
	if err := checkName(strings.TrimSpace(in.Name)); err != nil {
		return err
	}
	if err := checkEmail(strings.TrimSpace(in.Email)); err != nil {
		return err
	}
	if !validate.Phone(validate.CleanPhone(in.Phone)) {
		return Validation("Please provide a valid phone number")
	}
	if !validate.UsernameLength(in.Username) {
		return Validation("Username must be between 3 and 20 characters")
	}
	if !validate.UsernameChars(in.Username) {
		return Validation("Username can only contain letters, numbers, and underscores")
	}
	if len(in.Password) < 6 {
		return Validation("Password must be at least 6 characters long")
	}
	if len(in.Password) > utils.MaxPasswordBytes {
		return Validation("Password cannot be longer than 72 bytes")
	}
	return nil
}

const msgTooLong = "One or more fields are too long"

func checkName(name string) error {
	if len([]rune(name)) < 2 {
		return Validation("Name must be at least 2 characters long")
	}
	if !validate.MaxLen(name, database.MaxNameLen) {
		return Validation("Name cannot be longer than 255 characters")
	}
	return nil
}

func checkEmail(email string) error {
	if !validate.Email(email) {
		return Validation("Please provide a valid email address")
	}
	if !validate.MaxLen(email, database.MaxEmailLen) {
		return Validation("Email cannot be longer than 255 characters")
	}
	return nil
}

// registrationConflict names the colliding field, checking email first,
// then username, then phone.
func registrationConflict(existing, u *model.User) error {
	switch {
	case existing.Email == u.Email:
		return duplicateConflict("email")
	case existing.Username == u.Username:
		return duplicateConflict("username")
	}
	return duplicateConflict("phone")
}

func duplicateConflict(field string) error {
	switch field {
	case "email":
		return Conflict("Email already registered")
	case "username":
		return Conflict("Username already taken")
	case "phone":
		return Conflict("Phone number already registered")
	}
	return Conflict("User already exists")
}

// Login authenticates by email or username. Unknown accounts and wrong
// passwords produce the same error.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	if identifier == "" || password == "" {
		return nil, Validation("Email/Username and password are required")
	}
	u, err := s.users.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Unauthenticated("Invalid credentials")
		}
		return nil, Internal("find user", err)
	}
	if !u.IsActive {
		return nil, Unauthenticated("Account is deactivated")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, Unauthenticated("Invalid credentials")
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, Internal("issue token", err)
	}
	return &AuthResult{User: u, Token: tok}, nil
}

// Profile returns the current record of user id.
func (s *UserService) Profile(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, Internal("load profile", err)
	}
	return u, nil
}

// UpdateProfile validates and applies the supplied fields of in to user id.
// Fields are checked in a fixed order and the first failure is returned.
func (s *UserService) UpdateProfile(ctx context.Context, id uint64, in ProfileInput) (*model.User, error) {
	var p model.UserPatch

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := checkName(name); err != nil {
			return nil, err
		}
		p.Name = &name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := checkEmail(email); err != nil {
			return nil, err
		}
		if err := s.ensureFree(ctx, id, email, "", "", "Email already registered by another user"); err != nil {
			return nil, err
		}
		p.Email = &email
	}
	if in.Phone != nil {
		phone := validate.CleanPhone(*in.Phone)
		if !validate.Phone(phone) {
			return nil, Validation("Please provide a valid phone number")
		}
		if err := s.ensureFree(ctx, id, "", "", phone, "Phone number already registered by another user"); err != nil {
			return nil, err
		}
		p.Phone = &phone
	}
	if in.Username != nil {
		if !validate.UsernameLength(*in.Username) {
			return nil, Validation("Username must be between 3 and 20 characters")
		}
		if !validate.UsernameChars(*in.Username) {
			return nil, Validation("Username can only contain letters, numbers, and underscores")
		}
		username := strings.ToLower(*in.Username)
		if err := s.ensureFree(ctx, id, "", username, "", "Username already taken"); err != nil {
			return nil, err
		}
		p.Username = &username
	}
	if in.Address != nil {
		addr := *in.Address
		p.Address = &addr
	}
	if in.DateOfBirth != nil {
		if *in.DateOfBirth == "" {
			p.ClearDateOfBirth = true
		} else {
			dob, ok := validate.ParseDate(*in.DateOfBirth)
			if !ok {
				return nil, Validation("Please provide a valid date of birth")
			}
			p.DateOfBirth = &dob
		}
	}
	if in.ProfilePicture != nil {
		pic := *in.ProfilePicture
		p.ProfilePicture = &pic
	}

	if err := s.users.Update(ctx, id, p); err != nil {
		var dup *repository.DuplicateError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("User not found")
		case errors.As(err, &dup):
			return nil, profileConflict(dup.Field)
		case errors.Is(err, repository.ErrValueTooLong):
			return nil, Validation(msgTooLong)
		}
		return nil, Internal("update profile", err)
	}
	return s.Profile(ctx, id)
}

func (s *UserService) ensureFree(ctx context.Context, id uint64, email, username, phone, msg string) error {
	_, err := s.users.FindConflict(ctx, email, username, phone, id)
	switch {
	case err == nil:
		return Conflict(msg)
	case errors.Is(err, repository.ErrNotFound):
		return nil
	}
	return Internal("check profile conflict", err)
}

func profileConflict(field string) error {
	switch field {
	case "email":
		return Conflict("Email already registered by another user")
	case "phone":
		return Conflict("Phone number already registered by another user")
	case "username":
		return Conflict("Username already taken")
	}
	return Conflict("User already exists")
}

// ListAll returns every account.
func (s *UserService) ListAll(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, Internal("list users", err)
	}
	return users, nil
}

// BootstrapResult reports what BootstrapAdmin did.
type BootstrapResult string

const (
	BootstrapSkipped  BootstrapResult = "skipped"
	BootstrapCreated  BootstrapResult = "created"
	BootstrapPromoted BootstrapResult = "promoted"
)

// BootstrapAdmin makes sure at least one admin exists. When there is none it
// promotes the account registered with in.Email, or creates a new admin from
// in if no such account exists.
func (s *UserService) BootstrapAdmin(ctx context.Context, in RegisterInput) (BootstrapResult, *model.User, error) {
	n, err := s.users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return "", nil, Internal("count admins", err)
	}
	if n > 0 {
		return BootstrapSkipped, nil, nil
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		existing, err := s.users.FindConflict(ctx, email, "", "", 0)
		switch {
		case err == nil:
			if err := s.users.SetRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return "", nil, Internal("promote admin", err)
			}
			existing.Role = model.RoleAdmin
			s.log.Info("account promoted to admin", zap.Uint64("user_id", existing.ID))
			return BootstrapPromoted, existing, nil
		case !errors.Is(err, repository.ErrNotFound):
			return "", nil, Internal("find admin candidate", err)
		}
	}

	u, err := s.CreateAdmin(ctx, in)
	if err != nil {
		return "", nil, err
	}
	return BootstrapCreated, u, nil
}

// SetActive activates or deactivates the account with the given username or
// email. Deactivated accounts can neither log in nor use existing tokens.
func (s *UserService) SetActive(ctx context.Context, login string, active bool) (*model.User, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, Internal("find user", err)
	}
	if err := s.users.SetActive(ctx, u.ID, active); err != nil {
		return nil, Internal("set active", err)
	}
	u.IsActive = active
	s.log.Info("account activation changed", zap.Uint64("user_id", u.ID), zap.Bool("active", active))
	return u, nil
}
