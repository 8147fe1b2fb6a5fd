package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

// RegisterInput carries the registration payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.UserRole
}

// AuthService covers credential verification, token issuance and principal
// resolution.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) error
	// Login returns a signed bearer token on success. Unknown email and wrong
	// password both fail with domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (string, error)
	// Resolve builds the principal for an existing user. An absent user is a
	// hard domain.ErrUserNotFound, not an empty result.
	Resolve(ctx context.Context, email string) (*domain.Principal, error)
}

type authService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	privileges repository.PrivilegeRepository
	tokens     TokenService
}

func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	privileges repository.PrivilegeRepository,
	tokens TokenService,
) AuthService {
	return &authService{
		users:      users,
		roles:      roles,
		privileges: privileges,
		tokens:     tokens,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) error {
	// admin accounts are never self-service, regardless of other fields
	if input.Role == domain.RoleAdmin {
		return domain.ErrAdminRegistration
	}

	email := strings.TrimSpace(input.Email)
	password := strings.TrimSpace(input.Password)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	// best-effort pre-check for a friendlier error; the unique index in the
	// store is the authoritative guard
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	role, err := s.roles.GetByUserRole(ctx, input.Role)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		RoleID:       &role.ID,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return err
	}
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	principal, err := s.Resolve(ctx, user.Email)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(principal)
}

func (s *authService) Resolve(ctx context.Context, email string) (*domain.Principal, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	principal := &domain.Principal{
		UserID:     user.ID,
		Email:      user.Email,
		System:     user.System,
		Privileges: []string{},
	}

	// a user without a role is a valid principal with no privileges
	if user.RoleID == nil {
		return principal, nil
	}

	role, err := s.roles.GetByID(ctx, *user.RoleID)
	switch {
	case err == nil:
		principal.Role = role.UserRole
	case errors.Is(err, domain.ErrRoleNotFound):
		// dangling role reference degrades to an empty role
	default:
		return nil, err
	}

	ids, err := s.roles.PrivilegeIDs(ctx, *user.RoleID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return principal, nil
	}

	privileges, err := s.privileges.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(privileges))
	for _, privilege := range privileges {
		names[string(privilege.UserPrivilege)] = struct{}{}
	}
	for name := range names {
		principal.Privileges = append(principal.Privileges, name)
	}
	// deterministic client-visible ordering
	sort.Strings(principal.Privileges)

	return principal, nil
}
