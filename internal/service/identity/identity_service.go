package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type IdentityUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	ValidateCredentials(ctx context.Context, username, password string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type Auditor interface {
	Record(ctx context.Context, message, actor string) error
}

type RegisterInput struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type IdentityService struct {
	users      repository.UserRepository
	audit      Auditor
	bcryptCost int
	log        *logrus.Logger
}

type IdentityServiceOption func(*IdentityService)

func WithBcryptCost(cost int) IdentityServiceOption {
	return func(s *IdentityService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func NewIdentityService(users repository.UserRepository, audit Auditor, log *logrus.Logger, opts ...IdentityServiceOption) *IdentityService {
	service := &IdentityService{
		users:      users,
		audit:      audit,
		bcryptCost: bcrypt.DefaultCost,
		log:        log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" || input.ConfirmPassword == "" {
		return nil, domain.ErrMissingFields
	}
	if !domain.ValidUsername(username) {
		return nil, domain.ErrInvalidUsername
	}
	if len(input.Password) < domain.MinPasswordLength {
		return nil, domain.ErrInvalidPassword
	}
	if input.Password != input.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	user, err := s.create(ctx, username, input.Password, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "New user registered: "+user.Username, user.Username)
	return user, nil
}

func (s *IdentityService) create(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.log.WithError(err).WithField("username", username).Error("failed to create user")
		}
		return nil, err
	}
	return user, nil
}

// ValidateCredentials never tells an unknown user apart from a wrong password.
func (s *IdentityService) ValidateCredentials(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(ctx, "Failed login attempt for username: "+username, "")
			return nil, domain.ErrInvalidCredentials
		}
		s.log.WithError(err).WithField("username", username).Error("failed to load user")
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.record(ctx, "Failed login attempt for username: "+username, "")
		return nil, domain.ErrInvalidCredentials
	}

	s.record(ctx, "User logged in: "+user.Username, user.Username)
	return user, nil
}

func (s *IdentityService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// EnsureAdmin creates the administrator account when it does not exist yet.
func (s *IdentityService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if len(password) < domain.MinPasswordLength {
		return domain.ErrInvalidPassword
	}

	_, err := s.create(ctx, username, password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrDuplicateUsername) {
		return nil
	}
	if err == nil {
		s.log.WithField("username", username).Info("seeded admin account")
	}
	return err
}

func (s *IdentityService) record(ctx context.Context, message, actor string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, message, actor)
}

var _ IdentityUseCase = (*IdentityService)(nil)
