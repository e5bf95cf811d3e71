package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingHasher   = errors.New("password hasher is required")
	noOpLogger         = zap.NewNop()

	// ErrEmailTaken indicates a signup collided with an existing account.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrUserNotFound indicates no account exists for the given email.
	ErrUserNotFound = errors.New("users: user not found")
)

// ServiceError wraps a failure with an operation code for logs and callers.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew      = "users.service.new"
	opRegister        = "users.register"
	opAuthenticate    = "users.authenticate"
	opGetByEmail      = "users.get_by_email"
	opUpdateProfile   = "users.update_profile"
	opReminderTargets = "users.reminder_targets"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// Hasher abstracts password hashing for the service.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// ServiceConfig describes the dependencies of the user service.
type ServiceConfig struct {
	Database *gorm.DB
	Hasher   Hasher
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages diary accounts and their reminder preferences.
type Service struct {
	db     *gorm.DB
	hasher Hasher
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Hasher == nil {
		return nil, newServiceError(opServiceNew, "missing_hasher", errMissingHasher)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		hasher: cfg.Hasher,
		clock:  clock,
		logger: logger,
	}, nil
}

// Register creates a new account and returns the stored record.
// Registering an email that already exists fails with ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password string) (User, error) {
	normalized := NormalizeEmail(email)

	var existing User
	err := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&existing).Error
	if err == nil {
		return User{}, newServiceError(opRegister, "email_taken", ErrEmailTaken)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logError(opRegister, "user_select_failed", err, zap.String("email", normalized))
		return User{}, newServiceError(opRegister, "user_select_failed", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logError(opRegister, "password_hash_failed", err)
		return User{}, newServiceError(opRegister, "password_hash_failed", err)
	}

	now := s.clock().UTC().Unix()
	user := User{
		Email:        normalized,
		PasswordHash: hash,
		CreatedOn:    now,
		UpdatedOn:    now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent signup can slip past the lookup; the unique index keeps
		// the store consistent and the caller sees the same conflict either way.
		if isUniqueViolation(err) {
			return User{}, newServiceError(opRegister, "email_taken", ErrEmailTaken)
		}
		s.logError(opRegister, "user_insert_failed", err, zap.String("email", normalized))
		return User{}, newServiceError(opRegister, "user_insert_failed", err)
	}

	return user, nil
}

// Authenticate verifies the credentials and returns the matching account.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	normalized := NormalizeEmail(email)

	var user User
	err := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, newServiceError(opAuthenticate, "unknown_email", ErrInvalidCredentials)
	}
	if err != nil {
		s.logError(opAuthenticate, "user_select_failed", err, zap.String("email", normalized))
		return User{}, newServiceError(opAuthenticate, "user_select_failed", err)
	}

	matches, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		s.logError(opAuthenticate, "password_compare_failed", err, zap.String("email", normalized))
		return User{}, newServiceError(opAuthenticate, "password_compare_failed", err)
	}
	if !matches {
		return User{}, newServiceError(opAuthenticate, "wrong_password", ErrInvalidCredentials)
	}

	return user, nil
}

// GetByEmail returns the account for a validated token subject.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	normalized := NormalizeEmail(email)

	var user User
	err := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, newServiceError(opGetByEmail, "not_found", ErrUserNotFound)
	}
	if err != nil {
		s.logError(opGetByEmail, "user_select_failed", err, zap.String("email", normalized))
		return User{}, newServiceError(opGetByEmail, "user_select_failed", err)
	}

	return user, nil
}

// UpdateProfile applies the supplied fields to the account; nil fields are untouched.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, pushSub *string, reminderIsSet *bool) error {
	updates := map[string]interface{}{
		"updated_on": s.clock().UTC().Unix(),
	}
	if pushSub != nil {
		updates["push_sub"] = *pushSub
	}
	if reminderIsSet != nil {
		updates["reminder_is_set"] = *reminderIsSet
	}

	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		s.logError(opUpdateProfile, "user_update_failed", result.Error, zap.Int64("user_id", userID))
		return newServiceError(opUpdateProfile, "user_update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opUpdateProfile, "not_found", ErrUserNotFound)
	}
	return nil
}

// ListReminderTargets returns every account that opted into reminders and has a
// push subscription on file.
func (s *Service) ListReminderTargets(ctx context.Context) ([]User, error) {
	var targets []User
	err := s.db.WithContext(ctx).
		Where("reminder_is_set = ? AND push_sub <> ''", true).
		Order("id ASC").
		Find(&targets).Error
	if err != nil {
		s.logError(opReminderTargets, "query_failed", err)
		return nil, newServiceError(opReminderTargets, "query_failed", err)
	}
	return targets, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("users service error", attrs...)
}
