package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EditWindow is how long after creation an entry's fields may still be changed.
const EditWindow = 24 * time.Hour

const (
	// DefaultLimit is the page size used when the client supplies none.
	DefaultLimit = 20
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()

	// ErrNotFound indicates the entry does not exist or belongs to another user.
	ErrNotFound = errors.New("entries: entry not found")
	// ErrEditWindowExpired indicates the entry is older than the edit window.
	ErrEditWindowExpired = errors.New("entries: edit window expired")
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
	opServiceNew = "entries.service.new"
	opList       = "entries.list"
	opGet        = "entries.get"
	opCreate     = "entries.create"
	opUpdate     = "entries.update"
	opDelete     = "entries.delete"
	opCounts     = "entries.counts"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies of the entry service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service implements the diary entry lifecycle for a single owning user.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the entry service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
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
		clock:  clock,
		logger: logger,
	}, nil
}

// List returns one page of the user's entries ordered by creation time, plus
// the total count of the filtered set so pagination metadata comes from the
// store rather than from the returned slice.
func (s *Service) List(ctx context.Context, userID int64, limit, page int, favoritesOnly bool) (Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page < 0 {
		page = 0
	}

	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&Entry{}).Where("user_id = ?", userID)
		if favoritesOnly {
			query = query.Where("is_favorite = ?", true)
		}
		return query
	}

	var count int64
	if err := scoped().Count(&count).Error; err != nil {
		s.logError(opList, "count_failed", err, zap.Int64("user_id", userID))
		return Page{}, newServiceError(opList, "count_failed", err)
	}

	var result []Entry
	if err := scoped().
		Order("created_on ASC, id ASC").
		Limit(limit).
		Offset(limit * page).
		Find(&result).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.Int64("user_id", userID))
		return Page{}, newServiceError(opList, "query_failed", err)
	}

	return Page{Entries: result, Limit: limit, Page: page, Count: count}, nil
}

// Get returns the entry when it exists and belongs to the user.
func (s *Service) Get(ctx context.Context, userID, entryID int64) (Entry, error) {
	var entry Entry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, entryID).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, newServiceError(opGet, "not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opGet, "query_failed", err, zap.Int64("user_id", userID), zap.Int64("entry_id", entryID))
		return Entry{}, newServiceError(opGet, "query_failed", err)
	}
	return entry, nil
}

// Create inserts a new entry for the user and returns the stored record.
func (s *Service) Create(ctx context.Context, userID int64, title, content string, isFavorite bool) (Entry, error) {
	now := s.clock().UTC().Unix()
	entry := Entry{
		UserID:     userID,
		Title:      title,
		Content:    content,
		IsFavorite: isFavorite,
		CreatedOn:  now,
		UpdatedOn:  now,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logError(opCreate, "insert_failed", err, zap.Int64("user_id", userID))
		return Entry{}, newServiceError(opCreate, "insert_failed", err)
	}
	return entry, nil
}

// Update applies a partial update to an owned entry. Any update outside the
// edit window fails with ErrEditWindowExpired; an empty partial is a no-op
// that returns the current entry.
func (s *Service) Update(ctx context.Context, userID, entryID int64, partial Partial) (Entry, error) {
	entry, err := s.Get(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Entry{}, newServiceError(opUpdate, "not_found", ErrNotFound)
		}
		return Entry{}, err
	}

	now := s.clock().UTC()
	if now.Sub(time.Unix(entry.CreatedOn, 0)) > EditWindow {
		return Entry{}, newServiceError(opUpdate, "edit_window_expired", ErrEditWindowExpired)
	}

	if partial.IsEmpty() {
		return entry, nil
	}

	updates := map[string]interface{}{
		"updated_on": now.Unix(),
	}
	if partial.Title != nil {
		updates["title"] = *partial.Title
	}
	if partial.Content != nil {
		updates["content"] = *partial.Content
	}
	if partial.IsFavorite != nil {
		updates["is_favorite"] = *partial.IsFavorite
	}

	err = s.db.WithContext(ctx).
		Model(&Entry{}).
		Where("user_id = ? AND id = ?", userID, entryID).
		Updates(updates).Error
	if err != nil {
		s.logError(opUpdate, "update_failed", err, zap.Int64("user_id", userID), zap.Int64("entry_id", entryID))
		return Entry{}, newServiceError(opUpdate, "update_failed", err)
	}

	return s.Get(ctx, userID, entryID)
}

// Delete removes an owned entry.
func (s *Service) Delete(ctx context.Context, userID, entryID int64) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, entryID).
		Delete(&Entry{})
	if result.Error != nil {
		s.logError(opDelete, "delete_failed", result.Error, zap.Int64("user_id", userID), zap.Int64("entry_id", entryID))
		return newServiceError(opDelete, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDelete, "not_found", ErrNotFound)
	}
	return nil
}

// CountsForUser returns the total and favorite entry counts for the profile view.
func (s *Service) CountsForUser(ctx context.Context, userID int64) (Counts, error) {
	var counts Counts
	err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Where("user_id = ?", userID).
		Count(&counts.Total).Error
	if err != nil {
		s.logError(opCounts, "total_failed", err, zap.Int64("user_id", userID))
		return Counts{}, newServiceError(opCounts, "total_failed", err)
	}

	err = s.db.WithContext(ctx).
		Model(&Entry{}).
		Where("user_id = ? AND is_favorite = ?", userID, true).
		Count(&counts.Favorites).Error
	if err != nil {
		s.logError(opCounts, "favorites_failed", err, zap.Int64("user_id", userID))
		return Counts{}, newServiceError(opCounts, "favorites_failed", err)
	}

	return counts, nil
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
	s.loggerOrDefault().Error("entries service error", attrs...)
}
