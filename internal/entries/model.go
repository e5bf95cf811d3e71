package entries

// Entry models a single diary record owned by one user.
type Entry struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64  `gorm:"column:user_id;not null;index:idx_entries_user_created,priority:1"`
	CreatedOn  int64  `gorm:"column:created_on;not null;index:idx_entries_user_created,priority:2"`
	UpdatedOn  int64  `gorm:"column:updated_on;not null"`
	Title      string `gorm:"column:title;size:100;not null"`
	Content    string `gorm:"column:content;size:1000;not null"`
	IsFavorite bool   `gorm:"column:is_favorite;not null;default:false"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "entries"
}

// Partial describes a partial update; nil fields keep their stored value.
type Partial struct {
	Title      *string
	Content    *string
	IsFavorite *bool
}

// IsEmpty reports whether the partial carries no changes.
func (p Partial) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.IsFavorite == nil
}

// Page bundles one page of entries with the total count of the filtered set.
type Page struct {
	Entries []Entry
	Limit   int
	Page    int
	Count   int64
}

// Counts aggregates per-user entry totals for the profile view.
type Counts struct {
	Total     int64
	Favorites int64
}
