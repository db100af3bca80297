package models

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/smartmarkhq/smartmark/internal/db"
	"github.com/smartmarkhq/smartmark/internal/feed"
	"github.com/smartmarkhq/smartmark/pkg/utils"
	"gorm.io/gorm"
)

// MaxTags is the per-record tag limit.
const MaxTags = 20

// Bookmark is a single saved link. Every bookmark belongs to exactly one
// user; all queries in this package carry an explicit user_id predicate so
// ownership holds regardless of what the store enforces.
type Bookmark struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_bookmark_user" json:"user_id"`

	URL         string         `gorm:"type:text;not null" json:"url" validate:"required,http_url"`
	Title       string         `gorm:"size:500;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Tags        pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"tags"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_bookmark_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BookmarkInput is the create payload.
type BookmarkInput struct {
	URL         string   `json:"url" validate:"required"`
	Title       string   `json:"title" validate:"omitempty,max=500"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,max=20"`
	// TagsInput is the raw comma-separated form field; used when Tags is absent.
	TagsInput string `json:"tags_input" validate:"omitempty"`
}

// BookmarkUpdate is the partial-update payload; nil fields are left untouched.
type BookmarkUpdate struct {
	URL         *string   `json:"url" validate:"omitempty"`
	Title       *string   `json:"title" validate:"omitempty,max=500"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=20"`
}

// ValidateURL checks that raw parses as an absolute http/https URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return utils.NewError(utils.ErrBadRequest.Code, "Invalid URL format. Please provide a valid HTTP or HTTPS URL.")
	}
	return nil
}

// EscapeLikePattern escapes LIKE/ILIKE pattern characters so user-supplied
// search text matches literally.
func EscapeLikePattern(q string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
}

// CreateBookmark validates and persists a new bookmark for userID, then
// publishes an insert event to the owner's feed.
func CreateBookmark(ctx context.Context, rclient *db.RedisClient, gormDB *gorm.DB, pub *feed.Publisher, userID uuid.UUID, input BookmarkInput) (*Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "bookmark create canceled")
	}

	input.URL = strings.TrimSpace(input.URL)
	if err := ValidateURL(input.URL); err != nil {
		return nil, err
	}

	tags := input.Tags
	if len(tags) == 0 && input.TagsInput != "" {
		tags = utils.ParseTags(input.TagsInput)
	}
	tags = utils.NormalizeTags(tags)
	if len(tags) > MaxTags {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Maximum 20 tags allowed per bookmark.")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = input.URL
	}

	b := &Bookmark{
		UserID:      userID,
		URL:         input.URL,
		Title:       title,
		Description: input.Description,
		Tags:        pq.StringArray(tags),
	}
	if b.Tags == nil {
		b.Tags = pq.StringArray{}
	}

	if err := gormDB.WithContext(ctx).Create(b).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create bookmark")
	}

	cacheBookmark(ctx, rclient, b)
	pub.Publish(ctx, userID.String(), feed.Event{Type: feed.EventInsert, Bookmark: b, ID: b.ID.String()})

	return b, nil
}

// GetBookmark fetches a single bookmark owned by userID.
func GetBookmark(ctx context.Context, rclient *db.RedisClient, gormDB *gorm.DB, id, userID uuid.UUID) (*Bookmark, error) {
	key := "bookmark:" + id.String()
	if cached, err := rclient.Get(ctx, key).Result(); err == nil && cached != "" {
		var b Bookmark
		if err := json.Unmarshal([]byte(cached), &b); err == nil && b.UserID == userID {
			return &b, nil
		}
	}

	var b Bookmark
	if err := gormDB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Bookmark not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch bookmark")
	}

	cacheBookmark(ctx, rclient, &b)
	return &b, nil
}

// ListBookmarks returns userID's bookmarks newest-created first, optionally
// narrowed by a case-insensitive substring query over title/url/description
// and an exact tag. Both filters compose with AND.
func ListBookmarks(ctx context.Context, gormDB *gorm.DB, userID uuid.UUID, query, tag string) ([]Bookmark, error) {
	q := gormDB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if query != "" {
		pattern := "%" + EscapeLikePattern(query) + "%"
		q = q.Where("(title ILIKE ? OR url ILIKE ? OR description ILIKE ?)", pattern, pattern, pattern)
	}
	if tag != "" {
		q = q.Where("tags @> ?", pq.Array([]string{tag}))
	}

	bookmarks := []Bookmark{}
	if err := q.Find(&bookmarks).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch bookmarks")
	}
	return bookmarks, nil
}

// UpdateBookmark applies only the supplied fields to userID's bookmark and
// publishes an update event.
func UpdateBookmark(ctx context.Context, rclient *db.RedisClient, gormDB *gorm.DB, pub *feed.Publisher, id, userID uuid.UUID, upd BookmarkUpdate) (*Bookmark, error) {
	var b Bookmark
	if err := gormDB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Bookmark not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch bookmark")
	}

	if upd.URL != nil {
		raw := strings.TrimSpace(*upd.URL)
		if err := ValidateURL(raw); err != nil {
			return nil, err
		}
		b.URL = raw
	}
	if upd.Title != nil {
		b.Title = strings.TrimSpace(*upd.Title)
		if b.Title == "" {
			b.Title = b.URL
		}
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.Tags != nil {
		tags := utils.NormalizeTags(*upd.Tags)
		if len(tags) > MaxTags {
			return nil, utils.NewError(utils.ErrBadRequest.Code, "Maximum 20 tags allowed per bookmark.")
		}
		b.Tags = pq.StringArray(tags)
	}

	if err := gormDB.WithContext(ctx).Save(&b).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update bookmark")
	}

	cacheBookmark(ctx, rclient, &b)
	pub.Publish(ctx, userID.String(), feed.Event{Type: feed.EventUpdate, Bookmark: &b, ID: b.ID.String()})

	return &b, nil
}

// DeleteBookmark hard-deletes userID's bookmark and publishes a delete event.
func DeleteBookmark(ctx context.Context, rclient *db.RedisClient, gormDB *gorm.DB, pub *feed.Publisher, id, userID uuid.UUID) error {
	res := gormDB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Bookmark{})
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to delete bookmark")
	}
	if res.RowsAffected == 0 {
		return utils.NewError(utils.ErrNotFound.Code, "Bookmark not found")
	}

	rclient.Del(ctx, "bookmark:"+id.String())
	pub.Publish(ctx, userID.String(), feed.Event{Type: feed.EventDelete, ID: id.String()})

	return nil
}

// ListDistinctTags returns the sorted set of unique tags across all of
// userID's bookmarks.
func ListDistinctTags(ctx context.Context, gormDB *gorm.DB, userID uuid.UUID) ([]string, error) {
	var rows []Bookmark
	if err := gormDB.WithContext(ctx).Select("tags").Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch tags")
	}

	seen := make(map[string]struct{})
	tags := []string{}
	for _, row := range rows {
		for _, t := range row.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func cacheBookmark(ctx context.Context, rclient *db.RedisClient, b *Bookmark) {
	data, err := json.Marshal(b)
	if err != nil {
		return
	}
	rclient.Set(ctx, "bookmark:"+b.ID.String(), data, 24*time.Hour)
}
