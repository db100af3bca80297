package models

import (
	bookmark "github.com/smartmarkhq/smartmark/internal/models/bookmark"
	user "github.com/smartmarkhq/smartmark/internal/models/user"
)

func RegisterModels() []interface{} {
	return []interface{}{
		&user.User{},
		&bookmark.Bookmark{},
	}
}

type (
	User           = user.User
	Bookmark       = bookmark.Bookmark
	BookmarkInput  = bookmark.BookmarkInput
	BookmarkUpdate = bookmark.BookmarkUpdate
)

var (
	WithName         = user.WithName
	WithAvatarURL    = user.WithAvatarURL
	UpsertUser       = user.UpsertUser
	GetUserBy        = user.GetUserBy
	GetUserByID      = user.GetUserByID
	CreateBookmark   = bookmark.CreateBookmark
	GetBookmark      = bookmark.GetBookmark
	ListBookmarks    = bookmark.ListBookmarks
	UpdateBookmark   = bookmark.UpdateBookmark
	DeleteBookmark   = bookmark.DeleteBookmark
	ListDistinctTags = bookmark.ListDistinctTags
)
