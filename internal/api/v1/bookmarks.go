package v1

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/smartmarkhq/smartmark/internal/models"
	"github.com/smartmarkhq/smartmark/pkg/utils"
)

// ListBookmarks returns the caller's bookmarks, newest-created first,
// optionally filtered by ?query= and ?tag=.
func ListBookmarks(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	bookmarks, err := models.ListBookmarks(c.Context(), DB, userID, c.Query("query"), c.Query("tag"))
	if err != nil {
		Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to fetch bookmarks")
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, bookmarks)
}

// GetBookmark returns a single bookmark owned by the caller.
func GetBookmark(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid bookmark id"))
	}

	bookmark, err := models.GetBookmark(c.Context(), Redis, DB, id, userID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, bookmark)
}

// CreateBookmark validates and stores a new bookmark for the caller.
func CreateBookmark(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	input := new(models.BookmarkInput)
	if err := utils.StrictBodyParser(c, input); err != nil {
		Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to parse request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if verr := Validator.Validate(input); verr != nil {
		Logger.Warn(c.Context()).Logs(fmt.Sprintf("Validation failed: %v", verr.Errors))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": verr,
		})
	}

	bookmark, err := models.CreateBookmark(c.Context(), Redis, DB, Feed, userID, *input)
	if err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).WithFields("bookmark_id", bookmark.ID.String()).Logs("Bookmark created")
	return utils.Success(c).WithMessage("Bookmark created").WithData(bookmark).Send()
}

// UpdateBookmark applies a partial update to the caller's bookmark.
func UpdateBookmark(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid bookmark id"))
	}

	upd := new(models.BookmarkUpdate)
	if err := utils.StrictBodyParser(c, upd); err != nil {
		Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to parse request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if verr := Validator.Validate(upd); verr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": verr,
		})
	}

	bookmark, err := models.UpdateBookmark(c.Context(), Redis, DB, Feed, id, userID, *upd)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.Success(c).WithMessage("Bookmark updated").WithData(bookmark).Send()
}

// DeleteBookmark removes the caller's bookmark.
func DeleteBookmark(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid bookmark id"))
	}

	if err := models.DeleteBookmark(c.Context(), Redis, DB, Feed, id, userID); err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).WithFields("bookmark_id", id.String()).Logs("Bookmark deleted")
	return utils.SendSuccess(c, fiber.Map{"success": true})
}

// ListTags returns the sorted set of unique tags across the caller's bookmarks.
func ListTags(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	tags, err := models.ListDistinctTags(c.Context(), DB, userID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, tags)
}
