package auth

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	user "github.com/smartmarkhq/smartmark/internal/models/user"
	"github.com/smartmarkhq/smartmark/pkg/utils"
)

// Protected verifies the session for routes that require a resolved identity.
// An expired access token is refreshed transparently from the refresh token;
// when neither can establish an identity the request ends with 401. On
// success the user id is stored in locals for handlers to scope their
// queries with.
func Protected(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := c.Cookies("access_token")
		refreshToken := c.Cookies("refresh_token")

		if accessToken != "" {
			if opt.Rclient.Exists(c.Context(), "blacklist:access:"+accessToken).Val() > 0 {
				opt.Logger.Warn(c.Context()).Logs("Attempted use of blacklisted access token")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Access token has been invalidated",
				})
			}
		}

		if accessToken == "" {
			newAccessToken, err := handleTokenRefresh(c, opt, refreshToken)
			if err != nil {
				return utils.SendError(c, err)
			}
			accessToken = newAccessToken
		}

		claims, err := VerifyToken(accessToken)
		if err == ErrExpiredToken {
			newAccessToken, rerr := handleTokenRefresh(c, opt, refreshToken)
			if rerr != nil {
				return utils.SendError(c, rerr)
			}
			claims, err = VerifyToken(newAccessToken)
		}
		if err != nil {
			opt.Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Access token invalid")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid access token",
			})
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid access token",
			})
		}

		if _, err := user.GetUserByID(c.Context(), opt.Rclient, opt.DB, userID); err != nil {
			opt.Logger.Warn(c.Context()).WithFields("user_id", claims.UserID).Logs("User not found")
			c.ClearCookie("access_token")
			c.ClearCookie("refresh_token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

// handleTokenRefresh rotates the refresh token and issues a new access token.
// It never writes the response itself; failures come back as CustomErrors for
// the caller to send.
func handleTokenRefresh(c *fiber.Ctx, opt Options, refreshToken string) (string, error) {
	unauthorized := func(msg string) (string, error) {
		return "", utils.NewError(fiber.StatusUnauthorized, msg)
	}

	if refreshToken == "" {
		return unauthorized("Authentication required")
	}

	if opt.Rclient.Exists(c.Context(), "blacklist:refresh:"+refreshToken).Val() > 0 {
		opt.Logger.Warn(c.Context()).Logs("Attempted use of blacklisted refresh token")
		return unauthorized("Refresh token has been invalidated")
	}

	refreshKey := "refresh:" + refreshToken
	refreshDataJSON, err := opt.Rclient.Get(c.Context(), refreshKey).Result()
	if err != nil || refreshDataJSON == "" {
		return unauthorized("Invalid or expired refresh token")
	}

	var refreshData map[string]string
	if err := json.Unmarshal([]byte(refreshDataJSON), &refreshData); err != nil {
		opt.Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to parse refresh data")
		return unauthorized("Invalid refresh token")
	}

	userID, err := uuid.Parse(refreshData["user_id"])
	if err != nil {
		return unauthorized("Invalid refresh token")
	}

	if ip := refreshData["ip"]; ip != "" && ip != c.IP() {
		opt.Logger.Warn(c.Context()).WithFields("user_id", refreshData["user_id"]).Logs("Refresh token IP mismatch")
		opt.Rclient.Del(c.Context(), refreshKey)
		return unauthorized("Invalid refresh token")
	}

	u, err := user.GetUserByID(c.Context(), opt.Rclient, opt.DB, userID)
	if err != nil {
		c.ClearCookie("access_token")
		c.ClearCookie("refresh_token")
		return unauthorized("User not found")
	}

	newAccessToken, err := GenerateAccessToken(u.ID.String(), u.Email)
	if err != nil {
		opt.Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to generate access token")
		return "", utils.WrapError(err, fiber.StatusInternalServerError, "Failed to refresh session")
	}
	newRefreshToken := GenerateRefreshToken()

	if err := StoreRefreshToken(c, opt, newRefreshToken, u.ID.String()); err != nil {
		opt.Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to store refresh token")
	}
	opt.Rclient.Del(c.Context(), refreshKey)

	SetSessionCookies(c, newAccessToken, newRefreshToken)
	c.Locals("user_id", u.ID.String())

	opt.Logger.Info(c.Context()).WithFields("user_id", u.ID.String()).Logs("Tokens refreshed")
	return newAccessToken, nil
}

// StoreRefreshToken persists a refresh token in Redis bound to the caller IP.
func StoreRefreshToken(c *fiber.Ctx, opt Options, token, userID string) error {
	data, _ := json.Marshal(map[string]string{
		"user_id": userID,
		"ip":      c.IP(),
	})
	return opt.Rclient.Set(c.Context(), "refresh:"+token, data, RefreshTokenTTL).Err()
}

// SetSessionCookies writes both session cookies on the response.
func SetSessionCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(AccessTokenTTL),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Strict",
		})
	}
}
