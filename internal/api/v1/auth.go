package v1

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/smartmarkhq/smartmark/internal/auth"
	"github.com/smartmarkhq/smartmark/internal/models"
	"github.com/smartmarkhq/smartmark/pkg/utils"
)

const stateTTL = 10 * time.Minute

// Login starts the sign-in flow by redirecting the user agent to the
// external identity provider.
func Login(c *fiber.Ctx) error {
	state := uuid.NewString()
	if err := Redis.Set(c.Context(), "oauth:state:"+state, "1", stateTTL).Err(); err != nil {
		Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to store OAuth state")
		return redirectWithError(c, "Failed to sign in. Please try again.")
	}

	Logger.Info(c.Context()).Logs("Redirecting to identity provider")
	return c.Redirect(Provider.AuthorizeURL(state), fiber.StatusTemporaryRedirect)
}

// Callback completes the sign-in flow: it exchanges the one-time code for a
// provider session, upserts the local user and issues session cookies. Every
// failure path redirects back to the landing page with an error and leaves
// no partial session behind.
func Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" {
		Logger.Warn(c.Context()).Logs("OAuth callback without code")
		return redirectWithError(c, "Invalid authentication request.")
	}

	stateKey := "oauth:state:" + state
	if state == "" || Redis.Exists(c.Context(), stateKey).Val() == 0 {
		Logger.Warn(c.Context()).Logs("OAuth callback with unknown state")
		return redirectWithError(c, "Invalid authentication request.")
	}
	Redis.Del(c.Context(), stateKey)

	providerToken, err := Provider.ExchangeCode(code)
	if err != nil {
		Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("OAuth session exchange error")
		return redirectWithError(c, "Authentication failed. Please try again.")
	}

	identity, err := Provider.FetchIdentity(providerToken)
	if err != nil {
		Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("OAuth userinfo error")
		return redirectWithError(c, "Authentication failed. Please try again.")
	}

	user, err := models.UpsertUser(
		c.Context(), Redis, DB,
		"oauth", identity.Subject, identity.Email,
		models.WithName(identity.Name), models.WithAvatarURL(identity.Picture),
	)
	if err != nil {
		Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to upsert user after sign-in")
		return redirectWithError(c, "An error occurred during sign in. Please try again.")
	}

	accessToken, err := auth.GenerateAccessToken(user.ID.String(), user.Email)
	if err != nil {
		Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to generate access token")
		return redirectWithError(c, "An error occurred during sign in. Please try again.")
	}
	refreshToken := auth.GenerateRefreshToken()
	if err := auth.StoreRefreshToken(c, AuthOptions(), refreshToken, user.ID.String()); err != nil {
		Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to store refresh token")
	}

	auth.SetSessionCookies(c, accessToken, refreshToken)

	Logger.Info(c.Context()).WithFields("user_id", user.ID.String()).Logs(fmt.Sprintf("User signed in: %s", user.Email))
	return c.Redirect(SiteURL+"/", fiber.StatusTemporaryRedirect)
}

// Logout invalidates both session tokens and clears their cookies.
func Logout(c *fiber.Ctx) error {
	accessToken := c.Cookies("access_token")
	refreshToken := c.Cookies("refresh_token")

	if accessToken != "" {
		if err := Redis.Set(c.Context(), "blacklist:access:"+accessToken, "invalid", auth.AccessTokenTTL).Err(); err != nil {
			Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to blacklist access token")
		}
	}
	if refreshToken != "" {
		if err := Redis.Set(c.Context(), "blacklist:refresh:"+refreshToken, "invalid", auth.RefreshTokenTTL).Err(); err != nil {
			Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to blacklist refresh token")
		}
		Redis.Del(c.Context(), "refresh:"+refreshToken)
	}

	auth.ClearSessionCookies(c)

	c.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	c.Set("Pragma", "no-cache")

	Logger.Info(c.Context()).Logs("User logged out")

	return utils.Success(c).WithMessage("Logout successful").Send()
}

// Me returns the current identity.
func Me(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	user, err := models.GetUserByID(c.Context(), Redis, DB, userID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, user)
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, utils.NewError(utils.ErrUnauthorized.Code, "Unauthorized")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, utils.NewError(utils.ErrUnauthorized.Code, "Unauthorized")
	}
	return id, nil
}

func redirectWithError(c *fiber.Ctx, msg string) error {
	return c.Redirect(SiteURL+"/?error="+url.QueryEscape(msg), fiber.StatusTemporaryRedirect)
}
