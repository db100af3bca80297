package auth

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/smartmarkhq/smartmark/internal/config"
	"github.com/smartmarkhq/smartmark/pkg/utils"
)

// OAuthProvider describes the external identity provider the sign-in flow
// redirects to and exchanges codes with.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
}

// ProviderIdentity is the provider's view of the signed-in account.
type ProviderIdentity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func NewOAuthProvider(cfg *config.Config) *OAuthProvider {
	return &OAuthProvider{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		UserInfoURL:  cfg.OAuthUserInfoURL,
		RedirectURL:  cfg.OAuthRedirectURL,
	}
}

// AuthorizeURL builds the provider redirect target for a sign-in attempt.
// state binds the callback to this attempt and is verified on return.
func (p *OAuthProvider) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return p.AuthURL + "?" + q.Encode()
}

// ExchangeCode trades a one-time authorization code for a provider access
// token. Any failure leaves the user unauthenticated; no partial session
// state is created here.
func (p *OAuthProvider) ExchangeCode(code string) (string, error) {
	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(p.TokenURL)

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("grant_type", "authorization_code")
	args.Set("code", code)
	args.Set("client_id", p.ClientID)
	args.Set("client_secret", p.ClientSecret)
	args.Set("redirect_uri", p.RedirectURL)
	agent.Form(args)

	if err := agent.Parse(); err != nil {
		return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to reach identity provider")
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", utils.WrapError(errs[0], utils.ErrInternalServerError.Code, "Failed to reach identity provider")
	}
	if status != fiber.StatusOK {
		return "", utils.NewError(utils.ErrUnauthorized.Code, "Authentication failed. Please try again.", fmt.Sprintf("token endpoint returned %d", status))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return "", utils.NewError(utils.ErrUnauthorized.Code, "Authentication failed. Please try again.", "malformed token response")
	}

	return token.AccessToken, nil
}

// FetchIdentity resolves the provider access token into the account identity.
func (p *OAuthProvider) FetchIdentity(accessToken string) (*ProviderIdentity, error) {
	agent := fiber.Get(p.UserInfoURL)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+accessToken)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, utils.WrapError(errs[0], utils.ErrInternalServerError.Code, "Failed to reach identity provider")
	}
	if status != fiber.StatusOK {
		return nil, utils.NewError(utils.ErrUnauthorized.Code, "Authentication failed. Please try again.", fmt.Sprintf("userinfo endpoint returned %d", status))
	}

	var identity ProviderIdentity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, utils.NewError(utils.ErrUnauthorized.Code, "Authentication failed. Please try again.", "malformed userinfo response")
	}
	if identity.Subject == "" {
		return nil, utils.NewError(utils.ErrUnauthorized.Code, "Authentication failed. Please try again.", "userinfo missing subject")
	}

	return &identity, nil
}
