package v1

import (
	"github.com/smartmarkhq/smartmark/internal/auth"
	"github.com/smartmarkhq/smartmark/internal/db"
	"github.com/smartmarkhq/smartmark/internal/feed"
	"github.com/smartmarkhq/smartmark/pkg/logger"
	"github.com/smartmarkhq/smartmark/pkg/utils"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	Redis     *db.RedisClient
	Logger    *logger.Logger
	Feed      *feed.Publisher
	Provider  *auth.OAuthProvider
	SiteURL   string
	Validator = utils.NewValidator()
)

// Setup wires the package-level handler dependencies.
func Setup(gormDB *gorm.DB, rclient *db.RedisClient, log *logger.Logger, pub *feed.Publisher, provider *auth.OAuthProvider, siteURL string) {
	DB = gormDB
	Redis = rclient
	Logger = log
	Feed = pub
	Provider = provider
	SiteURL = siteURL
}

// AuthOptions builds the middleware options from the wired dependencies.
func AuthOptions() auth.Options {
	return auth.Options{
		DB:       DB,
		Rclient:  Redis,
		Logger:   Logger,
		Provider: Provider,
	}
}
