package auth

import (
	"github.com/smartmarkhq/smartmark/internal/db"
	"github.com/smartmarkhq/smartmark/pkg/logger"
	"gorm.io/gorm"
)

// Options bundles the dependencies the auth middleware needs.
type Options struct {
	DB       *gorm.DB
	Rclient  *db.RedisClient
	Logger   *logger.Logger
	Provider *OAuthProvider
}
