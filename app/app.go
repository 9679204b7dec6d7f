package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/storage"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Storage storage.Bucket
}
