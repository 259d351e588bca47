package app

import (
	"github.com/go-chi/oauth"

	"github.com/formmind/formmind/config"
	"github.com/formmind/formmind/forms"
	"github.com/formmind/formmind/store"
	"github.com/formmind/formmind/submit"
)

// App bundles the wired singletons handed to the route controllers.
type App struct {
	Store  store.Store
	Forms  *forms.Service
	Intake *submit.Service
	*oauth.BearerServer
	config.Config
}
