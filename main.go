package main

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/formmind/formmind/app"
	"github.com/formmind/formmind/config"
	"github.com/formmind/formmind/database"
	"github.com/formmind/formmind/forms"
	"github.com/formmind/formmind/httpx"
	"github.com/formmind/formmind/log"
	"github.com/formmind/formmind/model"
	"github.com/formmind/formmind/routes"
	"github.com/formmind/formmind/store"
	"github.com/formmind/formmind/store/memory"
	"github.com/formmind/formmind/store/sqlite"
	"github.com/formmind/formmind/submit"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}
	defer st.Close()

	app := app.App{
		Store:        st,
		Forms:        forms.NewService(st),
		Intake:       submit.NewService(st),
		BearerServer: httpx.NewBearerServer(st, cfg),
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store: all data is lost on shutdown")
		return seedMemoryStore()
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return sqlite.New(db), nil
}

// seedMemoryStore provisions the demo principals the durable store gets from
// its seed migration.
func seedMemoryStore() (*memory.Store, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	st := memory.New()
	for _, u := range []struct {
		email string
		name  string
		role  model.Role
	}{
		{"owner@example.com", "Demo Owner", model.RoleOwner},
		{"admin@example.com", "Demo Admin", model.RoleAdmin},
		{"editor@example.com", "Demo Editor", model.RoleEditor},
	} {
		st.SeedUser(model.User{
			TenantID:     1,
			Email:        u.email,
			Name:         u.name,
			PasswordHash: string(hash),
			Role:         u.role,
		})
	}
	return st, nil
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
