// Package clitest wires a cli.Context to a fake backend and a temporary store.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/prescripto/prescripto/internal/api"
	"github.com/prescripto/prescripto/internal/api/apitest"
	"github.com/prescripto/prescripto/internal/appstate"
	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/config"
	"github.com/prescripto/prescripto/internal/keyring"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/scheduler"
	"github.com/prescripto/prescripto/internal/storage/sqlite"
)

const (
	Email    = "ana@example.com"
	Password = "password123"
)

type Env struct {
	Ctx    *cli.Context
	Server *apitest.Server
	Store  *sqlite.Store
	Out    *bytes.Buffer
}

// New starts a fake backend with two doctors and one user, and a context
// whose keyring is mocked. Nobody is logged in.
func New(t *testing.T) *Env {
	t.Helper()
	gokeyring.MockInit()

	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddDoctor(models.Doctor{ID: "d1", Name: "Dr. Richard James", Speciality: "General physician", Degree: "MBBS", Experience: "4 Years", Fees: 50, Available: true})
	srv.AddDoctor(models.Doctor{ID: "d2", Name: "Dr. Emily Larson", Speciality: "Gynecologist", Degree: "MBBS", Experience: "3 Years", Fees: 60, Available: true})
	srv.AddUser("Ana", Email, Password)

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "prescripto.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	cfg := &config.Config{
		BackendURL:     srv.URL,
		DBPath:         store.Path(),
		RequestTimeout: 5 * time.Second,
		ConfigDir:      t.TempDir(),
	}
	client := api.New(cfg.BackendURL, cfg.RequestTimeout)
	out := &bytes.Buffer{}

	return &Env{
		Ctx: &cli.Context{
			Ctx:       context.Background(),
			Config:    cfg,
			Store:     store,
			Client:    client,
			State:     appstate.New(client, keyring.Store{}, store),
			Scheduler: scheduler.New(),
			Notifier:  notifier.New(false),
			Out:       out,
		},
		Server: srv,
		Store:  store,
		Out:    out,
	}
}

// Login stores a valid session token for the test user.
func (e *Env) Login(t *testing.T) {
	t.Helper()
	if err := keyring.SetToken(e.Server.TokenFor(Email)); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}
}
