// Package seed fills an account with demonstration data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/server"
	"github.com/tuma-app/tuma/backend/internal/store"
	"github.com/tuma-app/tuma/backend/internal/users"
	"github.com/tuma-app/tuma/backend/pkg/logger"
)

const (
	DefaultEmail    = "demo@tuma.app"
	DefaultPassword = "demo-password"
)

type Options struct {
	Email    string
	Password string
	// Reset deletes the account's existing data first.
	Reset bool
}

// Result counts the records created, per collection.
type Result struct {
	UserID  string         `json:"userId"`
	Created map[string]int `json:"created"`
	Skipped bool           `json:"skipped"`
}

// Run creates the demo account if needed and seeds it. An account that already holds
// clients is left alone unless Reset is set.
func Run(ctx context.Context, d server.Deps, opts Options, now time.Time) (*Result, error) {
	if opts.Email == "" {
		opts.Email = DefaultEmail
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	u, err := account(ctx, d.Users, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{UserID: u.ID, Created: map[string]int{}}
	log := logger.With("userId", u.ID, "email", u.Email)

	if opts.Reset {
		if err := reset(ctx, d, u.ID); err != nil {
			return nil, fmt.Errorf("reset: %w", err)
		}
		log.Infow("existing data removed")
	} else {
		existing, err := d.Clients.All(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			log.Infow("account already seeded", "clients", len(existing))
			res.Skipped = true
			return res, nil
		}
	}

	s := &seeder{d: d, owner: u.ID, now: now, res: res}
	if err := s.run(ctx); err != nil {
		return nil, err
	}
	log.Infow("demo data created", "created", res.Created)
	return res, nil
}

func account(ctx context.Context, svc *users.Service, opts Options) (*models.User, error) {
	u, err := svc.Register(ctx, users.RegisterInput{Email: opts.Email, Password: opts.Password, Name: "Compte démo", Company: "Studio Tuma"})
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}
	return svc.Authenticate(ctx, opts.Email, opts.Password)
}

// reset deletes every record of owner. Documents go through their service so stored
// files are removed too.
func reset(ctx context.Context, d server.Deps, owner string) error {
	docs, err := d.Documents.All(ctx, owner)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := d.Documents.Delete(ctx, owner, doc.ID); err != nil {
			return err
		}
	}
	steps := []func() error{
		func() error { return purge(ctx, d.Clients.Repo, owner) },
		func() error { return purge(ctx, d.Opportunities.Repo, owner) },
		func() error { return purge(ctx, d.Quotes.Repo, owner) },
		func() error { return purge(ctx, d.Missions.Repo, owner) },
		func() error { return purge(ctx, d.Invoices.Repo, owner) },
		func() error { return purge(ctx, d.Planning.Events.Repo, owner) },
		func() error { return purge(ctx, d.Planning.Tasks.Repo, owner) },
		func() error { return purge(ctx, d.Planning.TimeEntries.Repo, owner) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func purge[T store.Entity](ctx context.Context, repo store.Repository[T], owner string) error {
	all, err := repo.List(ctx, owner, nil)
	if err != nil {
		return err
	}
	for _, e := range all {
		if err := repo.Delete(ctx, owner, e.GetID()); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}
