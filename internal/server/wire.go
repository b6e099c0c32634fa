package server

import (
	"github.com/redis/go-redis/v9"
	"github.com/tuma-app/tuma/backend/internal/config"
	"github.com/tuma-app/tuma/backend/internal/crm"
	"github.com/tuma-app/tuma/backend/internal/dashboard"
	"github.com/tuma-app/tuma/backend/internal/database"
	docservice "github.com/tuma-app/tuma/backend/internal/document/service"
	"github.com/tuma-app/tuma/backend/internal/invoices"
	"github.com/tuma-app/tuma/backend/internal/missions"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/planning"
	"github.com/tuma-app/tuma/backend/internal/quotes"
	"github.com/tuma-app/tuma/backend/internal/sessions"
	"github.com/tuma-app/tuma/backend/internal/storage"
	"github.com/tuma-app/tuma/backend/internal/store"
	"github.com/tuma-app/tuma/backend/internal/tokens"
	"github.com/tuma-app/tuma/backend/internal/users"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repos is one repository per collection.
type Repos struct {
	Users         store.Repository[*models.User]
	Clients       store.Repository[*models.Client]
	Opportunities store.Repository[*models.Opportunity]
	Quotes        store.Repository[*models.Quote]
	Missions      store.Repository[*models.Mission]
	Invoices      store.Repository[*models.Invoice]
	Events        store.Repository[*models.Event]
	Tasks         store.Repository[*models.Task]
	TimeEntries   store.Repository[*models.TimeEntry]
	Documents     store.Repository[*models.ProjectDocument]
}

// MongoRepos binds every collection of db and ensures its indexes.
func MongoRepos(db *mongo.Database) Repos {
	return Repos{
		Users:         mongoRepo(db, database.Users, "user", func() *models.User { return &models.User{} }),
		Clients:       mongoRepo(db, database.Clients, "client", func() *models.Client { return &models.Client{} }),
		Opportunities: mongoRepo(db, database.Opportunities, "opportunity", func() *models.Opportunity { return &models.Opportunity{} }),
		Quotes:        mongoRepo(db, database.Quotes, "quote", func() *models.Quote { return &models.Quote{} }),
		Missions:      mongoRepo(db, database.Missions, "mission", func() *models.Mission { return &models.Mission{} }),
		Invoices:      mongoRepo(db, database.Invoices, "invoice", func() *models.Invoice { return &models.Invoice{} }),
		Events:        mongoRepo(db, database.Events, "event", func() *models.Event { return &models.Event{} }),
		Tasks:         mongoRepo(db, database.Tasks, "task", func() *models.Task { return &models.Task{} }),
		TimeEntries:   mongoRepo(db, database.TimeEntries, "time entry", func() *models.TimeEntry { return &models.TimeEntry{} }),
		Documents:     mongoRepo(db, database.Documents, "document", func() *models.ProjectDocument { return &models.ProjectDocument{} }),
	}
}

func mongoRepo[T store.Entity](db *mongo.Database, collection, resource string, newFn func() T) store.Repository[T] {
	return store.NewMongoRepository(db.Collection(collection), resource, newFn, database.Indexes(collection)...)
}

// MemoryRepos keeps everything in process, with the same unique keys as the Mongo indexes.
func MemoryRepos() Repos {
	return Repos{
		Users: store.NewMemoryRepository("user", func() *models.User { return &models.User{} }).
			WithUnique("email").
			WithUnique("sub"),
		Clients:       store.NewMemoryRepository("client", func() *models.Client { return &models.Client{} }),
		Opportunities: store.NewMemoryRepository("opportunity", func() *models.Opportunity { return &models.Opportunity{} }),
		Quotes: store.NewMemoryRepository("quote", func() *models.Quote { return &models.Quote{} }).
			WithUnique("userId", "quoteNumber").
			WithUnique("shareToken"),
		Missions: store.NewMemoryRepository("mission", func() *models.Mission { return &models.Mission{} }).
			WithUnique("userId", "quoteId"),
		Invoices: store.NewMemoryRepository("invoice", func() *models.Invoice { return &models.Invoice{} }).
			WithUnique("userId", "invoiceNumber"),
		Events:      store.NewMemoryRepository("event", func() *models.Event { return &models.Event{} }),
		Tasks:       store.NewMemoryRepository("task", func() *models.Task { return &models.Task{} }),
		TimeEntries: store.NewMemoryRepository("time entry", func() *models.TimeEntry { return &models.TimeEntry{} }),
		Documents:   store.NewMemoryRepository("document", func() *models.ProjectDocument { return &models.ProjectDocument{} }),
	}
}

// Build wires the domain services over repos. files, sso and rdb may be nil.
func Build(cfg *config.Config, repos Repos, sess *sessions.Service, files storage.FileStore, sso middleware.Verifier, rdb *redis.Client) Deps {
	inv := invoices.NewService(repos.Invoices, repos.Clients)
	return Deps{
		Config:        cfg,
		Users:         users.NewService(repos.Users),
		Sessions:      sess,
		Access:        tokens.NewVerifier(cfg.JWT.Secret),
		SSO:           sso,
		Redis:         rdb,
		Clients:       crm.NewClientService(repos.Clients, repos.Quotes, repos.Missions, repos.Invoices),
		Opportunities: crm.NewOpportunityService(repos.Opportunities, repos.Clients),
		Quotes:        quotes.NewService(repos.Quotes, repos.Missions, repos.Clients, inv),
		Missions:      missions.NewService(repos.Missions),
		Invoices:      inv,
		Planning:      planning.NewServices(repos.Events, repos.Tasks, repos.TimeEntries, repos.Missions),
		Documents:     docservice.New(repos.Documents, repos.Missions, repos.Clients, files),
		Dashboard:     dashboard.NewService(repos.Quotes, repos.Missions, repos.Invoices, repos.Events),
	}
}
