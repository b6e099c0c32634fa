package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/server"
)

type seeder struct {
	d     server.Deps
	owner string
	now   time.Time
	res   *Result
}

func (s *seeder) count(kind string) { s.res.Created[kind]++ }

func (s *seeder) day(offset int, hour int) time.Time {
	y, m, d := s.now.Date()
	return time.Date(y, m, d+offset, hour, 0, 0, 0, time.UTC)
}

func (s *seeder) dayPtr(offset int) *time.Time {
	t := s.day(offset, 9)
	return &t
}

func (s *seeder) run(ctx context.Context) error {
	clients, err := s.clients(ctx)
	if err != nil {
		return fmt.Errorf("clients: %w", err)
	}
	if err := s.opportunities(ctx, clients); err != nil {
		return fmt.Errorf("opportunities: %w", err)
	}
	mission, err := s.quotes(ctx, clients)
	if err != nil {
		return fmt.Errorf("quotes: %w", err)
	}
	if err := s.invoices(ctx, clients); err != nil {
		return fmt.Errorf("invoices: %w", err)
	}
	if err := s.planning(ctx, clients, mission); err != nil {
		return fmt.Errorf("planning: %w", err)
	}
	if err := s.documents(ctx, clients, mission); err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	return nil
}

func (s *seeder) clients(ctx context.Context) ([]*models.Client, error) {
	in := []*models.Client{
		{Name: "Aminata Diallo", Company: "Boulangerie Diallo", Email: "contact@boulangerie-diallo.sn", Phone: "+221 77 000 00 01", Status: models.ClientActive, Tags: []string{"commerce", "fidèle"}},
		{Name: "Koffi Mensah", Company: "Mensah Logistique", Email: "k.mensah@mensah-logistique.tg", Status: models.ClientActive, Tags: []string{"transport"}},
		{Name: "Sarah Benali", Company: "Atelier Benali", Email: "sarah@atelier-benali.fr", Status: models.ClientProspect},
	}
	out := make([]*models.Client, 0, len(in))
	for _, c := range in {
		created, err := s.d.Clients.Create(ctx, s.owner, c)
		if err != nil {
			return nil, err
		}
		s.count("clients")
		out = append(out, created)
	}
	return out, nil
}

func (s *seeder) opportunities(ctx context.Context, clients []*models.Client) error {
	for _, o := range []*models.Opportunity{
		{Title: "Refonte boutique en ligne", ClientID: clients[2].ID, Source: "Recommandation", Value: 4500, Probability: 40, Stage: models.StageProposal, ExpectedCloseDate: s.dayPtr(21)},
		{Title: "Application de suivi des livraisons", ClientID: clients[1].ID, Source: "Salon", Value: 12000, Probability: 20, Stage: models.StageQualified},
		{Title: "Identité visuelle", Value: 1800, Stage: models.StageWon},
	} {
		if _, err := s.d.Opportunities.Create(ctx, s.owner, o); err != nil {
			return err
		}
		s.count("opportunities")
	}
	return nil
}

// quotes creates an accepted quote (which yields its mission), a shared pending one and a
// draft. It returns the generated mission.
func (s *seeder) quotes(ctx context.Context, clients []*models.Client) (*models.Mission, error) {
	accepted, err := s.d.Quotes.Create(ctx, s.owner, &models.Quote{
		ClientID:    clients[0].ID,
		Title:       "Site vitrine",
		Description: "- Page d'accueil\n- Carte des produits\n- Formulaire de commande",
		TaxRate:     18,
		Status:      models.QuoteAccepted,
		Items: []models.LineItem{
			{Description: "Maquettes", Quantity: 3, UnitPrice: 150},
			{Description: "Intégration et mise en ligne", Quantity: 1, UnitPrice: 900},
		},
	})
	if err != nil {
		return nil, err
	}
	s.count("quotes")

	sent, err := s.d.Quotes.Create(ctx, s.owner, &models.Quote{
		ClientID:   clients[1].ID,
		Title:      "Tableau de bord logistique",
		TaxRate:    18,
		Status:     models.QuoteSent,
		ValidUntil: s.dayPtr(30),
		Items: []models.LineItem{
			{Description: "Atelier de cadrage", Quantity: 1, UnitPrice: 400},
			{Description: "Développement", Quantity: 8, UnitPrice: 350},
		},
	})
	if err != nil {
		return nil, err
	}
	s.count("quotes")
	if _, err := s.d.Quotes.Share(ctx, s.owner, sent.ID); err != nil {
		return nil, err
	}

	if _, err := s.d.Quotes.Create(ctx, s.owner, &models.Quote{
		ClientID: clients[2].ID,
		Title:    "Catalogue imprimé",
		Items:    []models.LineItem{{Description: "Mise en page", Quantity: 12, UnitPrice: 45}},
	}); err != nil {
		return nil, err
	}
	s.count("quotes")

	if accepted.MissionID == "" {
		return nil, fmt.Errorf("accepted quote %s has no mission", accepted.QuoteNumber)
	}
	s.count("missions")
	mission, err := s.d.Missions.Get(ctx, s.owner, accepted.MissionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.d.Missions.Create(ctx, s.owner, &models.Mission{
		Title:     "Maintenance mensuelle",
		ClientID:  clients[1].ID,
		Status:    models.MissionInProgress,
		Priority:  models.PriorityHigh,
		Budget:    300,
		Deadline:  s.dayPtr(2),
		TimeSpent: 3.5,
		Checklist: []models.ChecklistItem{
			{Label: "Mises à jour de sécurité", Done: true},
			{Label: "Sauvegarde", Done: false},
		},
	}); err != nil {
		return nil, err
	}
	s.count("missions")
	return mission, nil
}

func (s *seeder) invoices(ctx context.Context, clients []*models.Client) error {
	for _, inv := range []*models.Invoice{
		{
			ClientID:  clients[0].ID,
			Title:     "Acompte site vitrine",
			TaxRate:   18,
			Status:    models.InvoicePaid,
			IssueDate: s.dayPtr(-20),
			Items:     []models.LineItem{{Description: "Acompte 30 %", Quantity: 1, UnitPrice: 405}},
		},
		{
			ClientID:  clients[1].ID,
			Title:     "Maintenance",
			TaxRate:   18,
			Status:    models.InvoiceSent,
			IssueDate: s.dayPtr(-45),
			DueDate:   s.dayPtr(-15),
			Items:     []models.LineItem{{Description: "Forfait maintenance", Quantity: 1, UnitPrice: 300}},
		},
		{
			ClientID: clients[1].ID,
			Title:    "Atelier de cadrage",
			Items:    []models.LineItem{{Description: "Atelier", Quantity: 1, UnitPrice: 400}},
		},
	} {
		if _, err := s.d.Invoices.Create(ctx, s.owner, inv); err != nil {
			return err
		}
		s.count("invoices")
	}
	return nil
}

func (s *seeder) planning(ctx context.Context, clients []*models.Client, mission *models.Mission) error {
	for _, e := range []*models.Event{
		{Title: "Point d'avancement", Type: models.EventMeeting, Start: s.day(1, 10), End: s.day(1, 11), ClientID: clients[0].ID, MissionID: mission.ID},
		{Title: "Appel découverte", Type: models.EventCall, Start: s.day(3, 15), ClientID: clients[2].ID},
		{Title: "Livraison site vitrine", Type: models.EventDeadline, Start: s.day(10, 0), AllDay: true, MissionID: mission.ID},
	} {
		if _, err := s.d.Planning.Events.Create(ctx, s.owner, e); err != nil {
			return err
		}
		s.count("events")
	}
	for _, t := range []*models.Task{
		{Title: "Relancer la facture de maintenance", Priority: models.PriorityHigh, DueDate: s.dayPtr(0)},
		{Title: "Préparer les maquettes", MissionID: mission.ID, Status: models.MissionInProgress, DueDate: s.dayPtr(4)},
	} {
		if _, err := s.d.Planning.Tasks.Create(ctx, s.owner, t); err != nil {
			return err
		}
		s.count("tasks")
	}
	for _, te := range []*models.TimeEntry{
		{MissionID: mission.ID, Description: "Maquettes page d'accueil", Date: s.day(-2, 9), Minutes: 180, Billable: true, HourlyRate: 45},
		{Description: "Administratif", Date: s.day(-1, 17), Minutes: 45},
	} {
		if _, err := s.d.Planning.TimeEntries.Create(ctx, s.owner, te); err != nil {
			return err
		}
		s.count("timeEntries")
	}
	return nil
}

func (s *seeder) documents(ctx context.Context, clients []*models.Client, mission *models.Mission) error {
	for _, doc := range []*models.ProjectDocument{
		{Title: "Brief site vitrine", Type: "brief", MissionID: mission.ID, ClientID: clients[0].ID, Content: "Objectif : présenter les produits et prendre les commandes en ligne."},
		{Title: "Notes de l'appel", ClientID: clients[2].ID, Content: "Budget à confirmer. Préférence pour des tons chauds."},
	} {
		if _, err := s.d.Documents.Create(ctx, s.owner, doc); err != nil {
			return err
		}
		s.count("documents")
	}
	return nil
}
