package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Description: "Maquettes", Quantity: 2, UnitPrice: 300},
		{Description: "Intégration", Quantity: 0, UnitPrice: 1000.01},
	}
	tot := ComputeTotals(items, 20)
	require.Equal(t, 600.0, items[0].Total)
	require.Equal(t, 1.0, items[1].Quantity, "a missing quantity counts as one")
	require.InDelta(t, 1600.01, tot.Subtotal, 0.001)
	require.InDelta(t, 320.0, tot.TaxAmount, 0.001)
	require.InDelta(t, 1920.01, tot.Total, 0.001)

	tot = ComputeTotals(nil, -5)
	require.Zero(t, tot.Total)
}

func TestInvoiceIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-24*time.Hour), now.Add(24*time.Hour)

	cases := []struct {
		name   string
		status InvoiceStatus
		due    *time.Time
		want   bool
	}{
		{"sent past due", InvoiceSent, &past, true},
		{"sent not yet due", InvoiceSent, &future, false},
		{"sent without due date", InvoiceSent, nil, false},
		{"paid", InvoicePaid, &past, false},
		{"draft", InvoiceDraft, &past, false},
		{"cancelled", InvoiceCancelled, &past, false},
		{"marked overdue", InvoiceOverdue, &future, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &Invoice{Status: tc.status, DueDate: tc.due}
			require.Equal(t, tc.want, inv.IsOverdue(now))
		})
	}
}

func TestEnumValidation(t *testing.T) {
	m := &Mission{Title: "Logo"}
	m.Defaults()
	require.NoError(t, m.Validate())
	require.Equal(t, MissionTodo, m.Status)
	require.Equal(t, PriorityMedium, m.Priority)

	m.Status = "Fini"
	require.Error(t, m.Validate())

	inv := &Invoice{Title: "Acompte"}
	inv.Defaults()
	require.NoError(t, inv.Validate())
	inv.Status = "Payé"
	require.Error(t, inv.Validate())
}

func TestMissionEvidenceURLs(t *testing.T) {
	m := &Mission{Title: "Site"}
	m.Defaults()
	m.Evidence = []string{"https://drive.example.com/livrable.zip", " http://example.com/a "}
	require.NoError(t, m.Validate())

	for _, bad := range []string{"livrable.zip", "ftp://example.com/a", "https://"} {
		m.Evidence = []string{bad}
		require.Error(t, m.Validate(), bad)
	}
}

func TestMissionChecklistComplete(t *testing.T) {
	m := &Mission{}
	require.False(t, m.ChecklistComplete())
	m.Checklist = []ChecklistItem{{Label: "a", Done: true}, {Label: "b"}}
	require.False(t, m.ChecklistComplete())
	m.Checklist[1].Done = true
	require.True(t, m.ChecklistComplete())
}

func TestEventDefaultsAndOrder(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	e := &Event{Title: "Point", Start: start}
	e.Defaults()
	require.Equal(t, EventOther, e.Type)
	require.Equal(t, start.Add(time.Hour), e.End)
	require.NoError(t, e.Validate())

	e.End = start.Add(-time.Minute)
	require.Error(t, e.Validate())

	require.Error(t, (&Event{Title: "Sans date", Type: EventCall}).Validate())
}

func TestTimeEntryAmount(t *testing.T) {
	te := &TimeEntry{Minutes: 90, HourlyRate: 40, Billable: true}
	require.InDelta(t, 60.0, te.Amount(), 0.001)
	require.Equal(t, "billable", te.GetStatus())

	te.Billable = false
	require.Zero(t, te.Amount())
}
