package missions

import (
	"time"

	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
)

// RefusalMessage is stored on a mission whose verification request lacked proof.
const RefusalMessage = "Vérification refusée : ajoutez au moins une preuve (lien) ou cochez toutes les étapes de la checklist."

// Request carries the parts of a PATCH body that drive the state machine.
type Request struct {
	// RequestVerification asks for the mission to be verified and completed.
	RequestVerification bool
	// StatusSent is true when the body set status explicitly.
	StatusSent bool
}

// Outcome of a verification request.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeValidated Outcome = "validated"
	OutcomeRefused   Outcome = "refused"
)

// ApplyUpdate enforces the verification rules on next, the merged result of a PATCH on prev.
//
// With a verification request the mission is validated and completed when it carries at
// least one evidence URL or a fully checked checklist; otherwise the request is refused and
// the status is left as it was. Without a request, completing the mission is rejected, proof
// edits reset the verification, and the status follows progress unless the body set it.
func ApplyUpdate(prev, next *models.Mission, req Request, now time.Time) (Outcome, error) {
	if req.RequestVerification {
		requested := now
		next.VerificationRequestedAt = &requested
		if hasProof(next) {
			verified := now
			next.VerificationStatus = models.VerificationApproved
			next.VerificationMessage = ""
			next.VerifiedAt = &verified
			next.Status = models.MissionDone
			return OutcomeValidated, nil
		}
		next.VerificationStatus = models.VerificationRefused
		next.VerificationMessage = RefusalMessage
		next.VerifiedAt = nil
		next.Status = prev.Status
		return OutcomeRefused, nil
	}

	if next.Status == models.MissionDone && prev.Status != models.MissionDone {
		return OutcomeNone, &domain.ValidationError{
			Message: "a mission is completed through a verification request",
			Fields:  map[string]string{"status": "set requestVerification to complete the mission"},
		}
	}

	changed := proofChanged(prev, next)
	if changed {
		next.VerificationStatus = models.VerificationNone
		next.VerificationMessage = ""
		next.VerificationRequestedAt = nil
		next.VerifiedAt = nil
	}
	if !req.StatusSent || (changed && next.Status == models.MissionDone) {
		next.Status = autoStatus(prev, next, changed)
	}
	return OutcomeNone, nil
}

func hasProof(m *models.Mission) bool {
	return len(m.Evidence) > 0 || m.ChecklistComplete()
}

// autoStatus derives To-do or En cours from progress. A completed mission stays completed
// until its proof changes.
func autoStatus(prev, next *models.Mission, proofChanged bool) models.MissionStatus {
	if prev.Status == models.MissionDone && !proofChanged {
		return models.MissionDone
	}
	if inProgress(next) {
		return models.MissionInProgress
	}
	return models.MissionTodo
}

func inProgress(m *models.Mission) bool {
	if len(m.Evidence) > 0 || m.TimeSpent > 0 {
		return true
	}
	for _, it := range m.Checklist {
		if it.Done {
			return true
		}
	}
	return false
}

func proofChanged(prev, next *models.Mission) bool {
	if len(prev.Evidence) != len(next.Evidence) || len(prev.Checklist) != len(next.Checklist) {
		return true
	}
	for i := range prev.Evidence {
		if prev.Evidence[i] != next.Evidence[i] {
			return true
		}
	}
	for i := range prev.Checklist {
		if prev.Checklist[i] != next.Checklist[i] {
			return true
		}
	}
	return false
}
