package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type OpportunityStage string

const (
	StageNew         OpportunityStage = "Nouveau"
	StageQualified   OpportunityStage = "Qualifié"
	StageProposal    OpportunityStage = "Proposition"
	StageNegotiation OpportunityStage = "Négociation"
	StageWon         OpportunityStage = "Gagné"
	StageLost        OpportunityStage = "Perdu"
)

var OpportunityStages = []OpportunityStage{StageNew, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost}

type Opportunity struct {
	Base              `bson:",inline"`
	Title             string           `bson:"title" json:"title"`
	ClientID          string           `bson:"clientId,omitempty" json:"clientId,omitempty"`
	Source            string           `bson:"source,omitempty" json:"source,omitempty"`
	Value             float64          `bson:"value" json:"value"`
	Probability       int              `bson:"probability" json:"probability"`
	Stage             OpportunityStage `bson:"stage" json:"stage"`
	ExpectedCloseDate *time.Time       `bson:"expectedCloseDate,omitempty" json:"expectedCloseDate,omitempty"`
	Notes             string           `bson:"notes,omitempty" json:"notes,omitempty"`
}

func (o *Opportunity) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Title, validation.Required),
		validation.Field(&o.Value, validation.Min(0.0)),
		validation.Field(&o.Probability, validation.Min(0), validation.Max(100)),
		validation.Field(&o.Stage, validation.Required, validation.In(oneOf(OpportunityStages)...)),
	)
}

func (o *Opportunity) Defaults() {
	if o.Stage == "" {
		o.Stage = StageNew
	}
}

// WeightedValue is Value scaled by Probability.
func (o *Opportunity) WeightedValue() float64 {
	return roundCents(o.Value * float64(o.Probability) / 100)
}

func (o *Opportunity) GetStatus() string  { return string(o.Stage) }
func (o *Opportunity) SearchText() string { return joinSearch(o.Title, o.Source, o.Notes) }
