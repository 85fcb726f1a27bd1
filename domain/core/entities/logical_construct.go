package entities

import (
	"github.com/google/uuid"

	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// Proposition is one symbolized statement inside a logical construct
type Proposition struct {
	Symbol    string `json:"symbol"`
	Statement string `json:"statement"`
}

// FormalizationCandidate is one proposed formal rendering of an argument,
// kept alongside the chosen one so the full candidate set stays inspectable
type FormalizationCandidate struct {
	System         string `json:"system"`
	Representation string `json:"representation"`
	Rationale      string `json:"rationale,omitempty"`
}

// FormalizationChoice is the user's selected formal rendering of an
// argument, carried together with the full candidate set it was chosen
// from and the collaborator's critique of the argument as stated
type FormalizationChoice struct {
	Representation string
	System         string
	Rationale      string
	Propositions   []Proposition
	Critique       string
	Candidates     []FormalizationCandidate
}

// LogicalConstruct records a formal-argument structure: a set of premise
// nodes supporting exactly one conclusion node, plus the chosen
// formalization and the rejected candidates. Constructs referencing a
// deleted node are removed by the graph cascade.
type LogicalConstruct struct {
	ID                   string                   `json:"id"`
	PremiseNodeIDs       []valueobjects.NodeID    `json:"premiseNodeIds"`
	ConclusionNodeID     valueobjects.NodeID      `json:"conclusionNodeId"`
	Operator             string                   `json:"operator"`
	Propositions         []Proposition            `json:"propositions,omitempty"`
	Critique             string                   `json:"critique,omitempty"`
	FormalRepresentation string                   `json:"formalRepresentation,omitempty"`
	SuggestedSystem      string                   `json:"suggestedSystem,omitempty"`
	Rationale            string                   `json:"rationale,omitempty"`
	Candidates           []FormalizationCandidate `json:"candidates,omitempty"`
}

// NewLogicalConstruct validates the premises/conclusion shape and mints an id.
// At least one premise and exactly one conclusion are required, and the
// conclusion cannot double as a premise.
func NewLogicalConstruct(premiseIDs []valueobjects.NodeID, conclusionID valueobjects.NodeID, choice FormalizationChoice) (LogicalConstruct, error) {
	if len(premiseIDs) == 0 {
		return LogicalConstruct{}, apperrors.NewConstructInvalidError("a combined argument needs at least one premise")
	}
	if conclusionID.IsZero() {
		return LogicalConstruct{}, apperrors.NewConstructInvalidError("a combined argument needs exactly one conclusion")
	}
	for _, p := range premiseIDs {
		if p == conclusionID {
			return LogicalConstruct{}, apperrors.NewConstructInvalidError("the conclusion cannot also be a premise")
		}
	}

	return LogicalConstruct{
		ID:                   uuid.New().String(),
		PremiseNodeIDs:       premiseIDs,
		ConclusionNodeID:     conclusionID,
		Operator:             "AND",
		Propositions:         choice.Propositions,
		Critique:             choice.Critique,
		FormalRepresentation: choice.Representation,
		SuggestedSystem:      choice.System,
		Rationale:            choice.Rationale,
		Candidates:           choice.Candidates,
	}, nil
}

// References reports whether the construct uses the node as premise or
// conclusion
func (c *LogicalConstruct) References(id valueobjects.NodeID) bool {
	if c.ConclusionNodeID == id {
		return true
	}
	for _, p := range c.PremiseNodeIDs {
		if p == id {
			return true
		}
	}
	return false
}
