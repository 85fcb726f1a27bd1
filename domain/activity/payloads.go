package activity

// Per-type payload shapes. Field names are part of the persisted schema:
// renaming one is a schema-breaking change and needs a migration step.

// CreateMapLinkPayload records a new link between two concepts
type CreateMapLinkPayload struct {
	SourceID      string   `json:"sourceId"`
	TargetID      string   `json:"targetId"`
	SourceName    string   `json:"sourceName"`
	TargetName    string   `json:"targetName"`
	Relationships []string `json:"relationships"`
}

func (CreateMapLinkPayload) activityType() Type { return TypeCreateMapLink }

// DeleteMapLinkPayload records a removed link
type DeleteMapLinkPayload struct {
	SourceID   string `json:"sourceId"`
	TargetID   string `json:"targetId"`
	SourceName string `json:"sourceName"`
	TargetName string `json:"targetName"`
}

func (DeleteMapLinkPayload) activityType() Type { return TypeDeleteMapLink }

// DeleteNodePayload records a node removal and the cascade size
type DeleteNodePayload struct {
	NodeID            string `json:"nodeId"`
	NodeName          string `json:"nodeName"`
	RemovedLinks      int    `json:"removedLinks"`
	RemovedConstructs int    `json:"removedConstructs"`
}

func (DeleteNodePayload) activityType() Type { return TypeDeleteNode }

// ChangeConceptPayload records a node identity replacement
type ChangeConceptPayload struct {
	OldID   string `json:"oldId"`
	NewID   string `json:"newId"`
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

func (ChangeConceptPayload) activityType() Type { return TypeChangeConcept }

// PinCitationPayload records a citation pinned from a link justification
type PinCitationPayload struct {
	SourceID      string `json:"sourceId"`
	TargetID      string `json:"targetId"`
	CitationTitle string `json:"citationTitle"`
	NewNodeID     string `json:"newNodeId"`
}

func (PinCitationPayload) activityType() Type { return TypePinCitation }

// CreateLogicalConstructPayload records a combined argument
type CreateLogicalConstructPayload struct {
	ConstructID    string   `json:"constructId"`
	PremiseNames   []string `json:"premiseNames"`
	ConclusionName string   `json:"conclusionName"`
}

func (CreateLogicalConstructPayload) activityType() Type { return TypeCreateLogicalConstruct }

// LinkEnrichmentPayload records an enrichment milestone on one link field
type LinkEnrichmentPayload struct {
	SourceID   string `json:"sourceId"`
	TargetID   string `json:"targetId"`
	SourceName string `json:"sourceName"`
	TargetName string `json:"targetName"`
	Succeeded  bool   `json:"succeeded"`
}

// GenerateJustificationPayload records a justification generation
type GenerateJustificationPayload struct{ LinkEnrichmentPayload }

func (GenerateJustificationPayload) activityType() Type { return TypeGenerateJustification }

// GenerateImplicationsPayload records an implications generation
type GenerateImplicationsPayload struct{ LinkEnrichmentPayload }

func (GenerateImplicationsPayload) activityType() Type { return TypeGenerateImplications }

// FormalizeLinkPayload records a link formalization
type FormalizeLinkPayload struct {
	LinkEnrichmentPayload
	System string `json:"system,omitempty"`
}

func (FormalizeLinkPayload) activityType() Type { return TypeFormalizeLink }

// AnalyzeArgumentPayload records an argument analysis over a link
type AnalyzeArgumentPayload struct {
	LinkEnrichmentPayload
	VoicesAdded int `json:"voicesAdded"`
}

func (AnalyzeArgumentPayload) activityType() Type { return TypeAnalyzeArgument }

// AnalyzeDefinitionPayload records a definition analysis over a link
type AnalyzeDefinitionPayload struct {
	LinkEnrichmentPayload
}

func (AnalyzeDefinitionPayload) activityType() Type { return TypeAnalyzeDefinition }

// GenerateGenealogyPayload records a genealogy expansion around a node
type GenerateGenealogyPayload struct {
	NodeID          string `json:"nodeId"`
	NodeName        string `json:"nodeName"`
	PrecursorsAdded int    `json:"precursorsAdded"`
	SuccessorsAdded int    `json:"successorsAdded"`
	Succeeded       bool   `json:"succeeded"`
}

func (GenerateGenealogyPayload) activityType() Type { return TypeGenerateGenealogy }

// SynthesizeRegionPayload records a region synthesis
type SynthesizeRegionPayload struct {
	NewConceptName     string `json:"newConceptName"`
	SourceConceptCount int    `json:"sourceConceptCount"`
	Succeeded          bool   `json:"succeeded"`
}

func (SynthesizeRegionPayload) activityType() Type { return TypeSynthesizeRegion }

// FindCounterExamplesPayload records a counter-example search
type FindCounterExamplesPayload struct {
	SourceID      string `json:"sourceId"`
	TargetID      string `json:"targetId"`
	ExamplesAdded int    `json:"examplesAdded"`
	Succeeded     bool   `json:"succeeded"`
}

func (FindCounterExamplesPayload) activityType() Type { return TypeFindCounterExamples }

// CreateProjectPayload records a project creation
type CreateProjectPayload struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
}

func (CreateProjectPayload) activityType() Type { return TypeCreateProject }

// RenameProjectPayload records a project rename
type RenameProjectPayload struct {
	ProjectID string `json:"projectId"`
	OldName   string `json:"oldName"`
	NewName   string `json:"newName"`
}

func (RenameProjectPayload) activityType() Type { return TypeRenameProject }

// DeleteProjectPayload records a project deletion
type DeleteProjectPayload struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
}

func (DeleteProjectPayload) activityType() Type { return TypeDeleteProject }

// payloadFactories instantiates the concrete payload struct for each type.
// Every Type constant must have an entry here; the decoder rejects tags it
// does not know.
var payloadFactories = map[Type]func() interface{}{
	TypeCreateMapLink:          func() interface{} { return &CreateMapLinkPayload{} },
	TypeDeleteMapLink:          func() interface{} { return &DeleteMapLinkPayload{} },
	TypeDeleteNode:             func() interface{} { return &DeleteNodePayload{} },
	TypeChangeConcept:          func() interface{} { return &ChangeConceptPayload{} },
	TypePinCitation:            func() interface{} { return &PinCitationPayload{} },
	TypeCreateLogicalConstruct: func() interface{} { return &CreateLogicalConstructPayload{} },
	TypeGenerateJustification:  func() interface{} { return &GenerateJustificationPayload{} },
	TypeGenerateImplications:   func() interface{} { return &GenerateImplicationsPayload{} },
	TypeFormalizeLink:          func() interface{} { return &FormalizeLinkPayload{} },
	TypeAnalyzeArgument:        func() interface{} { return &AnalyzeArgumentPayload{} },
	TypeAnalyzeDefinition:      func() interface{} { return &AnalyzeDefinitionPayload{} },
	TypeGenerateGenealogy:      func() interface{} { return &GenerateGenealogyPayload{} },
	TypeSynthesizeRegion:       func() interface{} { return &SynthesizeRegionPayload{} },
	TypeFindCounterExamples:    func() interface{} { return &FindCounterExamplesPayload{} },
	TypeCreateProject:          func() interface{} { return &CreateProjectPayload{} },
	TypeRenameProject:          func() interface{} { return &RenameProjectPayload{} },
	TypeDeleteProject:          func() interface{} { return &DeleteProjectPayload{} },
}
