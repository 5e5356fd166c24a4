package domain

// Stage names a bid can occupy. The pipeline stages advance in order;
// Awarded and Lost are terminal and reached only through an outcome.
const (
	StageProposalDrafting = "Proposal Drafting"
	StageLegalReview      = "Legal Review"
	StagePricingReview    = "Pricing Review"
	StageSubmission       = "Submission"
	StageEvaluation       = "Evaluation"
	StageAwarded          = "Awarded"
	StageLost             = "Lost"
)

// UnassignedOwner is returned for stages with no registered owner
const UnassignedOwner = "Unassigned"

// stageOwners maps every known stage to the role accountable for it
var stageOwners = map[string]string{
	StageProposalDrafting: "Proposal Manager",
	StageLegalReview:      "Legal Team",
	StagePricingReview:    "Finance Team",
	StageSubmission:       "Sales Lead",
	StageEvaluation:       "Client",
	StageAwarded:          "Account Manager",
	StageLost:             "Sales Lead",
}

// pipelineStages is the ordered advancement path for an active bid
var pipelineStages = []string{
	StageProposalDrafting,
	StageLegalReview,
	StagePricingReview,
	StageSubmission,
	StageEvaluation,
}

// StageNames returns every registered stage, pipeline order first, then
// the terminal stages
func StageNames() []string {
	names := make([]string, 0, len(pipelineStages)+2)
	names = append(names, pipelineStages...)
	names = append(names, StageAwarded, StageLost)
	return names
}

// PipelineStages returns the ordered advancement stages for an active bid
func PipelineStages() []string {
	names := make([]string, len(pipelineStages))
	copy(names, pipelineStages)
	return names
}

// IsKnownStage reports whether the stage is in the registry
func IsKnownStage(stage string) bool {
	_, ok := stageOwners[stage]
	return ok
}

// IsTerminalStage reports whether the stage ends the pipeline
func IsTerminalStage(stage string) bool {
	return stage == StageAwarded || stage == StageLost
}

// OwnerFor resolves the accountable role for a stage. Unknown stages
// resolve to UnassignedOwner rather than an error so that lookups never
// block a transition.
func OwnerFor(stage string) string {
	if owner, ok := stageOwners[stage]; ok {
		return owner
	}
	return UnassignedOwner
}

// InitialStage is the stage every new bid starts in
func InitialStage() string {
	return StageProposalDrafting
}
