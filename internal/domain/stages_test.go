package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bidwatch/bid-api/internal/domain"
)

func TestStageNames(t *testing.T) {
	names := domain.StageNames()

	assert.Equal(t, []string{
		"Proposal Drafting",
		"Legal Review",
		"Pricing Review",
		"Submission",
		"Evaluation",
		"Awarded",
		"Lost",
	}, names)
}

func TestPipelineStages_ExcludesTerminal(t *testing.T) {
	for _, stage := range domain.PipelineStages() {
		assert.False(t, domain.IsTerminalStage(stage), "pipeline stage %q must not be terminal", stage)
	}
}

func TestOwnerFor(t *testing.T) {
	tests := []struct {
		stage string
		owner string
	}{
		{domain.StageProposalDrafting, "Proposal Manager"},
		{domain.StageLegalReview, "Legal Team"},
		{domain.StagePricingReview, "Finance Team"},
		{domain.StageSubmission, "Sales Lead"},
		{domain.StageEvaluation, "Client"},
		{domain.StageAwarded, "Account Manager"},
		{domain.StageLost, "Sales Lead"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.owner, domain.OwnerFor(tt.stage))
	}
}

func TestOwnerFor_UnknownStage(t *testing.T) {
	assert.Equal(t, domain.UnassignedOwner, domain.OwnerFor("Handover"))
}

func TestIsKnownStage(t *testing.T) {
	assert.True(t, domain.IsKnownStage(domain.StageEvaluation))
	assert.True(t, domain.IsKnownStage(domain.StageAwarded))
	assert.False(t, domain.IsKnownStage(""))
	assert.False(t, domain.IsKnownStage("proposal drafting")) // case sensitive
}

func TestIsTerminalStage(t *testing.T) {
	assert.True(t, domain.IsTerminalStage(domain.StageAwarded))
	assert.True(t, domain.IsTerminalStage(domain.StageLost))
	assert.False(t, domain.IsTerminalStage(domain.StageSubmission))
}

func TestInitialStage(t *testing.T) {
	assert.Equal(t, domain.StageProposalDrafting, domain.InitialStage())
}

func TestBidStatus_IsValid(t *testing.T) {
	assert.True(t, domain.BidStatusOpen.IsValid())
	assert.True(t, domain.BidStatusSubmitted.IsValid())
	assert.True(t, domain.BidStatusWon.IsValid())
	assert.True(t, domain.BidStatusLost.IsValid())
	assert.False(t, domain.BidStatus("Pending").IsValid())
}

func TestBidStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.BidStatusOpen.IsTerminal())
	assert.False(t, domain.BidStatusSubmitted.IsTerminal())
	assert.True(t, domain.BidStatusWon.IsTerminal())
	assert.True(t, domain.BidStatusLost.IsTerminal())
}
