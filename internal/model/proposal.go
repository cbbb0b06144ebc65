package model

import (
	"time"

	"github.com/google/uuid"
)

type Proposal struct {
	ID            uuid.UUID
	Author        string
	Title         string
	Content       string
	ImageURL      *string
	YesVotes      int
	NoVotes       int
	Likes         int
	OnChainIndex  int
	CreatedAt     time.Time
}

type VoteChoice string

const (
	VoteYes VoteChoice = "yes"
	VoteNo  VoteChoice = "no"
)

// Vote is keyed by (proposal, voter address); at most one per pair.
type Vote struct {
	ProposalID uuid.UUID
	Voter      string
	Choice     VoteChoice
	TxHash     string
	CastAt     time.Time
}

// ProposalStatus is a proposal joined with the requesting user's like/vote state.
type ProposalStatus struct {
	Proposal
	LikedByUser bool
	UserVote    *VoteChoice
}
