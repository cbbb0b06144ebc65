package model

import "time"

// UserProfile is the per-address record of point counters and progress flags.
// Addresses are stored lowercase and act as the unique key.
type UserProfile struct {
	WalletAddress  string
	QuestPoints    int
	ProposalPoints int
	GamePoints     int
	ReferralPoints int
	ReferredBy     *string
	Referrals      int
	TwitterHandle  *string
	DiscordHandle  *string
	BestGameScore  int
	LastCheckIn    *time.Time
	CreatedAt      time.Time
}

func (p *UserProfile) TotalPoints() int {
	return p.QuestPoints + p.ProposalPoints + p.GamePoints + p.ReferralPoints
}

// PointTotals is the counter view of a profile. A missing profile reads as
// all zeroes.
type PointTotals struct {
	QuestPoints    int
	ProposalPoints int
	GamePoints     int
	ReferralPoints int
}

func (t PointTotals) Total() int {
	return t.QuestPoints + t.ProposalPoints + t.GamePoints + t.ReferralPoints
}

// Counter names accepted by the ledger.
const (
	CounterQuest    = "quest_points"
	CounterProposal = "proposal_points"
	CounterGame     = "game_points"
	CounterReferral = "referral_points"
)

type UserReferral struct {
	WalletAddress string
	Points        int
	JoinedAt      time.Time
}

type LeaderboardEntry struct {
	WalletAddress string
	TotalPoints   int
	Referrals     int
}
