package model

import "time"

// Quest is a one-shot rewarded action from the fixed catalog.
type Quest struct {
	ID          string
	Title       string
	Description string
	PointReward int
	TaskURL     string
}

type UserQuest struct {
	QuestID     string
	Completed   bool
	CompletedAt *time.Time
}

// CheckInStatus describes the 24h daily check-in window for a user.
type CheckInStatus struct {
	WalletAddress string
	LastCheckIn   *time.Time
	IsAvailable   bool
	NextAvailable *time.Time
}
