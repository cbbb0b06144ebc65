package model

import "time"

// Badge is a milestone tier unlocked by cumulative points.
type Badge struct {
	ID        int
	Name      string
	Milestone int
}

type UserBadge struct {
	BadgeID   int
	TxHash    string
	ClaimedAt time.Time
}

// BadgeMilestones is the fixed tier table, lowest first.
var BadgeMilestones = []Badge{
	{ID: 1, Name: "Bronze Paw", Milestone: 500},
	{ID: 2, Name: "Silver Claw", Milestone: 1000},
	{ID: 3, Name: "Gold Whisker", Milestone: 2000},
	{ID: 4, Name: "Platinum Tail", Milestone: 5000},
	{ID: 5, Name: "Diamond Meow", Milestone: 10000},
	{ID: 6, Name: "Epic Cat", Milestone: 50000},
	{ID: 7, Name: "Legendary Purr", Milestone: 1000000},
	{ID: 8, Name: "Mythic Feline", Milestone: 5000000},
	{ID: 9, Name: "Cosmic Kitty", Milestone: 10000000},
}
