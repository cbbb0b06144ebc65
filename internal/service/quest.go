package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"
)

// QuestCatalog is the fixed set of one-shot social quests.
var QuestCatalog = []model.Quest{
	{ID: "connect_twitter", Title: "Connect Twitter", Description: "Link your Twitter account", PointReward: 20},
	{ID: "connect_discord", Title: "Connect Discord", Description: "Link your Discord account", PointReward: 20},
	{ID: "follow_twitter", Title: "Follow Twitter", Description: "Follow the project on Twitter", PointReward: 15, TaskURL: "https://twitter.com/catcentsio"},
	{ID: "share_post", Title: "Share a Post", Description: "Share the announcement post", PointReward: 25, TaskURL: "https://twitter.com/intent/tweet"},
	{ID: "like_rt", Title: "Like and RT", Description: "Like and retweet the pinned post", PointReward: 20, TaskURL: "https://x.com/CatCentsio"},
	{ID: "join_catcents_server", Title: "Join Discord Server", Description: "Join the community server", PointReward: 20, TaskURL: "https://discord.gg/TXPbt7ztMC"},
	{ID: "join_telegram", Title: "Join Telegram", Description: "Join the Telegram channel", PointReward: 20, TaskURL: "https://t.me/catcentsio"},
}

type QuestService struct {
	repo   LedgerRepository
	ledger *LedgerService
}

func NewQuestService(repo LedgerRepository, ledger *LedgerService) *QuestService {
	return &QuestService{repo: repo, ledger: ledger}
}

func questByID(id string) (*model.Quest, bool) {
	for i := range QuestCatalog {
		if QuestCatalog[i].ID == id {
			return &QuestCatalog[i], true
		}
	}
	return nil, false
}

// ListQuests returns the catalog merged with the user's completion state.
func (s *QuestService) ListQuests(ctx context.Context, address string) ([]model.Quest, map[string]*model.UserQuest, error) {
	completed, err := s.repo.GetUserQuests(ctx, strings.ToLower(address))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user quests: %w", err)
	}
	return QuestCatalog, completed, nil
}

// CompleteQuest credits a quest at most once. A repeat completion returns
// ErrQuestAlreadyClaimed and never touches the counter.
func (s *QuestService) CompleteQuest(ctx context.Context, address, questID string) (*model.Quest, error) {
	quest, ok := questByID(questID)
	if !ok {
		return nil, ErrUnknownQuest
	}

	address = strings.ToLower(address)
	err := s.repo.MarkQuestDone(ctx, address, questID, quest.PointReward)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return nil, ErrQuestAlreadyClaimed
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to complete quest: %w", err)
		}
	}

	s.ledger.Invalidate(ctx, address)
	return quest, nil
}
