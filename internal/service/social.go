package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"monad_community_portal/internal/repository"
)

// SocialService persists linked social handles and credits the matching
// connect quest.
type SocialService struct {
	profiles ProfileRepository
	quests   *QuestService
}

func NewSocialService(profiles ProfileRepository, quests *QuestService) *SocialService {
	return &SocialService{profiles: profiles, quests: quests}
}

// LinkAccount stores the handle and completes the connect quest. Re-linking
// updates the handle but does not credit points twice.
func (s *SocialService) LinkAccount(ctx context.Context, address, network, handle string) error {
	address = strings.ToLower(address)

	err := s.profiles.SetSocialHandle(ctx, address, network, handle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to store %s handle: %w", network, err)
	}

	_, err = s.quests.CompleteQuest(ctx, address, "connect_"+network)
	if err != nil && !errors.Is(err, ErrQuestAlreadyClaimed) {
		return err
	}

	return nil
}
