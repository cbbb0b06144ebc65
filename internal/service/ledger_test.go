package service

import (
	"context"
	"testing"

	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"
	"monad_community_portal/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLedgerService_GetPoints(t *testing.T) {
	totals := &model.PointTotals{QuestPoints: 55}

	t.Run("Cache hit skips storage", func(t *testing.T) {
		repo := &mocks.MockLedgerRepository{}
		cache := &mocks.MockPointsCache{}
		svc := NewLedgerService(repo, cache)

		cache.On("GetPoints", mock.Anything, "0xabc").Return(totals, true)

		got, err := svc.GetPoints(context.Background(), "0xabc")
		assert.NoError(t, err)
		assert.Equal(t, totals, got)

		repo.AssertNotCalled(t, "GetPoints", mock.Anything, mock.Anything)
	})

	t.Run("Cache miss reads storage and backfills", func(t *testing.T) {
		repo := &mocks.MockLedgerRepository{}
		cache := &mocks.MockPointsCache{}
		svc := NewLedgerService(repo, cache)

		cache.On("GetPoints", mock.Anything, "0xabc").Return(nil, false)
		repo.On("GetPoints", mock.Anything, "0xabc").Return(totals, nil)
		cache.On("SetPoints", mock.Anything, "0xabc", totals).Return(nil)

		got, err := svc.GetPoints(context.Background(), "0xabc")
		assert.NoError(t, err)
		assert.Equal(t, totals, got)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}

func TestLedgerService_Increment(t *testing.T) {
	t.Run("Counter update drops the cached entry", func(t *testing.T) {
		repo := &mocks.MockLedgerRepository{}
		cache := &mocks.MockPointsCache{}
		svc := NewLedgerService(repo, cache)

		repo.On("IncrementCounter", mock.Anything, "0xabc", model.CounterQuest, 20).Return(nil)
		cache.On("InvalidatePoints", mock.Anything, "0xabc").Return(nil)

		err := svc.Increment(context.Background(), "0xabc", model.CounterQuest, 20)
		assert.NoError(t, err)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("Unknown user", func(t *testing.T) {
		repo := &mocks.MockLedgerRepository{}
		cache := &mocks.MockPointsCache{}
		svc := NewLedgerService(repo, cache)

		repo.On("IncrementCounter", mock.Anything, "0xabc", model.CounterQuest, 20).
			Return(repository.ErrNotFound)

		err := svc.Increment(context.Background(), "0xabc", model.CounterQuest, 20)
		assert.ErrorIs(t, err, ErrUserNotFound)

		cache.AssertNotCalled(t, "InvalidatePoints", mock.Anything, mock.Anything)
	})
}
