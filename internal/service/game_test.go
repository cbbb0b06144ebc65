package service

import (
	"context"
	"math/rand"
	"testing"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/model"
	"monad_community_portal/internal/service/mocks"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewBoard_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("board has exactly the requested mines", prop.ForAll(
		func(seed int64) bool {
			board := NewBoard(boardSize, mineCount, rand.New(rand.NewSource(seed)))

			mines := 0
			for _, row := range board.Cells {
				for _, cell := range row {
					if cell.IsMine {
						mines++
					}
				}
			}
			return mines == mineCount
		},
		gen.Int64(),
	))

	properties.Property("adjacency counts match neighboring mines", prop.ForAll(
		func(seed int64) bool {
			board := NewBoard(boardSize, mineCount, rand.New(rand.NewSource(seed)))

			for row := 0; row < board.Size; row++ {
				for col := 0; col < board.Size; col++ {
					if board.Cells[row][col].IsMine {
						continue
					}
					count := 0
					for dr := -1; dr <= 1; dr++ {
						for dc := -1; dc <= 1; dc++ {
							r, c := row+dr, col+dc
							if r >= 0 && r < board.Size && c >= 0 && c < board.Size && board.Cells[r][c].IsMine {
								count++
							}
						}
					}
					if board.Cells[row][col].AdjacentMines != count {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// fixedBoard lays out a deterministic 4x4 board:
//
//	. . . .
//	. . . .
//	. . M .
//	. . . M
func fixedBoard() *model.Board {
	board := &model.Board{Size: 4, Mines: 2, Cells: make([][]model.Cell, 4)}
	for i := range board.Cells {
		board.Cells[i] = make([]model.Cell, 4)
	}
	board.Cells[2][2].IsMine = true
	board.Cells[3][3].IsMine = true

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if board.Cells[row][col].IsMine {
				continue
			}
			count := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					r, c := row+dr, col+dc
					if r >= 0 && r < 4 && c >= 0 && c < 4 && board.Cells[r][c].IsMine {
						count++
					}
				}
			}
			board.Cells[row][col].AdjacentMines = count
		}
	}
	return board
}

func gameServiceWithSession(board *model.Board) (*GameService, *mocks.MockLedgerRepository, *mocks.MockPointsCache) {
	repo := &mocks.MockLedgerRepository{}
	cache := &mocks.MockPointsCache{}
	ledger := NewLedgerService(repo, cache)

	svc := NewGameService(repo, ledger, chain.NewRegistry(), chain.DefaultFlowConfig(), common.Address{}, "0xadmin", rand.New(rand.NewSource(1)))
	svc.sessions["0xplayer"] = &GameSession{
		Address: "0xplayer",
		Status:  model.GamePlaying,
		Board:   board,
	}
	return svc, repo, cache
}

func TestGameService_Reveal(t *testing.T) {
	t.Run("Flood fill opens the zero region", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())

		session, err := svc.Reveal("0xplayer", 0, 0)
		assert.NoError(t, err)

		// Top-left corner is far from both mines, so the cascade stops at
		// the numbered border and leaves the mines hidden.
		assert.True(t, session.Board.Cells[0][0].IsRevealed)
		assert.True(t, session.Board.Cells[0][3].IsRevealed)
		assert.False(t, session.Board.Cells[2][2].IsRevealed)
		assert.False(t, session.Board.Cells[3][3].IsRevealed)
		assert.Equal(t, model.GamePlaying, session.Status)
		assert.True(t, session.Points > 0)
	})

	t.Run("Repeat reveal changes nothing", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())

		first, err := svc.Reveal("0xplayer", 0, 0)
		assert.NoError(t, err)
		points := first.Points

		second, err := svc.Reveal("0xplayer", 0, 0)
		assert.NoError(t, err)
		assert.Equal(t, points, second.Points)
	})

	t.Run("Mine ends the session with zero points", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())

		_, err := svc.Reveal("0xplayer", 0, 0)
		assert.NoError(t, err)

		session, err := svc.Reveal("0xplayer", 2, 2)
		assert.NoError(t, err)
		assert.Equal(t, model.GameOver, session.Status)
		assert.Equal(t, 0, session.Points)
	})

	t.Run("Flagged cell stays closed", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())

		_, err := svc.ToggleFlag("0xplayer", 2, 2)
		assert.NoError(t, err)

		session, err := svc.Reveal("0xplayer", 2, 2)
		assert.NoError(t, err)
		assert.False(t, session.Board.Cells[2][2].IsRevealed)
		assert.Equal(t, model.GamePlaying, session.Status)
	})

	t.Run("No active session", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())

		_, err := svc.Reveal("0xother", 0, 0)
		assert.ErrorIs(t, err, ErrGameNotActive)
	})
}

func TestGameService_ToggleFlag(t *testing.T) {
	svc, _, _ := gameServiceWithSession(fixedBoard())

	session, err := svc.ToggleFlag("0xplayer", 1, 1)
	assert.NoError(t, err)
	assert.True(t, session.Board.Cells[1][1].IsFlagged)

	session, err = svc.ToggleFlag("0xplayer", 1, 1)
	assert.NoError(t, err)
	assert.False(t, session.Board.Cells[1][1].IsFlagged)

	// Revealed cells cannot be flagged.
	_, err = svc.Reveal("0xplayer", 0, 0)
	assert.NoError(t, err)
	session, err = svc.ToggleFlag("0xplayer", 0, 0)
	assert.NoError(t, err)
	assert.False(t, session.Board.Cells[0][0].IsFlagged)
}

func TestGameService_CashOut(t *testing.T) {
	t.Run("Banks profit and ends the session", func(t *testing.T) {
		svc, repo, cache := gameServiceWithSession(fixedBoard())
		svc.sessions["0xplayer"].Points = 10

		repo.On("CashOut", mock.Anything, "0xplayer", 10, wagerFloor).
			Return(&model.CashOutResult{Points: 10, Profit: 9, NewBestScore: true}, nil)
		cache.On("InvalidatePoints", mock.Anything, "0xplayer").Return(nil)

		result, err := svc.CashOut(context.Background(), "0xplayer")
		assert.NoError(t, err)
		assert.Equal(t, 9, result.Profit)
		assert.True(t, result.NewBestScore)

		session, _ := svc.Session("0xplayer")
		assert.Equal(t, model.GameCashedOut, session.Status)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("Not enough points", func(t *testing.T) {
		svc, repo, _ := gameServiceWithSession(fixedBoard())
		svc.sessions["0xplayer"].Points = wagerFloor

		_, err := svc.CashOut(context.Background(), "0xplayer")
		assert.ErrorIs(t, err, ErrNothingToCashOut)
		repo.AssertNotCalled(t, "CashOut", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No active session", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())
		delete(svc.sessions, "0xplayer")

		_, err := svc.CashOut(context.Background(), "0xplayer")
		assert.ErrorIs(t, err, ErrGameNotActive)
	})

	t.Run("Finished session cannot cash out again", func(t *testing.T) {
		svc, repo, cache := gameServiceWithSession(fixedBoard())
		svc.sessions["0xplayer"].Points = 10

		repo.On("CashOut", mock.Anything, "0xplayer", 10, wagerFloor).
			Return(&model.CashOutResult{Points: 10, Profit: 9}, nil).Once()
		cache.On("InvalidatePoints", mock.Anything, "0xplayer").Return(nil)

		_, err := svc.CashOut(context.Background(), "0xplayer")
		assert.NoError(t, err)

		_, err = svc.CashOut(context.Background(), "0xplayer")
		assert.ErrorIs(t, err, ErrGameNotActive)
	})

	t.Run("Overlapping cash-outs bank once", func(t *testing.T) {
		svc, repo, cache := gameServiceWithSession(fixedBoard())
		svc.sessions["0xplayer"].Points = 10

		// A second cash-out arriving while the first is writing to
		// storage must see the session already finished.
		var overlappedErr error
		repo.On("CashOut", mock.Anything, "0xplayer", 10, wagerFloor).
			Run(func(args mock.Arguments) {
				_, overlappedErr = svc.CashOut(context.Background(), "0xplayer")
			}).
			Return(&model.CashOutResult{Points: 10, Profit: 9}, nil).Once()
		cache.On("InvalidatePoints", mock.Anything, "0xplayer").Return(nil)

		_, err := svc.CashOut(context.Background(), "0xplayer")
		assert.NoError(t, err)
		assert.ErrorIs(t, overlappedErr, ErrGameNotActive)

		repo.AssertExpectations(t)
	})

	t.Run("Storage failure leaves the session playing", func(t *testing.T) {
		svc, repo, cache := gameServiceWithSession(fixedBoard())
		svc.sessions["0xplayer"].Points = 10

		repo.On("CashOut", mock.Anything, "0xplayer", 10, wagerFloor).
			Return(nil, assert.AnError).Once()

		_, err := svc.CashOut(context.Background(), "0xplayer")
		assert.Error(t, err)

		session, _ := svc.Session("0xplayer")
		assert.Equal(t, model.GamePlaying, session.Status)

		// The points are still bankable on retry.
		repo.On("CashOut", mock.Anything, "0xplayer", 10, wagerFloor).
			Return(&model.CashOutResult{Points: 10, Profit: 9}, nil).Once()
		cache.On("InvalidatePoints", mock.Anything, "0xplayer").Return(nil)

		_, err = svc.CashOut(context.Background(), "0xplayer")
		assert.NoError(t, err)

		repo.AssertExpectations(t)
	})
}

func TestGameService_PlaceBet(t *testing.T) {
	t.Run("Active session is returned without a second wager", func(t *testing.T) {
		// The empty provider registry would fail any lookup, so getting
		// the session back proves no transaction was built.
		svc, _, _ := gameServiceWithSession(fixedBoard())

		session, result, err := svc.PlaceBet(context.Background(), "metamask", "0xplayer")
		assert.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, model.GamePlaying, session.Status)
	})

	t.Run("Bet in flight blocks a second wager", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())
		svc.sessions["0xplayer"].Status = model.GameBetting

		session, result, err := svc.PlaceBet(context.Background(), "metamask", "0xplayer")
		assert.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, model.GameBetting, session.Status)
	})

	t.Run("Failed wager releases the slot", func(t *testing.T) {
		svc, _, _ := gameServiceWithSession(fixedBoard())
		delete(svc.sessions, "0xplayer")

		_, _, err := svc.PlaceBet(context.Background(), "metamask", "0xplayer")
		assert.ErrorIs(t, err, chain.ErrUnknownWallet)

		_, ok := svc.Session("0xplayer")
		assert.False(t, ok)
	})
}
