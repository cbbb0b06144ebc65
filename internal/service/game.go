package service

import (
	"context"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"time"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/model"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

const (
	boardSize = 10
	mineCount = 8

	// Cash-out floor. A session worth one point or less pays no profit.
	wagerFloor = 1
)

// wagerWei is 0.01 MON.
var wagerWei = big.NewInt(10_000_000_000_000_000)

// GameSession is one in-memory wager round. Nothing hits storage until
// cash-out; an abandoned session simply forfeits the wager.
type GameSession struct {
	Address   string
	Status    model.GameStatus
	Board     *model.Board
	Points    int
	TxHash    string
	StartedAt time.Time
}

type GameService struct {
	mu       sync.Mutex
	sessions map[string]*GameSession

	repo        LedgerRepository
	ledger      *LedgerService
	registry    *chain.Registry
	flowCfg     chain.FlowConfig
	contract    common.Address
	adminWallet string
	rng         *rand.Rand
}

func NewGameService(repo LedgerRepository, ledger *LedgerService, registry *chain.Registry, flowCfg chain.FlowConfig, contract common.Address, adminWallet string, rng *rand.Rand) *GameService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &GameService{
		sessions:    make(map[string]*GameSession),
		repo:        repo,
		ledger:      ledger,
		registry:    registry,
		flowCfg:     flowCfg,
		contract:    contract,
		adminWallet: strings.ToLower(adminWallet),
		rng:         rng,
	}
}

// NewBoard builds a size×size board with exactly mines mines, placed by
// rejection sampling, then fills in the adjacency counts.
func NewBoard(size, mines int, rng *rand.Rand) *model.Board {
	board := &model.Board{
		Size:  size,
		Mines: mines,
		Cells: make([][]model.Cell, size),
	}
	for row := range board.Cells {
		board.Cells[row] = make([]model.Cell, size)
	}

	placed := 0
	for placed < mines {
		row := rng.Intn(size)
		col := rng.Intn(size)
		if board.Cells[row][col].IsMine {
			continue
		}
		board.Cells[row][col].IsMine = true
		placed++
	}

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if board.Cells[row][col].IsMine {
				continue
			}
			count := 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					r, c := row+dr, col+dc
					if r >= 0 && r < size && c >= 0 && c < size && board.Cells[r][c].IsMine {
						count++
					}
				}
			}
			board.Cells[row][col].AdjacentMines = count
		}
	}

	return board
}

// PlaceBet drives the wager transaction and, on confirmation, starts a fresh
// session for the address. An existing finished session is replaced; an
// active one is returned as-is so a reconnect cannot double-wager.
func (s *GameService) PlaceBet(ctx context.Context, wallet, address string) (*GameSession, *chain.FlowResult, error) {
	address = strings.ToLower(address)

	s.mu.Lock()
	prev, hadPrev := s.sessions[address]
	if hadPrev && (prev.Status == model.GamePlaying || prev.Status == model.GameBetting) {
		s.mu.Unlock()
		return prev, nil, nil
	}
	// Hold the slot while the wager is in flight so a concurrent bet for
	// the same address cannot submit a second transaction.
	s.sessions[address] = &GameSession{
		Address:   address,
		Status:    model.GameBetting,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		if hadPrev {
			s.sessions[address] = prev
		} else {
			delete(s.sessions, address)
		}
		s.mu.Unlock()
	}

	provider, err := s.registry.Resolve(wallet)
	if err != nil {
		restore()
		return nil, nil, err
	}

	data, err := chain.PackPlaceBet()
	if err != nil {
		restore()
		return nil, nil, err
	}

	target := s.contract
	flow := chain.NewFlow(provider, s.flowCfg)
	result := flow.Execute(ctx, chain.TxRequest{
		From:  common.HexToAddress(address),
		To:    &target,
		Value: wagerWei,
		Data:  data,
	})

	if result.State != chain.StateConfirmed {
		restore()
		if result.Cancelled {
			return nil, result, nil
		}
		if result.Err == nil {
			result.Err = ErrTransactionFailed
		}
		return nil, result, result.Err
	}

	session := &GameSession{
		Address:   address,
		Status:    model.GamePlaying,
		Board:     NewBoard(boardSize, mineCount, s.rng),
		TxHash:    result.TxHash.Hex(),
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[address] = session
	s.mu.Unlock()

	return session, result, nil
}

func (s *GameService) Session(address string) (*GameSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[strings.ToLower(address)]
	return session, ok
}

// Reveal opens a cell. A zero-adjacency cell cascades to its neighbors; a
// mine ends the session with the accrued points zeroed. Revealing an already
// open or flagged cell changes nothing.
func (s *GameService) Reveal(address string, row, col int) (*GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[strings.ToLower(address)]
	if !ok || session.Status != model.GamePlaying {
		return nil, ErrGameNotActive
	}

	board := session.Board
	if row < 0 || row >= board.Size || col < 0 || col >= board.Size {
		return session, nil
	}
	cell := &board.Cells[row][col]
	if cell.IsRevealed || cell.IsFlagged {
		return session, nil
	}

	if cell.IsMine {
		cell.IsRevealed = true
		session.Points = 0
		session.Status = model.GameOver
		return session, nil
	}

	// Iterative flood fill; each newly opened safe cell scores one point.
	type coord struct{ row, col int }
	stack := []coord{{row, col}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := &board.Cells[cur.row][cur.col]
		if c.IsRevealed || c.IsFlagged || c.IsMine {
			continue
		}
		c.IsRevealed = true
		session.Points++

		if c.AdjacentMines != 0 {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				r, cc := cur.row+dr, cur.col+dc
				if r >= 0 && r < board.Size && cc >= 0 && cc < board.Size {
					stack = append(stack, coord{r, cc})
				}
			}
		}
	}

	return session, nil
}

// ToggleFlag flips the flag on an unrevealed cell.
func (s *GameService) ToggleFlag(address string, row, col int) (*GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[strings.ToLower(address)]
	if !ok || session.Status != model.GamePlaying {
		return nil, ErrGameNotActive
	}

	board := session.Board
	if row < 0 || row >= board.Size || col < 0 || col >= board.Size {
		return session, nil
	}
	cell := &board.Cells[row][col]
	if cell.IsRevealed {
		return session, nil
	}
	cell.IsFlagged = !cell.IsFlagged

	return session, nil
}

// CashOut banks the session's points as game points. Profit is points minus
// the wager floor; the best score only moves up.
func (s *GameService) CashOut(ctx context.Context, address string) (*model.CashOutResult, error) {
	address = strings.ToLower(address)

	s.mu.Lock()
	session, ok := s.sessions[address]
	if !ok || session.Status != model.GamePlaying {
		s.mu.Unlock()
		return nil, ErrGameNotActive
	}
	points := session.Points
	if points <= wagerFloor {
		s.mu.Unlock()
		return nil, ErrNothingToCashOut
	}
	// Claim the session before touching storage so a concurrent cash-out
	// sees it finished and cannot bank the same points twice.
	session.Status = model.GameCashedOut
	s.mu.Unlock()

	result, err := s.repo.CashOut(ctx, address, points, wagerFloor)
	if err != nil {
		s.mu.Lock()
		session.Status = model.GamePlaying
		s.mu.Unlock()
		return nil, err
	}

	s.ledger.Invalidate(ctx, address)

	return result, nil
}

// ContractBalance reads the wager pool held by the game contract.
func (s *GameService) ContractBalance(ctx context.Context, wallet string) (*big.Int, error) {
	provider, err := s.registry.Resolve(wallet)
	if err != nil {
		return nil, err
	}

	data, err := chain.PackGetContractBalance()
	if err != nil {
		return nil, err
	}

	target := s.contract
	out, err := provider.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data})
	if err != nil {
		return nil, chain.Classify(err)
	}

	return chain.UnpackContractBalance(out)
}

// Withdraw drains the wager pool to the operator. Admin wallet only.
func (s *GameService) Withdraw(ctx context.Context, wallet, address string) (*chain.FlowResult, error) {
	if strings.ToLower(address) != s.adminWallet {
		return nil, ErrNotAdmin
	}

	provider, err := s.registry.Resolve(wallet)
	if err != nil {
		return nil, err
	}

	data, err := chain.PackWithdrawFunds()
	if err != nil {
		return nil, err
	}

	target := s.contract
	result := chain.NewFlow(provider, s.flowCfg).Execute(ctx, chain.TxRequest{
		From: common.HexToAddress(address),
		To:   &target,
		Data: data,
	})

	if result.State != chain.StateConfirmed && !result.Cancelled && result.Err == nil {
		result.Err = ErrTransactionFailed
	}

	return result, nil
}
