package model

// GameStatus is the lifecycle of a wager game session. Sessions are held in
// memory only; nothing is persisted until cash-out.
type GameStatus string

const (
	GameBetting   GameStatus = "betting"
	GamePlaying   GameStatus = "playing"
	GameOver      GameStatus = "over"
	GameCashedOut GameStatus = "cashed_out"
)

type Cell struct {
	IsMine        bool
	IsRevealed    bool
	IsFlagged     bool
	AdjacentMines int
}

type Board struct {
	Size  int
	Mines int
	Cells [][]Cell
}

// CashOutResult reports the persisted outcome of a cash-out.
type CashOutResult struct {
	Points       int
	Profit       int
	NewBestScore bool
}
