package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"

	"monad_community_portal/internal/model"
	"monad_community_portal/internal/service"
	"monad_community_portal/pkg/auth"
	"monad_community_portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type gameRoutes struct {
	gs *service.GameService
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// gameConn is one player's websocket attachment to their wager session.
type gameConn struct {
	address string
	conn    *websocket.Conn
	mu      sync.Mutex
}

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

var (
	activeConns = make(map[string]*gameConn)
	connsMutex  sync.RWMutex
)

func NewGameRoutes(handler *gin.RouterGroup, gs *service.GameService, a *auth.WalletAuth) {
	r := &gameRoutes{gs: gs}
	h := handler.Group("/ws")
	h.Use(a.WalletAuthMiddleware())

	h.GET("/game", r.handleWebSocket)

	admin := handler.Group("/admin")
	admin.Use(a.WalletAuthMiddleware())
	{
		admin.GET("/game/balance", r.ContractBalance)
		admin.POST("/game/withdraw", r.Withdraw)
	}
}

func (gr *gameRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	gc := &gameConn{address: address, conn: conn}

	connsMutex.Lock()
	activeConns[address] = gc
	connsMutex.Unlock()

	go gr.handleGameLoop(gc)
}

func (gr *gameRoutes) handleGameLoop(gc *gameConn) {
	log := logger.Logger()

	defer func() {
		gc.conn.Close()
		connsMutex.Lock()
		delete(activeConns, gc.address)
		connsMutex.Unlock()
	}()

	for {
		_, msg, err := gc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("websocket unexpected close",
					zap.String("address", gc.address),
					zap.Error(err))
			}
			break
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			log.Info("failed to unmarshal message", zap.Error(err))
			continue
		}

		switch message.Type {
		case "game_start":
			gr.handleBet(gc, message)

		case "reveal":
			row, col, ok := cellFrom(message)
			if !ok {
				gr.sendError(gc, "reveal needs row and col")
				continue
			}
			session, err := gr.gs.Reveal(gc.address, row, col)
			if err != nil {
				gr.sendError(gc, "no active game")
				continue
			}
			if session.Status == model.GameOver {
				gr.sendGameOver(gc, session, nil)
				continue
			}
			gr.sendGameState(gc, session)

		case "flag":
			row, col, ok := cellFrom(message)
			if !ok {
				gr.sendError(gc, "flag needs row and col")
				continue
			}
			session, err := gr.gs.ToggleFlag(gc.address, row, col)
			if err != nil {
				gr.sendError(gc, "no active game")
				continue
			}
			gr.sendGameState(gc, session)

		case "cash_out":
			result, err := gr.gs.CashOut(context.Background(), gc.address)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrGameNotActive):
					gr.sendError(gc, "no active game")
				case errors.Is(err, service.ErrNothingToCashOut):
					gr.sendError(gc, "not enough points to cash out")
				default:
					log.Error("cash out failed",
						zap.String("address", gc.address),
						zap.Error(err))
					gr.sendError(gc, "cash out failed")
				}
				continue
			}
			session, _ := gr.gs.Session(gc.address)
			gr.sendGameOver(gc, session, result)

		case "game_state":
			session, ok := gr.gs.Session(gc.address)
			if !ok {
				gr.sendError(gc, "no active game")
				continue
			}
			gr.sendGameState(gc, session)
		}
	}
}

func (gr *gameRoutes) handleBet(gc *gameConn, message Message) {
	log := logger.Logger()

	wallet, _ := message.Payload["wallet"].(string)
	if wallet == "" {
		gr.sendError(gc, "game_start needs a wallet")
		return
	}

	session, result, err := gr.gs.PlaceBet(context.Background(), wallet, gc.address)
	if err != nil {
		log.Info("bet failed",
			zap.String("address", gc.address),
			zap.Error(err))
		gr.sendError(gc, "failed to place bet")
		return
	}
	if session == nil {
		if result != nil && result.Cancelled {
			gr.sendError(gc, "bet cancelled")
			return
		}
		gr.sendError(gc, "failed to place bet")
		return
	}

	gr.sendGameState(gc, session)
}

func cellFrom(message Message) (int, int, bool) {
	row, rok := message.Payload["row"].(float64)
	col, cok := message.Payload["col"].(float64)
	if !rok || !cok {
		return 0, 0, false
	}
	return int(row), int(col), true
}

// boardView hides mine positions until the session ends. A session whose
// wager is still in flight has no board yet.
func boardView(session *service.GameSession) []any {
	if session.Board == nil {
		return nil
	}

	over := session.Status == model.GameOver || session.Status == model.GameCashedOut

	rows := make([]any, session.Board.Size)
	for i, row := range session.Board.Cells {
		cells := make([]map[string]any, len(row))
		for j, cell := range row {
			view := map[string]any{
				"revealed": cell.IsRevealed,
				"flagged":  cell.IsFlagged,
			}
			if cell.IsRevealed {
				view["adjacent_mines"] = cell.AdjacentMines
			}
			if over || (cell.IsRevealed && cell.IsMine) {
				view["mine"] = cell.IsMine
			}
			cells[j] = view
		}
		rows[i] = cells
	}
	return rows
}

func (gr *gameRoutes) sendGameState(gc *gameConn, session *service.GameSession) {
	gr.send(gc, Message{
		Type: "game_state",
		Payload: map[string]any{
			"status": session.Status,
			"points": session.Points,
			"board":  boardView(session),
		},
	})
}

func (gr *gameRoutes) sendGameOver(gc *gameConn, session *service.GameSession, result *model.CashOutResult) {
	payload := map[string]any{}
	if session != nil {
		payload["status"] = session.Status
		payload["final_points"] = session.Points
		payload["board"] = boardView(session)
	}
	if result != nil {
		payload["cashed_out_points"] = result.Points
		payload["profit"] = result.Profit
		payload["new_best_score"] = result.NewBestScore
	}

	gr.send(gc, Message{Type: "game_over", Payload: payload})
}

func (gr *gameRoutes) sendError(gc *gameConn, text string) {
	gr.send(gc, Message{
		Type:    "error",
		Payload: map[string]any{"message": text},
	})
}

func (gr *gameRoutes) send(gc *gameConn, message Message) {
	log := logger.Logger()

	data, err := json.Marshal(message)
	if err != nil {
		log.Error("failed to marshal message",
			zap.String("type", message.Type),
			zap.Error(err))
		return
	}

	gc.mu.Lock()
	defer gc.mu.Unlock()
	if err := gc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error("failed to write message",
			zap.String("address", gc.address),
			zap.Error(err))
	}
}

func (gr *gameRoutes) ContractBalance(c *gin.Context) {
	log := logger.Logger()

	wallet := c.Query("wallet")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet is required"})
		return
	}

	balance, err := gr.gs.ContractBalance(c.Request.Context(), wallet)
	if err != nil {
		log.Error("failed to get contract balance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get contract balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance_wei": balance.String()})
}

type WithdrawRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

func (gr *gameRoutes) Withdraw(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := gr.gs.Withdraw(c.Request.Context(), req.Wallet, address)
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin wallet required"})
			return
		}
		log.Error("failed to withdraw", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to withdraw"})
		return
	}

	if result.Cancelled {
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
		return
	}

	if result.Err != nil {
		transactionError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  result.State,
		"tx_hash": result.TxHash.Hex(),
	})
}
