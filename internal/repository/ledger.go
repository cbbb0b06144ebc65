package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"monad_community_portal/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var counterColumns = map[string]struct{}{
	model.CounterQuest:    {},
	model.CounterProposal: {},
	model.CounterGame:     {},
	model.CounterReferral: {},
}

// GetPoints reads the counters for an address. An absent profile yields
// all-zero counters, not an error.
func (r *Repository) GetPoints(ctx context.Context, address string) (*model.PointTotals, error) {
	type row struct {
		QuestPoints    int `db:"quest_points"`
		ProposalPoints int `db:"proposal_points"`
		GamePoints     int `db:"game_points"`
		ReferralPoints int `db:"referral_points"`
	}

	query, args, err := squirrel.
		Select("quest_points", "proposal_points", "game_points", "referral_points").
		From("users").
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var counters row
	err = r.db.GetContext(ctx, &counters, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.PointTotals{}, nil
		}
		return nil, err
	}

	return &model.PointTotals{
		QuestPoints:    counters.QuestPoints,
		ProposalPoints: counters.ProposalPoints,
		GamePoints:     counters.GamePoints,
		ReferralPoints: counters.ReferralPoints,
	}, nil
}

// IncrementCounter adds to a named counter with a single additive update.
func (r *Repository) IncrementCounter(ctx context.Context, address, counter string, amount int) error {
	if _, ok := counterColumns[counter]; !ok {
		return fmt.Errorf("unknown counter: %s", counter)
	}

	query, args, err := squirrel.
		Update("users").
		Set(counter, squirrel.Expr(counter+" + ?", amount)).
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkQuestDone records a one-shot quest completion and credits the reward.
// The insert carries the uniqueness guard, so a second attempt for the same
// (address, quest) fails with ErrAlreadyClaimed and credits nothing.
func (r *Repository) MarkQuestDone(ctx context.Context, address, questID string, reward int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("user_quests").
			SetMap(map[string]interface{}{
				"wallet_address": address,
				"quest_id":       questID,
				"completed":      true,
				"completed_at":   time.Now().UTC(),
			}).
			Suffix("ON CONFLICT (wallet_address, quest_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quest insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert quest completion: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyClaimed
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("quest_points", squirrel.Expr("quest_points + ?", reward)).
			Where(squirrel.Eq{"wallet_address": address}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return err
		}

		rows, err = result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		return nil
	})
}

func (r *Repository) GetUserQuests(ctx context.Context, address string) (map[string]*model.UserQuest, error) {
	type row struct {
		QuestID     string     `db:"quest_id"`
		Completed   bool       `db:"completed"`
		CompletedAt *time.Time `db:"completed_at"`
	}

	query, args, err := squirrel.
		Select("quest_id", "completed", "completed_at").
		From("user_quests").
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []row
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	quests := make(map[string]*model.UserQuest, len(rows))
	for _, q := range rows {
		quests[q.QuestID] = &model.UserQuest{
			QuestID:     q.QuestID,
			Completed:   q.Completed,
			CompletedAt: q.CompletedAt,
		}
	}

	return quests, nil
}

// CheckIn records a daily check-in. The last check-in timestamp is re-read
// inside the transaction so two near-simultaneous check-ins cannot both land.
func (r *Repository) CheckIn(ctx context.Context, address string, at time.Time, reward int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select("last_check_in").
			From("users").
			Where(squirrel.Eq{"wallet_address": address}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var lastCheckIn *time.Time
		err = tx.GetContext(ctx, &lastCheckIn, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if lastCheckIn != nil && at.Sub(*lastCheckIn) < 24*time.Hour {
			return ErrCheckInNotAvailable
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("last_check_in", at).
			Set("quest_points", squirrel.Expr("quest_points + ?", reward)).
			Where(squirrel.Eq{"wallet_address": address}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		return err
	})
}

func (r *Repository) GetLastCheckIn(ctx context.Context, address string) (*time.Time, error) {
	query, args, err := squirrel.
		Select("last_check_in").
		From("users").
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var lastCheckIn *time.Time
	err = r.db.GetContext(ctx, &lastCheckIn, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return lastCheckIn, nil
}

// CashOut converts a game session's accrued points into persisted game points.
// Best score and cumulative points are read before being written, inside one
// transaction, to avoid lost updates from concurrent cash-outs.
func (r *Repository) CashOut(ctx context.Context, address string, points, wagerFloor int) (*model.CashOutResult, error) {
	var result model.CashOutResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select("best_game_score").
			From("users").
			Where(squirrel.Eq{"wallet_address": address}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var bestScore int
		err = tx.GetContext(ctx, &bestScore, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		profit := points - wagerFloor
		result = model.CashOutResult{Points: points, Profit: profit}

		update := squirrel.
			Update("users").
			Where(squirrel.Eq{"wallet_address": address}).
			PlaceholderFormat(squirrel.Dollar)

		switch {
		case points > bestScore:
			result.NewBestScore = true
			update = update.
				Set("best_game_score", points).
				Set("game_points", squirrel.Expr("game_points + ?", profit))
		case points > wagerFloor:
			update = update.
				Set("game_points", squirrel.Expr("game_points + ?", profit))
		default:
			return nil
		}

		updateQuery, updateArgs, err := update.ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
