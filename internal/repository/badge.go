package repository

import (
	"context"
	"time"

	"monad_community_portal/internal/model"

	"github.com/Masterminds/squirrel"
)

func (r *Repository) GetClaimedBadges(ctx context.Context, address string) ([]*model.UserBadge, error) {
	type row struct {
		BadgeID   int       `db:"badge_id"`
		TxHash    string    `db:"tx_hash"`
		ClaimedAt time.Time `db:"claimed_at"`
	}

	query, args, err := squirrel.
		Select("badge_id", "tx_hash", "claimed_at").
		From("user_badges").
		Where(squirrel.Eq{"wallet_address": address}).
		OrderBy("badge_id ASC").
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

	badges := make([]*model.UserBadge, len(rows))
	for i, b := range rows {
		badges[i] = &model.UserBadge{
			BadgeID:   b.BadgeID,
			TxHash:    b.TxHash,
			ClaimedAt: b.ClaimedAt,
		}
	}

	return badges, nil
}

// ClaimBadge records a badge claim. The keyed insert makes a repeat claim
// fail with ErrAlreadyClaimed.
func (r *Repository) ClaimBadge(ctx context.Context, address string, badgeID int, txHash string) error {
	query, args, err := squirrel.
		Insert("user_badges").
		SetMap(map[string]interface{}{
			"wallet_address": address,
			"badge_id":       badgeID,
			"tx_hash":        txHash,
			"claimed_at":     time.Now().UTC(),
		}).
		Suffix("ON CONFLICT (wallet_address, badge_id) DO NOTHING").
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
		return ErrAlreadyClaimed
	}

	return nil
}
