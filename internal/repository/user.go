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

const referralReward = 50

type userProfile struct {
	WalletAddress  string     `db:"wallet_address"`
	QuestPoints    int        `db:"quest_points"`
	ProposalPoints int        `db:"proposal_points"`
	GamePoints     int        `db:"game_points"`
	ReferralPoints int        `db:"referral_points"`
	ReferredBy     *string    `db:"referred_by"`
	Referrals      int        `db:"referrals"`
	TwitterHandle  *string    `db:"twitter_handle"`
	DiscordHandle  *string    `db:"discord_handle"`
	BestGameScore  int        `db:"best_game_score"`
	LastCheckIn    *time.Time `db:"last_check_in"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (u *userProfile) toModel() *model.UserProfile {
	return &model.UserProfile{
		WalletAddress:  u.WalletAddress,
		QuestPoints:    u.QuestPoints,
		ProposalPoints: u.ProposalPoints,
		GamePoints:     u.GamePoints,
		ReferralPoints: u.ReferralPoints,
		ReferredBy:     u.ReferredBy,
		Referrals:      u.Referrals,
		TwitterHandle:  u.TwitterHandle,
		DiscordHandle:  u.DiscordHandle,
		BestGameScore:  u.BestGameScore,
		LastCheckIn:    u.LastCheckIn,
		CreatedAt:      u.CreatedAt,
	}
}

// CreateProfile inserts a new profile with zeroed counters. Inserting an
// existing address is a no-op returning ErrProfileExists so connect() stays
// idempotent.
func (r *Repository) CreateProfile(ctx context.Context, profile *model.UserProfile) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"wallet_address":  profile.WalletAddress,
				"quest_points":    0,
				"proposal_points": 0,
				"game_points":     0,
				"referral_points": 0,
				"referred_by":     profile.ReferredBy,
				"referrals":       0,
				"best_game_score": 0,
				"created_at":      profile.CreatedAt,
			}).
			Suffix("ON CONFLICT (wallet_address) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build profile insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrProfileExists
		}

		return nil
	})
}

// CreditReferrer pays the one-time referral reward and bumps the referral
// count. Called exactly once per freshly created profile that carried a
// valid referral code.
func (r *Repository) CreditReferrer(ctx context.Context, address string) error {
	query, args, err := squirrel.
		Update("users").
		Set("referrals", squirrel.Expr("referrals + 1")).
		Set("referral_points", squirrel.Expr("referral_points + ?", referralReward)).
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referrer update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update referrer: %w", err)
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

// ReferrerExists reports whether a profile exists for the given address.
// An unknown referral code must not block profile creation.
func (r *Repository) ReferrerExists(ctx context.Context, address string) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("users").
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) GetProfileByAddress(ctx context.Context, address string) (*model.UserProfile, error) {
	var user userProfile
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) SetSocialHandle(ctx context.Context, address, network, handle string) error {
	var column string
	switch network {
	case "twitter":
		column = "twitter_handle"
	case "discord":
		column = "discord_handle"
	default:
		return fmt.Errorf("unknown social network: %s", network)
	}

	query, args, err := squirrel.
		Update("users").
		Set(column, handle).
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

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	type row struct {
		WalletAddress string `db:"wallet_address"`
		TotalPoints   int    `db:"total_points"`
		Referrals     int    `db:"referrals"`
	}

	query, args, err := squirrel.
		Select(
			"wallet_address",
			"quest_points + proposal_points + game_points + referral_points AS total_points",
			"referrals",
		).
		From("users").
		OrderBy("total_points DESC").
		Limit(uint64(limit)).
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

	entries := make([]*model.LeaderboardEntry, len(rows))
	for i, u := range rows {
		entries[i] = &model.LeaderboardEntry{
			WalletAddress: u.WalletAddress,
			TotalPoints:   u.TotalPoints,
			Referrals:     u.Referrals,
		}
	}

	return entries, nil
}

// GetUserReferrals lists profiles referred by the given address, in the order
// they joined.
func (r *Repository) GetUserReferrals(ctx context.Context, address string) ([]*model.UserReferral, error) {
	type row struct {
		WalletAddress string    `db:"wallet_address"`
		TotalPoints   int       `db:"total_points"`
		CreatedAt     time.Time `db:"created_at"`
	}

	query, args, err := squirrel.
		Select(
			"wallet_address",
			"quest_points + proposal_points + game_points + referral_points AS total_points",
			"created_at",
		).
		From("users").
		Where(squirrel.Eq{"referred_by": address}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []row
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	refs := make([]*model.UserReferral, len(rows))
	for i, ref := range rows {
		refs[i] = &model.UserReferral{
			WalletAddress: ref.WalletAddress,
			Points:        ref.TotalPoints,
			JoinedAt:      ref.CreatedAt,
		}
	}

	return refs, nil
}
