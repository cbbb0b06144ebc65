package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"monad_community_portal/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const voteReward = 10

type proposalRow struct {
	ID           uuid.UUID `db:"id"`
	Author       string    `db:"author"`
	Title        string    `db:"title"`
	Content      string    `db:"content"`
	ImageURL     *string   `db:"image_url"`
	YesVotes     int       `db:"yes_votes"`
	NoVotes      int       `db:"no_votes"`
	Likes        int       `db:"likes"`
	OnChainIndex int       `db:"on_chain_index"`
	CreatedAt    time.Time `db:"created_at"`
}

func (p *proposalRow) toModel() *model.Proposal {
	return &model.Proposal{
		ID:           p.ID,
		Author:       p.Author,
		Title:        p.Title,
		Content:      p.Content,
		ImageURL:     p.ImageURL,
		YesVotes:     p.YesVotes,
		NoVotes:      p.NoVotes,
		Likes:        p.Likes,
		OnChainIndex: p.OnChainIndex,
		CreatedAt:    p.CreatedAt,
	}
}

// CreateProposal inserts a proposal, assigning the next on-chain index so the
// contract's proposal numbering stays aligned with storage.
func (r *Repository) CreateProposal(ctx context.Context, proposal *model.Proposal) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var nextIndex int
		err := tx.GetContext(ctx, &nextIndex,
			"SELECT COALESCE(MAX(on_chain_index), -1) + 1 FROM proposals")
		if err != nil {
			return fmt.Errorf("failed to get next proposal index: %w", err)
		}

		proposal.OnChainIndex = nextIndex

		query, args, err := squirrel.
			Insert("proposals").
			SetMap(map[string]interface{}{
				"id":             proposal.ID,
				"author":         proposal.Author,
				"title":          proposal.Title,
				"content":        proposal.Content,
				"image_url":      proposal.ImageURL,
				"yes_votes":      0,
				"no_votes":       0,
				"likes":          0,
				"on_chain_index": nextIndex,
				"created_at":     proposal.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build proposal insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert proposal: %w", err)
		}

		return nil
	})
}

func (r *Repository) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	query, args, err := squirrel.
		Delete("proposals").
		Where(squirrel.Eq{"id": id}).
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

func (r *Repository) ListProposals(ctx context.Context) ([]*model.Proposal, error) {
	query, args, err := squirrel.
		Select("*").
		From("proposals").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []proposalRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	proposals := make([]*model.Proposal, len(rows))
	for i, p := range rows {
		proposals[i] = p.toModel()
	}

	return proposals, nil
}

func (r *Repository) GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	query, args, err := squirrel.
		Select("*").
		From("proposals").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row proposalRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) GetVote(ctx context.Context, proposalID uuid.UUID, voter string) (*model.Vote, error) {
	type row struct {
		ProposalID uuid.UUID `db:"proposal_id"`
		Voter      string    `db:"voter"`
		Choice     string    `db:"choice"`
		TxHash     string    `db:"tx_hash"`
		CastAt     time.Time `db:"cast_at"`
	}

	query, args, err := squirrel.
		Select("*").
		From("proposal_votes").
		Where(squirrel.Eq{"proposal_id": proposalID, "voter": voter}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var v row
	err = r.db.GetContext(ctx, &v, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.Vote{
		ProposalID: v.ProposalID,
		Voter:      v.Voter,
		Choice:     model.VoteChoice(v.Choice),
		TxHash:     v.TxHash,
		CastAt:     v.CastAt,
	}, nil
}

// CastVote records a vote, bumps the proposal counter and credits proposal
// points, all in one transaction. The vote insert is guarded by the
// (proposal, voter) key, so a concurrent duplicate fails with ErrAlreadyVoted
// and nothing else is written.
func (r *Repository) CastVote(ctx context.Context, vote *model.Vote) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("proposal_votes").
			SetMap(map[string]interface{}{
				"proposal_id": vote.ProposalID,
				"voter":       vote.Voter,
				"choice":      string(vote.Choice),
				"tx_hash":     vote.TxHash,
				"cast_at":     vote.CastAt,
			}).
			Suffix("ON CONFLICT (proposal_id, voter) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build vote insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyVoted
		}

		counter := "yes_votes"
		if vote.Choice == model.VoteNo {
			counter = "no_votes"
		}

		counterQuery, counterArgs, err := squirrel.
			Update("proposals").
			Set(counter, squirrel.Expr(counter+" + 1")).
			Where(squirrel.Eq{"id": vote.ProposalID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, counterQuery, counterArgs...)
		if err != nil {
			return fmt.Errorf("failed to update vote counter: %w", err)
		}

		pointsQuery, pointsArgs, err := squirrel.
			Update("users").
			Set("proposal_points", squirrel.Expr("proposal_points + ?", voteReward)).
			Where(squirrel.Eq{"wallet_address": vote.Voter}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, pointsQuery, pointsArgs...)
		if err != nil {
			return fmt.Errorf("failed to credit proposal points: %w", err)
		}

		return nil
	})
}

// LikeProposal appends the liker to the proposal's like set. Liking twice is
// a silent no-op on the counter via the keyed insert.
func (r *Repository) LikeProposal(ctx context.Context, proposalID uuid.UUID, address string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("proposal_likes").
			SetMap(map[string]interface{}{
				"proposal_id":    proposalID,
				"wallet_address": address,
				"liked_at":       time.Now().UTC(),
			}).
			Suffix("ON CONFLICT (proposal_id, wallet_address) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyLiked
		}

		counterQuery, counterArgs, err := squirrel.
			Update("proposals").
			Set("likes", squirrel.Expr("likes + 1")).
			Where(squirrel.Eq{"id": proposalID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, counterQuery, counterArgs...)
		return err
	})
}

// GetUserProposalState returns the like flag and vote choice for each
// proposal the user has acted on.
func (r *Repository) GetUserProposalState(ctx context.Context, address string) (map[uuid.UUID]bool, map[uuid.UUID]model.VoteChoice, error) {
	likeQuery, likeArgs, err := squirrel.
		Select("proposal_id").
		From("proposal_likes").
		Where(squirrel.Eq{"wallet_address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, nil, err
	}

	var likedIDs []uuid.UUID
	err = r.db.SelectContext(ctx, &likedIDs, likeQuery, likeArgs...)
	if err != nil {
		return nil, nil, err
	}

	likes := make(map[uuid.UUID]bool, len(likedIDs))
	for _, id := range likedIDs {
		likes[id] = true
	}

	type voteRow struct {
		ProposalID uuid.UUID `db:"proposal_id"`
		Choice     string    `db:"choice"`
	}

	voteQuery, voteArgs, err := squirrel.
		Select("proposal_id", "choice").
		From("proposal_votes").
		Where(squirrel.Eq{"voter": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, nil, err
	}

	var voteRows []voteRow
	err = r.db.SelectContext(ctx, &voteRows, voteQuery, voteArgs...)
	if err != nil {
		return nil, nil, err
	}

	votes := make(map[uuid.UUID]model.VoteChoice, len(voteRows))
	for _, v := range voteRows {
		votes[v.ProposalID] = model.VoteChoice(v.Choice)
	}

	return likes, votes, nil
}

func (r *Repository) CountProposals(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM proposals")
	if err != nil {
		return 0, err
	}
	return count, nil
}
