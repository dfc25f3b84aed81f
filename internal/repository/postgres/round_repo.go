package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freeeve/secret-toaster/internal/model"
)

// RoundRepo handles round, order, and event database operations.
type RoundRepo struct {
	db *sql.DB
}

// NewRoundRepo creates a RoundRepo.
func NewRoundRepo(db *sql.DB) *RoundRepo {
	return &RoundRepo{db: db}
}

// CreateRound inserts a new round.
func (r *RoundRepo) CreateRound(ctx context.Context, gameID string, roundNumber int, stateBefore json.RawMessage, deadline time.Time) (*model.Round, error) {
	var rnd model.Round
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO rounds (game_id, round_number, state_before, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, game_id, round_number, state_before, deadline, created_at`,
		gameID, roundNumber, stateBefore, deadline,
	).Scan(&rnd.ID, &rnd.GameID, &rnd.RoundNumber, &rnd.StateBefore, &rnd.Deadline, &rnd.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create round: %w", err)
	}
	return &rnd, nil
}

// CurrentRound returns the latest unresolved round for a game.
func (r *RoundRepo) CurrentRound(ctx context.Context, gameID string) (*model.Round, error) {
	var rnd model.Round
	var stateAfter sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, round_number, state_before, state_after, deadline, resolved_at, created_at
		 FROM rounds WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`, gameID,
	).Scan(&rnd.ID, &rnd.GameID, &rnd.RoundNumber, &rnd.StateBefore, &stateAfter, &rnd.Deadline, &rnd.ResolvedAt, &rnd.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current round: %w", err)
	}
	if stateAfter.Valid {
		rnd.StateAfter = json.RawMessage(stateAfter.String)
	}
	return &rnd, nil
}

// ListRounds returns all rounds for a game in order.
func (r *RoundRepo) ListRounds(ctx context.Context, gameID string) ([]model.Round, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, round_number, state_before, state_after, deadline, resolved_at, created_at
		 FROM rounds WHERE game_id = $1 ORDER BY round_number`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		var rnd model.Round
		var stateAfter sql.NullString
		if err := rows.Scan(&rnd.ID, &rnd.GameID, &rnd.RoundNumber, &rnd.StateBefore, &stateAfter, &rnd.Deadline, &rnd.ResolvedAt, &rnd.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if stateAfter.Valid {
			rnd.StateAfter = json.RawMessage(stateAfter.String)
		}
		rounds = append(rounds, rnd)
	}
	return rounds, rows.Err()
}

// ResolveRound marks a round as resolved and stores the resulting state.
func (r *RoundRepo) ResolveRound(ctx context.Context, roundID string, stateAfter json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE rounds SET state_after = $1, resolved_at = now() WHERE id = $2`,
		stateAfter, roundID,
	)
	if err != nil {
		return fmt.Errorf("resolve round: %w", err)
	}
	return nil
}

// SaveOrders inserts a batch of orders for a round.
func (r *RoundRepo) SaveOrders(ctx context.Context, orders []model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO orders (round_id, nickname, knight_name, order_number, action_type, from_hex_id, to_hex_id, troop_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare insert order: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		_, err := stmt.ExecContext(ctx, o.RoundID, o.Nickname, o.KnightName, o.OrderNumber, o.ActionType,
			o.FromHexID, o.ToHexID, o.TroopCount)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
	}
	return tx.Commit()
}

// OrdersByRound returns all orders for a round.
func (r *RoundRepo) OrdersByRound(ctx context.Context, roundID string) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, round_id, nickname, knight_name, order_number, action_type, from_hex_id, to_hex_id, troop_count, created_at
		 FROM orders WHERE round_id = $1 ORDER BY nickname, order_number`, roundID,
	)
	if err != nil {
		return nil, fmt.Errorf("orders by round: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.RoundID, &o.Nickname, &o.KnightName, &o.OrderNumber, &o.ActionType,
			&o.FromHexID, &o.ToHexID, &o.TroopCount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListExpired returns the latest unresolved round per game where the deadline has passed.
// Uses DISTINCT ON to avoid returning orphaned old rounds from previous race conditions.
func (r *RoundRepo) ListExpired(ctx context.Context) ([]model.Round, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (rnd.game_id) rnd.id, rnd.game_id, rnd.round_number, rnd.state_before, rnd.deadline, rnd.created_at
		 FROM rounds rnd
		 JOIN games g ON g.id = rnd.game_id
		 WHERE rnd.resolved_at IS NULL AND rnd.deadline < now() AND g.status = 'active'
		 ORDER BY rnd.game_id, rnd.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired rounds: %w", err)
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		var rnd model.Round
		if err := rows.Scan(&rnd.ID, &rnd.GameID, &rnd.RoundNumber, &rnd.StateBefore, &rnd.Deadline, &rnd.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired round: %w", err)
		}
		rounds = append(rounds, rnd)
	}
	return rounds, rows.Err()
}

// SaveEvents inserts a batch of events produced by round resolution.
func (r *RoundRepo) SaveEvents(ctx context.Context, events []model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (game_id, round, log_index, type, data) VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare insert event: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.GameID, e.Round, e.LogIndex, e.Type, e.Data); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// EventsByGame returns all events for a game in log order.
func (r *RoundRepo) EventsByGame(ctx context.Context, gameID string) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, round, log_index, type, data, created_at
		 FROM events WHERE game_id = $1 ORDER BY round, log_index`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("events by game: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.GameID, &e.Round, &e.LogIndex, &e.Type, &e.Data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
