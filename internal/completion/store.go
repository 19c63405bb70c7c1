// internal/completion/store.go
//
// Finished playthroughs and the leaderboard built from them.
// Responsibilities:
//   - Recording the first time a profile reaches the end (INSERT OR IGNORE on
//     the profile primary key, so later finishes never overwrite it).
//   - Ranking finishers by fewest hints, then earliest finish.
//   - Moving a guest's completion onto an account when the guest signs in.

package completion

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/twoworlds/puzzle-server/internal/progress"
)

// Result is one finished playthrough.
type Result struct {
	ProfileID  string    `json:"profileId"`
	HintsUsed  int       `json:"hintsUsed"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Row is a leaderboard entry. Name is the account username, empty for guests.
type Row struct {
	Rank       int       `json:"rank"`
	Name       string    `json:"name,omitempty"`
	HintsUsed  int       `json:"hintsUsed"`
	FinishedAt time.Time `json:"finishedAt"`
}

// DefaultLimit caps leaderboard queries that ask for no limit.
const DefaultLimit = 20

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Finished reports whether profile already has a completion.
func (s *Store) Finished(ctx context.Context, profile string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM completions WHERE profile_id=?`, profile,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult stores r unless the profile already finished once. It
// reports whether a row was written.
func (s *Store) InsertResult(ctx context.Context, r Result) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO completions(profile_id, hints_used, finished_at)
		 VALUES(?,?,?)`, r.ProfileID, r.HintsUsed, r.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert completion %s: %w", r.ProfileID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RecordFinish stores a finished game. Its signature matches the session
// registry's finish hook; failures are logged, the game is already over.
func (s *Store) RecordFinish(ctx context.Context, profile string, st progress.State) {
	ok, err := s.InsertResult(ctx, Result{ProfileID: profile, HintsUsed: st.HintsUsed, FinishedAt: time.Now()})
	if err != nil {
		log.Warn().Err(err).Str("profile", profile).Msg("record completion")
		return
	}
	if ok {
		log.Info().Str("profile", profile).Int("hints", st.HintsUsed).Msg("first completion recorded")
	}
}

// Leaderboard lists finishers by fewest hints, then earliest finish.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(u.username, ''), c.hints_used, c.finished_at
		 FROM completions c
		 LEFT JOIN users u ON u.id = c.profile_id
		 ORDER BY c.hints_used ASC, c.finished_at ASC, c.profile_id ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var r Row
		var finished string
		if err := rows.Scan(&r.Name, &r.HintsUsed, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// Claim moves a guest completion to an account that has none of its own.
func (s *Store) Claim(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE completions SET profile_id=? WHERE profile_id=?`, to, from); err != nil {
		return fmt.Errorf("claim completion: %w", err)
	}
	return nil
}
