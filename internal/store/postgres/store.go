package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayerp/relay/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	actionLogs    *ActionLogRepo
	organizations *OrganizationRepo
	todos         *TodoRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:          pool,
		actionLogs:    NewActionLogRepo(pool),
		organizations: NewOrganizationRepo(pool),
		todos:         NewTodoRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Flush satisfies the command bus flush step. Every repository write commits
// its own statement, so there is nothing buffered; the call exists so the
// bus lifecycle holds if a write-behind layer is introduced later.
func (s *Store) Flush(_ context.Context) error {
	return nil
}

func (s *Store) ActionLogs() domain.ActionLogRepository       { return s.actionLogs }
func (s *Store) Organizations() domain.OrganizationRepository { return s.organizations }
func (s *Store) Todos() domain.TodoRepository                 { return s.todos }
