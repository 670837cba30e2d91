package infra

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	postgresImage = "postgres:16-alpine"
	stressDB      = "addressme_stress"
)

// PGContainer wraps a started container. The zero value stands for a database
// the harness did not start, and terminating it is a no-op.
type PGContainer struct {
	C *postgres.PostgresContainer
}

// StartPostgres runs a disposable PostgreSQL container and returns its DSN.
func StartPostgres(ctx context.Context) (*PGContainer, string, error) {
	pgC, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(stressDB),
		postgres.WithUsername("addressme"),
		postgres.WithPassword("addressme"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("run %s: %w", postgresImage, err)
	}

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, "", fmt.Errorf("container dsn: %w", err)
	}
	return &PGContainer{C: pgC}, dsn, nil
}

func (p *PGContainer) Terminate(ctx context.Context) error {
	if p == nil || p.C == nil {
		return nil
	}
	return p.C.Terminate(ctx)
}
