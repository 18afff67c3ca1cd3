//go:build integration

package sqlstore_test

import (
	"context"
	"testing"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/aretw0/durafsm/pkg/adapters/sqlstore"
	"github.com/aretw0/durafsm/pkg/ports"
)

func TestPostgresStore_Contract(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpostgres.RunContainer(ctx,
		tcpostgres.WithDatabase("durafsm"),
		tcpostgres.WithUsername("durafsm"),
		tcpostgres.WithPassword("durafsm"),
		tcpostgres.WithSQLDriver("pgx"),
	)
	if err != nil {
		t.Skipf("skip: cannot start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	store, err := sqlstore.Open[payment](ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ports.RunAdapterContract[payment](t, store, payment{Amount: 5, Currency: "USD"}, payment{Amount: 6, Currency: "USD"})
}
