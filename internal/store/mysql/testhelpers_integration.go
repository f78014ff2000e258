//go:build integration

package mysql

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"go.uber.org/zap"
	"hr_notify/internal/db"
)

const (
	testDatabase = "hr_notify_test"
	testUser     = "notify"
	testPassword = "notify"
)

// newTestStore starts a MySQL container with db/schema.sql applied and
// returns a Store on it. The container is removed when t finishes.
func newTestStore(t *testing.T, ctx context.Context) *Store {
	t.Helper()

	container, err := tcmysql.RunContainer(ctx,
		tcmysql.WithDatabase(testDatabase),
		tcmysql.WithUsername(testUser),
		tcmysql.WithPassword(testPassword),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port("3306/tcp"))
	require.NoError(t, err)

	dsn := testUser + ":" + testPassword + "@tcp(" + host + ":" + port.Port() + ")/" + testDatabase +
		"?parseTime=true&loc=UTC&multiStatements=true"
	conn, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.PingContext(ctx))

	_, err = conn.ExecContext(ctx, readSchema(t))
	require.NoError(t, err)

	return New(db.New(conn), zap.NewNop())
}

func readSchema(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	schema, err := os.ReadFile(filepath.Join(wd, "..", "..", "..", "db", "schema.sql"))
	require.NoError(t, err)
	return string(schema)
}
