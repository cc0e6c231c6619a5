//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// runTrackedReports runs both reports with analysis tracking on backend, then
// the status, export and clear subcommands.
func runTrackedReports(t *testing.T, backend, connStr string) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	env := []string{
		"DORAMETRICS_CACHE_BACKEND=none",
		"DORAMETRICS_ANALYSIS_BACKEND=" + backend,
		"DORAMETRICS_ANALYSIS_DB_CONNECT=" + connStr,
	}

	_, err := runCommand(t, dir, env, "analysis", "clear")
	require.NoError(t, err)

	_, err = runCommand(t, dir, env, "analysis", "migrate")
	require.NoError(t, err)

	_, err = runCommand(t, dir, env, "delivery", "--builds-file", "builds.csv",
		"--commits-file", "commits.csv", "--pull-requests-file", "prs.csv")
	require.NoError(t, err)

	_, err = runCommand(t, dir, env, "availability", "--health-file", "health.csv",
		"--environment", "prod", "--start", "2025-04-07", "--end", "2025-04-08")
	require.NoError(t, err)

	out, err := runCommand(t, dir, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, out, backend)

	out, err = runCommand(t, dir, env, "analysis", "export", "--output-file", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 report runs")
	assert.Contains(t, out, "Exported 2 availability rows")
	assert.Contains(t, out, "Exported 1 delivery rows")
}

// TestTrackingWithMySQL tests report history on a MySQL backend.
func TestTrackingWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "dorametrics",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/dorametrics?parseTime=true", host, port.Port())
	runTrackedReports(t, "mysql", connStr)
}

// TestTrackingWithPostgres tests report history on a PostgreSQL backend.
func TestTrackingWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runTrackedReports(t, "postgresql", connStr)
}

// TestPublishToNATS checks a published availability report reaches a subscriber.
func TestPublishToNATS(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2-alpine",
		ExposedPorts: []string{"4222/tcp"},
		Cmd:          []string{"-js"},
		WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
	}
	natsC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = natsC.Terminate(ctx) }()

	host, err := natsC.Host(ctx)
	require.NoError(t, err)
	port, err := natsC.MappedPort(ctx, "4222")
	require.NoError(t, err)
	url := fmt.Sprintf("nats://%s:%s", host, port.Port())

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	js, err := nc.JetStream()
	require.NoError(t, err)
	_, err = js.AddStream(&nats.StreamConfig{Name: "DORAMETRICS", Subjects: []string{"dorametrics.>"}})
	require.NoError(t, err)
	sub, err := nc.SubscribeSync("dorametrics.>")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	dir := t.TempDir()
	writeFixtures(t, dir)
	_, err = runCommand(t, dir, noStores, "availability", "--health-file", "health.csv",
		"--environment", "prod", "--application", "shop", "--date", "2025-04-07",
		"--publish", "--nats-url", url)
	require.NoError(t, err)

	msg, err := sub.NextMsg(10 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "availability")
	assert.Contains(t, string(msg.Data), `"date": "2025-04-07"`)
}
