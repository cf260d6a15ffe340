package integration

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"
)

// Throwaway PostgreSQL container used when TEST_POSTGRES=1.
const (
	postgresContainerName = "uigen-test-postgres"
	postgresPort          = "5433"
	postgresUser          = "uigen"
	postgresPassword      = "uigen"
	postgresDB            = "uigen_test"
	postgresImage         = "postgres:16-alpine"
)

// PostgresEnabled reports whether the suite runs against PostgreSQL
func PostgresEnabled() bool {
	return os.Getenv("TEST_POSTGRES") == "1"
}

// PostgresDSN returns the DSN of the test container
func PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@localhost:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, postgresPort, postgresDB)
}

// StartPostgres replaces any previous test container with a fresh one and
// waits until it accepts connections. The returned cleanup removes the
// container only when the run succeeded.
func StartPostgres() (func(success bool), error) {
	_ = docker("rm", "-f", postgresContainerName)

	err := docker("run", "-d",
		"--name", postgresContainerName,
		"-p", postgresPort+":5432",
		"-e", "POSTGRES_USER="+postgresUser,
		"-e", "POSTGRES_PASSWORD="+postgresPassword,
		"-e", "POSTGRES_DB="+postgresDB,
		postgresImage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	if err := waitForPostgres(30 * time.Second); err != nil {
		return nil, fmt.Errorf("postgres failed to become ready: %w", err)
	}

	return func(success bool) {
		if !success {
			fmt.Fprintf(os.Stderr, "\nTests failed; kept %s for debugging (psql %s)\n\n",
				postgresContainerName, PostgresDSN())
			return
		}
		if err := docker("rm", "-f", postgresContainerName); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove postgres container: %v\n", err)
		}
	}, nil
}

func docker(args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.Command("docker", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker %s: %w: %s", args[0], err, stderr.String())
	}
	return nil
}

func waitForPostgres(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if docker("exec", postgresContainerName, "pg_isready", "-U", postgresUser, "-d", postgresDB) == nil {
			// pg_isready runs inside the container; check the mapped port too
			conn, err := net.DialTimeout("tcp", "localhost:"+postgresPort, time.Second)
			if err == nil {
				conn.Close()
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for postgres on port %s", postgresPort)
}
