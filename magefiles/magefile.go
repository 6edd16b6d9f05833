//go:build mage

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	serverBin = "bin/bmf-server"
	cliBin    = "bin/formfill"
	dataDir   = "data"
)

// Dbup runs dbmate to apply db migrations. DATABASE_URL defaults to the
// server's default database.
func Dbup() error {
	if _, err := exec.LookPath("dbmate"); err != nil {
		fmt.Println(">> dbmate not found; install with:")
		fmt.Println("   go install github.com/amacneil/dbmate/v2@latest")
		return err
	}
	env := map[string]string{}
	if os.Getenv("DATABASE_URL") == "" {
		env["DATABASE_URL"] = "sqlite:" + dataDir + "/bmf.db"
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return err
	}
	fmt.Println(">> dbmate up")
	return sh.RunWith(env, "dbmate", "--no-dump-schema", "up")
}

// Build tidies deps, then compiles the server and the CLI into ./bin.
func Build() error {
	mg.Deps(Tidy)
	fmt.Println(">> Building server binary...")
	if err := sh.Run("go", "build", "-o", serverBin, "./cmd/server"); err != nil {
		return err
	}
	fmt.Println(">> Building formfill CLI...")
	return sh.Run("go", "build", "-o", cliBin, "./cmd/formfill")
}

// Run builds then executes the server.
func Run() error {
	mg.Deps(Build)
	fmt.Println(">> Starting server on :3000 ...")
	return sh.RunV("./" + serverBin)
}

// Dev starts the server via go run with debug logging.
func Dev() error {
	fmt.Println(">> Dev mode: go run ./cmd/server ...")
	cmd := exec.Command("go", "run", "./cmd/server")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "BMF_LOG_LEVEL=debug")
	return cmd.Run()
}

// Fields lists the fields of the built-in template.
func Fields() error {
	return sh.RunV("go", "run", "./cmd/formfill", "fields")
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println(">> go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Test runs all unit tests.
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "./...")
}

// Lint runs golangci-lint if available.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.Run("golangci-lint", "run", "./...")
}

// Clean removes build artifacts, the local SQLite DB and persisted outputs.
func Clean() error {
	fmt.Println(">> Cleaning...")
	os.RemoveAll("bin")
	os.Remove(dataDir + "/bmf.db")
	return os.RemoveAll(dataDir + "/filled_pdfs")
}

// Install builds and installs both binaries to $GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	if err := sh.Run("go", "install", "./cmd/server"); err != nil {
		return err
	}
	return sh.Run("go", "install", "./cmd/formfill")
}

func init() {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "err", err)
	}
}
