//go:build mage

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	serverPkg = "./cmd/server"
	binDir    = "bin"
)

// tools are installed by Deps and required by the tasks that name them.
var tools = map[string]string{
	"goimports":   "golang.org/x/tools/cmd/goimports@latest",
	"staticcheck": "honnef.co/go/tools/cmd/staticcheck@latest",
	"govulncheck": "golang.org/x/vuln/cmd/govulncheck@latest",
}

// run executes name with stdio attached. env entries are KEY=VALUE pairs added to the environment.
func run(env []string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func goCmd(args ...string) error { return run(nil, "go", args...) }

func capture(name string, args ...string) string {
	var buf bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout, cmd.Stderr = &buf, &buf
	_ = cmd.Run()
	return strings.TrimSpace(buf.String())
}

func requireTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not installed; run 'mage deps'", name)
	}
	return nil
}

func steps(fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Deps downloads modules and installs lint tooling.
func Deps() error {
	if err := goCmd("mod", "download", "all"); err != nil {
		return err
	}
	for _, pkg := range tools {
		if err := goCmd("install", pkg); err != nil {
			return err
		}
	}
	return nil
}

// Build compiles the server into ./bin. modernc sqlite is pure Go, so cgo stays off.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(binDir, "spoadmin")
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	return run([]string{"CGO_ENABLED=0"}, "go", "build", "-trimpath", "-ldflags", "-s -w", "-o", out, serverPkg)
}

// Run starts the server from source using the local .env.
func Run() error { return goCmd("run", serverPkg) }

// Test runs every package with the race detector. NO_RACE=1 skips it.
func Test() error {
	if os.Getenv("NO_RACE") == "1" {
		return goCmd("test", "./...")
	}
	return run([]string{"CGO_ENABLED=1"}, "go", "test", "-race", "./...")
}

// Cover writes coverage.html.
func Cover() error {
	return steps(
		func() error { return goCmd("test", "-coverprofile=coverage.out", "./...") },
		func() error { return goCmd("tool", "cover", "-html=coverage.out", "-o", "coverage.html") },
	)
}

// Lint runs go vet and staticcheck.
func Lint() error {
	return steps(
		func() error { return requireTool("staticcheck") },
		func() error { return goCmd("vet", "./...") },
		func() error { return run(nil, "staticcheck", "./...") },
	)
}

// Vuln runs govulncheck.
func Vuln() error {
	if err := requireTool("govulncheck"); err != nil {
		return err
	}
	return run(nil, "govulncheck", "./...")
}

// Fmt rewrites sources with gofmt and goimports.
func Fmt() error {
	return steps(
		func() error { return goCmd("fmt", "./...") },
		func() error { return run(nil, "goimports", "-w", ".") },
	)
}

// FmtCheck fails when any file needs gofmt or goimports.
func FmtCheck() error {
	var problems []string
	for _, tool := range []string{"gofmt", "goimports"} {
		if files := capture(tool, "-l", "."); files != "" {
			problems = append(problems, tool+":\n"+files)
		}
	}
	if len(problems) > 0 {
		return errors.New("formatting needed\n" + strings.Join(problems, "\n"))
	}
	return nil
}

// TidyCheck fails when go mod tidy changes go.mod or go.sum.
func TidyCheck() error {
	before := capture("git", "status", "--porcelain", "--", "go.mod", "go.sum")
	if err := goCmd("mod", "tidy"); err != nil {
		return err
	}
	if after := capture("git", "status", "--porcelain", "--", "go.mod", "go.sum"); after != before {
		return fmt.Errorf("go.mod/go.sum not tidy:\n%s", capture("git", "--no-pager", "diff", "--", "go.mod", "go.sum"))
	}
	return nil
}

// ResetJournal deletes the commit journal at DB_PATH (default ./spoadmin.db) with its WAL files.
func ResetJournal() error {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "./spoadmin.db"
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	fmt.Println("journal removed:", path)
	return nil
}

// Clean removes build and coverage output.
func Clean() error {
	for _, p := range []string{binDir, "coverage.out", "coverage.html"} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}

// Verify runs every check a change must pass.
func Verify() error {
	return steps(FmtCheck, TidyCheck, Lint, Vuln, Build, Test)
}
