//go:build ignore

// build.go - EASMS Curator build script
// Usage: go run build.go [-target=TARGET]
// Targets: build, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	module  = "github.com/ShagReza/DataCuration-EASMS"
	binary  = "curator"
	mainPkg = "./cmd/curator"
)

var (
	distDir = "dist"

	releasePlatforms = []string{"linux/amd64", "linux/arm64", "darwin/arm64", "windows/amd64"}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Version string
	Commit  string
}

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	version := flag.String("version", "dev", "Version stamped into the binary")
	flag.Parse()

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorCyan = "", "", "", ""
	}

	ctx := &BuildContext{
		Verbose: *verbose,
		Version: *version,
		Commit:  gitCommit(),
	}

	printInfo(fmt.Sprintf("EASMS Curator %s (%s)", ctx.Version, ctx.Commit))
	start := time.Now()

	var err error
	switch *target {
	case "build":
		err = build(ctx, runtime.GOOS, runtime.GOARCH)
	case "test":
		err = runTests(ctx)
	case "clean":
		err = os.RemoveAll(distDir)
	case "release":
		err = release(ctx)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("%s completed in %s", *target, time.Since(start).Round(time.Millisecond)))
}

func ldflags(ctx *BuildContext) string {
	pkg := module + "/internal/config"
	return strings.Join([]string{
		"-s -w",
		fmt.Sprintf("-X %s.Version=%s", pkg, ctx.Version),
		fmt.Sprintf("-X %s.Commit=%s", pkg, ctx.Commit),
		fmt.Sprintf("-X %s.BuildTime=%s", pkg, time.Now().UTC().Format(time.RFC3339)),
	}, " ")
}

func build(ctx *BuildContext, goos, goarch string) error {
	name := binary
	if goos == "windows" {
		name += ".exe"
	}
	out := filepath.Join(distDir, goos+"_"+goarch, name)
	printInfo(fmt.Sprintf("Building %s", out))

	args := []string{"build", "-trimpath", "-ldflags", ldflags(ctx), "-o", out}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, mainPkg)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOOS="+goos, "GOARCH="+goarch)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build %s/%s: %w", goos, goarch, err)
	}
	return nil
}

func runTests(ctx *BuildContext) error {
	args := []string{"test", "-race"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}
	return nil
}

// release cross-compiles every platform into dist/ and writes VERSION.txt.
func release(ctx *BuildContext) error {
	if err := os.RemoveAll(distDir); err != nil {
		return err
	}
	for _, p := range releasePlatforms {
		goos, goarch, _ := strings.Cut(p, "/")
		if err := build(ctx, goos, goarch); err != nil {
			return err
		}
	}
	content := fmt.Sprintf("EASMS Curator %s\nCommit: %s\nBuilt: %s\n",
		ctx.Version, ctx.Commit, time.Now().Format("2006-01-02 15:04:05"))
	return os.WriteFile(filepath.Join(distDir, "VERSION.txt"), []byte(content), 0o644)
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v] [-version=X.Y.Z]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  build    Build curator for the host platform")
	fmt.Println("  test     Run all tests with the race detector")
	fmt.Println("  clean    Remove build artifacts")
	fmt.Println("  release  Cross-compile release binaries into dist/")
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorCyan, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}
