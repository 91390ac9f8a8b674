// build.go - tsgen build system
// Usage: go run build.go [-target=TARGET]
// Targets: all, tsgen, server, clean, test, release

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

const module = "tsgen"

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
	OutDir  string
}

var (
	rootDir string
	distDir string

	// Executables (key = directory under cmd/, value = output name)
	executables = map[string]string{
		"tsgen":        "tsgen",
		"tsgen-server": "tsgen-server",
	}

	releaseTargets = []string{"linux/amd64", "linux/arm64", "darwin/arm64", "windows/amd64"}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s; run from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorYellow, colorBlue, colorCyan = "", "", "", "", "", ""
	}

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{
		Verbose: *verbose,
		GOOS:    runtime.GOOS,
		GOARCH:  runtime.GOARCH,
		OutDir:  distDir,
	}

	switch *target {
	case "all":
		buildAll(ctx)
	case "tsgen":
		buildExecutable("tsgen", ctx)
	case "server", "tsgen-server":
		buildExecutable("tsgen-server", ctx)
	case "clean":
		clean(ctx.Verbose)
	case "test":
		runTests(ctx.Verbose)
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "         tsgen - Build System              " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

// Build all executables and copy the sample configuration
func buildAll(ctx *BuildContext) {
	printInfo("Building all components...")

	if err := checkPrerequisites(); err != nil {
		printError(fmt.Sprintf("Prerequisites check failed: %v", err))
		os.Exit(1)
	}
	if err := os.MkdirAll(ctx.OutDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", ctx.OutDir, err))
		os.Exit(1)
	}

	for name := range executables {
		buildExecutable(name, ctx)
	}
	copyAssets(ctx.OutDir, ctx.Verbose)

	printSuccess("All components built successfully!")
}

func buildExecutable(name string, ctx *BuildContext) {
	exeName, ok := executables[name]
	if !ok {
		printError(fmt.Sprintf("Unknown executable: %s", name))
		os.Exit(1)
	}
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}

	printInfo(fmt.Sprintf("Building %s (%s/%s)...", name, ctx.GOOS, ctx.GOARCH))
	outputPath := filepath.Join(ctx.OutDir, exeName)

	ldflags := fmt.Sprintf("-s -w -X %s/pkg/contracts.BuildTime=%s -X %s/pkg/contracts.GitCommit=%s",
		module, time.Now().UTC().Format(time.RFC3339), module, gitCommit())

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH, "CGO_ENABLED=0")
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
}

// Cross-compile every executable into dist/<os>_<arch>
func buildRelease(ctx *BuildContext) {
	printInfo("Building release...")
	clean(ctx.Verbose)
	runTests(ctx.Verbose)

	for _, target := range releaseTargets {
		goos, goarch, _ := strings.Cut(target, "/")
		rc := &BuildContext{
			Verbose: ctx.Verbose,
			GOOS:    goos,
			GOARCH:  goarch,
			OutDir:  filepath.Join(distDir, goos+"_"+goarch),
		}
		if err := os.MkdirAll(rc.OutDir, 0755); err != nil {
			printError(fmt.Sprintf("Failed to create %s: %v", rc.OutDir, err))
			os.Exit(1)
		}
		for name := range executables {
			buildExecutable(name, rc)
		}
		copyAssets(rc.OutDir, ctx.Verbose)
	}
	printSuccess("Release built in " + distDir)
}

// Clean build artifacts
func clean(verbose bool) {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		return
	}
	if verbose {
		fmt.Printf("  Removed %s\n", distDir)
	}
	printSuccess("Build artifacts cleaned")
}

// Run tests
func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func checkPrerequisites() error {
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("go is not installed or not in PATH")
	}
	return nil
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// copyAssets copies the sample config and scenarios next to the binaries
func copyAssets(dest string, verbose bool) {
	assets := []string{
		filepath.Join("configs", "tsgen.yaml"),
		filepath.Join("scenarios", "retail.yaml"),
		filepath.Join("scenarios", "seasonal.json"),
	}
	for _, rel := range assets {
		src := filepath.Join(rootDir, rel)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			printWarning(fmt.Sprintf("Asset not found: %s", rel))
			continue
		}
		if err := copyFile(src, filepath.Join(dest, rel)); err != nil {
			printError(fmt.Sprintf("Failed to copy %s: %v", rel, err))
			os.Exit(1)
		}
		if verbose {
			fmt.Printf("  Copied %s\n", rel)
		}
	}
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all      Build tsgen and tsgen-server into dist/ (default)")
	fmt.Println("  tsgen    Build the command-line generator")
	fmt.Println("  server   Build the HTTP server")
	fmt.Println("  clean    Remove dist/")
	fmt.Println("  test     Run go test -race ./...")
	fmt.Println("  release  Test, then cross-compile for " + strings.Join(releaseTargets, ", "))
}
