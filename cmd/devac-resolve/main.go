package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devac/devac/internal/config"
	"github.com/devac/devac/internal/logging"
	"github.com/devac/devac/internal/resolver"
	"github.com/devac/devac/internal/resolver/csharp"
	"github.com/devac/devac/internal/resolver/python"
	"github.com/devac/devac/internal/resolver/typescript"
	"github.com/devac/devac/internal/seed"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "devac-resolve",
	Short:   "Rebind unresolved refs and edges to concrete entity_ids",
	Version: Version,
	RunE:    runResolve,
}

var (
	packageDir string
	language   string
	branch     string
	verbose    bool
)

func init() {
	rootCmd.Flags().StringVar(&packageDir, "package-dir", "", "Package directory to resolve (required)")
	rootCmd.Flags().StringVar(&language, "language", "", "typescript, python, or csharp (required)")
	rootCmd.Flags().StringVar(&branch, "branch", "", "Branch partition to resolve (\"\" means base)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.MarkFlagRequired("package-dir")
	rootCmd.MarkFlagRequired("language")

	rootCmd.SetVersionTemplate(`devac-resolve {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

func newLanguageResolver(language string) (resolver.LanguageResolver, error) {
	switch language {
	case "typescript":
		return typescript.New(), nil
	case "python":
		return python.New(), nil
	case "csharp":
		return csharp.New(), nil
	default:
		return nil, fmt.Errorf("unsupported --language %q (want typescript, python, or csharp)", language)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	logCfg := logging.DebugConfig()
	if !verbose {
		logCfg = logging.DefaultConfig(false)
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	lr, err := newLanguageResolver(language)
	if err != nil {
		return err
	}

	reader := seed.NewReader(packageDir, branch)
	if !reader.HasSeed() {
		return fmt.Errorf("no seed found under %s; run devac-ingest first", packageDir)
	}

	resolution, err := lr.ResolvePackage(packageDir, branch, reader)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", packageDir, err)
	}

	writer := seed.NewWriter(seed.WriterConfig{
		PackageDir:      packageDir,
		Branch:          branch,
		WriterID:        "devac-resolve",
		LockTimeout:     cfg.Seed.LockTimeout,
		StaleLockMaxAge: cfg.Seed.StaleLockAge,
	})
	if err := resolver.ApplyRefResolutions(writer, resolution.ResolvedRefs); err != nil {
		return fmt.Errorf("applying resolved refs: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing resolved refs: %w", err)
	}

	logging.Info("resolve complete",
		"package", packageDir,
		"total", resolution.Total,
		"resolved", resolution.Resolved,
		"unresolved", resolution.Unresolved,
		"elapsed_ms", resolution.TimeMs)

	for _, e := range resolution.Errors {
		fmt.Fprintf(os.Stderr, "resolution error: %s\n", e)
	}

	fmt.Printf("Resolved %d/%d refs (%d unresolved) in %dms\n",
		resolution.Resolved, resolution.Total, resolution.Unresolved, resolution.TimeMs)
	return nil
}
