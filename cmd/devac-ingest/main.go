package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/devac/devac/internal/config"
	"github.com/devac/devac/internal/logging"
	"github.com/devac/devac/internal/parser"
	"github.com/devac/devac/internal/parser/csharp"
	"github.com/devac/devac/internal/parser/treesitter"
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
	Use:     "devac-ingest",
	Short:   "Parse a package and write its seed partition",
	Version: Version,
	RunE:    runIngest,
}

var (
	packageDir  string
	repoName    string
	packagePath string
	branch      string
	verbose     bool
)

func init() {
	rootCmd.Flags().StringVar(&packageDir, "package-dir", "", "Directory to parse (required)")
	rootCmd.Flags().StringVar(&repoName, "repo", "", "Repository name recorded in entity_ids (required)")
	rootCmd.Flags().StringVar(&packagePath, "package-path", ".", "Package path relative to the repo root")
	rootCmd.Flags().StringVar(&branch, "branch", "", "Branch partition to write (\"\" means base)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.MarkFlagRequired("package-dir")
	rootCmd.MarkFlagRequired("repo")

	rootCmd.SetVersionTemplate(`devac-ingest {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

func runIngest(cmd *cobra.Command, args []string) error {
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
	if err := cfg.RequireWorkspaceRoot(); err != nil {
		return err
	}

	orchestrator := parser.NewOrchestrator(
		parser.DefaultOrchestratorConfig(),
		treesitter.NewECMAScriptParser("javascript"),
		treesitter.NewECMAScriptParser("typescript"),
		treesitter.NewECMAScriptParser("tsx"),
		treesitter.NewPythonParser(),
		csharp.New(),
	)

	start := time.Now()
	ctx := context.Background()
	result, err := orchestrator.ParsePackage(ctx, packageDir, parser.Config{
		RepoName:    repoName,
		PackagePath: packagePath,
		Branch:      branch,
	})
	if err != nil {
		return fmt.Errorf("parsing %s: %w", packageDir, err)
	}

	writer := seed.NewWriter(seed.WriterConfig{
		PackageDir:      packageDir,
		Branch:          branch,
		WriterID:        "devac-ingest",
		LockTimeout:     cfg.Seed.LockTimeout,
		StaleLockMaxAge: cfg.Seed.StaleLockAge,
	})

	for _, pr := range result.Results {
		if err := writer.AddParseResult(pr); err != nil {
			return fmt.Errorf("buffering %s: %w", pr.FilePath, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing seed: %w", err)
	}

	logging.Info("ingest complete",
		"package", packageDir,
		"files", len(result.Results),
		"errors", len(result.Errors),
		"elapsed", time.Since(start))

	for _, fileErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "file error: %v\n", fileErr)
	}

	fmt.Printf("Parsed %d files (%d errors) in %s\n", len(result.Results), len(result.Errors), time.Since(start))
	return nil
}
