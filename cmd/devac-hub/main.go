package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devac/devac/internal/config"
	"github.com/devac/devac/internal/federation"
	"github.com/devac/devac/internal/logging"
	"github.com/devac/devac/internal/model"
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
	Use:     "devac-hub",
	Short:   "Manage the federation hub's repo registry and diagnostics",
	Version: Version,
}

var dbPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Hub database path (defaults to config's hub.db_path)")
	rootCmd.AddCommand(registerCmd, unregisterCmd, listCmd, diagnosticsCmd)
	rootCmd.SetVersionTemplate(`devac-hub {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

func openHub(readOnly bool) (*federation.Hub, error) {
	logging.Initialize(logging.DefaultConfig(false))

	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	path := dbPath
	if path == "" {
		path = cfg.Hub.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no hub db path configured; pass --db-path or set hub.db_path")
	}
	return federation.Init(path, readOnly, nil)
}

var (
	repoID       string
	localPath    string
	manifestHash string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register or update a repository in the hub",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub, err := openHub(false)
		if err != nil {
			return err
		}
		defer hub.Close()

		return hub.AddRepo(model.RepoRegistration{
			RepoID:       repoID,
			LocalPath:    localPath,
			ManifestHash: manifestHash,
			Status:       model.RepoActive,
		})
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Remove a repository and every cross-repo edge touching it",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub, err := openHub(false)
		if err != nil {
			return err
		}
		defer hub.Close()

		if err := hub.RemoveRepo(repoID); err != nil {
			return fmt.Errorf("repository %q not found. Run 'devac-hub list' to see registered repos: %w", repoID, err)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub, err := openHub(true)
		if err != nil {
			return err
		}
		defer hub.Close()

		repos, err := hub.ListRepos()
		if err != nil {
			return err
		}
		for _, r := range repos {
			fmt.Printf("%-30s %-10s %s\n", r.RepoID, r.Status, r.LocalPath)
		}
		return nil
	},
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Summarize the hub's unified diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		hub, err := openHub(true)
		if err != nil {
			return err
		}
		defer hub.Close()

		counts, err := hub.Counts()
		if err != nil {
			return err
		}
		for severity, n := range counts {
			fmt.Printf("%-10s %d\n", severity, n)
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&repoID, "repo-id", "", "Repository id (required)")
	registerCmd.Flags().StringVar(&localPath, "local-path", "", "Local filesystem path (required)")
	registerCmd.Flags().StringVar(&manifestHash, "manifest-hash", "", "Manifest hash recorded at registration time")
	registerCmd.MarkFlagRequired("repo-id")
	registerCmd.MarkFlagRequired("local-path")

	unregisterCmd.Flags().StringVar(&repoID, "repo-id", "", "Repository id (required)")
	unregisterCmd.MarkFlagRequired("repo-id")
}
