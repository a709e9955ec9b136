package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devac/devac/internal/logging"
	"github.com/devac/devac/internal/queryengine"
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
	Use:     "devac-query",
	Short:   "Execute SQL against a set of package seed partitions",
	Version: Version,
	RunE:    runQuery,
}

var (
	packages []string
	branch   string
	sqlText  string
)

func init() {
	rootCmd.Flags().StringSliceVar(&packages, "package", nil, "Package directory to include (repeatable, required)")
	rootCmd.Flags().StringVar(&branch, "branch", "", "Branch overlay to read (\"\" means base)")
	rootCmd.Flags().StringVar(&sqlText, "sql", "", "SQL to execute against {nodes}/{edges}/{external_refs}/{effects} (required)")

	rootCmd.MarkFlagRequired("package")
	rootCmd.MarkFlagRequired("sql")

	rootCmd.SetVersionTemplate(`devac-query {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

func runQuery(cmd *cobra.Command, args []string) error {
	logging.Initialize(logging.DefaultConfig(false))
	defer logging.Close()

	readiness := queryengine.CheckReadiness(packages, branch)
	if !readiness.Ready {
		return fmt.Errorf("%s. %s", readiness.Reason, readiness.Suggestion)
	}

	engine, err := queryengine.New(queryengine.DefaultConfig(), nil)
	if err != nil {
		return fmt.Errorf("starting query engine: %w", err)
	}
	defer engine.Close()

	if _, err := engine.SetupViews(packages, branch); err != nil {
		return fmt.Errorf("setting up views: %w", err)
	}

	ctx := context.Background()
	rows, err := engine.Execute(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cols, "\t"))

	values := make([]any, len(cols))
	pointers := make([]any, len(cols))
	for i := range values {
		pointers[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return err
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(parts, "\t"))
		count++
	}

	fmt.Fprintf(os.Stderr, "%d row(s)\n", count)
	return nil
}
