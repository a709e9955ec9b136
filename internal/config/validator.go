package config

import (
	"fmt"
	"strings"

	devacerrors "github.com/devac/devac/internal/errors"
)

// ValidationContext specifies which module's configuration is required for
// a given operation.
type ValidationContext string

const (
	// ValidationContextIngest — devac-ingest needs a workspace root and
	// seed locking settings.
	ValidationContextIngest ValidationContext = "ingest"
	// ValidationContextResolve — devac-resolve needs the resolver timeout.
	ValidationContextResolve ValidationContext = "resolve"
	// ValidationContextQuery — devac-query needs the query engine pool.
	ValidationContextQuery ValidationContext = "query"
	// ValidationContextHub — devac-hub needs the hub's db path.
	ValidationContextHub ValidationContext = "hub"
	// ValidationContextAll validates every section.
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError records a validation failure.
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a non-fatal validation concern.
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors reports whether the result carries any errors.
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error renders the validation result as a multi-line message.
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}
	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}
	return sb.String()
}

// Validate validates configuration for the given context with the
// auto-detected deployment mode.
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	return c.ValidateWithMode(ctx, DetectMode())
}

// ValidateWithMode validates configuration for ctx under an explicit mode.
func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextIngest:
		c.validateStorage(result)
		c.validateSeed(result)
	case ValidationContextResolve:
		c.validateResolver(result)
	case ValidationContextQuery:
		c.validateQueryEngine(result)
	case ValidationContextHub:
		c.validateHub(result, mode)
	case ValidationContextAll:
		c.validateStorage(result)
		c.validateSeed(result)
		c.validateResolver(result)
		c.validateQueryEngine(result)
		c.validateHub(result, mode)
	}

	return result
}

// ValidateOrFatal validates configuration and panics with a typed error if
// invalid (auto-detects mode).
func (c *Config) ValidateOrFatal(ctx ValidationContext) {
	c.ValidateOrFatalWithMode(ctx, DetectMode())
}

// ValidateOrFatalWithMode validates configuration with an explicit mode
// and panics with a typed error if invalid.
func (c *Config) ValidateOrFatalWithMode(ctx ValidationContext, mode DeploymentMode) {
	result := c.ValidateWithMode(ctx, mode)
	if result.HasErrors() {
		panic(devacerrors.New(devacerrors.Input, result.Error()))
	}
}

func (c *Config) validateStorage(result *ValidationResult) {
	if c.Storage.WorkspaceRoot == "" {
		result.AddError("storage.workspace_root is required but not set")
	}
}

func (c *Config) validateSeed(result *ValidationResult) {
	if c.Seed.LockTimeout <= 0 {
		result.AddWarning("seed.lock_timeout is invalid, will use default (30s)")
	}
	if c.Seed.StaleLockAge <= 0 {
		result.AddWarning("seed.stale_lock_age is invalid, will use default (10m)")
	}
	if c.Seed.StaleLockAge < c.Seed.LockTimeout {
		result.AddError("seed.stale_lock_age must be >= seed.lock_timeout")
	}
}

func (c *Config) validateQueryEngine(result *ValidationResult) {
	if c.QueryEngine.ConnectionPoolSize <= 0 {
		result.AddWarning("query_engine.connection_pool_size is invalid, will use default (4)")
	}
	if c.QueryEngine.MemoryLimitMB <= 0 {
		result.AddWarning("query_engine.memory_limit_mb is invalid, will use default (512)")
	}
}

func (c *Config) validateResolver(result *ValidationResult) {
	if c.Resolver.PackageTimeout <= 0 {
		result.AddWarning("resolver.package_timeout is invalid, will use default (30s)")
	}
}

func (c *Config) validateHub(result *ValidationResult, mode DeploymentMode) {
	if c.Hub.DBPath == "" {
		result.AddError("hub.db_path is required but not set")
	}
	if c.Hub.CacheTTLDefault < 0 {
		result.AddWarning("hub.cache_ttl_default_seconds is negative, will use default (300)")
	}
	if mode.RequiresSecureCredentials() && c.Hub.AuthToken == "" {
		result.AddWarning("hub.auth_token is not set; the hub will run without auth in %s mode", mode)
	}
}

// RequireWorkspaceRoot checks that a workspace root is configured and
// returns a typed error if not.
func (c *Config) RequireWorkspaceRoot() error {
	if c.Storage.WorkspaceRoot == "" {
		return devacerrors.New(devacerrors.Input, "storage.workspace_root is required")
	}
	return nil
}

// RequireHubDBPath checks that the hub's database path is configured and
// returns a typed error if not.
func (c *Config) RequireHubDBPath() error {
	if c.Hub.DBPath == "" {
		return devacerrors.New(devacerrors.Input, "hub.db_path is required")
	}
	return nil
}
