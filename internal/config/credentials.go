package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	devacerrors "github.com/devac/devac/internal/errors"
)

// HubCredentialManager resolves the federation hub's auth token through a
// priority chain: environment variable, OS keychain (stub — see
// keyring.go), config file, interactive prompt — the same chain shape used
// for API-key loaders elsewhere in this codebase, applied here to the
// hub's optional auth token instead.
type HubCredentialManager struct {
	mode       DeploymentMode
	keyring    *KeyringManager
	configPath string
}

// HubCredentials holds the hub's persisted auth token, when stored to a
// config file instead of the keychain.
type HubCredentials struct {
	HubAuthToken string `yaml:"hub_auth_token"`
}

// NewHubCredentialManager creates a credential manager for the hub's auth
// token.
func NewHubCredentialManager() *HubCredentialManager {
	mode := DetectMode()
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".config", "devac", "credentials.yaml")

	return &HubCredentialManager{
		mode:       mode,
		keyring:    NewKeyringManager(),
		configPath: configPath,
	}
}

// GetAuthToken retrieves the hub's auth token using the priority chain. An
// empty, nil-error return means no token is configured, which is valid:
// the hub runs without auth by default.
func (cm *HubCredentialManager) GetAuthToken() (string, error) {
	if token := os.Getenv("DEVAC_HUB_AUTH_TOKEN"); token != "" {
		return token, nil
	}

	if cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetHubAuthToken(); err == nil && token != "" {
			return token, nil
		}
	}

	if creds, err := cm.loadConfigFile(); err == nil && creds.HubAuthToken != "" {
		return creds.HubAuthToken, nil
	}

	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Println("\nNo hub auth token configured (optional).")
		fmt.Print("Enter hub auth token, or press Enter to skip: ")
		token, _ := cm.readLine()
		if token != "" {
			return token, nil
		}
	}

	return "", nil
}

// SaveCredentials persists the hub's auth token to the keychain, falling
// back to the config file when no keychain backend is available.
func (cm *HubCredentialManager) SaveCredentials(creds HubCredentials) error {
	if cm.keyring.IsAvailable() {
		if creds.HubAuthToken != "" {
			if err := cm.keyring.SetHubAuthToken(creds.HubAuthToken); err != nil {
				return devacerrors.Wrap(err, devacerrors.Input, "failed to save hub auth token to keychain")
			}
		}
		return nil
	}
	return cm.saveConfigFile(creds)
}

func (cm *HubCredentialManager) loadConfigFile() (*HubCredentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}
	var creds HubCredentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (cm *HubCredentialManager) saveConfigFile(creds HubCredentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(cm.configPath, data, 0600)
}

// readLine reads one line from stdin. It doesn't suppress terminal echo:
// no real keychain backend is wired (keyring.go), so there is nothing in
// this build that justifies the extra golang.org/x/term dependency for
// masked input.
func (cm *HubCredentialManager) readLine() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// GetMode returns the deployment mode the manager detected.
func (cm *HubCredentialManager) GetMode() DeploymentMode {
	return cm.mode
}

// GetConfigPath returns the path to the credentials file.
func (cm *HubCredentialManager) GetConfigPath() string {
	return cm.configPath
}

// HasCredentials reports whether a hub auth token is configured anywhere
// in the priority chain.
func (cm *HubCredentialManager) HasCredentials() bool {
	if os.Getenv("DEVAC_HUB_AUTH_TOKEN") != "" {
		return true
	}
	if cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetHubAuthToken(); err == nil && token != "" {
			return true
		}
	}
	if creds, err := cm.loadConfigFile(); err == nil && creds.HubAuthToken != "" {
		return true
	}
	return false
}
