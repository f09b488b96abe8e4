package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Scopes accepted by Run.
const (
	ScopeProject = "project"
	ScopeUser    = "user"
)

// serveCommand is the subcommand an MCP client launches.
const serveCommand = "serve"

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Options configures a registration.
type Options struct {
	Scope string
	// Directory holds the project's .mcp.json; ignored for the user scope.
	Directory  string
	ServerName string
	// ServerArgs are appended after "serve", e.g. --input and --output.
	ServerArgs []string
	// BinaryPath defaults to the running executable.
	BinaryPath string
}

// Run writes or updates the server entry and returns the config path.
func Run(options Options) (string, error) {
	if options.Scope != ScopeProject && options.Scope != ScopeUser {
		return "", fmt.Errorf("unknown scope %q (must be %q or %q)", options.Scope, ScopeProject, ScopeUser)
	}
	if options.ServerName == "" {
		options.ServerName = DeriveServerName(os.Args[0])
	}

	binaryPath := options.BinaryPath
	if binaryPath == "" {
		var err error
		if binaryPath, err = detectBinaryPath(); err != nil {
			return "", err
		}
	}

	configPath, err := resolveConfigPath(options.Scope, options.Directory)
	if err != nil {
		return "", err
	}

	entry := buildEntry(binaryPath, options.ServerArgs)
	if err := writeConfig(configPath, options.ServerName, entry); err != nil {
		return "", err
	}
	return configPath, nil
}

// DeriveServerName extracts a server name from a binary path by stripping
// .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope string, directory string) (string, error) {
	if scope == ScopeProject {
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

// buildEntry launches "<binary> serve <args>", through cmd /C on Windows.
func buildEntry(binaryPath string, serverArgs []string) mcpServerEntry {
	args := append([]string{serveCommand}, serverArgs...)
	if runtime.GOOS == "windows" {
		return mcpServerEntry{
			Command: "cmd",
			Args:    append([]string{"/C", binaryPath}, args...),
		}
	}
	return mcpServerEntry{
		Command: binaryPath,
		Args:    args,
	}
}

// writeConfig merges the entry into configPath, creating the file when it
// does not exist yet.
func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	existing, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}
	merged, err := mergeServerEntry(existing, serverName, entry)
	if err != nil {
		return fmt.Errorf("updating %s: %w", configPath, err)
	}
	return replaceFile(configPath, merged)
}

// mergeServerEntry sets mcpServers[serverName] in a client config document
// and keeps every other key. Empty input starts a new document.
func mergeServerEntry(existing []byte, serverName string, entry mcpServerEntry) ([]byte, error) {
	config := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("parsing existing config: %w", err)
		}
	}

	servers := map[string]any{}
	if raw, ok := config["mcpServers"]; ok {
		if servers, ok = raw.(map[string]any); !ok {
			return nil, errors.New("mcpServers is not an object")
		}
	}
	servers[serverName] = entry
	config["mcpServers"] = servers

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return append(output, '\n'), nil
}

// replaceFile writes data next to path and renames it into place, so a
// client never reads a half-written config.
func replaceFile(path string, data []byte) (err error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err = tmpFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
