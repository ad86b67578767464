package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/creachadair/atomicfile"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

const configHeader = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/escrowd/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.escrowd" by default, but could be changed via $ESCROW_HOME env
# variable or --home cmd flag.

`

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't
// exist.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
			return fmt.Errorf("could not create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ConfigFile returns the path of the config file under rootDir.
func ConfigFile(rootDir string) string {
	return filepath.Join(rootDir, defaultConfigFilePath)
}

// WriteConfigFile encodes config as TOML and writes it to the config file
// under rootDir. This function is called by cmd/escrowd/commands/init.go
func WriteConfigFile(rootDir string, config *Config) error {
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return WriteFileAtomic(ConfigFile(rootDir), buf.Bytes(), 0644)
}

// WriteDefaultConfigFileIfNone writes the default config unless a config
// file already exists.
func WriteDefaultConfigFileIfNone(rootDir string) error {
	if _, err := os.Stat(ConfigFile(rootDir)); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return WriteConfigFile(rootDir, DefaultConfig())
}

// WriteFileAtomic writes data to path so readers observe either the old
// content or the new one, never a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	f, err := atomicfile.New(path, mode)
	if err != nil {
		return err
	}
	defer f.Cancel()

	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Close()
}
