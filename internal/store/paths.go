package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/deskflow/internal/config"
)

const (
	lockFileName     = "deskflow.lock"
	snapshotFileName = "actions.json"
	auditFileName    = "audit.jsonl"
	vectorDirName    = "vectors"
)

// ResolveDataDir resolves the configured data directory.
// If empty, it falls back to ~/.deskflow/data.
func ResolveDataDir(dataDir string) (string, error) {
	if trimmed := strings.TrimSpace(dataDir); trimmed != "" {
		return config.ExpandPath(trimmed)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, config.DefaultStoreDataDirRelativeToHome), nil
}

// Paths are the files deskflow keeps under its data directory.
type Paths struct {
	DataDir   string
	Lock      string
	Snapshot  string
	Audit     string
	VectorDir string
}

func ResolvePaths(dataDir string) (Paths, error) {
	dir, err := ResolveDataDir(dataDir)
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		DataDir:   dir,
		Lock:      filepath.Join(dir, lockFileName),
		Snapshot:  filepath.Join(dir, snapshotFileName),
		Audit:     filepath.Join(dir, auditFileName),
		VectorDir: filepath.Join(dir, vectorDirName),
	}, nil
}

// Or returns configured when set, else fallback.
func Or(configured, fallback string) string {
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	return fallback
}
