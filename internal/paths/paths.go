package paths

import (
	"os"
	"path/filepath"
)

// DataDirEnv overrides the default data directory
const DataDirEnv = "REVUE_DATA_DIR"

// GetDataDir returns the revue data directory.
// Precedence: explicit flag value > REVUE_DATA_DIR > ~/.revue
func GetDataDir(flagValue string) (string, error) {
	if flagValue != "" {
		return filepath.Abs(flagValue)
	}
	if env := os.Getenv(DataDirEnv); env != "" {
		return filepath.Abs(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".revue"), nil
}

// EnsureDataDir creates the data directory if needed
func EnsureDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetLogsDir returns <dataDir>/logs
func GetLogsDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// EnsureLogsDir creates <dataDir>/logs
func EnsureLogsDir(dataDir string) (string, error) {
	dir := GetLogsDir(dataDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetStoreLogPath returns the path for storage and repository logs
func GetStoreLogPath(dataDir string) string {
	return filepath.Join(GetLogsDir(dataDir), "revue.log")
}

// GetOperatorLogPath returns the path for operator alerts
func GetOperatorLogPath(dataDir string) string {
	return filepath.Join(GetLogsDir(dataDir), "operator.log")
}

// GetBackupsDir returns <dataDir>/backups
func GetBackupsDir(dataDir string) string {
	return filepath.Join(dataDir, "backups")
}
