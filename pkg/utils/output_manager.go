package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles snapshot artifact organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateRunDir creates a per-run directory (<base>/<dashboard>/<runID>) for snapshot artifacts
func (om *OutputManager) CreateRunDir(dashboardID, runID string) (string, error) {
	runDir := filepath.Join(om.BaseOutputDir, filepath.Base(dashboardID), filepath.Base(runID))

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}

	return runDir, nil
}

// GetOutputFilePath generates a full path for an artifact inside a run directory
func (om *OutputManager) GetOutputFilePath(dashboardID, runID, fileName string) (string, error) {
	runDir, err := om.CreateRunDir(dashboardID, runID)
	if err != nil {
		return "", err
	}

	// Clean the filename to remove any path separators
	return filepath.Join(runDir, filepath.Base(fileName)), nil
}

// ExportFileName builds the download name of an export, e.g. shortage_20250107.xlsx
func (om *OutputManager) ExportFileName(dashboardID, stamp, format string) string {
	return fmt.Sprintf("%s_%s.%s", filepath.Base(dashboardID), stamp, strings.TrimPrefix(format, "."))
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xls":
		return "xlsx"
	case ".html", ".htm":
		return "html"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
