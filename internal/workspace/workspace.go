// Package workspace maps users to isolated upload, result, and temp
// directories and keeps them from filling the disk.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/config"
)

// finalOutputRes name the output patterns the sweep must never delete.
// Extraction snapshots carry a timestamp and may carry a trailing user id.
var finalOutputRes = []*regexp.Regexp{
	regexp.MustCompile(`^Cleaned_`),
	regexp.MustCompile(`^Merged_`),
	regexp.MustCompile(`^phone_extraction_\d{8}_\d{6}.*\.csv$`),
	regexp.MustCompile(`_with_bcpa_owners\.csv$`),
}

// Manager owns the per-user directory layout under one root.
type Manager struct {
	cfg config.WorkspaceConfig
}

// NewManager builds a workspace manager.
func NewManager(cfg config.WorkspaceConfig) *Manager {
	return &Manager{cfg: cfg}
}

// UploadsDir returns (and creates on first use) the user's upload dir.
func (m *Manager) UploadsDir(uid string) (string, error) {
	return m.ensure("uploads", uid)
}

// ResultsDir returns (and creates on first use) the user's results dir.
func (m *Manager) ResultsDir(uid string) (string, error) {
	return m.ensure("results", uid)
}

// TempDir returns (and creates on first use) the user's temp dir.
func (m *Manager) TempDir(uid string) (string, error) {
	return m.ensure("temp", uid)
}

func (m *Manager) ensure(kind, uid string) (string, error) {
	dir := filepath.Join(m.cfg.Root, kind, uid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "workspace: create %s dir", kind)
	}
	return dir, nil
}

// CleanupBatchFiles removes temp batch files whose names embed the user id.
// Called after a successful download of a final output.
func (m *Manager) CleanupBatchFiles(uid string) error {
	dir, err := m.TempDir(uid)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrap(err, "workspace: read temp dir")
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), uid) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			zap.L().Warn("batch file removal failed",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		zap.L().Info("batch files cleaned",
			zap.String("uid", uid), zap.Int("removed", removed))
	}
	return nil
}

// Sweep deletes files older than the retention window from every per-user
// directory, sparing final outputs.
func (m *Manager) Sweep(now time.Time) error {
	cutoff := now.Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour)
	removed := 0

	for _, kind := range []string{"uploads", "results", "temp"} {
		root := filepath.Join(m.cfg.Root, kind)
		users, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return eris.Wrapf(err, "workspace: read %s", kind)
		}
		for _, user := range users {
			if !user.IsDir() {
				continue
			}
			dir := filepath.Join(root, user.Name())
			files, err := os.ReadDir(dir)
			if err != nil {
				zap.L().Warn("sweep skipped dir", zap.String("dir", dir), zap.Error(err))
				continue
			}
			for _, f := range files {
				if f.IsDir() || IsFinalOutput(f.Name()) {
					continue
				}
				info, err := f.Info()
				if err != nil || !info.ModTime().Before(cutoff) {
					continue
				}
				if err := os.Remove(filepath.Join(dir, f.Name())); err != nil {
					zap.L().Warn("sweep removal failed",
						zap.String("file", f.Name()), zap.Error(err))
					continue
				}
				removed++
			}
		}
	}

	zap.L().Info("workspace sweep complete", zap.Int("removed", removed))
	return nil
}

// RunSweeper sweeps on the configured interval until the context ends.
func (m *Manager) RunSweeper(ctx context.Context) {
	interval := time.Duration(m.cfg.SweepEveryHours) * time.Hour
	if interval <= 0 {
		interval = 168 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := m.Sweep(now); err != nil {
				zap.L().Error("workspace sweep failed", zap.Error(err))
			}
		}
	}
}

// IsFinalOutput reports whether a filename is a user-facing output the
// retention sweep must preserve.
func IsFinalOutput(name string) bool {
	for _, re := range finalOutputRes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
