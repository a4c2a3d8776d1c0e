package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/itetools/ite5570d/internal/logging"
	"github.com/itetools/ite5570d/internal/systemd"
	"github.com/itetools/ite5570d/internal/version"
)

// Service checks for and applies binary updates.
type Service struct {
	repository selfupdate.Repository
	updater    *selfupdate.Updater
	backup     *backupManager

	mu          sync.RWMutex
	state       State
	latest      *selfupdate.Release
	lastChecked *time.Time
	lastError   error

	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// NewService creates an updater. When the binary's directory is not
// writable the service still constructs but reports itself disabled, so
// status queries keep working on read-only installs.
func NewService(opts Options) (*Service, error) {
	logger := logging.GetLogger("updater")

	if canWrite, reason := checkWritePermission(); !canWrite {
		logger.Warn("Update service disabled", "reason", reason)
		return &Service{
			enabled:        false,
			disabledReason: reason,
			state:          StateIdle,
			logger:         logger,
		}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backup, err := newBackupManager(logger)
	if err != nil {
		logger.Warn("Failed to create backup manager", "error", err)
	}

	return &Service{
		repository: selfupdate.ParseSlug(opts.Repository),
		updater:    updater,
		backup:     backup,
		state:      StateIdle,
		enabled:    true,
		logger:     logger,
	}, nil
}

func checkWritePermission() (bool, string) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Sprintf("failed to get executable path: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return false, fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)
	tmp := filepath.Join(dir, ".ite5570d.update.test")
	f, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(tmp)
	return true, ""
}

// IsEnabled returns whether the update service is operational.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// DisabledReason returns why the update service is disabled, empty when
// enabled.
func (s *Service) DisabledReason() string {
	return s.disabledReason
}

// CheckForUpdate queries GitHub for the latest release and compares it
// against the current version without downloading anything.
func (s *Service) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	if !s.enabled {
		return nil, newError(ErrCodeDisabled, s.disabledReason, nil)
	}
	s.setState(StateChecking)

	currentVersion := version.Version

	release, found, err := s.updater.DetectLatest(ctx, s.repository)
	if err != nil {
		s.setError(err)
		return nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastChecked = &now
	s.mu.Unlock()

	if !found {
		err := fmt.Errorf("repository not found or has no releases")
		s.setError(err)
		return nil, newError(ErrCodeCheckFailed, err.Error(), nil)
	}

	// A dev build is always considered outdated
	isNewer := currentVersion == "dev" || release.GreaterThan(currentVersion)
	if !isNewer {
		s.setState(StateIdle)
		return &UpdateInfo{
			CurrentVersion:  currentVersion,
			LatestVersion:   release.Version(),
			UpdateAvailable: false,
		}, nil
	}

	s.mu.Lock()
	s.latest = release
	s.mu.Unlock()
	s.setState(StateAvailable)

	return &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		AssetSize:       release.AssetByteSize,
		UpdateAvailable: true,
	}, nil
}

// ApplyUpdate downloads and installs the latest release over the current
// binary, backing the old one up first. A failed install restores the
// backup.
func (s *Service) ApplyUpdate(ctx context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	if s.getState() != StateAvailable {
		info, err := s.CheckForUpdate(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "no update available", nil)
		}
	}

	if s.backup != nil {
		if err := s.backup.createBackup(); err != nil {
			s.setError(err)
			return newError(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}
	s.setState(StateApplying)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		s.setError(err)
		s.attemptRollback()
		return newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	s.mu.RLock()
	release := s.latest
	s.mu.RUnlock()

	if err := s.updater.UpdateTo(ctx, release, exe); err != nil {
		s.setError(err)
		s.attemptRollback()
		return newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	s.setState(StateRestarting)
	s.logger.Info("Update applied", "version", release.Version())
	return nil
}

// Rollback restores the previously backed up binary.
func (s *Service) Rollback(_ context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}
	if s.backup == nil || !s.backup.hasBackup() {
		return newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}
	if err := s.backup.restore(); err != nil {
		return newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}
	s.setState(StateRolledBack)
	s.logger.Info("Rollback completed")
	return nil
}

// Restart restarts the daemon so the new binary takes over. Under systemd
// the unit is restarted over D-Bus; otherwise the running process gets a
// SIGTERM and relies on its supervisor.
func (s *Service) Restart(ctx context.Context) error {
	mgr, err := systemd.NewManager(ctx)
	if err == nil {
		defer mgr.Close()
		s.logger.Info("Restarting unit", "unit", systemd.UnitName)
		if restartErr := mgr.RestartService(ctx, systemd.UnitName); restartErr == nil {
			return nil
		} else {
			s.logger.Warn("Unit restart failed, falling back to SIGTERM", "error", restartErr)
		}
	} else {
		s.logger.Debug("No system bus, falling back to SIGTERM", "error", err)
	}

	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		return fmt.Errorf("failed to find own process: %w", err)
	}
	return proc.Signal(syscall.SIGTERM)
}

// GetStatus returns the current update state, version info, and backup
// availability.
func (s *Service) GetStatus(_ context.Context) *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := &Status{
		State:          s.state,
		CurrentVersion: version.Version,
		LastChecked:    s.lastChecked,
	}
	if s.latest != nil {
		status.TargetVersion = s.latest.Version()
	}
	if s.lastError != nil {
		status.Error = s.lastError.Error()
	}
	if s.backup != nil {
		status.BackupAvailable = s.backup.hasBackup()
		status.BackupVersion = s.backup.backupVersion()
	}
	return status
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("State transition", "from", s.state, "to", state)
	s.state = state
	s.lastError = nil
}

func (s *Service) getState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) setError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.state = StateError
	s.mu.Unlock()
}

func (s *Service) attemptRollback() {
	if s.backup == nil || !s.backup.hasBackup() {
		s.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := s.backup.restore(); err != nil {
		s.logger.Error("Failed to restore backup", "error", err)
		return
	}
	s.setState(StateRolledBack)
	s.logger.Info("Automatic rollback completed")
}
