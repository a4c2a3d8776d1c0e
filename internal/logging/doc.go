// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"device": "debug",   // Per-module overrides
//			"daemon": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("device")
//	logger.Info("Device opened", "path", path)
//	logger.Debug("Feature report", "id", reportID, "len", len(data))
//	logger.Warn("Write failed, reopening", "error", err)
//	logger.Error("Device lost", "error", err)
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t ite5570d              # All daemon logs
//	journalctl -t ite5570d -f           # Follow live
//	journalctl -t ite5570d --since "5m" # Last 5 minutes
//	journalctl -t ite5570d -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t ite5570d MODULE=device
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	device = "debug"
//	daemon = "warn"
package logging
