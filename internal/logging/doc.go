// Package logging provides structured logging for smartip.
//
// This package wraps a package-global zap logger. It is silent by default so
// CLI output stays clean; set SMARTIP_LOG_LEVEL (or pass --log-level) to see
// diagnostics.
//
// # Log Levels
//
//   - Debug: Datagram hex dumps, state transitions, per-record correlation
//   - Info: Query sent, search completed
//   - Warn: Dropped datagrams, send failures, teardown errors
//   - Error: Bind and multicast-join failures
//
// # Usage
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
//	log := logging.Named("discovery")
//	log.Info("Query sent", zap.String("service", "_smart_ip._tcp.local"))
//
// Malformed datagrams can be dumped with LogRawBytes:
//
//	logging.LogRawBytes(log, "Dropped datagram", buf)
//
// # Thread Safety
//
// Logging functions are safe for concurrent use. Initialize and SetLogger are
// meant to be called once at startup (or from tests) before logging starts.
package logging
