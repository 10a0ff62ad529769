// Package ui provides terminal output components for the smartip CLI.
//
// Unlike the interactive wizard, these components follow a "run once and
// exit" pattern:
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, warning and failure boxes with troubleshooting tips
//   - Device rendering: detailed blocks, a compact table, JSON and YAML
//   - ScanModel: a Bubble Tea view of a running search (spinner, a bar
//     filling towards the deadline, devices as they are found)
//
// # Usage Pattern
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Device Scan", "smartip scan",
//	    ui.Param{Key: "Interface", Value: "192.168.1.10"})
//
//	devices, err := ui.RunScan(ctx, os.Stdout, "Searching...", cfg)
//	if err != nil {
//	    p.PrintError("Scan failed", err, ui.HintLines(discovery.GetTroubleshootingHint(err)))
//	    return err
//	}
//	return p.PrintDevices(devices, ui.FormatDetailed, nil)
//
// # Logging Integration
//
// Logging is controlled by SMARTIP_LOG_LEVEL. When it is unset, zap logging
// is silent so the styled output stays clean.
package ui
