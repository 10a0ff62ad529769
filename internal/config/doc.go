// Package config provides user configuration management for smartip.
//
// A YAML file stores the default search settings (interface, service type,
// multicast group, port and timeout) and nicknames for devices seen in
// earlier scans. Command-line flags always override stored values.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/smartip/config.yaml or $HOME/.config/smartip/config.yaml
//   - macOS: $HOME/.config/smartip/config.yaml
//   - Windows: %LOCALAPPDATA%\smartip\config.yaml
//
// SMARTIP_CONFIG overrides the location.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := registry.Search.Apply(discovery.Config{})
//	devices, err := discovery.Search(ctx, cfg)
//	...
//	registry.RecordScan(devices, time.Now())
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are serialised by a mutex and go through a rename.
package config
