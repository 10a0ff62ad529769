package main

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/smartip/internal/config"
	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/logging"
	"github.com/muurk/smartip/internal/netif"
	"github.com/muurk/smartip/internal/ui"
	"github.com/muurk/smartip/internal/wizard/tui"
)

// Scan command flags
var (
	scanInterface string
	scanService   string
	scanMulticast string
	scanPort      int
	scanTimeout   time.Duration
	outputFormat  string
	watchFound    bool
	remember      bool
	showAll       bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(wizardCmd)
}

// scanCmd runs one search and prints the result
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Search the network for Smart-IP devices",
	Long: `Search for Smart-IP devices using multicast DNS.

A single PTR question is sent from the selected interface and answers are
collected until the timeout. Devices are printed in the order they were
first announced. Press Ctrl-C to stop early; what was found so far is
still printed.

Values not given as flags come from the config file (see 'smartip config
show'), then from the built-in defaults.`,
	Example: `  # Search on the interface saved in the config file
  smartip scan

  # Search on a specific interface for 10 seconds
  smartip scan --interface 192.168.1.10 --timeout 10s

  # Interface by name, JSON output for scripting
  smartip scan -i eth0 --format json

  # Print devices as they answer
  smartip scan --watch`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanInterface, "interface", "i", "", "IPv4 address or name of the interface to search on")
	scanCmd.Flags().StringVar(&scanService, "service", "", "Service type (default "+discovery.DefaultServiceName+")")
	scanCmd.Flags().StringVar(&scanMulticast, "multicast", "", "Multicast group (default "+discovery.DefaultMulticastAddress+")")
	scanCmd.Flags().IntVar(&scanPort, "port", 0, "Multicast port (default "+strconv.Itoa(discovery.DefaultPort)+")")
	scanCmd.Flags().DurationVarP(&scanTimeout, "timeout", "t", 0, "How long to collect answers (default "+discovery.DefaultTimeout.String()+")")
	scanCmd.Flags().StringVarP(&outputFormat, "format", "f", string(ui.FormatDetailed), "Output format (detailed, compact, json, yaml)")
	scanCmd.Flags().BoolVarP(&watchFound, "watch", "w", false, "Print each device as soon as it is found")
	scanCmd.Flags().BoolVar(&remember, "remember", false, "Save the interface and found devices to the config file")
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := ui.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	reg := loadRegistry()
	cfg, err := scanConfig(reg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := ui.NewPrinter(out)
	human := !format.Structured()

	if human {
		p.PrintHeader("Device Scan", "smartip scan",
			ui.Param{Key: "Interface", Value: cfg.LocalInterfaceAddress},
			ui.Param{Key: "Service", Value: cfg.FullServiceName()},
			ui.Param{Key: "Group", Value: net.JoinHostPort(cfg.MulticastAddress, strconv.Itoa(cfg.Port))},
			ui.Param{Key: "Timeout", Value: cfg.Timeout.String()},
		)
	}

	var devices []discovery.Device
	if human && !watchFound && ui.IsTerminal() {
		devices, err = ui.RunScan(cmd.Context(), out, "Searching for "+cfg.FullServiceName(), cfg)
	} else {
		var opts []discovery.Option
		if watchFound {
			notify := cmd.ErrOrStderr()
			if human {
				notify = out
			}
			opts = append(opts, discovery.OnFound(func(d discovery.Device) {
				fmt.Fprintf(notify, "  %s %s\n", ui.DeviceMarker, d.String())
			}))
		}
		devices, err = discovery.Search(cmd.Context(), cfg, opts...)
	}

	if err != nil {
		if human {
			p.PrintError("Scan failed", err, ui.HintLines(discovery.GetTroubleshootingHint(err)))
		}
		return err
	}

	if remember {
		reg.SetInterface(cfg.LocalInterfaceAddress)
		reg.RecordScan(devices, time.Now())
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	if !human {
		return p.PrintDevices(devices, format, reg.Nickname)
	}

	p.Newline()
	if err := p.PrintDevices(devices, format, reg.Nickname); err != nil {
		return err
	}
	p.Newline()

	if len(devices) == 0 {
		p.PrintWarning("No devices found",
			ui.Param{Key: "Hint", Value: "try a longer --timeout or another --interface"},
		)
		return nil
	}
	p.PrintSuccess("Scan complete", ui.Param{Key: "Devices", Value: strconv.Itoa(len(devices))})
	return nil
}

// scanConfig merges flags over the saved preferences and fills in the
// interface when neither names one
func scanConfig(reg *config.Registry, warn io.Writer) (discovery.Config, error) {
	cfg := discovery.Config{
		MulticastAddress: scanMulticast,
		Port:             scanPort,
		ServiceName:      scanService,
		Timeout:          scanTimeout,
	}

	all, err := netif.List()
	if err != nil {
		return cfg, fmt.Errorf("failed to list interfaces: %w", err)
	}

	if scanInterface != "" {
		addr, err := resolveInterface(scanInterface, all)
		if err != nil {
			return cfg, err
		}
		cfg.LocalInterfaceAddress = addr
	}

	cfg = reg.Search.Apply(cfg)

	if cfg.LocalInterfaceAddress == "" {
		ifi, err := defaultInterface(netif.IPv4Candidates(all))
		if err != nil {
			return cfg, err
		}
		cfg.LocalInterfaceAddress = ifi.Address
		logging.Debug("Using only candidate interface", zap.String("interface", ifi.String()))
		fmt.Fprintf(warn, "Warning: no interface configured, using %s (set one with --interface or 'smartip config set-interface')\n", ifi)
	}

	return cfg.WithDefaults(), nil
}

// defaultInterface picks the interface to search on when none is configured.
// A single candidate is used; with several the choice is left to the user.
func defaultInterface(candidates []netif.Interface) (netif.Interface, error) {
	switch len(candidates) {
	case 0:
		return netif.Interface{}, fmt.Errorf("no multicast-capable IPv4 interface is up; use --interface")
	case 1:
		return candidates[0], nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name + " (" + c.Address + ")"
	}
	return netif.Interface{}, fmt.Errorf("no interface configured and several are available: %s; choose one with --interface",
		strings.Join(names, ", "))
}

// resolveInterface accepts an IPv4 address or an interface name and returns
// the address to bind
func resolveInterface(value string, all []netif.Interface) (string, error) {
	if ip := net.ParseIP(value); ip != nil {
		return value, nil
	}
	for _, ifi := range all {
		if ifi.Name == value && ifi.Family == netif.FamilyIPv4 {
			return ifi.Address, nil
		}
	}
	return "", fmt.Errorf("interface %q has no IPv4 address (see 'smartip interfaces')", value)
}

// loadRegistry reads the config file, falling back to defaults so a broken
// file never blocks a scan
func loadRegistry() *config.Registry {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Ignoring config file", zap.Error(err))
		return config.NewRegistry()
	}
	return reg
}

// interfacesCmd lists the local interfaces a search can use
var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List network interfaces usable for discovery",
	Long: `List local network interfaces.

By default only interfaces a search can use are shown: up, multicast
capable, not loopback, with an IPv4 address. Use --all to see every
address.`,
	Example: `  smartip interfaces
  smartip interfaces --all --format json`,
	RunE: runInterfaces,
}

func init() {
	interfacesCmd.Flags().BoolVarP(&showAll, "all", "a", false, "Show every interface address")
	interfacesCmd.Flags().StringVarP(&outputFormat, "format", "f", string(ui.FormatDetailed), "Output format (detailed, compact, json, yaml)")
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	format, err := ui.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	ifaces, err := netif.List()
	if err != nil {
		return fmt.Errorf("failed to list interfaces: %w", err)
	}
	if !showAll {
		ifaces = netif.IPv4Candidates(ifaces)
	}

	return ui.WriteInterfaces(cmd.OutOrStdout(), ifaces, format)
}

// wizardCmd launches the interactive TUI wizard
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive discovery wizard",
	Long: `Launch an interactive TUI wizard:

- Pick the network interface to search on
- Confirm the service type
- Watch devices appear as they answer
- Browse details, rescan, or switch interface

The chosen interface and the devices found are saved to the config file.`,
	Example: `  smartip wizard
  # Or simply (wizard is default):
  smartip`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	reg := loadRegistry()

	all, err := netif.List()
	if err != nil {
		return fmt.Errorf("failed to list interfaces: %w", err)
	}

	final, err := tui.Run(tui.Options{
		Config:     reg.Search.Apply(discovery.Config{}),
		Interfaces: netif.IPv4Candidates(all),
		Nicknames:  reg.Nickname,
	})
	if err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}

	devices := final.Devices()
	chosen := final.Config().LocalInterfaceAddress
	if len(devices) > 0 || (chosen != "" && chosen != reg.Search.Interface) {
		reg.SetInterface(chosen)
		reg.RecordScan(devices, time.Now())
		if err := reg.Save(); err != nil {
			logging.Warn("Failed to save config", zap.Error(err))
		}
	}

	if len(devices) > 0 {
		return ui.NewPrinter(cmd.OutOrStdout()).PrintDevices(devices, ui.FormatCompact, reg.Nickname)
	}
	return nil
}
