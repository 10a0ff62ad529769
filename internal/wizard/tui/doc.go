// Package tui implements the interactive discovery wizard for smartip.
//
// The wizard is a full-screen Bubble Tea program following the Elm
// architecture: every screen is a model with Update and View, and AppModel
// coordinates the transitions between them.
//
// # Screen Flow
//
//  1. Setup:
//     - Pick the IPv4 interface to search on (multicast-capable, up,
//       not loopback)
//     - Confirm or edit the service type (default "_smart_ip._tcp")
//
//  2. Discovery:
//     - Runs one search and lists devices as they are found
//     - A progress bar fills towards the search deadline
//     - Afterwards: browse devices, open details, rescan, or return to
//       the interface picker
//
// The setup screen is skipped when the caller already knows the interface
// and offers no alternatives.
//
// # Framework Components
//
//   - bubbles/spinner and bubbles/progress: scan progress
//   - bubbles/textinput: service type entry
//   - bubbles/list: discovered devices with filtering
//   - bubbles/help and bubbles/key: context-sensitive key help
//   - lipgloss: styling and layout
//
// All screens use RenderApplicationContainer for the shared header, footer
// and border.
//
// # Usage Example
//
//	ifaces, _ := netif.List()
//	final, err := tui.Run(tui.Options{
//	    Config:     discovery.DefaultConfig(),
//	    Interfaces: netif.IPv4Candidates(ifaces),
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(final.Devices()), "devices")
//
// # Testing
//
// Options.Search replaces discovery.Search, so models can be driven through
// Update in tests without touching the network.
package tui
