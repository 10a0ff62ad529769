// Package discovery finds Smart-IP devices with a one-shot multicast DNS
// query.
//
// A search opens one UDP socket on the chosen interface, joins the mDNS
// group, sends a single PTR question for the service type and listens for a
// fixed window. Every answer that arrives in that window is decoded and fed
// to a Correlator, which merges PTR, SRV, TXT and A records into one Device
// per service instance, whatever order and whatever message they came in.
//
// # Usage Example
//
//	cfg := discovery.DefaultConfig()
//	cfg.LocalInterfaceAddress = "192.168.1.10"
//
//	devices, err := discovery.Search(ctx, cfg)
//	if err != nil {
//	    fmt.Println(discovery.GetTroubleshootingHint(err))
//	    return err
//	}
//	for _, d := range devices {
//	    fmt.Println(d.String())
//	}
//
// SearchAsync runs the same session in the background and calls a function
// with the result. OnFound reports devices as they are updated.
//
// # Session Lifecycle
//
// A Session moves Idle → Bound → Listening → Closed and never goes back.
// Bind and join failures are returned to the caller. Send failures, malformed
// datagrams and socket teardown problems are logged and do not end the
// search. The deadline, a cancelled context or Stop all close the session,
// and the result is delivered exactly once.
//
// # Network Requirements
//
// - The interface must be up and support multicast
// - Devices must be on the same link (queries are not routed)
// - Firewall must allow mDNS (UDP port 5353)
package discovery
