//go:build ignore

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/protocol"
)

// CapturedDatagram is one line of a capture file. Plain lines holding only
// hex are accepted too.
type CapturedDatagram struct {
	Timestamp  string `json:"timestamp"`
	RemoteAddr string `json:"remote_addr"`
	PayloadHex string `json:"payload_hex"`
}

// Statistics tracks parsing results
type Statistics struct {
	TotalDatagrams int
	TotalFiles     int
	ParseSuccess   int
	ParseFailure   int
	Responses      int
	RecordTypes    map[string]int
	FailedMessages []FailedMessage
	PayloadLengths map[int]int
}

// FailedMessage stores information about parsing failures
type FailedMessage struct {
	File       string
	LineNumber int
	PayloadHex string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_parser <directory-or-file> [service]")
		fmt.Println("Example: validate_parser captures/")
		fmt.Println("         validate_parser capture-20251121-104043.jsonl _smart_ip._tcp")
		os.Exit(1)
	}

	path := os.Args[1]
	service := discovery.DefaultServiceName
	if len(os.Args) > 2 {
		service = os.Args[2]
	}

	stats := Statistics{
		RecordTypes:    make(map[string]int),
		PayloadLengths: make(map[int]int),
	}
	correlator := discovery.NewCorrelator(protocol.QueryName(service))

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.jsonl"))
		if err != nil {
			fmt.Printf("Error finding JSONL files: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No JSONL files found in %s\n", path)
			os.Exit(1)
		}
	} else {
		files = []string{path}
	}

	fmt.Printf("=== Smart-IP Parser Validator ===\n")
	fmt.Printf("Files to process: %d\n", len(files))
	fmt.Printf("Service domain:   %s\n\n", correlator.FullServiceName())

	for _, file := range files {
		processFile(file, &stats, correlator)
	}

	printStatistics(&stats, correlator.Snapshot())
}

func processFile(filename string, stats *Statistics, correlator *discovery.Correlator) {
	stats.TotalFiles++

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}

	for lineNum, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var dg CapturedDatagram
		if strings.HasPrefix(line, "{") {
			if err := json.Unmarshal([]byte(line), &dg); err != nil {
				fmt.Printf("Error parsing JSON in %s line %d: %v\n", filename, lineNum+1, err)
				continue
			}
		} else {
			dg.PayloadHex = strings.ReplaceAll(line, " ", "")
		}

		stats.TotalDatagrams++
		fail := func(msg string) {
			stats.ParseFailure++
			stats.FailedMessages = append(stats.FailedMessages, FailedMessage{
				File:       filename,
				LineNumber: lineNum + 1,
				PayloadHex: dg.PayloadHex,
				Error:      msg,
			})
		}

		payload, err := hex.DecodeString(dg.PayloadHex)
		if err != nil {
			fail(fmt.Sprintf("hex decode error: %v", err))
			continue
		}
		stats.PayloadLengths[len(payload)]++

		msg, err := protocol.DecodeMessage(payload)
		if err != nil {
			fail(err.Error())
			continue
		}

		stats.ParseSuccess++
		if msg.Header.IsResponse() {
			stats.Responses++
		}
		for _, rec := range msg.Records {
			stats.RecordTypes[protocol.TypeName(rec.Type)]++
		}
		correlator.ApplyMessage(msg)
	}
}

func printStatistics(stats *Statistics, devices []discovery.Device) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	total := stats.TotalDatagrams
	if total == 0 {
		total = 1
	}
	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Total Datagrams:    %d\n", stats.TotalDatagrams)
	fmt.Printf("Parse Success:      %d (%.2f%%)\n", stats.ParseSuccess, float64(stats.ParseSuccess)/float64(total)*100)
	fmt.Printf("Parse Failure:      %d (%.2f%%)\n", stats.ParseFailure, float64(stats.ParseFailure)/float64(total)*100)
	fmt.Printf("Responses:          %d\n", stats.Responses)

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("RECORD TYPE DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	types := make([]string, 0, len(stats.RecordTypes))
	for t := range stats.RecordTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("%-8s %d\n", t, stats.RecordTypes[t])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("PAYLOAD LENGTH DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	lengths := make([]int, 0, len(stats.PayloadLengths))
	for l := range stats.PayloadLengths {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)
	for _, l := range lengths {
		fmt.Printf("%d bytes: %d datagrams\n", l, stats.PayloadLengths[l])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("CORRELATED DEVICES (%d)\n", len(devices))
	fmt.Printf("----------------------------------------\n")
	for _, d := range devices {
		fmt.Printf("%s\n", d.String())
	}

	if len(stats.FailedMessages) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("PARSE FAILURES (%d total)\n", len(stats.FailedMessages))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.FailedMessages) > maxShow {
			fmt.Printf("(Showing first %d of %d failures)\n\n", maxShow, len(stats.FailedMessages))
		}

		for i, failed := range stats.FailedMessages {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s (line %d)\n", failed.File, failed.LineNumber)
			fmt.Printf("  Error: %s\n", failed.Error)
			hexPreview := failed.PayloadHex
			if len(hexPreview) > 80 {
				hexPreview = hexPreview[:80] + "..."
			}
			fmt.Printf("  Payload: %s\n", hexPreview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.ParseFailure == 0 {
		fmt.Printf("✅ SUCCESS: All datagrams parsed successfully!\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d datagrams failed to parse\n", stats.ParseFailure)
	}
	fmt.Printf("========================================\n")
}
