// Package network discovers devices on the local network from the OS
// neighbor table and reports connectivity and throughput estimates.
package network

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkozlowski/homehub/internal/model"
)

var (
	ipPattern  = regexp.MustCompile(`\(([0-9]{1,3}(?:\.[0-9]{1,3}){3})\)`)
	macPattern = regexp.MustCompile(`(?:[0-9a-fA-F]{2}[:-]){5}[0-9a-fA-F]{2}`)
)

// Reconcile parses the raw neighbor-table text and merges each
// discovered (ip, mac) pair against the known-device identity table.
// Lines missing an IP or MAC are skipped, repeated MACs are collapsed
// to their first occurrence, and output order is scan-encounter order.
// Unknown hardware addresses get a synthesized name and type "unknown".
func Reconcile(rawNeighborTable string, known []model.KnownDevice) []model.Device {
	byMAC := make(map[string]model.KnownDevice, len(known))
	for _, d := range known {
		byMAC[NormalizeMAC(d.MACAddress)] = d
	}

	devices := []model.Device{}
	seen := make(map[string]bool)

	for _, line := range strings.Split(rawNeighborTable, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		ipMatch := ipPattern.FindStringSubmatch(line)
		mac := macPattern.FindString(line)
		if ipMatch == nil || mac == "" {
			continue
		}

		mac = NormalizeMAC(mac)
		if seen[mac] {
			continue
		}
		seen[mac] = true

		device := model.Device{
			MACAddress: mac,
			IPAddress:  ipMatch[1],
			Status:     "active",
		}

		if identity, ok := byMAC[mac]; ok {
			device.ID = identity.ID
			device.Name = identity.Name
			device.DeviceType = identity.DeviceType
		} else {
			n := len(devices) + 1
			device.ID = int64(n)
			device.Name = fmt.Sprintf("Device-%d", n)
			device.DeviceType = "unknown"
		}

		devices = append(devices, device)
	}

	return devices
}

// NormalizeMAC converts a hardware address to uppercase colon-separated
// form, the canonical key for identity lookups.
func NormalizeMAC(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(mac, "-", ":"))
}
