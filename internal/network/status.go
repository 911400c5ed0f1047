package network

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	gopsutilhost "github.com/shirou/gopsutil/v4/host"
	gopsutilnet "github.com/shirou/gopsutil/v4/net"
)

const unknown = "unknown"

// Status is the network overview shown on the dashboard.
type Status struct {
	DownloadSpeed    float64 `json:"download_speed"`
	UploadSpeed      float64 `json:"upload_speed"`
	ConnectedDevices int     `json:"connected_devices"`
	Status           string  `json:"status"`
	Uptime           string  `json:"uptime"`
	ExternalIP       string  `json:"external_ip"`
	DNSServer        string  `json:"dns_server"`
}

// Collector gathers the network status from OS telemetry. Every probe
// degrades to a fallback value on its own; Collect never fails as a whole.
type Collector struct {
	probeAddress  string
	externalIPURL string
	source        NeighborSource
	client        *http.Client
	resolvConf    string
}

// NewCollector creates a status collector. probeAddress is the TCP
// endpoint dialed to decide online/offline; externalIPURL is a service
// returning the caller's public IP as plain text.
func NewCollector(probeAddress, externalIPURL string, source NeighborSource) *Collector {
	return &Collector{
		probeAddress:  probeAddress,
		externalIPURL: externalIPURL,
		source:        source,
		client:        &http.Client{Timeout: 3 * time.Second},
		resolvConf:    "/etc/resolv.conf",
	}
}

// Collect assembles the current network status.
func (c *Collector) Collect(ctx context.Context) Status {
	status := Status{
		Status:     "OFFLINE",
		Uptime:     unknown,
		ExternalIP: unknown,
		DNSServer:  unknown,
	}

	if counters, err := gopsutilnet.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		// Rough throughput estimate from cumulative interface counters.
		status.DownloadSpeed = roundMbps(counters[0].BytesRecv)
		status.UploadSpeed = roundMbps(counters[0].BytesSent)
	}

	if conn, err := net.DialTimeout("tcp", c.probeAddress, 3*time.Second); err == nil {
		conn.Close()
		status.Status = "ONLINE"
	}

	if uptime, err := gopsutilhost.UptimeWithContext(ctx); err == nil {
		status.Uptime = formatUptime(uptime)
	}

	if ip, err := c.externalIP(ctx); err == nil {
		status.ExternalIP = ip
	}

	if server, err := c.dnsServer(); err == nil {
		status.DNSServer = server
	}

	if raw, err := c.source.Neighbors(ctx); err == nil {
		status.ConnectedDevices = countNeighborLines(raw)
	} else {
		log.Printf("Warning: Neighbor scan failed during status collection: %v", err)
	}

	return status
}

func (c *Collector) externalIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.externalIPURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("external IP lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Collector) dnsServer() (string, error) {
	data, err := os.ReadFile(c.resolvConf)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "nameserver" {
			return fields[1], nil
		}
	}
	return "", fmt.Errorf("no nameserver entry")
}

func countNeighborLines(raw string) int {
	count := 0
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

func roundMbps(bytes uint64) float64 {
	mbps := float64(bytes) / 1024 / 1024 * 8
	return math.Round(mbps*10) / 10
}

func formatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	return fmt.Sprintf("%d days, %d hours", days, hours)
}
