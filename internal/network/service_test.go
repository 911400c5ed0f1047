package network

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkozlowski/homehub/internal/config"
	"github.com/mkozlowski/homehub/internal/db"
	"github.com/mkozlowski/homehub/internal/model"
)

type fakeSource struct {
	output string
	err    error
	calls  int
}

func (f *fakeSource) Neighbors(ctx context.Context) (string, error) {
	f.calls++
	return f.output, f.err
}

func setupDeviceService(t *testing.T, source NeighborSource) (*Service, *db.DB) {
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "test.db")}
	database, err := db.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewService(database, source, 16, time.Minute), database
}

func TestDevicesMergesAgainstIdentityTable(t *testing.T) {
	source := &fakeSource{
		output: "? (192.168.1.5) at AA:BB:CC:DD:EE:FF [ether] on eth0",
	}
	svc, database := setupDeviceService(t, source)
	ctx := context.Background()

	require.NoError(t, database.InsertKnownDevice(ctx, &model.KnownDevice{
		MACAddress: "AA:BB:CC:DD:EE:FF", Name: "Laptop", DeviceType: "laptop",
	}))

	devices, err := svc.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Laptop", devices[0].Name)
	assert.Equal(t, "192.168.1.5", devices[0].IPAddress)
}

func TestDevicesScanFailureYieldsEmptyList(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("arp: command not found")}
	svc, _ := setupDeviceService(t, source)

	devices, err := svc.Devices(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}

func TestDevicesRepeatedScansDoNotDuplicate(t *testing.T) {
	source := &fakeSource{
		output: "? (10.0.0.2) at 11:22:33:44:55:66 [ether] on eth0",
	}
	svc, _ := setupDeviceService(t, source)
	ctx := context.Background()

	first, err := svc.Devices(ctx)
	require.NoError(t, err)
	second, err := svc.Devices(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second, 1)
}

func TestKnownDevicesAreCached(t *testing.T) {
	source := &fakeSource{output: ""}
	svc, database := setupDeviceService(t, source)
	ctx := context.Background()

	_, err := svc.knownDevices(ctx)
	require.NoError(t, err)

	// A row added after the first load is invisible until the TTL lapses.
	require.NoError(t, database.InsertKnownDevice(ctx, &model.KnownDevice{
		MACAddress: "AA:BB:CC:DD:EE:FF", Name: "Laptop", DeviceType: "laptop",
	}))

	known, err := svc.knownDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, known)
}

func TestCollectorDNSServer(t *testing.T) {
	resolv := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(resolv, []byte("# comment\nnameserver 192.168.1.1\nnameserver 8.8.8.8\n"), 0o644))

	c := NewCollector("8.8.8.8:53", "https://api.ipify.org", &fakeSource{})
	c.resolvConf = resolv

	server, err := c.dnsServer()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", server)
}

func TestCountNeighborLines(t *testing.T) {
	raw := "line one\n\n  \nline two\n"
	assert.Equal(t, 2, countNeighborLines(raw))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0 days, 0 hours", formatUptime(59))
	assert.Equal(t, "1 days, 2 hours", formatUptime(86400+2*3600+120))
}
