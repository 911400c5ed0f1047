package network

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkozlowski/homehub/internal/model"
)

func TestReconcileKnownDevice(t *testing.T) {
	raw := "? (192.168.1.5) at AA:BB:CC:DD:EE:FF [ether] on eth0"
	known := []model.KnownDevice{
		{ID: 7, MACAddress: "AA:BB:CC:DD:EE:FF", Name: "Laptop", DeviceType: "laptop"},
	}

	devices := Reconcile(raw, known)
	require.Len(t, devices, 1)
	assert.Equal(t, model.Device{
		ID:         7,
		Name:       "Laptop",
		MACAddress: "AA:BB:CC:DD:EE:FF",
		IPAddress:  "192.168.1.5",
		DeviceType: "laptop",
		Status:     "active",
	}, devices[0])
}

func TestReconcileUnknownDeviceGetsSynthesizedIdentity(t *testing.T) {
	raw := "? (10.0.0.9) at 11:22:33:44:55:66 [ether] on wlan0"

	devices := Reconcile(raw, nil)
	require.Len(t, devices, 1)
	assert.EqualValues(t, 1, devices[0].ID)
	assert.Equal(t, "Device-1", devices[0].Name)
	assert.Equal(t, "unknown", devices[0].DeviceType)
	assert.Equal(t, "active", devices[0].Status)
}

func TestReconcileNormalizesMAC(t *testing.T) {
	raw := "? (10.0.0.2) at aa-bb-cc-dd-ee-01 [ether] on eth0"
	known := []model.KnownDevice{
		{ID: 3, MACAddress: "aa:bb:cc:dd:ee:01", Name: "NAS", DeviceType: "storage"},
	}

	devices := Reconcile(raw, known)
	require.Len(t, devices, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", devices[0].MACAddress)
	assert.Equal(t, "NAS", devices[0].Name)
}

func TestReconcileSkipsMalformedLines(t *testing.T) {
	raw := `
? (192.168.1.5) at AA:BB:CC:DD:EE:FF [ether] on eth0
no addresses on this line at all
? (192.168.1.6) at <incomplete> on eth0
just-a-mac AA:BB:CC:DD:EE:00 without ip

? (192.168.1.7) at 11:22:33:44:55:66 [ether] on eth0
`

	devices := Reconcile(raw, nil)
	require.Len(t, devices, 2)
	assert.Equal(t, "192.168.1.5", devices[0].IPAddress)
	assert.Equal(t, "192.168.1.7", devices[1].IPAddress)
}

func TestReconcileDeduplicatesByMAC(t *testing.T) {
	raw := `? (192.168.1.5) at AA:BB:CC:DD:EE:FF [ether] on eth0
? (192.168.1.99) at aa:bb:cc:dd:ee:ff [ether] on eth1`

	devices := Reconcile(raw, nil)
	require.Len(t, devices, 1)
	assert.Equal(t, "192.168.1.5", devices[0].IPAddress)
}

func TestReconcilePreservesScanOrder(t *testing.T) {
	var raw string
	for i := 0; i < 5; i++ {
		raw += fmt.Sprintf("? (10.0.0.%d) at 00:00:00:00:00:0%d [ether] on eth0\n", i+1, i)
	}

	devices := Reconcile(raw, nil)
	require.Len(t, devices, 5)
	for i, d := range devices {
		assert.Equal(t, fmt.Sprintf("10.0.0.%d", i+1), d.IPAddress)
		assert.Equal(t, fmt.Sprintf("Device-%d", i+1), d.Name)
		assert.EqualValues(t, i+1, d.ID)
	}
}

func TestReconcileMixedKnownAndUnknown(t *testing.T) {
	raw := `? (192.168.1.5) at AA:BB:CC:DD:EE:FF [ether] on eth0
? (192.168.1.6) at 11:22:33:44:55:66 [ether] on eth0
? (192.168.1.7) at 22:33:44:55:66:77 [ether] on eth0`
	known := []model.KnownDevice{
		{ID: 7, MACAddress: "AA:BB:CC:DD:EE:FF", Name: "Laptop", DeviceType: "laptop"},
	}

	devices := Reconcile(raw, known)
	require.Len(t, devices, 3)
	assert.Equal(t, "Laptop", devices[0].Name)
	// Synthesized names count every produced device, known ones included.
	assert.Equal(t, "Device-2", devices[1].Name)
	assert.Equal(t, "Device-3", devices[2].Name)
}

func TestReconcileEmptyInput(t *testing.T) {
	devices := Reconcile("", nil)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", NormalizeMAC("aa-bb-cc-dd-ee-ff"))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", NormalizeMAC("aa:bb:cc:dd:ee:ff"))
}
