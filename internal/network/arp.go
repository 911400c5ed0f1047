package network

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// NeighborSource supplies the OS's current neighbor cache as raw text.
type NeighborSource interface {
	Neighbors(ctx context.Context) (string, error)
}

const arpTimeout = 5 * time.Second

// ARPSource reads the neighbor table by invoking `arp -a`.
type ARPSource struct{}

func (ARPSource) Neighbors(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, arpTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		return "", fmt.Errorf("arp scan: %w", err)
	}
	return string(out), nil
}
