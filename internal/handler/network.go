package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleNetworkStatus reports connectivity, throughput estimates and
// general network information.
func (h *Handler) HandleNetworkStatus(c echo.Context) error {
	if _, ok := identity(c); !ok {
		return unauthorized(c)
	}

	return c.JSON(http.StatusOK, h.collector.Collect(c.Request().Context()))
}

// HandleDevices runs a device discovery scan and returns the
// reconciled device list.
func (h *Handler) HandleDevices(c echo.Context) error {
	if _, ok := identity(c); !ok {
		return unauthorized(c)
	}

	devices, err := h.devices.Devices(c.Request().Context())
	if err != nil {
		log.Printf("Error: Failed to fetch devices: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch devices"})
	}

	return c.JSON(http.StatusOK, devices)
}
