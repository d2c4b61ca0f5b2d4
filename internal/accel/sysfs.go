package accel

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
)

// PCIDevice is an NVIDIA display-class PCI device found in sysfs.
type PCIDevice struct {
	Slot   string
	PCIID  string
	Driver string
}

const nvidiaVendorPattern = "(?i)^10de:"

// ScanPCIDevices walks the sysfs device tree for NVIDIA display controllers.
// A device without a bound driver is still reported; that usually means the
// kernel module is missing.
func ScanPCIDevices() ([]PCIDevice, error) {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{
			"SUBSYSTEM": "^pci$",
			"PCI_ID":    nvidiaVendorPattern,
			"PCI_CLASS": "^3",
		},
	})

	queue := make(chan crawler.Device)
	errs := make(chan error, 8)
	quit := crawler.ExistingDevices(queue, errs, rules)
	defer close(quit)

	return collectPCIDevices(queue, errs)
}

// collectPCIDevices drains the crawler. The crawler stops walking at its first
// error and sends it before closing queue, so the devices returned alongside
// an error may be incomplete.
func collectPCIDevices(queue <-chan crawler.Device, errs <-chan error) ([]PCIDevice, error) {
	var devices []PCIDevice
	for dev := range queue {
		devices = append(devices, pciDeviceFromEnv(dev.KObj, dev.Env))
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Slot < devices[j].Slot })

	select {
	case err := <-errs:
		if err != nil {
			return devices, fmt.Errorf("sysfs walk stopped early: %w", err)
		}
	default:
	}
	return devices, nil
}

func pciDeviceFromEnv(kobj string, env map[string]string) PCIDevice {
	slot := env["PCI_SLOT_NAME"]
	if slot == "" {
		slot = filepath.Base(kobj)
	}
	return PCIDevice{
		Slot:   slot,
		PCIID:  strings.ToUpper(env["PCI_ID"]),
		Driver: env["DRIVER"],
	}
}
