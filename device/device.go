package device

import vk "github.com/vulkan-go/vulkan"

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Type          string
	Discrete      bool
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        vk.DeviceSize
}

// Device describes a non-concrete rendering device
type Device interface {
	PhysicalDevices() []PhysicalDeviceInfo
	Instance() interface{}
	Destroy()
}

// Preferred returns the index of the device the renderer would run on,
// the first discrete gpu when one exists, otherwise the first device.
// Returns -1 when the list is empty.
func Preferred(devices []PhysicalDeviceInfo) int {
	if len(devices) == 0 {
		return -1
	}
	for idx, d := range devices {
		if d.Discrete && !d.Invalid {
			return idx
		}
	}
	return 0
}
