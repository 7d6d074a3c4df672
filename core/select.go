package core

import (
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilyIndices holds the resolved queue family for each role.
// Both indices must resolve or initialisation fails, there is no
// degraded mode without a graphics-and-present capable family.
type QueueFamilyIndices struct {
	Graphics uint32
	Transfer uint32
}

// queueFamily is the policy-relevant slice of vk.QueueFamilyProperties
type queueFamily struct {
	flags vk.QueueFlags
	count uint32
}

// resolveQueueFamilies picks a family per role from the enumerated
// properties. The graphics role takes the first family that advertises
// the graphics bit and presents to the surface. The transfer role
// prefers a dedicated family (transfer without graphics); any dedicated
// candidate overwrites the previous pick, so the final selection is the
// last dedicated family, or the first transfer-capable one overall.
func resolveQueueFamilies(families []queueFamily, presents func(index uint32) bool) (QueueFamilyIndices, error) {
	var (
		indices       QueueFamilyIndices
		graphicsFound bool
		transferFound bool
	)
	for i, family := range families {
		index := uint32(i)
		if family.count == 0 {
			continue
		}
		if !graphicsFound &&
			family.flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 &&
			presents(index) {
			indices.Graphics = index
			graphicsFound = true
		}
		if family.flags&vk.QueueFlags(vk.QueueTransferBit) != 0 {
			if !transferFound || family.flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
				indices.Transfer = index
				transferFound = true
			}
		}
	}
	if !graphicsFound || !transferFound {
		return QueueFamilyIndices{}, ErrNoSuitableQueueFamily
	}
	return indices, nil
}

// findQueueFamilies resolves queue family roles against the live device
func findQueueFamilies(physicalDevice vk.PhysicalDevice, surface vk.Surface) (QueueFamilyIndices, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, queueFamilies)

	families := make([]queueFamily, queueFamilyCount)
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		families[i] = queueFamily{
			flags: queueFamilies[i].QueueFlags,
			count: queueFamilies[i].QueueCount,
		}
	}

	return resolveQueueFamilies(families, func(index uint32) bool {
		var supported vk.Bool32
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(physicalDevice, index, surface, &supported)); err != nil {
			return false
		}
		return supported.B()
	})
}

// pickDeviceIndex prefers the first discrete GPU; when none qualifies
// it falls back to the first enumerated device regardless of kind.
func pickDeviceIndex(kinds []vk.PhysicalDeviceType) (int, error) {
	if len(kinds) == 0 {
		return 0, ErrNoDevices
	}
	for i, kind := range kinds {
		if kind == vk.PhysicalDeviceTypeDiscreteGpu {
			return i, nil
		}
	}
	return 0, nil
}

// SelectPhysicalDevice applies the device selection policy over the
// instance's enumerated devices. An empty device list is not
// recoverable and the process cannot continue.
func SelectPhysicalDevice(instance Instance) (vk.PhysicalDevice, error) {
	devices := instance.AvailableDevices()
	kinds := make([]vk.PhysicalDeviceType, len(devices))
	for i, device := range devices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(device, &properties)
		properties.Deref()
		kinds[i] = properties.DeviceType
	}
	index, err := pickDeviceIndex(kinds)
	if err != nil {
		return nil, err
	}
	return devices[index], nil
}
