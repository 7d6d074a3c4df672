package core

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

func family(flags vk.QueueFlagBits, count uint32) queueFamily {
	return queueFamily{flags: vk.QueueFlags(flags), count: count}
}

func presentAll(uint32) bool  { return true }
func presentNone(uint32) bool { return false }

func TestResolveQueueFamilies(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name     string
		families []queueFamily
		presents func(uint32) bool
		want     QueueFamilyIndices
		wantErr  error
	}{{
		name: "single family carries both roles",
		families: []queueFamily{
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
		},
		presents: presentAll,
		want:     QueueFamilyIndices{Graphics: 0, Transfer: 0},
	}, {
		name: "graphics role is first match",
		families: []queueFamily{
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
		},
		presents: presentAll,
		want:     QueueFamilyIndices{Graphics: 0, Transfer: 0},
	}, {
		name: "graphics family without present support is skipped",
		families: []queueFamily{
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
		},
		presents: func(index uint32) bool { return index == 1 },
		want:     QueueFamilyIndices{Graphics: 1, Transfer: 0},
	}, {
		name: "dedicated transfer family preferred over graphics one",
		families: []queueFamily{
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
			family(vk.QueueTransferBit, 1),
		},
		presents: presentAll,
		want:     QueueFamilyIndices{Graphics: 0, Transfer: 1},
	}, {
		name: "last dedicated transfer family wins",
		families: []queueFamily{
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
			family(vk.QueueTransferBit, 1),
			family(vk.QueueTransferBit|vk.QueueComputeBit, 1),
		},
		presents: presentAll,
		want:     QueueFamilyIndices{Graphics: 0, Transfer: 2},
	}, {
		name: "families with zero queues are ignored",
		families: []queueFamily{
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 0),
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
			family(vk.QueueTransferBit, 0),
		},
		presents: presentAll,
		want:     QueueFamilyIndices{Graphics: 1, Transfer: 1},
	}, {
		name: "no presentable graphics family is fatal",
		families: []queueFamily{
			family(vk.QueueGraphicsBit|vk.QueueTransferBit, 1),
		},
		presents: presentNone,
		wantErr:  ErrNoSuitableQueueFamily,
	}, {
		name: "no transfer capable family is fatal",
		families: []queueFamily{
			family(vk.QueueGraphicsBit, 1),
		},
		presents: presentAll,
		wantErr:  ErrNoSuitableQueueFamily,
	}, {
		name:     "empty family list is fatal",
		families: nil,
		presents: presentAll,
		wantErr:  ErrNoSuitableQueueFamily,
	}}

	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			got, err := resolveQueueFamilies(test.families, test.presents)
			if test.wantErr != nil {
				c.Assert(err, qt.Equals, test.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, test.want)
		})
	}
}

func TestResolveQueueFamiliesNeverPicksTransferWithoutBit(t *testing.T) {
	c := qt.New(t)

	// every bitmask combination over three families that still resolves
	// must place the transfer role on a family with the transfer bit
	bits := []vk.QueueFlagBits{
		0,
		vk.QueueGraphicsBit,
		vk.QueueTransferBit,
		vk.QueueGraphicsBit | vk.QueueTransferBit,
		vk.QueueComputeBit,
		vk.QueueComputeBit | vk.QueueTransferBit,
	}
	for _, a := range bits {
		for _, b := range bits {
			for _, d := range bits {
				families := []queueFamily{family(a, 1), family(b, 1), family(d, 1)}
				got, err := resolveQueueFamilies(families, presentAll)
				if err != nil {
					continue
				}
				picked := families[got.Transfer]
				c.Assert(picked.flags&vk.QueueFlags(vk.QueueTransferBit) != 0, qt.Equals, true)
				gfx := families[got.Graphics]
				c.Assert(gfx.flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0, qt.Equals, true)
			}
		}
	}
}

func TestPickDeviceIndex(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name    string
		kinds   []vk.PhysicalDeviceType
		want    int
		wantErr error
	}{{
		name:  "first discrete gpu preferred",
		kinds: []vk.PhysicalDeviceType{vk.PhysicalDeviceTypeIntegratedGpu, vk.PhysicalDeviceTypeDiscreteGpu, vk.PhysicalDeviceTypeDiscreteGpu},
		want:  1,
	}, {
		name:  "fallback to first device of any kind",
		kinds: []vk.PhysicalDeviceType{vk.PhysicalDeviceTypeIntegratedGpu, vk.PhysicalDeviceTypeCpu},
		want:  0,
	}, {
		name:  "single virtual gpu still selected",
		kinds: []vk.PhysicalDeviceType{vk.PhysicalDeviceTypeVirtualGpu},
		want:  0,
	}, {
		name:    "empty device list is not recoverable",
		kinds:   nil,
		wantErr: ErrNoDevices,
	}}

	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			got, err := pickDeviceIndex(test.kinds)
			if test.wantErr != nil {
				c.Assert(err, qt.Equals, test.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, test.want)
		})
	}
}
