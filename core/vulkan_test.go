package core_test

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/pulse3d/pulse/core"
)

func TestSurfaceDefaultsToNull(t *testing.T) {
	var instance core.VulkanInstance
	if instance.Surface() != vk.NullSurface {
		t.Error("unset surface must be the null surface")
	}
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
