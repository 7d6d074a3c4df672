package core

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
)

func TestDefaultConfiguration(t *testing.T) {
	c := qt.New(t)

	cfg := DefaultConfiguration()
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Renderer.SwapchainSize, qt.Equals, uint32(3))
	c.Assert(cfg.Renderer.DeviceExtensions, qt.DeepEquals, []string{"VK_KHR_swapchain"})
	c.Assert(cfg.Instance.DebugMode, qt.Equals, false)
}

func TestFromEnv(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		envy.Set("PULSE_FPS", "144")
		envy.Set("PULSE_WIDTH", "1920")
		envy.Set("PULSE_HEIGHT", "1080")
		envy.Set("PULSE_VKDBG", "true")
		envy.Set("PULSE_SHADER_ARCHIVE", "resources.par")

		cfg := DefaultConfiguration().FromEnv()
		c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 144)
		c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(1920))
		c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(1080))
		c.Assert(cfg.Instance.DebugMode, qt.Equals, true)
		c.Assert(cfg.Renderer.ShaderArchive, qt.Equals, "resources.par")
	})
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		envy.Set("PULSE_FPS", "fast")
		envy.Set("PULSE_WIDTH", "-5")

		cfg := DefaultConfiguration().FromEnv()
		c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
		c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(800))
	})
}
