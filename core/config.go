package core

import (
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/sirupsen/logrus"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between event queue polls
	// in milliseconds
	EventPollDelay int
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	DebugMode  bool
	Extensions []string
	Layers     []string

	// Logger receives forwarded validation layer messages.
	// When nil the logrus standard logger is used.
	Logger logrus.FieldLogger
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	SwapchainSize    uint32
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	// ShaderDirectory points to a directory of compiled .spv shaders
	ShaderDirectory string

	// ShaderArchive points to a .par archive of compiled shaders,
	// takes precedence over ShaderDirectory when set
	ShaderArchive string

	// Shaders serves embedded shader blobs, takes precedence
	// over both paths when set
	Shaders ShaderSource
}

// DefaultConfiguration returns the configuration the engine
// starts from before environment and flag overrides.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  50,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:   800,
			ScreenHeight:  600,
			SwapchainSize: 3,
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			ShaderDirectory: "./shaders",
		},
	}
}

// FromEnv applies PULSE_* environment overrides on top of c.
// Unparseable values are ignored and the existing setting kept.
func (c Configuration) FromEnv() Configuration {
	if v, err := strconv.Atoi(envy.Get("PULSE_FPS", "")); err == nil {
		c.Time.FramesPerSecond = v
	}
	if v, err := strconv.ParseUint(envy.Get("PULSE_WIDTH", ""), 10, 32); err == nil {
		c.Renderer.ScreenWidth = uint32(v)
	}
	if v, err := strconv.ParseUint(envy.Get("PULSE_HEIGHT", ""), 10, 32); err == nil {
		c.Renderer.ScreenHeight = uint32(v)
	}
	if v, err := strconv.ParseBool(envy.Get("PULSE_VKDBG", "")); err == nil {
		c.Instance.DebugMode = v
	}
	if v := envy.Get("PULSE_SHADER_DIR", ""); v != "" {
		c.Renderer.ShaderDirectory = v
	}
	if v := envy.Get("PULSE_SHADER_ARCHIVE", ""); v != "" {
		c.Renderer.ShaderArchive = v
	}
	return c
}
