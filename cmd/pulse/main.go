package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"unsafe"

	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/pulse3d/pulse/core"
)

func init() {
	runtime.LockOSThread()
}

// Essential globals
var (
	vkInstance core.Instance
	vkRenderer core.Renderer
	sdlWindow  *sdl.Window
	sdlSurface unsafe.Pointer
)

// Profiling and behaviour flags
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	pumpPolicy   = flag.String("pump", "poll", "Event pump policy, poll or wait")
)

var configuration core.Configuration

func newWindow() *sdl.Window {
	window, err := sdl.CreateWindow("Pulse3D",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(configuration.Renderer.ScreenWidth),
		int32(configuration.Renderer.ScreenHeight),
		sdl.WINDOW_VULKAN)
	if err != nil {
		panic(err)
	}
	return window
}

func main() {
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Debug("loaded settings from .env")
	}
	configuration = core.DefaultConfiguration().FromEnv()
	if *debug {
		configuration.Instance.DebugMode = true
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		panic(err)
	}
	defer sdl.VulkanUnloadLibrary()

	sdlWindow = newWindow()

	{
		cfg := configuration.Instance
		cfg.Extensions = sdlWindow.VulkanGetInstanceExtensions()

		if vi, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), cfg); err != nil {
			panic(err)
		} else {
			vkInstance = vi
		}
	}

	log.WithField("extensions", vkInstance.Extensions()).Debug("vulkan instance created")
	for _, info := range vkInstance.PhysicalDevicesInfo() {
		log.WithFields(log.Fields{
			"name":    info.Name,
			"type":    info.Type,
			"memory":  info.Memory,
			"invalid": info.Invalid,
		}).Debug("physical device enumerated")
	}

	if srf, err := sdlWindow.VulkanCreateSurface(vkInstance.Inner()); err != nil {
		panic(err)
	} else {
		sdlSurface = srf
		vkInstance.SetSurface(sdlSurface)
	}

	configuration.Renderer.Shaders = packr.NewBox("./shaders")

	var rendererErr error
	vkRenderer, rendererErr = core.NewVulkanRenderer(vkInstance, configuration.Renderer)
	if rendererErr != nil {
		panic(rendererErr)
	}

	deviceUsed, err := core.SelectPhysicalDevice(vkInstance)
	if err != nil {
		panic(err)
	}
	if suitable, reason := vkRenderer.DeviceIsSuitable(deviceUsed); !suitable {
		panic(reason)
	}

	if err := vkRenderer.Initialise(); err != nil {
		panic(err)
	}

	if *memProfile != "" {
		defer writeMemProfile(*memProfile)
	}

	switch *pumpPolicy {
	case "wait":
		waitLoop()
	default:
		pollLoop()
	}

	vkRenderer.Destroy()
	vkInstance.Destroy()
}

// pollLoop drains the event queue on a slow ticker and renders
// on every fps tick, events never block the frame budget.
func pollLoop() {
	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	exitC := make(chan struct{}, 2)

EventLoop:
	for {
		select {
		case <-exitC:
			log.Info("event loop exited")
			break EventLoop
		case <-timeService.EventTicker().C:
			var event sdl.Event
			for event = sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						exitC <- struct{}{}
						continue EventLoop
					}
				case *sdl.QuitEvent:
					exitC <- struct{}{}
					continue EventLoop
				}
			}
		case <-timeService.FpsTicker().C:
			if err := vkRenderer.Render(); err != nil {
				log.WithError(err).Error("render failed")
			}
		}
	}
}

// waitLoop sleeps in the event queue between frames, rendering only
// after each wakeup. Suited for mostly static content.
func waitLoop() {
	timeout := 1000 / 60
	if fps := configuration.Time.FramesPerSecond; fps > 0 {
		timeout = 1000 / fps
	}
	for {
		event := sdl.WaitEventTimeout(timeout)
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				return
			}
		case *sdl.QuitEvent:
			return
		}
		if err := vkRenderer.Render(); err != nil {
			log.WithError(err).Error("render failed")
		}
	}
}

func writeMemProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.WithError(err).Error("could not create memory profile")
		return
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.WithError(err).Error("could not write memory profile")
	}
}
