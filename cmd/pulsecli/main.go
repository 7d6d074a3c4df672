package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pulse3d/pulse/device"
)

var pretty = flag.Bool("pretty", false, "Indent the json output")

type report struct {
	Devices   []device.PhysicalDeviceInfo
	Preferred int
}

func main() {
	flag.Parse()

	probe, err := device.NewVulkanDevice(device.DefaultVulkanApplicationInfo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer probe.Destroy()

	devices := probe.PhysicalDevices()
	out := report{
		Devices:   devices,
		Preferred: device.Preferred(devices),
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
