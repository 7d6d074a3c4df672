package core

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Fatal initialisation and frame errors. None of these are retried,
// the caller decides whether to tear the renderer down.
var (
	// ErrNoDevices means the API enumerated zero physical devices
	ErrNoDevices = errors.New("no vulkan capable devices found")

	// ErrNoSuitableQueueFamily means no family satisfied the graphics
	// and present requirements, or none carried the transfer bit
	ErrNoSuitableQueueFamily = errors.New("no suitable queue family found")

	// ErrFrameTimeout means a fence wait or image acquisition exceeded
	// the per-frame budget
	ErrFrameTimeout = errors.New("frame exceeded time budget")
)

// SubmitError wraps the result code of a failed queue submission
type SubmitError struct {
	Result vk.Result
}

func (e SubmitError) Error() string {
	return fmt.Sprintf("vk.QueueSubmit(): result %d", e.Result)
}

// PresentError wraps the result code of a failed presentation
type PresentError struct {
	Result vk.Result
}

func (e PresentError) Error() string {
	return fmt.Sprintf("vk.QueuePresent(): result %d", e.Result)
}
