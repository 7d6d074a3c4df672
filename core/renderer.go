package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// frameBudget bounds every GPU wait inside a frame. Expiry is fatal in
// this design, there is no retry or swapchain recreation.
const frameBudget = time.Second

// NewVulkanRenderer creates a not yet initialised Vulkan API renderer.
// The physical device is selected here, once, and never re-queried.
func NewVulkanRenderer(instance Instance, cfg RendererConfiguration) (Renderer, error) {
	physicalDevice, err := SelectPhysicalDevice(instance)
	if err != nil {
		return nil, err
	}

	vkInstance, ok := instance.Inner().(vk.Instance)
	if !ok {
		return nil, errors.New("instance inner handle is not a vk.Instance")
	}

	return &VulkanRenderer{
		configuration:  cfg,
		instance:       vkInstance,
		surface:        instance.Surface(),
		physicalDevice: physicalDevice,
	}, nil
}

// VulkanRenderer is a Vulkan API renderer. It is the single owner of
// every device-side object it creates; the surface handle it borrows
// at construction is destroyed by it during teardown.
type VulkanRenderer struct {
	configuration RendererConfiguration

	instance       vk.Instance
	surface        vk.Surface
	physicalDevice vk.PhysicalDevice
	logicalDevice  vk.Device

	queueIndices  QueueFamilyIndices
	graphicsQueue vk.Queue
	transferQueue vk.Queue

	swapchain           vk.Swapchain
	swapchainImages     []vk.Image
	swapchainImageViews []vk.ImageView
	imageFormat         vk.Format
	imageColorspace     vk.ColorSpace
	imageExtent         vk.Extent2D

	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer

	presentSemaphore vk.Semaphore
	renderSemaphore  vk.Semaphore
	renderFence      vk.Fence

	frameNumber uint64
}

// Initialise implements interface. Creation order is significant and
// Destroy releases everything in the exact reverse.
func (v *VulkanRenderer) Initialise() error {
	indices, err := findQueueFamilies(v.physicalDevice, v.surface)
	if err != nil {
		return err
	}
	v.queueIndices = indices

	if err := v.createLogicalDevice(); err != nil {
		return err
	}

	vk.GetDeviceQueue(v.logicalDevice, v.queueIndices.Graphics, 0, &v.graphicsQueue)
	vk.GetDeviceQueue(v.logicalDevice, v.queueIndices.Transfer, 0, &v.transferQueue)

	if err := v.createSwapchain(); err != nil {
		return err
	}

	if err := v.createImageViews(); err != nil {
		return err
	}

	if err := v.createRenderPass(); err != nil {
		return err
	}

	if err := v.createFramebuffers(); err != nil {
		return err
	}

	if err := v.createCommandPool(); err != nil {
		return err
	}

	if err := v.allocateCommandBuffer(); err != nil {
		return err
	}

	if err := v.createSynchronization(); err != nil {
		return err
	}

	if err := v.validateShaders(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"images": len(v.swapchainImages),
		"width":  v.imageExtent.Width,
		"height": v.imageExtent.Height,
	}).Info("renderer initialised")

	return nil
}

func (v *VulkanRenderer) createLogicalDevice() error {
	requiredExtensions := safeStrings(v.configuration.DeviceExtensions)

	// The graphics and transfer roles may resolve to the same family,
	// which must only be requested once.
	families := []uint32{v.queueIndices.Graphics}
	if v.queueIndices.Transfer != v.queueIndices.Graphics {
		families = append(families, v.queueIndices.Transfer)
	}

	queueInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: requiredExtensions,
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(v.physicalDevice, &dci, nil, &device)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	v.logicalDevice = device
	return nil
}

// clampImageCount requests three swapchain images but never fewer than
// the surface minimum nor more than its maximum. A maximum of zero
// means unbounded.
func clampImageCount(min, max uint32) uint32 {
	count := uint32(3)
	if count < min {
		count = min
	}
	if max > 0 && count > max {
		count = max
	}
	return count
}

func (v *VulkanRenderer) createSwapchain() error {
	var surfaceCapabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(v.physicalDevice, v.surface, &surfaceCapabilities)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	surfaceCapabilities.Deref()
	surfaceCapabilities.CurrentExtent.Deref()

	var surfaceFormatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.surface, &surfaceFormatCount, nil)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	surfaceFormats := make([]vk.SurfaceFormat, surfaceFormatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.surface, &surfaceFormatCount, surfaceFormats)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	if surfaceFormatCount == 0 {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): no surface formats reported")
	}

	// First reported format, verbatim. No preference scoring.
	surfaceFormats[0].Deref()
	v.imageFormat = surfaceFormats[0].Format
	v.imageColorspace = surfaceFormats[0].ColorSpace
	v.imageExtent = surfaceCapabilities.CurrentExtent

	scci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               v.surface,
		MinImageCount:         clampImageCount(surfaceCapabilities.MinImageCount, surfaceCapabilities.MaxImageCount),
		ImageFormat:           v.imageFormat,
		ImageColorSpace:       v.imageColorspace,
		ImageExtent:           v.imageExtent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      vk.SharingModeExclusive,
		QueueFamilyIndexCount: 1,
		PQueueFamilyIndices:   []uint32{v.queueIndices.Graphics},
		PreTransform:          surfaceCapabilities.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           vk.PresentModeFifo,
		Clipped:               vk.True,
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(v.logicalDevice, &scci, nil, &swapchain)); err != nil {
		return errors.New("vk.CreateSwapchain(): " + err.Error())
	}
	v.swapchain = swapchain

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}
	v.swapchainImages = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, v.swapchainImages)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}
	return nil
}

func (v *VulkanRenderer) createImageViews() error {
	for idx := 0; idx < len(v.swapchainImages); idx++ {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    v.swapchainImages[idx],
			ViewType: vk.ImageViewType2d,
			Format:   v.imageFormat,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		if err := vk.Error(vk.CreateImageView(v.logicalDevice, &ivci, nil, &imageView)); err != nil {
			return fmt.Errorf("vk.CreateImageView()[%d]: %s", idx, err.Error())
		}
		v.swapchainImageViews = append(v.swapchainImageViews, imageView)
	}

	// image_views[i] is a view of images[i], always
	if len(v.swapchainImageViews) != len(v.swapchainImages) {
		return errors.New("swapchain image view count does not match image count")
	}
	return nil
}

// createRenderPass builds the clear-only pass. The attachment stays in
// the color attachment layout on both ends, the explicit barriers in
// recordFrame own every layout transition.
func (v *VulkanRenderer) createRenderPass() error {
	attachments := []vk.AttachmentDescription{{
		Format:         v.imageFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(v.logicalDevice, &rpci, nil, &renderPass)); err != nil {
		return errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	v.renderPass = renderPass
	return nil
}

func (v *VulkanRenderer) createFramebuffers() error {
	for _, view := range v.swapchainImageViews {
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      v.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           v.imageExtent.Width,
			Height:          v.imageExtent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(v.logicalDevice, &fci, nil, &framebuffer)); err != nil {
			return errors.New("vk.CreateFramebuffer(): " + err.Error())
		}
		v.framebuffers = append(v.framebuffers, framebuffer)
	}
	return nil
}

func (v *VulkanRenderer) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: v.queueIndices.Graphics,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(v.logicalDevice, &cpci, nil, &commandPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	v.commandPool = commandPool
	return nil
}

func (v *VulkanRenderer) allocateCommandBuffer() error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(v.logicalDevice, &cbai, commandBuffers)); err != nil {
		return errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	v.commandBuffer = commandBuffers[0]
	return nil
}

// createSynchronization builds the one in-flight frame's sync objects.
// The fence starts signaled so the first Render call does not wait on
// work that was never submitted.
func (v *VulkanRenderer) createSynchronization() error {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &v.presentSemaphore)); err != nil {
		return errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &v.renderSemaphore)); err != nil {
		return errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	if err := vk.Error(vk.CreateFence(v.logicalDevice, &fci, nil, &v.renderFence)); err != nil {
		return errors.New("vk.CreateFence(): " + err.Error())
	}
	return nil
}

// clearFlash is the periodic blue pulse, tied to frame count rather
// than wall clock. Bounded in [0,1] for all frames.
func clearFlash(frameNumber uint64) float32 {
	return float32(math.Abs(math.Sin(float64(frameNumber) / 50)))
}

// Render implements interface. One call executes exactly one full
// frame cycle synchronously: fence wait, image acquire, record,
// submit, present. Any failure propagates and leaves the sync state
// as-is; a later call exposes a resulting deadlock as a timeout.
func (v *VulkanRenderer) Render() error {
	budget := uint64(frameBudget.Nanoseconds())

	fences := []vk.Fence{v.renderFence}
	switch res := vk.WaitForFences(v.logicalDevice, 1, fences, vk.True, budget); res {
	case vk.Success:
	case vk.Timeout:
		return fmt.Errorf("vk.WaitForFences(): %w", ErrFrameTimeout)
	default:
		return errors.New("vk.WaitForFences(): " + vk.Error(res).Error())
	}
	if err := vk.Error(vk.ResetFences(v.logicalDevice, 1, fences)); err != nil {
		return errors.New("vk.ResetFences(): " + err.Error())
	}

	var imageIndex uint32
	switch res := vk.AcquireNextImage(v.logicalDevice, v.swapchain, budget, v.presentSemaphore, nil, &imageIndex); res {
	case vk.Success, vk.Suboptimal:
	case vk.Timeout, vk.NotReady:
		return fmt.Errorf("vk.AcquireNextImage(): %w", ErrFrameTimeout)
	default:
		return errors.New("vk.AcquireNextImage(): " + vk.Error(res).Error())
	}

	if err := v.recordFrame(imageIndex); err != nil {
		return err
	}

	submits := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.presentSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{v.commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{v.renderSemaphore},
	}}

	if res := vk.QueueSubmit(v.graphicsQueue, 1, submits, v.renderFence); res != vk.Success {
		return SubmitError{Result: res}
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.renderSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}

	switch res := vk.QueuePresent(v.graphicsQueue, &presentInfo); res {
	case vk.Success, vk.Suboptimal:
	default:
		return PresentError{Result: res}
	}

	v.frameNumber++
	return nil
}

// recordFrame resets and fills the single command buffer for the
// acquired image: transition to the color attachment layout, clear
// through the render pass, transition to the present layout.
func (v *VulkanRenderer) recordFrame(imageIndex uint32) error {
	if err := vk.Error(vk.ResetCommandBuffer(v.commandBuffer, 0)); err != nil {
		return errors.New("vk.ResetCommandBuffer(): " + err.Error())
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(v.commandBuffer, &cbbi)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}

	colorRange := vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}

	acquireBarrier := []vk.ImageMemoryBarrier{{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       0,
		DstAccessMask:       vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		OldLayout:           vk.ImageLayoutUndefined,
		NewLayout:           vk.ImageLayoutColorAttachmentOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               v.swapchainImages[imageIndex],
		SubresourceRange:    colorRange,
	}}
	vk.CmdPipelineBarrier(v.commandBuffer,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		0, 0, nil, 0, nil, 1, acquireBarrier)

	clearColor := glm.Vec4{0.0, 0.0, clearFlash(v.frameNumber), 1.0}
	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  v.renderPass,
		Framebuffer: v.framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: v.imageExtent,
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clearColor[:])},
	}
	vk.CmdBeginRenderPass(v.commandBuffer, &rpbi, vk.SubpassContentsInline)
	// clear-only pass, no draw calls
	vk.CmdEndRenderPass(v.commandBuffer)

	presentBarrier := []vk.ImageMemoryBarrier{{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstAccessMask:       0,
		OldLayout:           vk.ImageLayoutColorAttachmentOptimal,
		NewLayout:           vk.ImageLayoutPresentSrc,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               v.swapchainImages[imageIndex],
		SubresourceRange:    colorRange,
	}}
	vk.CmdPipelineBarrier(v.commandBuffer,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		0, 0, nil, 0, nil, 1, presentBarrier)

	if err := vk.Error(vk.EndCommandBuffer(v.commandBuffer)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}
	return nil
}

// FrameNumber implements interface
func (v *VulkanRenderer) FrameNumber() uint64 {
	return v.frameNumber
}

// DeviceIsSuitable implements interface
func (v *VulkanRenderer) DeviceIsSuitable(device vk.PhysicalDevice) (bool, string) {
	if _, err := findQueueFamilies(device, v.surface); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Destroy implements interface. It blocks until the device is idle and
// releases every owned object in the exact reverse of creation order.
// Calling it more than once is out of contract.
func (v *VulkanRenderer) Destroy() {
	vk.DeviceWaitIdle(v.logicalDevice)

	vk.DestroySemaphore(v.logicalDevice, v.renderSemaphore, nil)
	vk.DestroySemaphore(v.logicalDevice, v.presentSemaphore, nil)
	vk.DestroyFence(v.logicalDevice, v.renderFence, nil)

	// frees the command buffer with it
	vk.DestroyCommandPool(v.logicalDevice, v.commandPool, nil)

	for _, framebuffer := range v.framebuffers {
		vk.DestroyFramebuffer(v.logicalDevice, framebuffer, nil)
	}
	vk.DestroyRenderPass(v.logicalDevice, v.renderPass, nil)

	for _, imageView := range v.swapchainImageViews {
		vk.DestroyImageView(v.logicalDevice, imageView, nil)
	}
	vk.DestroySwapchain(v.logicalDevice, v.swapchain, nil)

	vk.DestroyDevice(v.logicalDevice, nil)
	vk.DestroySurface(v.instance, v.surface, nil)
}
