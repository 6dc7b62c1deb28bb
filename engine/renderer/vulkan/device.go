package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

// Device is the selected physical device, its logical device and the queues
// frames are submitted and presented on.
type Device struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32
	GraphicsQueue      vk.Queue
	PresentQueue       vk.Queue

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
}

// SwapchainSupportInfo is what a surface supports on a given physical device.
type SwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type queueFamilyInfo struct {
	graphics uint32
	present  uint32
}

// SharesQueue reports whether graphics and present run on the same family.
func (d *Device) SharesQueue() bool {
	return d.GraphicsQueueIndex == d.PresentQueueIndex
}

// selectQueueFamilies picks a graphics and a present family, preferring a
// single family that can do both.
func selectQueueFamilies(flags []vk.QueueFlags, canPresent []bool) (queueFamilyInfo, bool) {
	graphics, present := -1, -1
	for i := range flags {
		isGraphics := flags[i]&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		if isGraphics && canPresent[i] {
			return queueFamilyInfo{graphics: uint32(i), present: uint32(i)}, true
		}
		if isGraphics && graphics < 0 {
			graphics = i
		}
		if canPresent[i] && present < 0 {
			present = i
		}
	}
	if graphics < 0 || present < 0 {
		return queueFamilyInfo{}, false
	}
	return queueFamilyInfo{graphics: uint32(graphics), present: uint32(present)}, true
}

func selectPhysicalDevice(instance vk.Instance, surface vk.Surface) (*Device, error) {
	var count uint32
	if err := Check(vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("no devices which support Vulkan were found")
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	if err := Check(vk.EnumeratePhysicalDevices(instance, &count, physicalDevices)); err != nil {
		return nil, err
	}

	var fallback *Device
	for _, pd := range physicalDevices {
		device, ok := evaluatePhysicalDevice(pd, surface)
		if !ok {
			continue
		}
		if device.Properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			return device, nil
		}
		if fallback == nil {
			fallback = device
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("no physical device meets the requirements")
	}
	return fallback, nil
}

func evaluatePhysicalDevice(pd vk.PhysicalDevice, surface vk.Surface) (*Device, bool) {
	device := &Device{PhysicalDevice: pd}

	vk.GetPhysicalDeviceProperties(pd, &device.Properties)
	device.Properties.Deref()
	vk.GetPhysicalDeviceFeatures(pd, &device.Features)
	device.Features.Deref()
	vk.GetPhysicalDeviceMemoryProperties(pd, &device.Memory)
	device.Memory.Deref()

	name := cString(device.Properties.DeviceName[:])

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)

	flags := make([]vk.QueueFlags, familyCount)
	canPresent := make([]bool, familyCount)
	for i := range families {
		families[i].Deref()
		flags[i] = families[i].QueueFlags

		var supported vk.Bool32
		if err := Check(vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supported)); err != nil {
			core.LogWarn("device '%s': surface support query failed: %s", name, err)
			return nil, false
		}
		canPresent[i] = supported == vk.True
	}

	queues, ok := selectQueueFamilies(flags, canPresent)
	if !ok {
		core.LogInfo("device '%s' lacks graphics or present queues, skipping", name)
		return nil, false
	}
	device.GraphicsQueueIndex = queues.graphics
	device.PresentQueueIndex = queues.present

	if !hasDeviceExtension(pd, vk.KhrSwapchainExtensionName) {
		core.LogInfo("device '%s' does not support %s, skipping", name, vk.KhrSwapchainExtensionName)
		return nil, false
	}

	support, err := QuerySwapchainSupport(pd, surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogInfo("device '%s' has no usable swapchain support, skipping", name)
		return nil, false
	}

	depth, ok := detectDepthFormat(pd)
	if !ok {
		core.LogInfo("device '%s' has no depth attachment format, skipping", name)
		return nil, false
	}
	device.DepthFormat = depth

	logDeviceInfo(device, name)
	return device, true
}

func logDeviceInfo(device *Device, name string) {
	kind := "unknown"
	switch device.Properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		kind = "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		kind = "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		kind = "virtual"
	case vk.PhysicalDeviceTypeCpu:
		kind = "cpu"
	}
	api := vk.Version(device.Properties.ApiVersion)
	core.LogInfo("device '%s' (%s), Vulkan %d.%d.%d, graphics family %d, present family %d",
		name, kind, api.Major(), api.Minor(), api.Patch(),
		device.GraphicsQueueIndex, device.PresentQueueIndex)

	for i := uint32(0); i < device.Memory.MemoryHeapCount; i++ {
		heap := device.Memory.MemoryHeaps[i]
		heap.Deref()
		gib := float64(heap.Size) / 1024 / 1024 / 1024
		if heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			core.LogDebug("local GPU memory: %.2f GiB", gib)
		} else {
			core.LogDebug("shared system memory: %.2f GiB", gib)
		}
	}
}

func deviceExtensions(pd vk.PhysicalDevice) []string {
	var count uint32
	if err := Check(vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil || count == 0 {
		return nil
	}
	properties := make([]vk.ExtensionProperties, count)
	if err := Check(vk.EnumerateDeviceExtensionProperties(pd, "", &count, properties)); err != nil {
		return nil
	}
	names := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		names = append(names, cString(properties[i].ExtensionName[:]))
	}
	return names
}

func hasDeviceExtension(pd vk.PhysicalDevice, name string) bool {
	for _, ext := range deviceExtensions(pd) {
		if ext == name {
			return true
		}
	}
	return false
}

// QuerySwapchainSupport reads the surface capabilities, formats and present
// modes of a physical device.
func QuerySwapchainSupport(pd vk.PhysicalDevice, surface vk.Surface) (SwapchainSupportInfo, error) {
	info := SwapchainSupportInfo{}
	if err := Check(vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &info.Capabilities)); err != nil {
		return info, err
	}
	info.Capabilities.Deref()
	info.Capabilities.CurrentExtent.Deref()
	info.Capabilities.MinImageExtent.Deref()
	info.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := Check(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, nil)); err != nil {
		return info, err
	}
	if formatCount > 0 {
		info.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := Check(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, info.Formats)); err != nil {
			return info, err
		}
		for i := range info.Formats {
			info.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if err := Check(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, nil)); err != nil {
		return info, err
	}
	if modeCount > 0 {
		info.PresentModes = make([]vk.PresentMode, modeCount)
		if err := Check(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, info.PresentModes)); err != nil {
			return info, err
		}
	}
	return info, nil
}

var depthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

func detectDepthFormat(pd vk.PhysicalDevice) (vk.Format, bool) {
	required := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range depthFormatCandidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(pd, candidate, &properties)
		properties.Deref()
		if properties.OptimalTilingFeatures&required == required || properties.LinearTilingFeatures&required == required {
			return candidate, true
		}
	}
	return vk.FormatUndefined, false
}

// createLogicalDevice creates the logical device with one queue per distinct
// family and fetches the queues.
func createLogicalDevice(device *Device) error {
	families := []uint32{device.GraphicsQueueIndex}
	if !device.SharesQueue() {
		families = append(families, device.PresentQueueIndex)
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

	extensions := []string{vk.KhrSwapchainExtensionName}
	if hasDeviceExtension(device.PhysicalDevice, portabilitySubsetExtension) {
		core.LogInfo("adding required extension '%s'", portabilitySubsetExtension)
		extensions = append(extensions, portabilitySubsetExtension)
	}

	features := vk.PhysicalDeviceFeatures{}
	if device.Features.SamplerAnisotropy == vk.True {
		features.SamplerAnisotropy = vk.True
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}

	var logical vk.Device
	if err := Check(vk.CreateDevice(device.PhysicalDevice, &createInfo, nil, &logical)); err != nil {
		return fmt.Errorf("create logical device: %w", err)
	}
	device.LogicalDevice = logical

	var graphics, present vk.Queue
	vk.GetDeviceQueue(logical, device.GraphicsQueueIndex, 0, &graphics)
	vk.GetDeviceQueue(logical, device.PresentQueueIndex, 0, &present)
	device.GraphicsQueue = graphics
	device.PresentQueue = present

	core.LogInfo("logical device created")
	return nil
}

func (d *Device) destroy() {
	if d.LogicalDevice != nil {
		vk.DestroyDevice(d.LogicalDevice, nil)
		d.LogicalDevice = nil
	}
	d.GraphicsQueue = nil
	d.PresentQueue = nil
	d.PhysicalDevice = nil
}
