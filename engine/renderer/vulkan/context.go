package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Window is the platform surface the context presents to.
type Window interface {
	RequiredExtensions() []string
	InstanceProcAddr() unsafe.Pointer
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	FramebufferSize() (uint32, uint32)
	WaitEvents()
}

// Context owns the instance, the surface and the device. Everything else
// borrows it and must be destroyed first.
type Context struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface
	Device    *Device

	window        Window
	validation    bool
	debugCallback vk.DebugReportCallback
}

func NewContext(window Window, appName string, validation bool) (*Context, error) {
	procAddr := window.InstanceProcAddr()
	if procAddr == nil {
		return nil, fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize vk: %w", err)
	}

	c := &Context{window: window, validation: validation}
	if err := c.createInstance(appName); err != nil {
		return nil, err
	}
	if validation {
		if err := c.createDebugCallback(); err != nil {
			c.Destroy()
			return nil, err
		}
	}

	surface, err := window.CreateSurface(c.Instance)
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("create surface: %w", err)
	}
	c.Surface = surface
	core.LogDebug("Vulkan surface created")

	device, err := selectPhysicalDevice(c.Instance, c.Surface)
	if err != nil {
		c.Destroy()
		return nil, err
	}
	if err := createLogicalDevice(device); err != nil {
		c.Destroy()
		return nil, err
	}
	c.Device = device
	return c, nil
}

func (c *Context) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Loop Engine"),
	}

	extensions := append([]string{}, c.window.RequiredExtensions()...)
	var flags vk.InstanceCreateFlags
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		flags |= 1
	}

	var layers []string
	if c.validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		if !instanceLayerAvailable(validationLayer) {
			return fmt.Errorf("required validation layer is missing: %s", validationLayer)
		}
		layers = append(layers, validationLayer)
		core.LogInfo("validation layers enabled")
	}
	for _, ext := range extensions {
		core.LogDebug("instance extension: %s", ext)
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		Flags:                   flags,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     VulkanSafeStrings(layers),
	}

	var instance vk.Instance
	if err := Check(vk.CreateInstance(&createInfo, c.Allocator, &instance)); err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, c.Allocator)
		return err
	}
	c.Instance = instance
	core.LogInfo("Vulkan instance created")
	return nil
}

func instanceLayerAvailable(name string) bool {
	var count uint32
	if err := Check(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if err := Check(vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return false
	}
	for i := range layers {
		layers[i].Deref()
		if cString(layers[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

func (c *Context) createDebugCallback() error {
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReportCallback,
	}
	var callback vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(c.Instance, &createInfo, nil, &callback)); err != nil {
		return fmt.Errorf("vk.CreateDebugReportCallback failed: %w", err)
	}
	c.debugCallback = callback
	core.LogDebug("Vulkan debugger created")
	return nil
}

func debugReportCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("performance: [%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has
// all of the requested property flags.
func (c *Context) FindMemoryIndex(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(c.Device.PhysicalDevice, &memory)
	memory.Deref()

	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
		if typeFilter&(1<<i) != 0 && memory.MemoryTypes[i].PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type matches filter %#x with properties %#x", typeFilter, uint32(properties))
}

// SwapchainSupport queries the surface against the selected device.
func (c *Context) SwapchainSupport() (SwapchainSupportInfo, error) {
	return QuerySwapchainSupport(c.Device.PhysicalDevice, c.Surface)
}

func (c *Context) WaitIdle() error {
	return Check(vk.DeviceWaitIdle(c.Device.LogicalDevice))
}

// Destroy releases the device, surface, debug callback and instance in that
// order. It is safe on a partially constructed context.
func (c *Context) Destroy() {
	if c.Device != nil {
		c.Device.destroy()
		c.Device = nil
	}
	if c.Surface != vk.NullSurface {
		vk.DestroySurface(c.Instance, c.Surface, c.Allocator)
		c.Surface = vk.NullSurface
	}
	if c.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(c.Instance, c.debugCallback, nil)
		c.debugCallback = vk.NullDebugReportCallback
	}
	if c.Instance != nil {
		vk.DestroyInstance(c.Instance, c.Allocator)
		c.Instance = nil
	}
	core.LogInfo("Vulkan context destroyed")
}
