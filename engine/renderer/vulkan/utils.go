package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type resultInfo struct {
	name        string
	description string
}

// From: https://www.khronos.org/registry/vulkan/specs/1.3-extensions/man/html/VkResult.html
var results = map[vk.Result]resultInfo{
	// Success codes
	vk.Success:                 {"VK_SUCCESS", "command successfully completed"},
	vk.NotReady:                {"VK_NOT_READY", "a fence or query has not yet completed"},
	vk.Timeout:                 {"VK_TIMEOUT", "a wait operation has not completed in the specified time"},
	vk.EventSet:                {"VK_EVENT_SET", "an event is signaled"},
	vk.EventReset:              {"VK_EVENT_RESET", "an event is unsignaled"},
	vk.Incomplete:              {"VK_INCOMPLETE", "a return array was too small for the result"},
	vk.Suboptimal:              {"VK_SUBOPTIMAL_KHR", "the swapchain no longer matches the surface exactly but can still present"},
	vk.ThreadIdle:              {"VK_THREAD_IDLE_KHR", "a deferred operation has no work for this thread"},
	vk.ThreadDone:              {"VK_THREAD_DONE_KHR", "a deferred operation has no work left to assign"},
	vk.OperationDeferred:       {"VK_OPERATION_DEFERRED_KHR", "some of the requested work was deferred"},
	vk.OperationNotDeferred:    {"VK_OPERATION_NOT_DEFERRED_KHR", "no operations were deferred"},
	vk.PipelineCompileRequired: {"VK_PIPELINE_COMPILE_REQUIRED_EXT", "pipeline creation would have required compilation"},

	// Error codes
	vk.ErrorOutOfHostMemory:             {"VK_ERROR_OUT_OF_HOST_MEMORY", "a host memory allocation has failed"},
	vk.ErrorOutOfDeviceMemory:           {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "a device memory allocation has failed"},
	vk.ErrorInitializationFailed:        {"VK_ERROR_INITIALIZATION_FAILED", "initialization of an object could not be completed"},
	vk.ErrorDeviceLost:                  {"VK_ERROR_DEVICE_LOST", "the logical or physical device has been lost"},
	vk.ErrorMemoryMapFailed:             {"VK_ERROR_MEMORY_MAP_FAILED", "mapping of a memory object has failed"},
	vk.ErrorLayerNotPresent:             {"VK_ERROR_LAYER_NOT_PRESENT", "a requested layer is not present or could not be loaded"},
	vk.ErrorExtensionNotPresent:         {"VK_ERROR_EXTENSION_NOT_PRESENT", "a requested extension is not supported"},
	vk.ErrorFeatureNotPresent:           {"VK_ERROR_FEATURE_NOT_PRESENT", "a requested feature is not supported"},
	vk.ErrorIncompatibleDriver:          {"VK_ERROR_INCOMPATIBLE_DRIVER", "the requested version of Vulkan is not supported by the driver"},
	vk.ErrorTooManyObjects:              {"VK_ERROR_TOO_MANY_OBJECTS", "too many objects of the type have already been created"},
	vk.ErrorFormatNotSupported:          {"VK_ERROR_FORMAT_NOT_SUPPORTED", "a requested format is not supported on this device"},
	vk.ErrorFragmentedPool:              {"VK_ERROR_FRAGMENTED_POOL", "a pool allocation has failed due to fragmentation"},
	vk.ErrorSurfaceLost:                 {"VK_ERROR_SURFACE_LOST_KHR", "a surface is no longer available"},
	vk.ErrorNativeWindowInUse:           {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "the requested window is already in use"},
	vk.ErrorOutOfDate:                   {"VK_ERROR_OUT_OF_DATE_KHR", "the surface changed and the swapchain must be recreated"},
	vk.ErrorIncompatibleDisplay:         {"VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "the display is incompatible with the swapchain"},
	vk.ErrorInvalidShaderNv:             {"VK_ERROR_INVALID_SHADER_NV", "one or more shaders failed to compile or link"},
	vk.ErrorOutOfPoolMemory:             {"VK_ERROR_OUT_OF_POOL_MEMORY", "a pool memory allocation has failed"},
	vk.ErrorInvalidExternalHandle:       {"VK_ERROR_INVALID_EXTERNAL_HANDLE", "an external handle is not a valid handle of the specified type"},
	vk.ErrorFragmentation:               {"VK_ERROR_FRAGMENTATION", "a descriptor pool creation has failed due to fragmentation"},
	vk.ErrorInvalidDeviceAddress:        {"VK_ERROR_INVALID_DEVICE_ADDRESS_EXT", "the requested buffer address is not available"},
	vk.ErrorFullScreenExclusiveModeLost: {"VK_ERROR_FULL_SCREEN_EXCLUSIVE_MODE_LOST_EXT", "exclusive full-screen access was lost"},
	vk.ErrorUnknown:                     {"VK_ERROR_UNKNOWN", "an unknown error has occurred"},
}

// VulkanResultString returns the VK_* name of result, followed by its
// description when extended is set.
func VulkanResultString(result vk.Result, extended bool) string {
	info, ok := results[result]
	if !ok {
		info = resultInfo{name: fmt.Sprintf("VkResult(%d)", int32(result)), description: "unrecognized result code"}
	}
	if extended {
		return info.name + " " + info.description
	}
	return info.name
}

// VulkanResultIsSuccess reports whether result is one of the non-negative
// success codes.
func VulkanResultIsSuccess(result vk.Result) bool {
	return result >= vk.Success
}

// ResultError is a failed GPU call.
type ResultError struct {
	Result vk.Result
	Name   string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("vulkan: %s", VulkanResultString(e.Result, true))
}

func (e *ResultError) Unwrap() error {
	return vk.Error(e.Result)
}

// Check turns a vk.Result into an error. Success codes, including
// VK_SUBOPTIMAL_KHR, yield nil.
func Check(result vk.Result) error {
	if VulkanResultIsSuccess(result) {
		return nil
	}
	return &ResultError{Result: result, Name: VulkanResultString(result, false)}
}

var end = "\x00"
var endChar byte = '\x00'

func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}

// FindFirstZeroInByteArray returns the index of the first NUL byte, or the
// array length when there is none.
func FindFirstZeroInByteArray(arr []byte) int {
	for i, b := range arr {
		if b == 0 {
			return i
		}
	}
	return len(arr)
}

// cString decodes a fixed-size NUL terminated array returned by the driver.
func cString(arr []byte) string {
	return string(arr[:FindFirstZeroInByteArray(arr)])
}
