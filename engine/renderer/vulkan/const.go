package vulkan

const (
	/** @brief Frames recorded ahead of the GPU when none is configured. */
	DefaultFramesInFlight = 3
	/** @brief Swapchain images requested when none is configured. */
	DefaultMinImageCount uint32 = 3
	/** @brief Present mode used unless mailbox is configured and supported. */
	DefaultPresentMode = "fifo"
)
