//go:build darwin

package capture

func defaultInputFormat() string { return "avfoundation" }

// avfoundation's own defaults (bgr0, cursor) live on the input format.
func platformOptions(format, path string, o *Options) map[string]string { return nil }
