//go:build windows

package capture

func defaultInputFormat() string { return "gdigrab" }

func platformOptions(format, path string, o *Options) map[string]string { return nil }
