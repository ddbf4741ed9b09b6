//go:build !windows && !darwin && !linux

package capture

func defaultInputFormat() string { return "" }

func platformOptions(format, path string, o *Options) map[string]string { return nil }
