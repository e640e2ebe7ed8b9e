package models

import (
	"path/filepath"
	"strings"
)

// OutputSuffix is appended to the base name of every generated document.
const OutputSuffix = "_UPPER"

// BaseName strips directories and the extension from name. Both slash styles are
// treated as separators since browsers on Windows may send full paths.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// OutputName returns the download name for a converted document.
func OutputName(base string, f Format) string {
	return base + OutputSuffix + f.Ext()
}
