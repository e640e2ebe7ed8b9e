package models

// Status is the service status served by GET /api/v1/status.
type Status struct {
	Formats        []string `json:"formats"`
	UploadDir      string   `json:"upload_dir"`
	OutputDir      string   `json:"output_dir"`
	MaxUploadBytes int64    `json:"max_upload_bytes"`
	DiskUsageBytes *int64   `json:"disk_usage_bytes,omitempty"`
}

// SupportedExtensions returns the extension of every supported format.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(SupportedFormats))
	for _, f := range SupportedFormats {
		exts = append(exts, f.Ext())
	}
	return exts
}
