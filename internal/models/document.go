package models

// UploadedFile is a client upload stored on disk for the duration of one request.
type UploadedFile struct {
	RequestID    string `json:"request_id"`
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	Format       Format `json:"format"`
	Size         int64  `json:"size"`
}

// BaseName returns the original filename without directories or extension.
func (u *UploadedFile) BaseName() string {
	return BaseName(u.OriginalName)
}

// OutputFile is a generated document waiting to be streamed back to the client.
type OutputFile struct {
	RequestID    string `json:"request_id"`
	Path         string `json:"path"`
	DownloadName string `json:"download_name"`
	Format       Format `json:"format"`
}

// Text is extracted or transformed document text. Single-body formats use Body;
// segmented formats (PPTX) use Runs, one entry per text run in document order.
type Text struct {
	Body string   `json:"body,omitempty"`
	Runs []string `json:"runs,omitempty"`
}

// Map returns a new Text with fn applied to the body and to every run.
// The receiver is left unchanged.
func (t Text) Map(fn func(string) string) Text {
	out := Text{Body: fn(t.Body)}
	if t.Runs != nil {
		out.Runs = make([]string, len(t.Runs))
		for i, r := range t.Runs {
			out.Runs[i] = fn(r)
		}
	}
	return out
}

// String returns the body, or the runs joined by newlines for segmented text.
func (t Text) String() string {
	if t.Runs == nil {
		return t.Body
	}
	n := 0
	for _, r := range t.Runs {
		n += len(r) + 1
	}
	buf := make([]byte, 0, n)
	for i, r := range t.Runs {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, r...)
	}
	return string(buf)
}
