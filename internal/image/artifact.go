package imagepkg

import (
	"fmt"
	"time"
)

// Artifact is a finished composition. Callers own the bytes.
type Artifact struct {
	Data      []byte
	MIMEType  string
	Extension string
	Width     int
	Height    int
	Frames    int
}

// Filename suggests a download name: {label}-{layout}-{unix millis}.{ext}.
// An empty layout is written as "unlabeled".
func (a *Artifact) Filename(label, layout string, t time.Time) string {
	if label == "" {
		label = "nft-collection"
	}
	if layout == "" {
		layout = "unlabeled"
	}
	return fmt.Sprintf("%s-%s-%d.%s", label, layout, t.UnixMilli(), a.Extension)
}
