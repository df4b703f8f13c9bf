package analysis

import "time"

// BoundingBox locates a detected element in normalized [0,1] coordinates,
// with the origin at the top-left of the frame.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is a single element found in an image.
type Detection struct {
	Type        string      `json:"type"`
	Confidence  float64     `json:"confidence"`
	BBox        BoundingBox `json:"bbox"`
	Description string      `json:"description,omitempty"`
}

// ImageInfo carries the sniffed metadata of an analyzed payload.
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int    `json:"size"`
}

// Result is the normalized outcome of one inference call.
type Result struct {
	Elements  []Detection `json:"elements"`
	ImageInfo ImageInfo   `json:"imageInfo"`
}

// CacheEntry is the persisted form of a Result. Entries are immutable once
// written; repeat uploads of the same content read them back verbatim.
type CacheEntry struct {
	Result    Result    `json:"result"`
	ImageHash string    `json:"imageHash"`
	CreatedAt time.Time `json:"createdAt"`
}

// Response is the payload returned to API callers, mirroring the upstream
// analysis schema with cache bookkeeping added.
type Response struct {
	Elements       []Detection `json:"elements"`
	ImageInfo      ImageInfo   `json:"imageInfo"`
	ImageHash      string      `json:"imageHash"`
	Cached         bool        `json:"cached"`
	ProcessingTime string      `json:"processingTime"`
}

// pseudoPixelScale is the coordinate range some model responses use instead
// of normalized [0,1] values. Observed up to ~1000.
const pseudoPixelScale = 1000

// Normalize brings a raw detection into the normalized coordinate system and
// validates it. Detections whose box falls outside the frame, or has a
// non-positive extent, are rejected.
func Normalize(d Detection) (Detection, bool) {
	b := d.BBox
	if b.X > 1 || b.Y > 1 || b.Width > 1 || b.Height > 1 {
		b.X /= pseudoPixelScale
		b.Y /= pseudoPixelScale
		b.Width /= pseudoPixelScale
		b.Height /= pseudoPixelScale
	}
	if b.X < 0 || b.Y < 0 || b.Width <= 0 || b.Height <= 0 {
		return Detection{}, false
	}
	if b.X+b.Width > 1 || b.Y+b.Height > 1 {
		return Detection{}, false
	}
	d.BBox = b
	return d, true
}

// NormalizeAll validates every raw detection and discards failures. When
// nothing survives it substitutes a single whole-frame scene detection so
// callers always receive at least one element.
func NormalizeAll(raw []Detection) []Detection {
	out := make([]Detection, 0, len(raw))
	for _, d := range raw {
		if n, ok := Normalize(d); ok {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		out = append(out, WholeImageFallback())
	}
	return out
}

// WholeImageFallback is the detection substituted when a response contains
// no valid elements.
func WholeImageFallback() Detection {
	return Detection{
		Type:        "scene",
		Confidence:  0.5,
		BBox:        BoundingBox{X: 0, Y: 0, Width: 1, Height: 1},
		Description: "overall scene",
	}
}
