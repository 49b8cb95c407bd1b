package media

import "context"

type ProbeResult struct {
	// Duration of the asset in whole seconds.
	Duration int
	// Size of the container in bytes, as reported by the probe.
	Size int64
}

// Engine abstracts the external media toolchain so the pipeline can be tested
// without ffmpeg installed.
type Engine interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
	// Thumbnail extracts a single representative frame at timestampPercent of
	// the timeline and returns the relative path of the written image.
	Thumbnail(ctx context.Context, path string, timestampPercent float64, size string) (string, error)
	// Transcode re-encodes the asset to the normalized codec/container and
	// reports fractional completion of this stage through onProgress.
	Transcode(ctx context.Context, path string, onProgress func(float64)) (string, error)
}
