// Package pipeline drives an uploaded video through probe, thumbnail,
// transcode, sensitivity scoring and finalization.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/reelpoint/reelpoint-server/internal/media"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/reelpoint/reelpoint-server/internal/notifier"
	"github.com/reelpoint/reelpoint-server/internal/sensitivity"
	"github.com/reelpoint/reelpoint-server/internal/store"
)

var (
	processingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "video_processing_duration_seconds",
		Help:    "Duration of full pipeline runs in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	videosProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videos_processed_total",
		Help: "Total number of pipeline runs",
	}, []string{"status"})
)

// Progress checkpoints. Transcode dominates wall-clock time, so it owns the
// widest band; its fractional completion is mapped into [bandLow, bandHigh].
const (
	progressProbe     = 10
	progressThumbnail = 30
	progressTranscode = 70
	progressScored    = 90
	progressDone      = 100

	bandLow  = 30.0
	bandHigh = 70.0
)

const (
	thumbnailTimestampPercent = 0.10
	thumbnailSize             = "320x240"
)

// Processor runs the pipeline for one record at a time per record id; a record
// is only ever advanced by the single run spawned for it. Runs for different
// records may interleave freely.
type Processor struct {
	videos   store.VideoStore
	engine   media.Engine
	analyzer sensitivity.Analyzer
	notifier notifier.Notifier
	logger   *log.Logger
}

func NewProcessor(videos store.VideoStore, engine media.Engine, analyzer sensitivity.Analyzer, n notifier.Notifier, logger *log.Logger) *Processor {
	return &Processor{
		videos:   videos,
		engine:   engine,
		analyzer: analyzer,
		notifier: n,
		logger:   logger,
	}
}

// Run executes the pipeline to completion or failure. It never panics or
// returns an error past its own boundary: every failure is recorded on the
// record and reported to the owner.
func (p *Processor) Run(ctx context.Context, videoID uuid.UUID) {
	start := time.Now()
	status := "success"

	defer func() {
		if r := recover(); r != nil {
			status = "failure"
			p.logger.Printf("Panic processing video %s: %v", videoID, r)
			p.fail(ctx, videoID, fmt.Errorf("internal processing error: %v", r))
		}
		processingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
		videosProcessedTotal.WithLabelValues(status).Inc()
	}()

	if err := p.process(ctx, videoID); err != nil {
		status = "failure"
		p.logger.Printf("Error processing video %s: %v", videoID, err)
		p.fail(ctx, videoID, err)
	}
}

func (p *Processor) process(ctx context.Context, videoID uuid.UUID) error {
	video, err := p.videos.GetByID(videoID)
	if err != nil {
		return fmt.Errorf("failed to load video: %w", err)
	}

	video.Status = models.StatusProcessing
	video.ProcessingProgress = 0
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("failed to mark video processing: %w", err)
	}
	p.publishProgress(ctx, video, 0, "Starting video processing...")

	probe, err := p.engine.Probe(ctx, video.FilePath)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	video.Duration = probe.Duration
	video.ProcessingProgress = progressProbe
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	p.publishProgress(ctx, video, progressProbe, "Retrieved video metadata")

	thumbnailPath, err := p.engine.Thumbnail(ctx, video.FilePath, thumbnailTimestampPercent, thumbnailSize)
	if err != nil {
		return fmt.Errorf("thumbnail generation failed: %w", err)
	}
	video.ThumbnailPath = thumbnailPath
	video.ProcessingProgress = progressThumbnail
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("failed to commit thumbnail: %w", err)
	}
	p.publishProgress(ctx, video, progressThumbnail, "Generated thumbnail")

	lastPublished := progressThumbnail
	processedPath, err := p.engine.Transcode(ctx, video.FilePath, func(fraction float64) {
		global := int(math.Round(bandLow + fraction*(bandHigh-bandLow)))
		if global > progressTranscode {
			global = progressTranscode
		}
		if global < lastPublished {
			global = lastPublished
		}
		lastPublished = global
		p.publishProgress(ctx, video, global, "Compressing video...")
	})
	if err != nil {
		return fmt.Errorf("transcode failed: %w", err)
	}
	video.ProcessedPath = processedPath
	video.ProcessingProgress = progressTranscode
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("failed to commit processed path: %w", err)
	}
	p.publishProgress(ctx, video, progressTranscode, "Video compressed")

	// Scoring runs against the original upload, not the transcoded copy.
	result, err := p.analyzer.Analyze(ctx, video.FilePath)
	if err != nil {
		return fmt.Errorf("sensitivity analysis failed: %w", err)
	}
	video.SensitivityStatus = result.Status
	video.SensitivityScore = result.Score
	video.SensitivityDetails = result.Details
	video.ProcessingProgress = progressScored
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("failed to commit sensitivity result: %w", err)
	}
	p.publishProgress(ctx, video, progressScored, "Analyzed content sensitivity")

	video.Status = models.StatusCompleted
	video.ProcessingProgress = progressDone
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("failed to finalize video: %w", err)
	}
	p.publishProgress(ctx, video, progressDone, "Processing completed")

	p.logger.Printf("Video processing completed: %s", videoID)
	return nil
}

// fail marks the record failed and sends exactly one error event to the
// owner. Partially produced artifacts are kept on disk.
func (p *Processor) fail(ctx context.Context, videoID uuid.UUID, cause error) {
	video, err := p.videos.GetByID(videoID)
	if err != nil {
		p.logger.Printf("Error loading video %s after failure: %v", videoID, err)
		return
	}

	video.Status = models.StatusFailed
	video.ProcessingProgress = 0
	if err := p.videos.Save(video); err != nil {
		p.logger.Printf("Error marking video %s failed: %v", videoID, err)
	}

	err = p.notifier.Publish(ctx, video.UploadedBy, notifier.EventError, notifier.ErrorPayload{
		VideoID: video.Id,
		Error:   cause.Error(),
	})
	if err != nil {
		p.logger.Printf("Error publishing failure event for video %s: %v", videoID, err)
	}
}

func (p *Processor) publishProgress(ctx context.Context, video *models.Video, progress int, message string) {
	err := p.notifier.Publish(ctx, video.UploadedBy, notifier.EventProgress, notifier.ProgressPayload{
		VideoID:  video.Id,
		Progress: progress,
		Message:  message,
		Status:   video.Status,
	})
	if err != nil {
		p.logger.Printf("Error publishing progress for video %s: %v", video.Id, err)
	}
}
