package media

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFmpegEngine drives ffmpeg/ffprobe through os/exec. Outputs land in
// processedDir and are referenced by paths relative to its parent, so records
// stay valid when the storage root moves.
type FFmpegEngine struct {
	processedDir string
	ffmpegPath   string
	ffprobePath  string
	logger       *log.Logger
}

func NewFFmpegEngine(processedDir string, logger *log.Logger) (*FFmpegEngine, error) {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create processed dir: %w", err)
	}

	ffmpegPath := os.Getenv("FFMPEG_PATH")
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := os.Getenv("FFPROBE_PATH")
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &FFmpegEngine{
		processedDir: processedDir,
		ffmpegPath:   ffmpegPath,
		ffprobePath:  ffprobePath,
		logger:       logger,
	}, nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

func (e *FFmpegEngine) Probe(ctx context.Context, path string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe error: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return ProbeResult{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		duration = 0
	}
	size, err := strconv.ParseInt(probe.Format.Size, 10, 64)
	if err != nil {
		size = 0
	}

	return ProbeResult{
		Duration: int(math.Round(duration)),
		Size:     size,
	}, nil
}

func (e *FFmpegEngine) Thumbnail(ctx context.Context, path string, timestampPercent float64, size string) (string, error) {
	probe, err := e.Probe(ctx, path)
	if err != nil {
		return "", err
	}

	offset := float64(probe.Duration) * timestampPercent
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	thumbnailFilename := fmt.Sprintf("thumb-%s.jpg", base)
	thumbnailPath := filepath.Join(e.processedDir, thumbnailFilename)

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-ss", fmt.Sprintf("%.2f", offset),
		"-i", path,
		"-frames:v", "1",
		"-s", size,
		"-y",
		thumbnailPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg thumbnail error: %w, output: %s", err, string(output))
	}

	return "/" + filepath.ToSlash(filepath.Join(filepath.Base(e.processedDir), thumbnailFilename)), nil
}

func (e *FFmpegEngine) Transcode(ctx context.Context, path string, onProgress func(float64)) (string, error) {
	probe, err := e.Probe(ctx, path)
	if err != nil {
		return "", err
	}

	outputFilename := fmt.Sprintf("processed-%s", filepath.Base(path))
	if ext := filepath.Ext(outputFilename); ext != ".mp4" {
		outputFilename = strings.TrimSuffix(outputFilename, ext) + ".mp4"
	}
	outputPath := filepath.Join(e.processedDir, outputFilename)

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", path,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		"-crf", "23",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-v", "error",
		"-y",
		outputPath,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("ffmpeg transcode error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("ffmpeg transcode error: %w", err)
	}

	totalUs := float64(probe.Duration) * 1_000_000
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		fraction, ok := parseProgressLine(scanner.Text(), totalUs)
		if ok && onProgress != nil {
			onProgress(fraction)
		}
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("ffmpeg transcode error: %w", err)
	}

	return "/" + filepath.ToSlash(filepath.Join(filepath.Base(e.processedDir), outputFilename)), nil
}

// parseProgressLine reads one key=value line of ffmpeg -progress output and
// returns the completed fraction when the line carries a timestamp.
func parseProgressLine(line string, totalUs float64) (float64, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}

	switch key {
	case "out_time_us", "out_time_ms":
		if totalUs <= 0 {
			return 0, false
		}
		outTime, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return math.Min(outTime/totalUs, 1), true
	case "progress":
		if value == "end" {
			return 1, true
		}
		return 0, false
	default:
		return 0, false
	}
}
