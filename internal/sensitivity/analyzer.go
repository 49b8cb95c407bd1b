// Package sensitivity scores video content for sensitive material.
//
// The default analyzer is a stand-in for a real moderation backend (AWS
// Rekognition, Google Video Intelligence, a custom model). The pipeline only
// depends on the Analyzer interface and the fixed Result shape, so swapping in
// a real backend is a drop-in change.
package sensitivity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/reelpoint/reelpoint-server/internal/models"
)

type Result struct {
	Status  models.SensitivityStatus `json:"status"`
	Score   float64                  `json:"score"`
	Details json.RawMessage          `json:"details"`
}

type Analyzer interface {
	Analyze(ctx context.Context, path string) (Result, error)
}

// flagThreshold is the score above which content is flagged.
const flagThreshold = 0.7

const modelVersion = "1.0.0"

type flag struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

type details struct {
	AnalysisDate time.Time          `json:"analysisDate"`
	Categories   map[string]float64 `json:"categories"`
	Flags        []flag             `json:"flags"`
	Confidence   float64            `json:"confidence"`
	ModelVersion string             `json:"modelVersion"`
}

type heuristicAnalyzer struct{}

// NewAnalyzer returns the built-in heuristic analyzer. It is safe for use
// from concurrent pipeline runs.
func NewAnalyzer() Analyzer {
	return heuristicAnalyzer{}
}

func (heuristicAnalyzer) Analyze(ctx context.Context, path string) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	score := math.Round(rand.Float64()*100) / 100

	categories := map[string]float64{
		"violence":  rand.Float64() * 0.5,
		"adult":     rand.Float64() * 0.3,
		"offensive": rand.Float64() * 0.4,
		"safe":      rand.Float64() * 0.9,
	}

	status := models.SensitivitySafe
	var flags []flag
	if score > flagThreshold {
		status = models.SensitivityFlagged
		flags = buildFlags(categories)
	}

	payload, err := json.Marshal(details{
		AnalysisDate: time.Now().UTC(),
		Categories:   categories,
		Flags:        flags,
		Confidence:   0.85 + rand.Float64()*0.15,
		ModelVersion: modelVersion,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode analysis details: %w", err)
	}

	return Result{
		Status:  status,
		Score:   score,
		Details: payload,
	}, nil
}

func buildFlags(categories map[string]float64) []flag {
	flags := []flag{}

	if categories["violence"] > 0.4 {
		severity := "medium"
		if categories["violence"] > 0.6 {
			severity = "high"
		}
		flags = append(flags, flag{
			Type:        "violence",
			Severity:    severity,
			Timestamp:   "00:00:05",
			Description: "Potential violent content detected",
		})
	}

	if categories["adult"] > 0.3 {
		severity := "medium"
		if categories["adult"] > 0.5 {
			severity = "high"
		}
		flags = append(flags, flag{
			Type:        "adult",
			Severity:    severity,
			Timestamp:   "00:00:12",
			Description: "Potential adult content detected",
		})
	}

	if categories["offensive"] > 0.4 {
		flags = append(flags, flag{
			Type:        "offensive",
			Severity:    "medium",
			Timestamp:   "00:00:20",
			Description: "Potentially offensive content detected",
		})
	}

	return flags
}
