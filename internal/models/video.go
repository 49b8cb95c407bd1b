package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	StatusUploading  VideoStatus = "uploading"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
)

type SensitivityStatus string

const (
	SensitivityPending SensitivityStatus = "pending"
	SensitivitySafe    SensitivityStatus = "safe"
	SensitivityFlagged SensitivityStatus = "flagged"
)

type Video struct {
	Id                 uuid.UUID         `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Filename           string            `json:"filename"`
	OriginalName       string            `json:"original_name"`
	FilePath           string            `json:"file_path"`
	ProcessedPath      string            `json:"processed_path,omitempty"`
	ThumbnailPath      string            `json:"thumbnail_path,omitempty"`
	FileSize           int64             `json:"file_size"`
	Duration           int               `json:"duration"`
	MimeType           string            `json:"mime_type"`
	Status             VideoStatus       `json:"status"`
	ProcessingProgress int               `json:"processing_progress"`
	SensitivityStatus  SensitivityStatus `json:"sensitivity_status"`
	SensitivityScore   float64           `json:"sensitivity_score"`
	SensitivityDetails json.RawMessage   `json:"sensitivity_details,omitempty"`
	UploadedBy         uuid.UUID         `json:"uploaded_by"`
	Organization       string            `json:"organization"`
	AssignedTo         []uuid.UUID       `json:"assigned_to"`
	Is_Public          bool              `json:"is_public"`
	Views              int64             `json:"views"`
	Tags               []string          `json:"tags"`
	Created_At         time.Time         `json:"created_at"`
	Updated_At         time.Time         `json:"updated_at"`
}

func ValidVideoStatus(status string) bool {
	switch VideoStatus(status) {
	case StatusUploading, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

func ValidSensitivityStatus(status string) bool {
	switch SensitivityStatus(status) {
	case SensitivityPending, SensitivitySafe, SensitivityFlagged:
		return true
	default:
		return false
	}
}
