package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/reelpoint/reelpoint-server/internal/access"
	"github.com/reelpoint/reelpoint-server/internal/models"
)

type SortBy string
type SortOrder string

const (
	SortByCreatedAt SortBy    = "created_at"
	SortByTitle     SortBy    = "title"
	SortByViews     SortBy    = "views"
	SortByFileSize  SortBy    = "file_size"
	SortByDuration  SortBy    = "duration"
	OrderAsc        SortOrder = "asc"
	OrderDesc       SortOrder = "desc"
)

type ListVideosParams struct {
	Page              int       `json:"page"`
	Limit             int       `json:"limit"`
	Status            string    `json:"status"`
	SensitivityStatus string    `json:"sensitivity_status"`
	Search            string    `json:"search"`
	SortBy            SortBy    `json:"sort_by"`
	Order             SortOrder `json:"order"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	MinSize           int64     `json:"min_size"`
	MaxSize           int64     `json:"max_size"`
	MinDuration       int       `json:"min_duration"`
	MaxDuration       int       `json:"max_duration"`
}

type VideosResponse struct {
	Videos  []models.Video `json:"videos"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

type VideoStore interface {
	Create(video *models.Video) error
	GetByID(videoID uuid.UUID) (*models.Video, error)
	List(params ListVideosParams, scope access.Scope) (*VideosResponse, error)
	Save(video *models.Video) error
	IncrementViews(videoID uuid.UUID) error
	Delete(videoID uuid.UUID) error
}

type PostgresVideoStore struct {
	db *sql.DB
}

func NewPostgresVideoStore(db *sql.DB) *PostgresVideoStore {
	if db == nil {
		panic("db cannot be nil for PostgresVideoStore")
	}
	return &PostgresVideoStore{db: db}
}

const videoColumns = `
	v.id,
	v.title,
	v.description,
	v.filename,
	v.original_name,
	v.file_path,
	COALESCE(v.processed_path, ''),
	COALESCE(v.thumbnail_path, ''),
	v.file_size,
	v.duration,
	v.mime_type,
	v.status,
	v.processing_progress,
	v.sensitivity_status,
	COALESCE(v.sensitivity_score, 0),
	v.sensitivity_details,
	v.uploaded_by,
	v.organization,
	v.assigned_to,
	v.is_public,
	v.views,
	v.tags,
	v.created_at,
	v.updated_at`

func scanVideo(row interface{ Scan(...interface{}) error }) (*models.Video, error) {
	var video models.Video
	var assigned []string
	var tags []string
	var details []byte

	err := row.Scan(
		&video.Id,
		&video.Title,
		&video.Description,
		&video.Filename,
		&video.OriginalName,
		&video.FilePath,
		&video.ProcessedPath,
		&video.ThumbnailPath,
		&video.FileSize,
		&video.Duration,
		&video.MimeType,
		&video.Status,
		&video.ProcessingProgress,
		&video.SensitivityStatus,
		&video.SensitivityScore,
		&details,
		&video.UploadedBy,
		&video.Organization,
		pq.Array(&assigned),
		&video.Is_Public,
		&video.Views,
		pq.Array(&tags),
		&video.Created_At,
		&video.Updated_At,
	)
	if err != nil {
		return nil, err
	}

	video.SensitivityDetails = details
	video.Tags = tags
	video.AssignedTo, err = parseUUIDs(assigned)
	if err != nil {
		return nil, fmt.Errorf("failed to parse assigned_to: %w", err)
	}

	return &video, nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	return values
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func (pg *PostgresVideoStore) Create(video *models.Video) error {
	if video.Id == uuid.Nil {
		video.Id = uuid.New()
	}

	query := `
		INSERT INTO videos (
			id, title, description, filename, original_name, file_path,
			processed_path, thumbnail_path, file_size, duration, mime_type,
			status, processing_progress, sensitivity_status, sensitivity_score,
			sensitivity_details, uploaded_by, organization, assigned_to,
			is_public, views, tags
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			NULLIF($15, 0::double precision), $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at, updated_at
	`

	var details interface{}
	if len(video.SensitivityDetails) > 0 {
		details = []byte(video.SensitivityDetails)
	}

	err := pg.db.QueryRow(query,
		video.Id,
		video.Title,
		video.Description,
		video.Filename,
		video.OriginalName,
		video.FilePath,
		nullString(video.ProcessedPath),
		nullString(video.ThumbnailPath),
		video.FileSize,
		video.Duration,
		video.MimeType,
		video.Status,
		video.ProcessingProgress,
		video.SensitivityStatus,
		video.SensitivityScore,
		details,
		video.UploadedBy,
		video.Organization,
		pq.Array(uuidStrings(video.AssignedTo)),
		video.Is_Public,
		video.Views,
		pq.Array(video.Tags),
	).Scan(&video.Created_At, &video.Updated_At)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

func (pg *PostgresVideoStore) GetByID(videoID uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos v WHERE v.id = $1`

	video, err := scanVideo(pg.db.QueryRow(query, videoID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return video, nil
}

func (pg *PostgresVideoStore) List(params ListVideosParams, scope access.Scope) (*VideosResponse, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argPos := 1

	if !scope.All {
		whereClauses = append(whereClauses, fmt.Sprintf("v.organization = $%d", argPos))
		args = append(args, scope.Organization)
		argPos++
	}

	if scope.OwnerOnly {
		whereClauses = append(whereClauses, fmt.Sprintf("v.uploaded_by = $%d", argPos))
		args = append(args, scope.OwnerID)
		argPos++
	} else if scope.AssignedOrPublic {
		whereClauses = append(whereClauses, fmt.Sprintf("($%d = ANY(v.assigned_to) OR v.is_public = true)", argPos))
		args = append(args, scope.OwnerID.String())
		argPos++
	}

	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("v.status = $%d", argPos))
		args = append(args, params.Status)
		argPos++
	}

	if params.SensitivityStatus != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("v.sensitivity_status = $%d", argPos))
		args = append(args, params.SensitivityStatus)
		argPos++
	}

	if strings.TrimSpace(params.Search) != "" {
		likeQuery := "%" + strings.TrimSpace(params.Search) + "%"
		whereClauses = append(whereClauses, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", argPos, argPos))
		args = append(args, likeQuery)
		argPos++
	}

	if !params.StartDate.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("v.created_at >= $%d", argPos))
		args = append(args, params.StartDate)
		argPos++
	}

	if !params.EndDate.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("v.created_at <= $%d", argPos))
		args = append(args, params.EndDate)
		argPos++
	}

	if params.MinSize > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("v.file_size >= $%d", argPos))
		args = append(args, params.MinSize)
		argPos++
	}

	if params.MaxSize > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("v.file_size <= $%d", argPos))
		args = append(args, params.MaxSize)
		argPos++
	}

	if params.MinDuration > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("v.duration >= $%d", argPos))
		args = append(args, params.MinDuration)
		argPos++
	}

	if params.MaxDuration > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("v.duration <= $%d", argPos))
		args = append(args, params.MaxDuration)
		argPos++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	direction := "DESC"
	if params.Order == OrderAsc {
		direction = "ASC"
	}
	orderClause := fmt.Sprintf("ORDER BY v.%s %s", ValidateSortBy(string(params.SortBy)), direction)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM videos v %s", whereClause)

	var total int
	err := pg.db.QueryRow(countQuery, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count videos: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	query := fmt.Sprintf("SELECT %s FROM videos v %s %s LIMIT $%d OFFSET $%d",
		videoColumns, whereClause, orderClause, argPos, argPos+1)
	args = append(args, params.Limit, offset)

	rows, err := pg.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *video)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over video rows: %w", err)
	}

	return &VideosResponse{
		Videos:  videos,
		Page:    params.Page,
		Limit:   params.Limit,
		Total:   total,
		HasMore: offset+len(videos) < total,
	}, nil
}

func (pg *PostgresVideoStore) Save(video *models.Video) error {
	query := `
		UPDATE videos
		SET title = $2,
			description = $3,
			processed_path = $4,
			thumbnail_path = $5,
			duration = $6,
			status = $7,
			processing_progress = $8,
			sensitivity_status = $9,
			sensitivity_score = NULLIF($10, 0::double precision),
			sensitivity_details = COALESCE($11, sensitivity_details),
			assigned_to = $12,
			is_public = $13,
			tags = $14,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	var details interface{}
	if len(video.SensitivityDetails) > 0 {
		details = []byte(video.SensitivityDetails)
	}

	err := pg.db.QueryRow(query,
		video.Id,
		video.Title,
		video.Description,
		nullString(video.ProcessedPath),
		nullString(video.ThumbnailPath),
		video.Duration,
		video.Status,
		video.ProcessingProgress,
		video.SensitivityStatus,
		video.SensitivityScore,
		details,
		pq.Array(uuidStrings(video.AssignedTo)),
		video.Is_Public,
		pq.Array(video.Tags),
	).Scan(&video.Updated_At)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to save video: %w", err)
	}

	return nil
}

// IncrementViews bumps the view counter in a single UPDATE so concurrent
// stream requests never lose an increment.
func (pg *PostgresVideoStore) IncrementViews(videoID uuid.UUID) error {
	query := `
		UPDATE videos
		SET views = views + 1
		WHERE id = $1
	`

	result, err := pg.db.Exec(query, videoID)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (pg *PostgresVideoStore) Delete(videoID uuid.UUID) error {
	result, err := pg.db.Exec(`DELETE FROM videos WHERE id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func ValidateSortBy(sortBy string) SortBy {
	switch SortBy(sortBy) {
	case SortByCreatedAt, SortByTitle, SortByViews, SortByFileSize, SortByDuration:
		return SortBy(sortBy)
	default:
		return SortByCreatedAt
	}
}

func ValidateSortOrder(order string) SortOrder {
	switch SortOrder(order) {
	case OrderAsc, OrderDesc:
		return SortOrder(order)
	default:
		return OrderDesc
	}
}
