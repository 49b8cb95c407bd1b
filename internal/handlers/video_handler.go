package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/reelpoint/reelpoint-server/internal/access"
	"github.com/reelpoint/reelpoint-server/internal/middlewares"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/reelpoint/reelpoint-server/internal/pipeline"
	"github.com/reelpoint/reelpoint-server/internal/store"
	"github.com/reelpoint/reelpoint-server/internal/utils"
)

const maxUploadBytes = 2 << 30 // 2 GiB

type VideoHandler struct {
	Videos    store.VideoStore
	Pipeline  *pipeline.Processor
	Logger    *log.Logger
	UploadDir string
	// MediaRoot is the directory relative paths (processed, thumbnail) are
	// resolved against.
	MediaRoot string
}

func NewVideoHandler(videos store.VideoStore, p *pipeline.Processor, logger *log.Logger, uploadDir, mediaRoot string) *VideoHandler {
	return &VideoHandler{
		Videos:    videos,
		Pipeline:  p,
		Logger:    logger,
		UploadDir: uploadDir,
		MediaRoot: mediaRoot,
	}
}

func resolveMediaPath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}

func (vh *VideoHandler) HandlerUploadVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("video")
	if err != nil {
		vh.Logger.Println("Error reading upload:", err)
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "No video file uploaded"})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "video/") {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "Only video files are allowed"})
		return
	}

	filename := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), filepath.Ext(header.Filename))
	destPath := filepath.Join(vh.UploadDir, filename)

	dest, err := os.Create(destPath)
	if err != nil {
		vh.Logger.Println("Error creating upload file:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Error uploading video"})
		return
	}

	size, err := io.Copy(dest, file)
	dest.Close()
	if err != nil {
		vh.Logger.Println("Error writing upload file:", err)
		os.Remove(destPath)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Error uploading video"})
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	video := &models.Video{
		Title:             title,
		Description:       r.FormValue("description"),
		Filename:          filename,
		OriginalName:      header.Filename,
		FilePath:          destPath,
		FileSize:          size,
		MimeType:          mimeType,
		Status:            models.StatusUploading,
		SensitivityStatus: models.SensitivityPending,
		UploadedBy:        user.ID,
		Organization:      user.Organization,
		AssignedTo:        []uuid.UUID{},
		Tags:              splitTags(r.FormValue("tags")),
	}

	if err := vh.Videos.Create(video); err != nil {
		vh.Logger.Println("Error creating video record:", err)
		os.Remove(destPath)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Error uploading video"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{"message": "Video uploaded successfully", "data": utils.Envelope{"video": video}})

	// Fire and forget: the response is already written, processing continues
	// in the background with its own error boundary.
	go vh.Pipeline.Run(context.Background(), video.Id)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (vh *VideoHandler) HandlerGetVideos(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	page := utils.QueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := utils.QueryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	params := store.ListVideosParams{
		Page:        page,
		Limit:       limit,
		Search:      r.URL.Query().Get("search"),
		SortBy:      store.ValidateSortBy(r.URL.Query().Get("sortBy")),
		Order:       store.ValidateSortOrder(r.URL.Query().Get("order")),
		MinSize:     int64(utils.QueryInt(r, "minSize", 0)),
		MaxSize:     int64(utils.QueryInt(r, "maxSize", 0)),
		MinDuration: utils.QueryInt(r, "minDuration", 0),
		MaxDuration: utils.QueryInt(r, "maxDuration", 0),
	}

	if status := r.URL.Query().Get("status"); models.ValidVideoStatus(status) {
		params.Status = status
	}
	if status := r.URL.Query().Get("sensitivityStatus"); models.ValidSensitivityStatus(status) {
		params.SensitivityStatus = status
	}
	if start := parseDate(r.URL.Query().Get("startDate")); !start.IsZero() {
		params.StartDate = start
	}
	if end := parseDate(r.URL.Query().Get("endDate")); !end.IsZero() {
		params.EndDate = end
	}

	response, err := vh.Videos.List(params, access.ListScope(access.ActorFromUser(user)))
	if err != nil {
		vh.Logger.Println("Error listing videos:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": response})
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}

func (vh *VideoHandler) loadVideo(w http.ResponseWriter, r *http.Request) (*models.Video, bool) {
	id := chi.URLParam(r, "id")

	videoID, err := uuid.Parse(id)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"message": "Video not found"})
		return nil, false
	}

	video, err := vh.Videos.GetByID(videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"message": "Video not found"})
			return nil, false
		}
		vh.Logger.Println("Error getting video from store:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return nil, false
	}

	return video, true
}

func (vh *VideoHandler) HandlerGetVideoByID(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	video, ok := vh.loadVideo(w, r)
	if !ok {
		return
	}

	if err := access.CanMutate(access.ActorFromUser(user), video); err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": err.Error()})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": utils.Envelope{"video": video}})
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Tags        *string `json:"tags"`
	IsPublic    *bool   `json:"is_public"`
}

func (vh *VideoHandler) HandlerUpdateVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	video, ok := vh.loadVideo(w, r)
	if !ok {
		return
	}

	if err := access.CanMutate(access.ActorFromUser(user), video); err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": err.Error()})
		return
	}

	var req updateVideoRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		vh.Logger.Println("Error decoding update request:", err)
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "Bad Request"})
		return
	}

	if req.Title != nil && *req.Title != "" {
		video.Title = *req.Title
	}
	if req.Description != nil {
		video.Description = *req.Description
	}
	if req.Tags != nil {
		video.Tags = splitTags(*req.Tags)
	}
	if req.IsPublic != nil {
		video.Is_Public = *req.IsPublic
	}

	if err := vh.Videos.Save(video); err != nil {
		vh.Logger.Println("Error saving video:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"message": "Video updated successfully", "data": utils.Envelope{"video": video}})
}

type assignVideoRequest struct {
	UserIDs []uuid.UUID `json:"userIds"`
}

func (vh *VideoHandler) HandlerAssignVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	video, ok := vh.loadVideo(w, r)
	if !ok {
		return
	}

	if err := access.CanMutate(access.ActorFromUser(user), video); err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": err.Error()})
		return
	}

	var req assignVideoRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		vh.Logger.Println("Error decoding assign request:", err)
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "Bad Request"})
		return
	}

	video.AssignedTo = req.UserIDs
	if video.AssignedTo == nil {
		video.AssignedTo = []uuid.UUID{}
	}

	if err := vh.Videos.Save(video); err != nil {
		vh.Logger.Println("Error saving video assignments:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"message": "Video assigned successfully", "data": utils.Envelope{"video": video}})
}

func (vh *VideoHandler) HandlerDeleteVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	video, ok := vh.loadVideo(w, r)
	if !ok {
		return
	}

	if err := access.CanMutate(access.ActorFromUser(user), video); err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": err.Error()})
		return
	}

	for _, path := range []string{
		video.FilePath,
		resolveMediaPath(vh.MediaRoot, video.ProcessedPath),
		resolveMediaPath(vh.MediaRoot, video.ThumbnailPath),
	} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			vh.Logger.Printf("Error removing file %s: %v", path, err)
		}
	}

	if err := vh.Videos.Delete(video.Id); err != nil {
		vh.Logger.Println("Error deleting video:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"message": "Video deleted successfully"})
}
