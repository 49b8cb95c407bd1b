package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/reelpoint/reelpoint-server/internal/access"
	"github.com/reelpoint/reelpoint-server/internal/media"
	"github.com/reelpoint/reelpoint-server/internal/middlewares"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/reelpoint/reelpoint-server/internal/notifier"
	"github.com/reelpoint/reelpoint-server/internal/pipeline"
	"github.com/reelpoint/reelpoint-server/internal/sensitivity"
	"github.com/reelpoint/reelpoint-server/internal/store"
)

type videoFixture struct {
	handler *VideoHandler
	videos  *MockVideoStore
	router  *chi.Mux
	dir     string
}

func newVideoFixture(t *testing.T) *videoFixture {
	t.Helper()

	dir := t.TempDir()
	videos := new(MockVideoStore)

	engine, err := media.NewFFmpegEngine(filepath.Join(dir, "processed"), testLogger())
	assert.NoError(t, err)
	processor := pipeline.NewProcessor(videos, engine, sensitivity.NewAnalyzer(), notifier.NewMemoryNotifier(), testLogger())

	handler := NewVideoHandler(videos, processor, testLogger(), dir, dir)

	router := chi.NewRouter()
	router.Post("/api/v1/videos/upload", handler.HandlerUploadVideo)
	router.Get("/api/v1/videos", handler.HandlerGetVideos)
	router.Get("/api/v1/videos/{id}", handler.HandlerGetVideoByID)
	router.Patch("/api/v1/videos/{id}", handler.HandlerUpdateVideo)
	router.Delete("/api/v1/videos/{id}", handler.HandlerDeleteVideo)
	router.Post("/api/v1/videos/{id}/assign", handler.HandlerAssignVideo)

	return &videoFixture{handler: handler, videos: videos, router: router, dir: dir}
}

func asUser(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), middlewares.UserContextKey, user)
	return req.WithContext(ctx)
}

func orgUser(role string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Role:         role,
		Organization: "acme",
		Is_Active:    true,
	}
}

func ownedVideo(owner *models.User) *models.Video {
	return &models.Video{
		Id:           uuid.New(),
		Title:        "clip",
		FilePath:     "/data/uploads/clip.mp4",
		MimeType:     "video/mp4",
		Status:       models.StatusCompleted,
		UploadedBy:   owner.ID,
		Organization: owner.Organization,
		AssignedTo:   []uuid.UUID{},
		Tags:         []string{},
	}
}

func TestHandlerGetVideos(t *testing.T) {

	t.Run("editor scope is passed through to the store", func(t *testing.T) {
		f := newVideoFixture(t)
		editor := orgUser(models.RoleEditor)

		f.videos.On("List", mock.Anything, mock.MatchedBy(func(scope access.Scope) bool {
			return scope.OwnerOnly && scope.OwnerID == editor.ID && scope.Organization == "acme"
		})).Return(&store.VideosResponse{Videos: []models.Video{}, Page: 1, Limit: 20}, nil)

		req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil), editor)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.videos.AssertExpectations(t)
	})

	t.Run("filters are validated before reaching the store", func(t *testing.T) {
		f := newVideoFixture(t)
		admin := orgUser(models.RoleAdmin)

		f.videos.On("List", mock.MatchedBy(func(params store.ListVideosParams) bool {
			return params.Status == "completed" && params.SensitivityStatus == "" && params.Limit == 20
		}), mock.Anything).Return(&store.VideosResponse{Videos: []models.Video{}}, nil)

		target := "/api/v1/videos?status=completed&sensitivityStatus=bogus&limit=9999"
		req := asUser(httptest.NewRequest(http.MethodGet, target, nil), admin)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.videos.AssertExpectations(t)
	})
}

func TestHandlerGetVideoByID(t *testing.T) {

	t.Run("owner sees own record", func(t *testing.T) {
		f := newVideoFixture(t)
		owner := orgUser(models.RoleEditor)
		video := ownedVideo(owner)
		f.videos.On("GetByID", video.Id).Return(video, nil)

		req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.Id.String(), nil), owner)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-owner editor is denied", func(t *testing.T) {
		f := newVideoFixture(t)
		owner := orgUser(models.RoleEditor)
		video := ownedVideo(owner)
		f.videos.On("GetByID", video.Id).Return(video, nil)

		req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.Id.String(), nil), orgUser(models.RoleEditor))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown id yields 404", func(t *testing.T) {
		f := newVideoFixture(t)
		missing := uuid.New()
		f.videos.On("GetByID", missing).Return(nil, store.ErrNotFound)

		req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+missing.String(), nil), orgUser(models.RoleAdmin))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandlerUpdateVideo(t *testing.T) {

	t.Run("owner updates metadata", func(t *testing.T) {
		f := newVideoFixture(t)
		owner := orgUser(models.RoleEditor)
		video := ownedVideo(owner)
		f.videos.On("GetByID", video.Id).Return(video, nil)
		f.videos.On("Save", video).Return(nil)

		body := strings.NewReader(`{"title":"new title","tags":"a, b","is_public":true}`)
		req := asUser(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+video.Id.String(), body), owner)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "new title", video.Title)
		assert.Equal(t, []string{"a", "b"}, video.Tags)
		assert.True(t, video.Is_Public)
	})

	t.Run("cross-org admin cannot update", func(t *testing.T) {
		f := newVideoFixture(t)
		owner := orgUser(models.RoleEditor)
		video := ownedVideo(owner)
		f.videos.On("GetByID", video.Id).Return(video, nil)

		outsider := &models.User{ID: uuid.New(), Role: models.RoleAdmin, Organization: "globex"}
		body := strings.NewReader(`{"title":"hijacked"}`)
		req := asUser(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+video.Id.String(), body), outsider)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.videos.AssertNotCalled(t, "Save", mock.Anything)
	})
}

func TestHandlerAssignVideo(t *testing.T) {
	f := newVideoFixture(t)
	admin := orgUser(models.RoleAdmin)
	owner := orgUser(models.RoleEditor)
	video := ownedVideo(owner)
	f.videos.On("GetByID", video.Id).Return(video, nil)
	f.videos.On("Save", video).Return(nil)

	viewer := uuid.New()
	body := strings.NewReader(`{"userIds":["` + viewer.String() + `"]}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+video.Id.String()+"/assign", body), admin)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{viewer}, video.AssignedTo)
}

func TestHandlerDeleteVideo(t *testing.T) {
	f := newVideoFixture(t)
	owner := orgUser(models.RoleEditor)
	video := ownedVideo(owner)

	video.FilePath = writeAsset(t, f.dir, "original.mp4")
	writeAsset(t, f.dir, "processed-original.mp4")
	video.ProcessedPath = "/processed-original.mp4"

	f.videos.On("GetByID", video.Id).Return(video, nil)
	f.videos.On("Delete", video.Id).Return(nil)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+video.Id.String(), nil), owner)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, video.FilePath)
	assert.NoFileExists(t, filepath.Join(f.dir, "processed-original.mp4"))
}

func TestHandlerUploadVideo(t *testing.T) {

	buildUpload := func(t *testing.T, fieldName, filename, contentType string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="` + fieldName + `"; filename="` + filename + `"`}
		header["Content-Type"] = []string{contentType}
		part, err := writer.CreatePart(header)
		assert.NoError(t, err)
		_, err = part.Write([]byte("fake video bytes"))
		assert.NoError(t, err)

		assert.NoError(t, writer.WriteField("title", "My Clip"))
		assert.NoError(t, writer.WriteField("tags", "demo, test"))
		assert.NoError(t, writer.Close())
		return &buf, writer.FormDataContentType()
	}

	t.Run("creates the record and responds 201", func(t *testing.T) {
		f := newVideoFixture(t)
		editor := orgUser(models.RoleEditor)

		var created *models.Video
		f.videos.On("Create", mock.AnythingOfType("*models.Video")).Run(func(args mock.Arguments) {
			created = args.Get(0).(*models.Video)
		}).Return(nil)
		// The fire-and-forget pipeline run will look the record up again;
		// give it a terminal answer so the goroutine exits quickly.
		f.videos.On("GetByID", mock.Anything).Return(nil, store.ErrNotFound).Maybe()

		body, contentType := buildUpload(t, "video", "clip.mp4", "video/mp4")
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", body), editor)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		if assert.NotNil(t, created) {
			assert.Equal(t, "My Clip", created.Title)
			assert.Equal(t, "clip.mp4", created.OriginalName)
			assert.Equal(t, models.StatusUploading, created.Status)
			assert.Equal(t, models.SensitivityPending, created.SensitivityStatus)
			assert.Equal(t, editor.ID, created.UploadedBy)
			assert.Equal(t, "acme", created.Organization)
			assert.Equal(t, []string{"demo", "test"}, created.Tags)
			assert.FileExists(t, created.FilePath)
		}
	})

	t.Run("rejects non-video uploads", func(t *testing.T) {
		f := newVideoFixture(t)
		editor := orgUser(models.RoleEditor)

		body, contentType := buildUpload(t, "video", "notes.txt", "text/plain")
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", body), editor)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.videos.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("rejects requests without a file", func(t *testing.T) {
		f := newVideoFixture(t)
		editor := orgUser(models.RoleEditor)

		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", strings.NewReader("")), editor)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
