package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/reelpoint/reelpoint-server/internal/access"
	"github.com/reelpoint/reelpoint-server/internal/auth"
	"github.com/reelpoint/reelpoint-server/internal/store"
	"github.com/reelpoint/reelpoint-server/internal/utils"
)

var streamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "video_stream_requests_total",
	Help: "Total number of stream requests by response code",
}, []string{"code"})

type StreamHandler struct {
	Videos store.VideoStore
	Auth   auth.TokenVerifier
	Logger *log.Logger
	// MediaRoot resolves the relative processed path stored on the record.
	MediaRoot string
}

func NewStreamHandler(videos store.VideoStore, verifier auth.TokenVerifier, logger *log.Logger, mediaRoot string) *StreamHandler {
	return &StreamHandler{
		Videos:    videos,
		Auth:      verifier,
		Logger:    logger,
		MediaRoot: mediaRoot,
	}
}

// HandlerStreamVideo authenticates the caller itself rather than through the
// middleware: the browser video element cannot set an Authorization header,
// so the token is also accepted as a query parameter.
func (sh *StreamHandler) HandlerStreamVideo(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		streamRequestsTotal.WithLabelValues("401").Inc()
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "No authorization token provided"})
		return
	}

	user, err := sh.Auth.VerifyToken(token)
	if err != nil {
		sh.Logger.Println("Token verification error:", err)
		streamRequestsTotal.WithLabelValues("401").Inc()
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Invalid or expired token"})
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		streamRequestsTotal.WithLabelValues("404").Inc()
		utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"message": "Video not found"})
		return
	}

	video, err := sh.Videos.GetByID(videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			streamRequestsTotal.WithLabelValues("404").Inc()
			utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"message": "Video not found"})
			return
		}
		sh.Logger.Println("Error getting video from store:", err)
		streamRequestsTotal.WithLabelValues("500").Inc()
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	if err := access.CanStream(access.ActorFromUser(user), video); err != nil {
		streamRequestsTotal.WithLabelValues("403").Inc()
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": err.Error()})
		return
	}

	// Prefer the processed rendition when the pipeline has produced one.
	videoPath := video.FilePath
	if video.ProcessedPath != "" {
		videoPath = resolveMediaPath(sh.MediaRoot, video.ProcessedPath)
	}

	file, err := os.Open(videoPath)
	if err != nil {
		sh.Logger.Printf("Video file not found: %s", videoPath)
		streamRequestsTotal.WithLabelValues("404").Inc()
		utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"message": "Video file not found on server"})
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		sh.Logger.Println("Error stating video file:", err)
		streamRequestsTotal.WithLabelValues("500").Inc()
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}
	fileSize := stat.Size()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", video.MimeType)
	w.Header().Set("Cache-Control", "no-cache")

	var start, end int64
	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		var ok bool
		start, end, ok = parseRange(rangeHeader, fileSize)
		if !ok {
			streamRequestsTotal.WithLabelValues("416").Inc()
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}

		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
		w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
		streamRequestsTotal.WithLabelValues("206").Inc()
		w.WriteHeader(http.StatusPartialContent)
	} else {
		start, end = 0, fileSize-1
		w.Header().Set("Content-Length", strconv.FormatInt(fileSize, 10))
		streamRequestsTotal.WithLabelValues("200").Inc()
		w.WriteHeader(http.StatusOK)
	}

	// The response has begun; bump the view counter off the request path so
	// it can neither delay the stream nor surface as a streaming error.
	go func(id uuid.UUID) {
		if err := sh.Videos.IncrementViews(id); err != nil {
			sh.Logger.Println("Error incrementing views:", err)
		}
	}(video.Id)

	// Headers are sent. From here on any error is logged, never re-emitted
	// as a JSON body on the committed binary stream.
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		sh.Logger.Println("Error seeking video file:", err)
		return
	}
	if _, err := io.CopyN(w, file, end-start+1); err != nil {
		sh.Logger.Println("Streaming error:", err)
	}
}

// parseRange handles "bytes=start-end", "bytes=start-" and the suffix form
// "bytes=-n".
func parseRange(header string, size int64) (int64, int64, bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") {
		return 0, 0, false
	}

	startStr, endStr, found := strings.Cut(strings.TrimSpace(spec), "-")
	if !found {
		return 0, 0, false
	}

	if startStr == "" {
		// Suffix form: the last n bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= size {
			end = size - 1
		}
	}

	return start, end, true
}
