package profile

import (
	"errors"
	"net/http"

	"github.com/marsesrobotics/dashboard/internal/auth"
	"github.com/marsesrobotics/dashboard/internal/httputil"
	"github.com/marsesrobotics/dashboard/internal/logging"
	"github.com/marsesrobotics/dashboard/internal/user"
)

const multipartMemory = 8 << 20

// Handler serves profile picture uploads
type Handler struct {
	service  *Service
	maxBytes int64
}

func NewHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{service: service, maxBytes: maxBytes}
}

// UploadImageResponse is returned after a successful upload
type UploadImageResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// UploadImage replaces the signed-in user's profile picture
// @Summary      Upload profile picture
// @Description  Store an image (PNG, JPEG, GIF or WebP) and make it the current user's profile picture
// @Tags         user
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image"
// @Success      200 {object} UploadImageResponse
// @Failure      400 {object} httputil.ErrorResponse "No file or unsupported type"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      413 {object} httputil.ErrorResponse "File too large"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/user/upload-image [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Unauthorized", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.RespondErrorWithCode(w, "File too large", httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		httputil.RespondErrorWithCode(w, "No file uploaded", httputil.CodeNoFile, http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondErrorWithCode(w, "No file uploaded", httputil.CodeNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.service.UpdatePicture(r.Context(), userID, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyFile):
			httputil.RespondErrorWithCode(w, "No file uploaded", httputil.CodeNoFile, http.StatusBadRequest)
		case errors.Is(err, ErrFileTooLarge):
			httputil.RespondErrorWithCode(w, "File too large", httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
		case errors.Is(err, ErrUnsupportedType):
			httputil.RespondErrorWithCode(w, "Unsupported file type", httputil.CodeUnsupportedType, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusUnauthorized)
		default:
			logger.Error("profile picture upload failed", "user_id", userID, "error", err.Error())
			httputil.RespondErrorWithCode(w, "Error uploading file", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("profile picture updated", "user_id", userID, "url", url)

	httputil.RespondJSON(w, UploadImageResponse{Success: true, ImageURL: url}, http.StatusOK)
}
