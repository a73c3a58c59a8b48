package dashboard

import (
	"net/http"

	"github.com/marsesrobotics/dashboard/internal/httputil"
	"github.com/marsesrobotics/dashboard/internal/logging"
)

const (
	cacheControlOK    = "public, max-age=60, stale-while-revalidate=300"
	cacheControlError = "no-store"
)

// Handler serves the raw dashboard collections as JSON
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// DataResponse is the body of GET /api/dashboard
type DataResponse struct {
	Success    bool        `json:"success"`
	Charts     []Chart     `json:"charts"`
	Statistics []Statistic `json:"statistics"`
	Regions    []Region    `json:"regions"`
}

// DataErrorResponse is returned when the collections cannot be read
type DataErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Data returns all charts, statistics and regions
// @Summary      Dashboard data
// @Description  Return every chart, statistic and region document. Responses may be cached for 60 seconds.
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} DataResponse
// @Failure      500 {object} DataErrorResponse
// @Router       /api/dashboard [get]
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	data, err := h.service.Load(r.Context())
	if err != nil {
		logger.Error("failed to load dashboard data", "error", err.Error())
		w.Header().Set("Cache-Control", cacheControlError)
		httputil.RespondJSON(w, DataErrorResponse{
			Success: false,
			Error:   "Failed to fetch dashboard data",
		}, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", cacheControlOK)
	httputil.RespondJSON(w, DataResponse{
		Success:    true,
		Charts:     data.Charts,
		Statistics: data.Statistics,
		Regions:    data.Regions,
	}, http.StatusOK)
}
