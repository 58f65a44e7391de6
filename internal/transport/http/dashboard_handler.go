package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "bizdash/internal/errors"
	mw "bizdash/internal/middleware"
	"bizdash/internal/services"
	"bizdash/internal/store"
)

// multipartOverhead is allowed on top of the upload limit for form framing.
const multipartOverhead = 1 << 20

// SheetRequest selects a Google Sheets range to ingest.
type SheetRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
	Range         string `json:"range"`
}

// DashboardHandler serves the dataset, processing and report endpoints.
type DashboardHandler struct {
	service        DashboardServiceInterface
	validator      *mw.Validator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		validator:      mw.NewValidator(logger),
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the /api/v1 routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/domains", h.ListDomains)

	r.Route("/datasets", func(r chi.Router) {
		r.Post("/", h.UploadDataset)
		r.With(mw.ContentTypeValidator(h.errorHandler, "application/json")).Post("/sheets", h.ImportSheet)
		r.Route("/{datasetID}", func(r chi.Router) {
			r.Get("/", h.GetDataset)
			r.Get("/countries", h.GetCountries)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.ContentTypeValidator(h.errorHandler, "application/json"))
		r.Post("/process", h.Process)
		r.Post("/reports", h.Report)
	})

	r.Get("/runs", h.ListRuns)
	return r
}

// ListDomains handles GET /api/v1/domains
func (h *DashboardHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Domains())
}

// UploadDataset handles POST /api/v1/datasets with a multipart "file" field.
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		default:
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return
	}
	defer file.Close()

	info, err := h.service.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset uploaded",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("dataset_id", info.ID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// ImportSheet handles POST /api/v1/datasets/sheets
func (h *DashboardHandler) ImportSheet(w http.ResponseWriter, r *http.Request) {
	var req SheetRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	info, err := h.service.IngestSheet(r.Context(), req.SpreadsheetID, req.Range)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// GetDataset handles GET /api/v1/datasets/{datasetID}
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Dataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetCountries handles GET /api/v1/datasets/{datasetID}/countries
func (h *DashboardHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.Countries(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, countries)
}

// Process handles POST /api/v1/process
func (h *DashboardHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req services.ProcessRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Process(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// Report handles POST /api/v1/reports
func (h *DashboardHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req services.ReportRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Report(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, res)
}

// ListRuns handles GET /api/v1/runs?limit=N&domain=D
func (h *DashboardHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := mw.QueryInt(r, "limit", 1, 500, store.DefaultListLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	runs, err := h.service.Runs(r.Context(), r.URL.Query().Get("domain"), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	render.JSON(w, r, runs)
}
