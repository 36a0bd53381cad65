package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pharmavoz/backend/internal/domain"
	"github.com/pharmavoz/backend/internal/observability"
	"github.com/pharmavoz/backend/internal/usecase"
)

const (
	serviceName    = "pharmavoz-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers. Any service may be nil, in which case
// its endpoints answer 503.
type Handler struct {
	pricing        *usecase.PricingService
	catalog        *usecase.CatalogService
	rates          *usecase.RateService
	logger         zerolog.Logger
	maxUploadBytes int64
}

// HandlerConfig holds the services behind the API
type HandlerConfig struct {
	Pricing        *usecase.PricingService
	Catalog        *usecase.CatalogService
	Rates          *usecase.RateService
	Logger         *zerolog.Logger
	MaxUploadBytes int64
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg HandlerConfig) *Handler {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		pricing:        cfg.Pricing,
		catalog:        cfg.Catalog,
		rates:          cfg.Rates,
		logger:         logger,
		maxUploadBytes: maxUpload,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// QueryPrice answers a typed or transcribed price question
func (h *Handler) QueryPrice(c *gin.Context) {
	if h.pricing == nil {
		respondNotConfigured(c, "price queries")
		return
	}

	var req domain.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	result, err := h.pricing.QuotePrice(c.Request.Context(), c.Param("tenant"), req.Question, req.Verbose)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newQuoteResponse(result))
}

// QueryPrescription reads a medicine name from an uploaded prescription photo and prices it
func (h *Handler) QueryPrescription(c *gin.Context) {
	if h.pricing == nil {
		respondNotConfigured(c, "prescription queries")
		return
	}

	h.limitBody(c)
	file, err := formFile(c, "image")
	if errors.Is(err, errUploadTooLarge) {
		h.respondError(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	image, err := h.readUpload(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded file is not an image"})
		return
	}

	verbose, _ := strconv.ParseBool(c.PostForm("verbose"))

	result, err := h.pricing.QuotePrescription(c.Request.Context(), c.Param("tenant"), image, mimeType, verbose)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newQuoteResponse(result))
}

// UploadCatalog replaces the tenant catalog with a spreadsheet or a JSON row list
func (h *Handler) UploadCatalog(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog uploads")
		return
	}

	tenant := c.Param("tenant")
	ctx := c.Request.Context()

	var (
		summary *domain.UploadSummary
		err     error
	)

	h.limitBody(c)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, ferr := formFile(c, "file")
		if errors.Is(ferr, errUploadTooLarge) {
			h.respondError(c, ferr)
			return
		}
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "catalog file is required"})
			return
		}
		if file.Size > h.maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "catalog file is too large"})
			return
		}

		f, oerr := file.Open()
		if oerr != nil {
			h.respondError(c, oerr)
			return
		}
		defer f.Close()

		summary, err = h.catalog.ImportFile(ctx, tenant, file.Filename, f)
	} else {
		var req domain.CatalogUploadRequest
		if berr := c.ShouldBindJSON(&req); berr != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(berr, &tooLarge) {
				h.respondError(c, errUploadTooLarge)
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "rows are required"})
			return
		}
		summary, err = h.catalog.ReplaceCatalog(ctx, tenant, req.Rows)
	}

	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCatalog lists the current products of a tenant
func (h *Handler) GetCatalog(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog listing")
		return
	}

	snapshot, err := h.catalog.Snapshot(c.Request.Context(), c.Param("tenant"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	products := snapshot.Entries
	if products == nil {
		products = []domain.CatalogEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"tenant":   c.Param("tenant"),
		"count":    len(products),
		"products": products,
	})
}

// SetRate stores the tenant exchange rate
func (h *Handler) SetRate(c *gin.Context) {
	if h.rates == nil {
		respondNotConfigured(c, "exchange rates")
		return
	}

	var req domain.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidRate.Error()})
		return
	}

	tenant := c.Param("tenant")
	if err := h.rates.SetRate(c.Request.Context(), tenant, domain.ExchangeRate(req.Rate)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tenant": tenant, "rate": req.Rate})
}

// GetRate returns the rate used to price the tenant catalog
func (h *Handler) GetRate(c *gin.Context) {
	if h.rates == nil {
		respondNotConfigured(c, "exchange rates")
		return
	}

	tenant := c.Param("tenant")
	rate, err := h.rates.GetRate(c.Request.Context(), tenant)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tenant": tenant, "rate": float64(rate)})
}

// limitBody caps the request body so an oversized upload fails while it is read,
// before it is spooled to disk. The margin leaves room for the multipart framing.
func (h *Handler) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
}

// formFile is c.FormFile reporting errUploadTooLarge when the body went past the cap
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	file, err := c.FormFile(field)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errUploadTooLarge
	}
	return file, err
}

func (h *Handler) readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > h.maxUploadBytes {
		return nil, errUploadTooLarge
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

var errUploadTooLarge = errors.New("uploaded file is too large")

// respondError maps service errors to status codes in one place
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)

	logger := observability.FromContext(c.Request.Context(), h.logger)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("tenant", c.Param("tenant")).Int("status", status).Msg("request failed")

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrUnsupportedFile):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateNotSet):
		return http.StatusNotFound
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrEmptyCatalog),
		errors.Is(err, domain.ErrVisionNoResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrVisionFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrVisionUnavailable),
		errors.Is(err, domain.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondNotConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": feature + " not configured"})
}
