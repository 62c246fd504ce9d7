package http

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	app "aoi-workspace/internal/application"
	"aoi-workspace/internal/domain/entity"
)

// ConsoleSessionID — единственная сессия веб-консоли.
const ConsoleSessionID int64 = 0

// maxImageBytes — предельный размер загружаемого файла.
var maxImageBytes int64 = 32 << 20

type Handler struct {
	workspace *app.WorkspaceService
	catalog   *app.CatalogService
	log       zerolog.Logger
}

func NewHandler(workspace *app.WorkspaceService, catalog *app.CatalogService, log zerolog.Logger) *Handler {
	return &Handler{
		workspace: workspace,
		catalog:   catalog,
		log:       log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api/v1")
	{
		api.GET("/parts", h.listParts)

		api.GET("/session", h.getSession)
		api.DELETE("/session", h.clearSession)
		api.POST("/session/reset", h.resetSession)
		api.PUT("/session/parameters", h.updateParameters)
		api.PUT("/session/presentation", h.setPresentation)
		api.POST("/session/drag", h.drag)
		api.POST("/session/image", h.uploadImage)
		api.POST("/session/inspect", h.inspect)
		api.GET("/session/overlay.png", h.overlayPNG)
		api.GET("/session/preview.jpg", h.preview)
		api.GET("/session/history", h.history)
		api.GET("/session/history.csv", h.historyCSV)
		api.GET("/session/result.json", h.resultJSON)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type partsResponse struct {
	Parts    []entity.CatalogEntry `json:"parts"`
	Default  string                `json:"default"`
	Fallback bool                  `json:"fallback"`
}

func (h *Handler) listParts(c *gin.Context) {
	cat := h.catalog.Catalog()
	c.JSON(http.StatusOK, successResponse(partsResponse{
		Parts:    cat.Entries,
		Default:  cat.DefaultPartID(),
		Fallback: cat.Fallback,
	}))
}

type imageInfo struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Source string `json:"source"`
}

type overlayInfo struct {
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Visible       bool         `json:"visible"`
	StrokeWidth   int          `json:"stroke_width"`
	Box           *entity.BBox `json:"box"`
	PresentWidth  int          `json:"presentation_width"`
	PresentHeight int          `json:"presentation_height"`
}

type sessionResponse struct {
	State        entity.LifecycleState       `json:"state"`
	Status       string                      `json:"status"`
	Parameters   entity.InspectionParameters `json:"parameters"`
	Image        *imageInfo                  `json:"image"`
	Overlay      overlayInfo                 `json:"overlay"`
	DropActive   bool                        `json:"drop_active"`
	Result       *app.ResultView             `json:"result"`
	HistoryCount int                         `json:"history_count"`
}

func (h *Handler) getSession(c *gin.Context) {
	session, err := h.workspace.Session(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := sessionResponse{
		State:        session.State(),
		Parameters:   session.Parameters(),
		DropActive:   session.DropActive(),
		HistoryCount: len(session.History()),
	}
	if img := session.Image(); img != nil {
		resp.Image = &imageInfo{
			Name:   img.Name,
			Format: img.Format,
			Width:  img.Width,
			Height: img.Height,
			Source: string(img.Source),
		}
	}
	session.WithOverlay(func(o *entity.Overlay) {
		w, hgt := o.Size()
		pw, ph := o.PresentationSize()
		resp.Overlay = overlayInfo{
			Width:         w,
			Height:        hgt,
			Visible:       o.Visible(),
			StrokeWidth:   o.StrokeWidth(),
			Box:           o.Box(),
			PresentWidth:  pw,
			PresentHeight: ph,
		}
	})
	view, ok, err := h.workspace.LastView(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if ok {
		resp.Result = view
	}
	resp.Status = statusText(resp.State, resp.Result != nil)

	c.JSON(http.StatusOK, successResponse(resp))
}

// statusText — текст панели результата для текущего состояния.
func statusText(state entity.LifecycleState, hasResult bool) string {
	switch state {
	case entity.StatePending:
		return app.TextPending
	case entity.StateFailed:
		return app.TextFailed
	}
	if !hasResult {
		return app.TextNoResult
	}
	return ""
}

func (h *Handler) clearSession(c *gin.Context) {
	if err := h.workspace.Clear(c.Request.Context(), ConsoleSessionID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) resetSession(c *gin.Context) {
	if err := h.workspace.Reset(c.Request.Context(), ConsoleSessionID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateParameters(c *gin.Context) {
	var upd app.ParametersUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	params, err := h.workspace.UpdateParameters(c.Request.Context(), ConsoleSessionID, upd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(params))
}

type presentationRequest struct {
	Width  int `json:"width" binding:"min=0"`
	Height int `json:"height" binding:"min=0"`
}

// setPresentation сохраняет экранный размер превью. Координаты рамки от него не зависят.
func (h *Handler) setPresentation(c *gin.Context) {
	var req presentationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	session, err := h.workspace.Session(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	session.WithOverlay(func(o *entity.Overlay) {
		o.SetPresentationSize(req.Width, req.Height)
	})
	c.Status(http.StatusNoContent)
}

type dragRequest struct {
	Action string `json:"action" binding:"required,oneof=enter leave"`
}

func (h *Handler) drag(c *gin.Context) {
	var req dragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	ctx := c.Request.Context()
	var err error
	if req.Action == "enter" {
		err = h.workspace.DragEnter(ctx, ConsoleSessionID)
	} else {
		err = h.workspace.DragLeave(ctx, ConsoleSessionID)
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadImage(c *gin.Context) {
	source := entity.SourceChooser
	if c.Query("source") == string(entity.SourceDrop) {
		source = entity.SourceDrop
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if source == entity.SourceDrop {
			_ = h.workspace.DragLeave(c.Request.Context(), ConsoleSessionID)
		}
		c.JSON(http.StatusBadRequest, errorResponse("file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if int64(len(data)) > maxImageBytes {
		if source == entity.SourceDrop {
			_ = h.workspace.DragLeave(c.Request.Context(), ConsoleSessionID)
		}
		h.handleError(c, fmt.Errorf("%w: file exceeds %d bytes", entity.ErrInvalidInput, maxImageBytes))
		return
	}

	img, err := h.workspace.AcceptImage(c.Request.Context(), ConsoleSessionID, fh.Filename, data, source)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(imageInfo{
		Name:   img.Name,
		Format: img.Format,
		Width:  img.Width,
		Height: img.Height,
		Source: string(img.Source),
	}))
}

func (h *Handler) inspect(c *gin.Context) {
	out, err := h.workspace.Submit(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if out.State == entity.StateFailed {
		c.JSON(http.StatusBadGateway, gin.H{"error": app.TextFailed, "state": out.State})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":   out.State,
		"request": out.Request.ID,
		"data":    out.View,
	})
}

func (h *Handler) overlayPNG(c *gin.Context) {
	session, err := h.workspace.Session(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var (
		buf     bytes.Buffer
		visible bool
	)
	session.WithOverlay(func(o *entity.Overlay) {
		visible = o.Visible() && o.Ready()
		if visible {
			err = png.Encode(&buf, o.Buffer())
		}
	})
	if !visible {
		c.JSON(http.StatusNotFound, errorResponse("no image loaded"))
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) preview(c *gin.Context) {
	data, ok, err := h.workspace.Preview(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse("no image loaded"))
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (h *Handler) history(c *gin.Context) {
	rows, err := h.workspace.History(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(rows))
}

func (h *Handler) historyCSV(c *gin.Context) {
	exp, ok, err := h.workspace.ExportHistory(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(exp.Filename))
	c.Data(http.StatusOK, exp.ContentType, exp.Data)
}

func (h *Handler) resultJSON(c *gin.Context) {
	js, ok, err := h.workspace.LastResultJSON(c.Request.Context(), ConsoleSessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(js))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrNoImage):
		c.JSON(http.StatusBadRequest, errorResponse(app.TextNoImage))
	case errors.Is(err, entity.ErrImageDecode), errors.Is(err, entity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, entity.ErrStaleResponse):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
