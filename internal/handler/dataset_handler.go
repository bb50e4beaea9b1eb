package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insighthub/internal/dataset"
	"github.com/xxxsen/insighthub/internal/pkg/errcode"
	"github.com/xxxsen/insighthub/internal/pkg/response"
	"github.com/xxxsen/insighthub/internal/service"
)

type DatasetHandler struct {
	datasets      *service.DatasetService
	maxUploadSize int64
}

func NewDatasetHandler(datasets *service.DatasetService, maxUploadSize int64) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, maxUploadSize: maxUploadSize}
}

func (h *DatasetHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if h.maxUploadSize > 0 {
		// multipart framing adds a little on top of the file itself
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file too large, max "+formatUploadLimit(h.maxUploadSize))
			return
		}
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file too large, max "+formatUploadLimit(h.maxUploadSize))
		return
	}
	if !dataset.IsTabular(file.Filename) {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "only .csv files are supported")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	data, err := io.ReadAll(opened)
	_ = opened.Close()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	result, err := h.datasets.Upload(c.Request.Context(), user, file.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *DatasetHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid limit")
			return
		}
		limit = n
	}
	files, err := h.datasets.ListFiles(c.Request.Context(), user, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"files": files})
}

func (h *DatasetHandler) Download(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	name := c.Param("name")
	rc, err := h.datasets.Open(c.Request.Context(), user, name)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *DatasetHandler) Insights(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	latest, err := h.datasets.LatestInsights(c.Request.Context(), user)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, latest)
}
