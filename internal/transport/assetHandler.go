package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tallyfy/denizen-assets/internal/entity"
	"github.com/tallyfy/denizen-assets/internal/transport/middleware"
)

func (h *AssetHandler) UploadAsset(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	c.Set(middleware.AssetKey, file.Filename)

	ctx := c.Request.Context()
	result, err := h.service.Upload(ctx, file.Filename, src)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.service.Stage(ctx); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AssetHandler) GetAsset(c *gin.Context) {
	result, err := h.service.Describe(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AssetHandler) RunBatch(c *gin.Context) {
	report, err := h.service.Run(c.Request.Context())
	if err != nil {
		logrus.Errorf("Batch run failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AssetHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("Request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidAssetName), errors.Is(err, entity.ErrIgnoredAsset),
		errors.Is(err, entity.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrAssetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
