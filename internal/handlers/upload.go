package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studentmart/backend/internal/uploads"
)

type UploadHandler struct {
	Signer uploads.Signer
}

func (h *UploadHandler) SignedURL(c echo.Context) error {
	var req struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
		Folder   string `json:"folder"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.FileName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "fileName required")
	}

	signed, err := h.Signer.SignUpload(c.Request().Context(), req.FileName, req.FileType, req.Folder)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "storage provider error")
	}
	return c.JSON(http.StatusOK, signed)
}
