package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/events"
	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/service/search"
	"github.com/studentmart/backend/internal/util"
)

type ProjectHandler struct {
	DB       *gorm.DB
	Producer events.Publisher
	ES       *elasticsearch.Client
	Index    string
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProjectHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicOrderEvents, fmt.Sprint(event["projectID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *ProjectHandler) reindex(c echo.Context, p *models.Project) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProject(ctx, h.ES, h.Index, p); err != nil {
		c.Logger().Errorf("es index error: %v", err)
	}
}

// GetProjects is the catalog query: exact branch filter with the
// "All Branches" sentinel, case-insensitive substring search over
// title/description/tags and 1-indexed pagination with lenient input.
func (h *ProjectHandler) GetProjects(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), util.DefaultPage)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit, page := util.Calculate(page, limit)

	q := h.DB.Model(&models.Project{}).Where("approved = ?", true)

	if branch := c.QueryParam("branch"); branch != "" && branch != models.AllBranches {
		q = q.Where("branch = ?", branch)
	}
	if s := c.QueryParam("search"); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"lower(title) LIKE ? OR lower(description) LIKE ? OR lower(tags) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var projects []models.Project
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&projects).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if projects == nil {
		projects = []models.Project{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"projects":   projects,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": util.TotalPages(total, limit),
	})
}

func (h *ProjectHandler) GetFeatured(c echo.Context) error {
	var projects []models.Project
	if err := h.DB.
		Where("is_featured = ? AND approved = ?", true, true).
		Order("id ASC").
		Find(&projects).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": projects})
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var project models.Project
	if err := h.DB.First(&project, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Project not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"project": project})
}

type projectBody struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Branch      string            `json:"branch"`
	Tags        models.StringList `json:"tags"`
	// Pointer so a PATCH that omits the key leaves the flag untouched.
	IsFeatured *bool   `json:"isFeatured"`
	Price      float64 `json:"price"`
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req projectBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if !models.ValidBranch(req.Branch) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown branch")
	}

	project := models.Project{
		Title:       req.Title,
		Description: req.Description,
		Branch:      req.Branch,
		Tags:        req.Tags,
		IsFeatured:  req.IsFeatured != nil && *req.IsFeatured,
		Approved:    true,
		Price:       req.Price,
	}
	if err := h.DB.Create(&project).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	h.reindex(c, &project)
	h.publish(c, map[string]any{
		"type":      "project_created",
		"projectID": project.ID,
		"title":     project.Title,
	})

	return c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) PatchProject(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req projectBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var project models.Project
	if err := h.DB.First(&project, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	if req.Title != "" {
		project.Title = req.Title
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Branch != "" {
		if !models.ValidBranch(req.Branch) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown branch")
		}
		project.Branch = req.Branch
	}
	if req.Tags != nil {
		project.Tags = req.Tags
	}
	if req.Price > 0 {
		project.Price = req.Price
	}
	if req.IsFeatured != nil {
		project.IsFeatured = *req.IsFeatured
	}

	if err := h.DB.Save(&project).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	h.reindex(c, &project)
	h.publish(c, map[string]any{
		"type":      "project_updated",
		"projectID": project.ID,
		"title":     project.Title,
	})

	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.Project{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProject(ctx, h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("es delete error: %v", err)
		}
	}
	h.publish(c, map[string]any{
		"type":      "project_deleted",
		"projectID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// setApproval backs the admin approve/reject endpoints.
func (h *ProjectHandler) setApproval(c echo.Context, approved bool) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	res := h.DB.Model(&models.Project{}).Where("id = ?", id).Update("approved", approved)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *ProjectHandler) Approve(c echo.Context) error {
	return h.setApproval(c, true)
}

func (h *ProjectHandler) Reject(c echo.Context) error {
	return h.setApproval(c, false)
}
