package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/azuradaemon/hati/internal/common"
	"github.com/azuradaemon/hati/internal/project"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createProjectReq struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.Projects.List(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50010, "failed to list projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "title required")
		return
	}
	p := &project.Project{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
	}
	if err := h.Projects.Create(c.Request.Context(), p); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50011, "failed to create project")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10011, "invalid project id")
		return
	}
	p, err := h.Projects.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40410, "project not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50012, "failed to fetch project")
		return
	}
	c.JSON(http.StatusOK, p)
}
