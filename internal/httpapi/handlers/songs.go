package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/azuradaemon/hati/internal/common"
	"github.com/azuradaemon/hati/internal/song"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createSongReq struct {
	Title  string `json:"title" binding:"required"`
	Lyrics string `json:"lyrics" binding:"required"`
	Genre  string `json:"genre"`
}

func (h *Handler) ListSongs(c *gin.Context) {
	songs, err := h.Songs.List(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50020, "failed to list songs")
		return
	}
	c.JSON(http.StatusOK, songs)
}

func (h *Handler) CreateSong(c *gin.Context) {
	var req createSongReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10020, "title and lyrics required")
		return
	}
	s := &song.Song{
		Title:  req.Title,
		Lyrics: req.Lyrics,
		Genre:  req.Genre,
	}
	if err := h.Songs.Create(c.Request.Context(), s); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50021, "failed to create song")
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetSong(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10021, "invalid song id")
		return
	}
	s, err := h.Songs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40420, "song not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50022, "failed to fetch song")
		return
	}
	c.JSON(http.StatusOK, s)
}
