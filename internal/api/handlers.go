package api

import (
	"errors"
	"net/http"
	"strconv"

	"lyricsync/internal/lyrics"
	"lyricsync/pkg/music"
	"lyricsync/pkg/translate"

	"github.com/gin-gonic/gin"
)

type resolveQuery struct {
	ID       string  `form:"id"`
	Title    string  `form:"title"`
	Artist   string  `form:"artist"`
	Duration float64 `form:"duration"`
}

// handleResolve 按歌曲信息解析歌词，总是返回歌词（可能是占位歌词）
func (r *Router) handleResolve(c *gin.Context) {
	var q resolveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	song := music.SongInfo{ID: q.ID, Title: q.Title, Artist: q.Artist, Duration: q.Duration}
	tl := r.service.Resolve(c.Request.Context(), song)
	c.JSON(http.StatusOK, gin.H{"track_id": song.Key(), "lyrics": tl})
}

// handleGetTrack 获取已缓存的歌词
func (r *Router) handleGetTrack(c *gin.Context) {
	id := c.Param("id")
	tl, ok := r.service.Lyrics(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"track_id": id, "lyrics": tl})
}

// handleWindow 按播放位置返回展示窗口
func (r *Router) handleWindow(c *gin.Context) {
	id := c.Param("id")
	tl, ok := r.service.Lyrics(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	position, err := strconv.ParseFloat(c.DefaultQuery("position", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}
	before, err1 := strconv.Atoi(c.DefaultQuery("before", strconv.Itoa(r.opts.LinesBefore)))
	after, err2 := strconv.Atoi(c.DefaultQuery("after", strconv.Itoa(r.opts.LinesAfter)))
	if err1 != nil || err2 != nil || before < 0 || after < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window size"})
		return
	}

	m, _ := r.service.Translation(c.Request.Context(), id)
	frame := lyrics.BuildFrame(tl, m, position, before, after)
	frame.TrackID = id
	c.JSON(http.StatusOK, frame)
}

type translateRequest struct {
	Target string `json:"target"`
}

// handleTranslate 在后台开始翻译
func (r *Router) handleTranslate(c *gin.Context) {
	id := c.Param("id")
	var req translateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Target == "" {
		req.Target = c.DefaultQuery("target", r.opts.TargetLanguage)
	}

	jobID, m, err := r.service.TranslateAsync(id, req.Target)
	switch {
	case errors.Is(err, lyrics.ErrUnknownTrack):
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":   jobID,
		"track_id": id,
		"target":   m.Target(),
		"complete": m.Complete(),
	})
}

// handleGetTranslation 获取当前译文，翻译进行中时返回部分结果
func (r *Router) handleGetTranslation(c *gin.Context) {
	id := c.Param("id")
	m, ok := r.service.Translation(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "translation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"track_id": id,
		"target":   m.Target(),
		"complete": m.Complete(),
		"lines":    m.Snapshot(),
	})
}

type seekRequest struct {
	Index *int `json:"index" binding:"required"`
}

// handleSeek 跳转到某行歌词
func (r *Router) handleSeek(c *gin.Context) {
	id := c.Param("id")
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	position, err := r.service.SeekTarget(c.Request.Context(), id, *req.Index)
	switch {
	case errors.Is(err, lyrics.ErrUnknownTrack):
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seeked := false
	if r.seeker != nil {
		if err := r.seeker.SetPosition(position); err != nil {
			c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "player seek failed", "position": position})
			return
		}
		seeked = true
	}
	c.JSON(http.StatusOK, gin.H{"track_id": id, "index": *req.Index, "position": position, "seeked": seeked})
}

// handleClearCache 清空缓存
func (r *Router) handleClearCache(c *gin.Context) {
	r.service.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

// handleLanguages 可选的目标语言
func (r *Router) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": translate.AvailableLanguages, "default": r.opts.TargetLanguage})
}
