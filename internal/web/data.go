package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noahxzhu/lighthouse/internal/model"
	"github.com/noahxzhu/lighthouse/internal/storage"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleGetData(c *gin.Context) {
	raw, err := s.store.Get(c.Request.Context(), s.opts.DataKey)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusOK, model.DefaultAppData())
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// handlePutData replaces the whole document. Last writer wins.
func (s *Server) handlePutData(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "Body too large")
			return
		}
		serverError(c, err)
		return
	}
	if !isJSONObject(body) {
		respondError(c, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := s.store.Put(c.Request.Context(), s.opts.DataKey, body); err != nil {
		serverError(c, err)
		return
	}
	respondOK(c)
}

func isJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
