package httpapi

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/server/media"
)

// handleMedia streams a stored upload. Filenames are server-generated
// UUIDs, so anything that is not a bare whitelisted name is simply absent.
func (s *Server) handleMedia(c *gin.Context) {
	name := c.Param("filename")
	if name != filepath.Base(name) || media.Extension(name) == "" {
		respondError(c, http.StatusNotFound, "no such file")
		return
	}

	exists, err := s.media.Exists(c.Request.Context(), name)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "no such file")
		return
	}

	r, err := s.media.Open(c.Request.Context(), name)
	if err != nil {
		respondErr(c, err)
		return
	}
	defer r.Close()

	contentType := mime.TypeByExtension("." + media.Extension(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, r); err != nil {
		s.logger.Warn(c.Request.Context(), "media stream interrupted", "file", name, "err", err.Error())
	}
}
