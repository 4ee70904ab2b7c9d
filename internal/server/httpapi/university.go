package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/server/users"
)

// handleUniversityList returns registerable universities. The general
// pseudo-university that carries the shared boards is not listed.
func (s *Server) handleUniversityList(c *gin.Context) {
	list, err := s.repos.Universities().List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		if list[i].ID == users.GeneralUniversityID {
			continue
		}
		out = append(out, universityJSON(&list[i]))
	}

	respondData(c, http.StatusOK, out)
}

func (s *Server) handleUniversityGet(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid university id")
		return
	}
	if id == users.GeneralUniversityID {
		respondError(c, http.StatusForbidden, "not a real university")
		return
	}

	university, err := s.repos.Universities().GetByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, universityJSON(university))
}
