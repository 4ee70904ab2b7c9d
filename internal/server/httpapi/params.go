package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParam reads an optional positive page number path parameter,
// defaulting to the first page.
func pageParam(c *gin.Context, name string) int {
	page, err := strconv.Atoi(c.Param(name))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam reads a required numeric id path parameter. The second return
// value is false when the segment is not a positive integer.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
