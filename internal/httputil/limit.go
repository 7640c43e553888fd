package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseLimit parses the limit query parameter. An absent parameter yields def;
// an explicit value must lie between 1 and max.
func ParseLimit(c *gin.Context, def, max int) (int, error) {
	limitStr, ok := c.GetQuery("limit")
	if !ok {
		return def, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > max {
		return 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", max)
	}

	return limit, nil
}
