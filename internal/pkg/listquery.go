package pkg

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prasit-dev/pharmadmin/internal/engine"
)

// Gin context keys set by the auth middleware and read when building list
// queries and audit actors.
const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "user_role"
)

// reservedParams lists query parameter names used for pagination, sorting,
// search, and projection. Everything else is treated as a filter key.
var reservedParams = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"search": true,
	"fields": true,
}

// ParseListQuery extracts an engine.ListQuery from request query parameters
// and the authenticated caller identity. Page and limit bounds are enforced
// again by the engine; parsing here only needs to be permissive.
func ParseListQuery(c *gin.Context) engine.ListQuery {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(engine.DefaultLimit)))

	var fields []string
	if raw := c.Query("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] {
			continue
		}
		if len(values) > 0 && values[0] != "" {
			filters[key] = values[0]
		}
	}

	return engine.ListQuery{
		Page:    page,
		Limit:   limit,
		Search:  c.Query("search"),
		Sort:    c.Query("sort"),
		Fields:  fields,
		Filters: filters,
		Role:    c.GetString(ContextRoleKey),
		Actor:   c.GetString(ContextUserIDKey),
	}
}
