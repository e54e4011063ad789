// Package controllers holds the HTTP handlers for the admin API. Handlers
// bind and validate input, resolve the actor, and delegate the interesting
// work to the services package.
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func pagePayload(items interface{}, page, pageSize int, total int64) gin.H {
	return gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
}
