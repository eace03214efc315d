package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// GetFeed 返回信息流，登录与否均可访问
// 登录用户的挑战条目会附带是否已加入的注解
func (a *API) GetFeed(c *gin.Context) {
	viewerID, _ := currentUserID(c)

	items, err := a.feed.Build(viewerID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取信息流失败")
		return
	}

	payload := make([]gin.H, 0, len(items))
	for _, item := range items {
		entry := gin.H{
			"type":             item.Type,
			"id":               item.ID,
			"title":            item.Title,
			"description":      item.Description,
			"description_html": renderMarkdown(item.Description),
			"user":             item.User,
			"comments":         item.Comments,
		}
		if item.Type == "challenge" {
			entry["created_by"] = item.CreatedBy
			entry["joined"] = item.Joined
		}
		payload = append(payload, entry)
	}
	c.JSON(http.StatusOK, payload)
}

// renderMarkdown 将描述渲染为净化后的 HTML
func renderMarkdown(content string) string {
	if content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes()))
}
