package handlers

import (
	"net/http"
	"strconv"

	"socialfeed/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type pageQuery struct {
	limit  int
	cursor string
}

func parsePageQuery(c *gin.Context) (pageQuery, error) {
	q := pageQuery{cursor: c.Query("cursor")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, utils.NewValidationError("parsePageQuery", "limit must be a non-negative integer")
		}
		q.limit = n
	}
	return q, nil
}

// GetForYouFeedHandler serves the personalized core feed. With
// excludeSeen=true, posts already marked seen are dropped from the page.
func (hb *HandlerBundle) GetForYouFeedHandler(c *gin.Context) {
	logger := getLogger(c)
	q, err := parsePageQuery(c)
	if err != nil {
		utils.AbortWithAppError(c, "Invalid page parameters", err)
		return
	}

	viewer := viewerID(c)
	resp, err := hb.Feeds.GeneratePersonalizedCoreFeed(c.Request.Context(), viewer, q.limit, q.cursor)
	if err != nil {
		logger.Error("Failed to generate feed", zap.String("viewerId", viewer), zap.Error(err))
		utils.AbortWithAppError(c, "Failed to generate feed", err)
		return
	}

	if c.Query("excludeSeen") == "true" && len(resp.IDs) > 0 {
		unseen, err := hb.Seen.FilterUnseen(c.Request.Context(), viewer, resp.IDs)
		if err != nil {
			logger.Error("Failed to filter seen posts", zap.String("viewerId", viewer), zap.Error(err))
			utils.AbortWithAppError(c, "Failed to filter seen posts", err)
			return
		}
		resp.IDs = unseen
	}

	c.JSON(http.StatusOK, resp)
}

// GetCachedFeedHandler serves the precomputed for_you sorted set.
func (hb *HandlerBundle) GetCachedFeedHandler(c *gin.Context) {
	q, err := parsePageQuery(c)
	if err != nil {
		utils.AbortWithAppError(c, "Invalid page parameters", err)
		return
	}
	resp, err := hb.Feeds.GetCachedFeed(c.Request.Context(), viewerID(c), q.limit, q.cursor)
	if err != nil {
		utils.AbortWithAppError(c, "Failed to read cached feed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrendingFeedHandler serves the global trending feed.
func (hb *HandlerBundle) GetTrendingFeedHandler(c *gin.Context) {
	q, err := parsePageQuery(c)
	if err != nil {
		utils.AbortWithAppError(c, "Invalid page parameters", err)
		return
	}
	resp, err := hb.Feeds.GetTrendingFeed(c.Request.Context(), q.limit, q.cursor)
	if err != nil {
		utils.AbortWithAppError(c, "Failed to read trending feed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkSeenHandler records a batch of post IDs as seen by the viewer.
func (hb *HandlerBundle) MarkSeenHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		PostIDs []string `json:"postIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	viewer := viewerID(c)
	if err := hb.Seen.MarkSeen(c.Request.Context(), viewer, input.PostIDs); err != nil {
		logger.Error("Failed to mark posts seen", zap.String("viewerId", viewer), zap.Error(err))
		utils.AbortWithAppError(c, "Failed to mark posts seen", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": len(input.PostIDs)})
}

// HasSeenHandler reports whether the viewer may have seen a post. False
// positives are possible, false negatives are not.
func (hb *HandlerBundle) HasSeenHandler(c *gin.Context) {
	postID := c.Param("postId")
	seen, err := hb.Seen.HasSeen(c.Request.Context(), viewerID(c), postID)
	if err != nil {
		utils.AbortWithAppError(c, "Failed to check seen state", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"postId": postID, "seen": seen})
}

// PublishPostHandler fans a post out to its author's followers.
func (hb *HandlerBundle) PublishPostHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		AuthorID string  `json:"authorId" binding:"required"`
		Score    float64 `json:"score"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	postID := c.Param("postId")
	delivered, err := hb.Feeds.PublishPost(c.Request.Context(), postID, input.AuthorID, input.Score)
	if err != nil {
		logger.Error("Failed to fan out post", zap.String("postId", postID), zap.Error(err))
		utils.AbortWithAppError(c, "Failed to publish post", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"postId": postID, "feeds": delivered})
}

// RetractPostHandler removes a post from every feed it was fanned out to.
// The author comes from the authorId query parameter.
func (hb *HandlerBundle) RetractPostHandler(c *gin.Context) {
	postID := c.Param("postId")
	if err := hb.Feeds.RetractPost(c.Request.Context(), postID, c.Query("authorId")); err != nil {
		utils.AbortWithAppError(c, "Failed to retract post", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetActivityHandler returns the platform activity level and current cache TTL.
func (hb *HandlerBundle) GetActivityHandler(c *gin.Context) {
	c.JSON(http.StatusOK, hb.Activity.Snapshot(c.Request.Context()))
}
