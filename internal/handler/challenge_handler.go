package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/db"
	"github.com/habitloop/internal/service"
)

type challengePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// ListChallenges 返回挑战列表
func (a *API) ListChallenges(c *gin.Context) {
	challenges, err := a.challenges.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取挑战列表失败")
		return
	}

	items := make([]gin.H, 0, len(challenges))
	for _, challenge := range challenges {
		items = append(items, challengeToPayload(challenge))
	}
	c.JSON(http.StatusOK, items)
}

// GetChallenge 返回单个挑战详情
func (a *API) GetChallenge(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	challenge, err := a.challenges.Get(id)
	if err != nil {
		handleChallengeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenge": challengeToPayload(*challenge)})
}

// CreateChallenge 创建挑战
func (a *API) CreateChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	input, ok := parseChallengeInput(c)
	if !ok {
		return
	}

	challenge, err := a.challenges.Create(userID, input)
	if err != nil {
		handleChallengeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "挑战创建成功", "challenge": challengeToPayload(*challenge)})
}

// UpdateChallenge 更新挑战，仅创建者可操作
func (a *API) UpdateChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	input, ok := parseChallengeInput(c)
	if !ok {
		return
	}

	challenge, err := a.challenges.Update(userID, id, input)
	if err != nil {
		handleChallengeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "挑战更新成功", "challenge": challengeToPayload(*challenge)})
}

// DeleteChallenge 删除挑战，仅创建者可操作
func (a *API) DeleteChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	if err := a.challenges.Delete(userID, id); err != nil {
		handleChallengeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "挑战已删除"})
}

func parseChallengeInput(c *gin.Context) (service.ChallengeInput, bool) {
	var payload challengePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.ChallengeInput{}, false
	}

	if strings.TrimSpace(payload.Name) == "" {
		respondError(c, http.StatusBadRequest, "挑战名称不能为空")
		return service.ChallengeInput{}, false
	}

	start, err := time.ParseInLocation(dateFormat, payload.StartDate, time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return service.ChallengeInput{}, false
	}
	end, err := time.ParseInLocation(dateFormat, payload.EndDate, time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的结束日期")
		return service.ChallengeInput{}, false
	}

	return service.ChallengeInput{
		Name:        payload.Name,
		Description: payload.Description,
		StartDate:   start,
		EndDate:     end,
	}, true
}

func challengeToPayload(challenge db.Challenge) gin.H {
	return gin.H{
		"id":          challenge.ID,
		"name":        challenge.Name,
		"description": challenge.Description,
		"created_by":  challenge.CreatedBy,
		"start_date":  challenge.StartDate.Format(dateFormat),
		"end_date":    challenge.EndDate.Format(dateFormat),
		"status":      service.ChallengeStatus(challenge, time.Now()),
		"created_at":  challenge.CreatedAt.Format(time.RFC3339),
		"updated_at":  challenge.UpdatedAt.Format(time.RFC3339),
	}
}

func handleChallengeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChallengeNotFound):
		respondError(c, http.StatusNotFound, "挑战不存在")
	case errors.Is(err, service.ErrChallengeDateOrder):
		respondError(c, http.StatusBadRequest, "开始日期必须早于结束日期")
	case errors.Is(err, service.ErrNotChallengeOwner):
		respondError(c, http.StatusForbidden, "只有创建者可以操作该挑战")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
