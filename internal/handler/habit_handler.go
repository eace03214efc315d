package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/db"
	"github.com/habitloop/internal/service"
)

type habitPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
}

type habitAssignPayload struct {
	HabitID uint `json:"habit_id"`
}

type habitEntryPayload struct {
	HabitID  uint   `json:"habit_id"`
	Progress string `json:"progress"`
	Notes    string `json:"notes"`
}

// ListHabits 返回习惯列表
func (a *API) ListHabits(c *gin.Context) {
	habits, err := a.habits.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}
	c.JSON(http.StatusOK, items)
}

// GetHabit 返回单个习惯详情
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	input, ok := parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.habits.Create(userID, input)
	if err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "习惯创建成功", "habit": habitToPayload(*habit)})
}

// UpdateHabit 更新习惯，仅创建者可操作
func (a *API) UpdateHabit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	input, ok := parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.habits.Update(userID, id, input)
	if err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "习惯更新成功", "habit": habitToPayload(*habit)})
}

// DeleteHabit 删除习惯，仅创建者可操作
func (a *API) DeleteHabit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	if err := a.habits.Delete(userID, id); err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "习惯已删除"})
}

// AssignHabit 认领习惯
func (a *API) AssignHabit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload habitAssignPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.HabitID == 0 {
		respondError(c, http.StatusBadRequest, "习惯ID不能为空")
		return
	}

	assignment, err := a.habits.Assign(userID, payload.HabitID)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "认领习惯成功",
		"habit_id":   assignment.HabitID,
		"start_date": assignment.StartDate.Format(dateFormat),
	})
}

// RemoveHabit 解除习惯认领
func (a *API) RemoveHabit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload habitAssignPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.HabitID == 0 {
		respondError(c, http.StatusBadRequest, "习惯ID不能为空")
		return
	}

	if err := a.habits.Remove(userID, payload.HabitID); err != nil {
		handleHabitError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已解除认领"})
}

// ListMyHabits 返回当前用户认领的习惯
func (a *API) ListMyHabits(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	habits, err := a.habits.ListAssigned(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取认领习惯失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}
	c.JSON(http.StatusOK, items)
}

// SubmitHabitEntry 提交今日习惯打卡
func (a *API) SubmitHabitEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload habitEntryPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.HabitID == 0 {
		respondError(c, http.StatusBadRequest, "习惯ID不能为空")
		return
	}

	entry, err := a.habitEntries.Submit(userID, service.HabitEntryInput{
		HabitID:  payload.HabitID,
		Progress: payload.Progress,
		Notes:    payload.Notes,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "打卡成功", "entry": habitEntryToPayload(*entry)})
}

// ListMyHabitEntries 返回当前用户的全部习惯打卡记录
func (a *API) ListMyHabitEntries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	entries, err := a.habitEntries.ListForUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取打卡记录失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, habitEntryToPayload(entry))
	}
	c.JSON(http.StatusOK, items)
}

func parseHabitInput(c *gin.Context) (service.HabitInput, bool) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.HabitInput{}, false
	}

	if payload.Name == "" {
		respondError(c, http.StatusBadRequest, "习惯名称不能为空")
		return service.HabitInput{}, false
	}

	return service.HabitInput{
		Name:        payload.Name,
		Description: payload.Description,
		Frequency:   payload.Frequency,
	}, true
}

func habitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"id":          habit.ID,
		"name":        habit.Name,
		"description": habit.Description,
		"frequency":   habit.Frequency,
		"user_id":     habit.UserID,
	}
}

func habitEntryToPayload(entry db.HabitEntry) gin.H {
	return gin.H{
		"id":       entry.ID,
		"habit_id": entry.HabitID,
		"date":     entry.EntryDate.Format(dateFormat),
		"progress": entry.Progress,
		"notes":    entry.Notes,
	}
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrNotHabitOwner):
		respondError(c, http.StatusForbidden, "只有创建者可以操作该习惯")
	case errors.Is(err, service.ErrHabitAlreadyAssigned):
		respondError(c, http.StatusConflict, "已认领该习惯")
	case errors.Is(err, service.ErrHabitNotAssigned):
		respondError(c, http.StatusForbidden, "请先认领该习惯")
	case errors.Is(err, service.ErrInvalidProgress):
		respondError(c, http.StatusBadRequest, "无效的进度取值")
	case errors.Is(err, service.ErrDuplicateEntry):
		respondError(c, http.StatusConflict, "今天已经打过卡了")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
