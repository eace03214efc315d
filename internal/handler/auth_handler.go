package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/service"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
)

type signupPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup 处理用户注册
func (a *API) Signup(c *gin.Context) {
	var payload signupPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		respondError(c, http.StatusBadRequest, "用户名、邮箱与密码均为必填")
		return
	}

	user, err := a.users.Register(service.RegisterInput{
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		Bio:       payload.Bio,
		AvatarURL: payload.AvatarURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			respondError(c, http.StatusConflict, "用户名已存在")
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, http.StatusConflict, "邮箱已被注册")
		default:
			respondError(c, http.StatusBadRequest, "注册失败")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "注册成功", "user": userToPayload(*user)})
}

// Login 校验账号密码并写入会话
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "用户名或密码错误")
			return
		}
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "登录成功", "user": userToPayload(*user)})
}

// Logout 清理会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}

// Me 返回当前登录用户信息
func (a *API) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}

	user, err := a.users.Get(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取用户信息失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToPayload(*user)})
}

// AuthRequired 是一个简单的认证中间件，未登录时返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 从会话中取出认证用户标识
// 核心操作均以显式参数接收用户 ID，不读取任何全局状态
func currentUserID(c *gin.Context) (uint, bool) {
	session := sessions.Default(c)
	raw := session.Get(sessionUserIDKey)
	if id, ok := raw.(uint); ok && id != 0 {
		return id, true
	}
	return 0, false
}
