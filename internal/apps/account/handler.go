/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package account

import (
	"errors"
	"io"
	"net/http"

	"github.com/devpair/devpair/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for account operations.
// Handler 提供账户操作的 HTTP 处理器。
type Handler struct {
	service *Service
}

// NewHandler creates a new Handler instance.
// NewHandler 创建一个新的 Handler 实例。
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the account endpoints on r.
// RegisterRoutes 将账户接口挂载到 r 上。
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/balance/:userId", h.Balance)
}

// Register handles POST /register - creates a user with the initial balance.
// Register 处理 POST /register - 创建带初始余额的用户。
// @Tags account
// @Accept json
// @Produce json
// @Param request body RegisterRequest false "注册请求"
// @Success 201 {object} UserResponse
// @Failure 400 {object} MessageResponse
// @Router /register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserResponse{Message: MsgRegistered, User: user})
}

// Login handles POST /login - looks the user up by phone.
// Login 处理 POST /login - 按手机号查找用户。
// @Tags account
// @Accept json
// @Produce json
// @Param request body LoginRequest false "登录请求"
// @Success 200 {object} UserResponse
// @Failure 401 {object} MessageResponse
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: err.Error()})
		return
	}

	user, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	logger.InfoF(c.Request.Context(), "[Account] login user_id=%d", user.ID)
	c.JSON(http.StatusOK, UserResponse{Message: MsgLoginSuccessful, User: user})
}

// Balance handles GET /balance/:userId.
// Balance 处理 GET /balance/:userId - 查询用户余额。
// @Tags account
// @Produce json
// @Param userId path int true "用户 ID"
// @Success 200 {object} BalanceResponse
// @Failure 404 {object} MessageResponse
// @Router /balance/{userId} [get]
func (h *Handler) Balance(c *gin.Context) {
	balance, err := h.service.Balance(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{Balance: balance})
}

// bindOptionalJSON binds the JSON body into obj. An empty body leaves obj
// at its zero value, as the frontends sometimes post nothing.
// bindOptionalJSON 绑定 JSON 请求体，空请求体视为 {}。
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// getStatusCodeForError maps service errors to HTTP status codes.
func (h *Handler) getStatusCodeForError(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidUserID):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response for err.
func (h *Handler) fail(c *gin.Context, err error) {
	code := h.getStatusCodeForError(err)
	if code == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "[Account] request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(code, MessageResponse{Message: messageForError(err)})
}

func messageForError(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidUserID):
		return MsgUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	default:
		return err.Error()
	}
}
