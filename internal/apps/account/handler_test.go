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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试辅助函数：创建挂载账户路由的 Gin 引擎
func setupTestRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(store)).RegisterRoutes(r)
	return r
}

func performJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandler_RegisterLoginBalance(t *testing.T) {
	r := setupTestRouter(NewMemoryStore())

	w := performJSON(r, http.MethodPost, "/register", `{"phone":"555","email":"a@b.c"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	reg := decode[UserResponse](t, w)
	assert.Equal(t, MsgRegistered, reg.Message)
	require.NotNil(t, reg.User)
	assert.Equal(t, uint64(1), reg.User.ID)
	assert.Equal(t, int64(DefaultInitialBalance), reg.User.Balance)
	assert.NotContains(t, w.Body.String(), "created_at")

	w = performJSON(r, http.MethodPost, "/login", `{"phone":"555"}`)
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[UserResponse](t, w)
	assert.Equal(t, MsgLoginSuccessful, login.Message)
	assert.Equal(t, "a@b.c", login.User.Email)

	w = performJSON(r, http.MethodGet, "/balance/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":100}`, w.Body.String())
}

func TestHandler_Failures(t *testing.T) {
	r := setupTestRouter(NewMemoryStore())

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		code    int
		message string
	}{
		{"unknown phone", http.MethodPost, "/login", `{"phone":"000"}`, http.StatusUnauthorized, MsgInvalidCredentials},
		{"unknown user", http.MethodGet, "/balance/7", "", http.StatusNotFound, MsgUserNotFound},
		{"non numeric id", http.MethodGet, "/balance/abc", "", http.StatusNotFound, MsgUserNotFound},
		{"zero id", http.MethodGet, "/balance/0", "", http.StatusNotFound, MsgUserNotFound},
		{"malformed register", http.MethodPost, "/register", `{"phone":`, http.StatusBadRequest, ""},
		{"empty login", http.MethodPost, "/login", "", http.StatusUnauthorized, MsgInvalidCredentials},
		{"malformed login", http.MethodPost, "/login", `[1,2]`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code)
			resp := decode[MessageResponse](t, w)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			} else {
				assert.NotEmpty(t, resp.Message)
			}
		})
	}
}

// An empty body registers a user with empty fields, like an empty JSON object.
func TestHandler_RegisterEmptyBody(t *testing.T) {
	r := setupTestRouter(NewMemoryStore())

	w := performJSON(r, http.MethodPost, "/register", "")
	require.Equal(t, http.StatusCreated, w.Code)
	reg := decode[UserResponse](t, w)
	assert.Equal(t, MsgRegistered, reg.Message)
	require.NotNil(t, reg.User)
	assert.Equal(t, uint64(1), reg.User.ID)
	assert.Empty(t, reg.User.Phone)
}

// A frontend talking to a running server sees the same flow over real HTTP.
func TestHandler_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(setupTestRouter(NewMemoryStore()))
	defer srv.Close()

	client := resty.New().SetBaseURL(srv.URL)

	var reg UserResponse
	resp, err := client.R().
		SetBody(RegisterRequest{Phone: "42", Email: "x@y.z"}).
		SetResult(&reg).
		Post("/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.Equal(t, uint64(1), reg.User.ID)

	var fail MessageResponse
	resp, err = client.R().
		SetBody(LoginRequest{Phone: "43"}).
		SetError(&fail).
		Post("/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.Equal(t, MsgInvalidCredentials, fail.Message)

	var bal BalanceResponse
	resp, err = client.R().SetResult(&bal).Get("/balance/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int64(100), bal.Balance)
	assert.True(t, strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json"))
}
