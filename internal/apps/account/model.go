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

// Package account implements the stub account service used by the frontends
// during local development: register, login and balance lookup.
// account 包实现本地开发时前端使用的账户桩服务：注册、登录和余额查询。
package account

import "time"

// User is a registered account.
// User 表示一个已注册的账户。
type User struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Phone     string    `json:"phone" gorm:"size:64;index"`
	Email     string    `json:"email" gorm:"size:255"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "accounts"
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Phone string `json:"phone"`
}

// UserResponse is returned by register and login.
type UserResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// MessageResponse carries a message only, used for failures.
type MessageResponse struct {
	Message string `json:"message"`
}

// BalanceResponse is returned by GET /balance/:userId.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}
