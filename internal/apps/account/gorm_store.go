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
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore keeps users in a SQL database through GORM.
// GormStore 通过 GORM 将用户保存在 SQL 数据库中。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db and migrates the accounts table.
// NewGormStore 创建基于 db 的存储并迁移 accounts 表。
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, fmt.Errorf("account: migrate accounts table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Create 在数据库中创建用户
func (g *GormStore) Create(ctx context.Context, phone, email string, balance int64) (*User, error) {
	u := &User{Phone: phone, Email: email, Balance: balance}
	if err := g.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// FindByPhone 按手机号查找最早注册的用户
func (g *GormStore) FindByPhone(ctx context.Context, phone string) (*User, error) {
	var u User
	if err := g.db.WithContext(ctx).Where("phone = ?", phone).Order("id ASC").First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID 按 id 查找用户
func (g *GormStore) FindByID(ctx context.Context, id uint64) (*User, error) {
	var u User
	if err := g.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Count 返回用户数量
func (g *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := g.db.WithContext(ctx).Model(&User{}).Count(&n).Error
	return n, err
}
