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
	"sync"
	"time"
)

// Store persists users. Ids are assigned by the store, sequentially from 1.
// Store 持久化用户，id 由存储从 1 开始顺序分配。
type Store interface {
	// Create stores a new user and returns it with its id set
	// Create 保存新用户并返回带 id 的用户
	Create(ctx context.Context, phone, email string, balance int64) (*User, error)

	// FindByPhone returns the earliest user registered with phone, or ErrUserNotFound
	// FindByPhone 返回使用该手机号最早注册的用户
	FindByPhone(ctx context.Context, phone string) (*User, error)

	// FindByID returns the user with id, or ErrUserNotFound
	FindByID(ctx context.Context, id uint64) (*User, error)

	// Count returns the number of users
	Count(ctx context.Context) (int64, error)
}

// MemoryStore keeps users in process memory. The slice index is id-1.
// MemoryStore 将用户保存在进程内存中。
type MemoryStore struct {
	mu    sync.RWMutex
	users []User
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create 在内存中创建用户
func (m *MemoryStore) Create(_ context.Context, phone, email string, balance int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := User{
		ID:        uint64(len(m.users)) + 1,
		Phone:     phone,
		Email:     email,
		Balance:   balance,
		CreatedAt: time.Now(),
	}
	m.users = append(m.users, u)
	return &u, nil
}

// FindByPhone 按手机号查找用户
func (m *MemoryStore) FindByPhone(_ context.Context, phone string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.users {
		if m.users[i].Phone == phone {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByID 按 id 查找用户
func (m *MemoryStore) FindByID(_ context.Context, id uint64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id == 0 || id > uint64(len(m.users)) {
		return nil, ErrUserNotFound
	}
	u := m.users[id-1]
	return &u, nil
}

// Count 返回用户数量
func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}
