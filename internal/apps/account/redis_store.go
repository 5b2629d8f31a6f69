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
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisUser is the hash layout of one user
type redisUser struct {
	Phone     string `redis:"phone"`
	Email     string `redis:"email"`
	Balance   int64  `redis:"balance"`
	CreatedAt int64  `redis:"created_at"`
}

// RedisStore keeps users in Redis: a counter for ids, one hash per user and
// a phone index holding the first id registered with that phone.
// RedisStore 将用户保存在 Redis 中：id 计数器、每个用户一个 hash，以及手机号索引。
type RedisStore struct {
	client *redis.Client
	prefix string // key 前缀
}

// NewRedisStore creates a Redis-backed store.
// NewRedisStore 创建基于 Redis 的存储。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "devpair:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) seqKey() string { return r.prefix + "users:seq" }
func (r *RedisStore) userKey(id uint64) string { return r.prefix + "users:" + strconv.FormatUint(id, 10) }
func (r *RedisStore) phoneKey(phone string) string { return r.prefix + "users:phone:" + phone }

// Create 在 Redis 中创建用户
func (r *RedisStore) Create(ctx context.Context, phone, email string, balance int64) (*User, error) {
	id, err := r.client.Incr(ctx, r.seqKey()).Uint64()
	if err != nil {
		return nil, fmt.Errorf("account: allocate id: %w", err)
	}

	now := time.Now()
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.userKey(id), redisUser{
		Phone:     phone,
		Email:     email,
		Balance:   balance,
		CreatedAt: now.Unix(),
	})
	// SETNX keeps the earliest registration for a phone
	pipe.SetNX(ctx, r.phoneKey(phone), id, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("account: store user %d: %w", id, err)
	}

	return &User{ID: id, Phone: phone, Email: email, Balance: balance, CreatedAt: now}, nil
}

// FindByPhone 按手机号查找用户
func (r *RedisStore) FindByPhone(ctx context.Context, phone string) (*User, error) {
	id, err := r.client.Get(ctx, r.phoneKey(phone)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// FindByID 按 id 查找用户
func (r *RedisStore) FindByID(ctx context.Context, id uint64) (*User, error) {
	res := r.client.HGetAll(ctx, r.userKey(id))
	fields, err := res.Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrUserNotFound
	}

	var ru redisUser
	if err := res.Scan(&ru); err != nil {
		return nil, fmt.Errorf("account: decode user %d: %w", id, err)
	}
	return &User{
		ID:        id,
		Phone:     ru.Phone,
		Email:     ru.Email,
		Balance:   ru.Balance,
		CreatedAt: time.Unix(ru.CreatedAt, 0),
	}, nil
}

// Count 返回用户数量，即已分配的最大 id
func (r *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := r.client.Get(ctx, r.seqKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
