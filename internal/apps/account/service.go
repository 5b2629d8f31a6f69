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

	"github.com/devpair/devpair/internal/config"
	"github.com/devpair/devpair/internal/db"
	"github.com/devpair/devpair/internal/logger"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultInitialBalance is credited to every new user
const DefaultInitialBalance = 100

// Service implements the account operations on top of a Store.
// Service 基于 Store 实现账户操作。
type Service struct {
	store          Store
	initialBalance int64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithInitialBalance sets the balance given to new users.
func WithInitialBalance(balance int64) ServiceOption {
	return func(s *Service) {
		s.initialBalance = balance
	}
}

// NewService creates a Service on store.
// NewService 创建一个新的 Service 实例。
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, initialBalance: DefaultInitialBalance}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with the initial balance. Phones are not required
// to be unique; login resolves to the earliest registration.
// Register 创建带初始余额的用户。手机号不要求唯一，登录时使用最早的注册记录。
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	u, err := s.store.Create(ctx, req.Phone, req.Email, s.initialBalance)
	if err != nil {
		return nil, fmt.Errorf("account: register: %w", err)
	}
	logger.Info(ctx, "[Account] user registered", zap.Uint64("user_id", u.ID))
	return u, nil
}

// Login returns the user registered with the phone.
// Login 返回使用该手机号注册的用户。
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, error) {
	u, err := s.store.FindByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return u, nil
}

// Balance returns the balance of the user identified by the raw path value.
// A value that is not a positive integer is reported as ErrUserNotFound.
// Balance 返回用户余额，非正整数的 id 视为用户不存在。
func (s *Service) Balance(ctx context.Context, rawID string) (int64, error) {
	id, err := ParseUserID(rawID)
	if err != nil {
		return 0, ErrUserNotFound
	}
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// UserCount returns the number of registered users.
// UserCount 返回已注册用户数量。
func (s *Service) UserCount(ctx context.Context) (int64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("account: count users: %w", err)
	}
	return n, nil
}

// ParseUserID parses a positive decimal user id.
func ParseUserID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, raw)
	}
	return id, nil
}

// NewStore builds the store selected by cfg. The returned func releases its
// connections.
// NewStore 根据配置创建存储，返回的函数用于释放连接。
func NewStore(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Type {
	case "", config.StoreMemory:
		return NewMemoryStore(), noop, nil

	case config.StoreDatabase:
		gdb, err := db.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewGormStore(gdb)
		if err != nil {
			_ = db.Close(gdb)
			return nil, nil, err
		}
		return store, func() error { return db.Close(gdb) }, nil

	case config.StoreRedis:
		client := newRedisClient(cfg.Redis)
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Warn(ctx, "[Account] redis tracing not enabled", zap.Error(err))
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("account: connect redis %s:%d: %w", cfg.Redis.Host, cfg.Redis.Port, err)
		}
		return NewRedisStore(client, cfg.Redis.KeyPrefix), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Store.Type)
	}
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConn,
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = seconds(cfg.DialTimeout)
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = seconds(cfg.ReadTimeout)
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = seconds(cfg.WriteTimeout)
	}
	return redis.NewClient(opts)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
