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

import "errors"

// Error definitions for account operations.
var (
	// ErrUserNotFound indicates no user matches the lookup.
	ErrUserNotFound = errors.New("account: user not found")
	// ErrInvalidCredentials indicates a login with an unknown phone.
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	// ErrInvalidUserID indicates a user id that is not a positive integer.
	ErrInvalidUserID = errors.New("account: invalid user id")
	// ErrUnknownStore indicates an unsupported store type in configuration.
	ErrUnknownStore = errors.New("account: unknown store type")
)

// Response messages, kept verbatim for existing frontends.
const (
	MsgRegistered         = "User registered successfully"
	MsgLoginSuccessful    = "Login successful"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserNotFound       = "User not found"
)
