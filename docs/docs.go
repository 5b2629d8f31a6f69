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


// Package docs holds the OpenAPI document of the account API served under
// /swagger in development. Keep it in step with the handler annotations;
// `swag init -g cmd/main.go` regenerates it.
// docs 包保存账户接口的 OpenAPI 文档，开发环境下由 /swagger 提供。
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/balance/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["account"],
                "parameters": [
                    {
                        "type": "integer",
                        "description": "用户 ID",
                        "name": "userId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/account.BalanceResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/account.MessageResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["account"],
                "parameters": [
                    {
                        "description": "登录请求",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/account.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/account.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/account.MessageResponse"}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["account"],
                "parameters": [
                    {
                        "description": "注册请求",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/account.RegisterRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/account.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/account.MessageResponse"}}
                }
            }
        }
    },
    "definitions": {
        "account.BalanceResponse": {
            "type": "object",
            "properties": {"balance": {"type": "integer"}}
        },
        "account.LoginRequest": {
            "type": "object",
            "properties": {"phone": {"type": "string"}}
        },
        "account.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "account.RegisterRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "phone": {"type": "string"}}
        },
        "account.User": {
            "type": "object",
            "properties": {
                "balance": {"type": "integer"},
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "phone": {"type": "string"}
            }
        },
        "account.UserResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/account.User"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "devpair account API",
	Description:      "Stub account service used by the frontends during local development.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
