// Package docs registers the Swagger document served at /api-docs/.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Moderator login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "credentials",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Error during login", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/pending": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Jokes"],
                "summary": "List jokes waiting for moderation",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Pending jokes retrieved", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Missing, invalid or expired token", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Error fetching pending jokes", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Jokes"],
                "summary": "Edit a pending joke",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "patch", "required": true, "schema": {"$ref": "#/definitions/UpdateJokeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Joke updated successfully", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Joke not found", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Error updating joke", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/approve/{id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Jokes"],
                "summary": "Approve a joke and publish it for delivery",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Joke approved and delivered successfully", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Joke is not pending or an approval is already running", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Approval or delivery failed", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reject/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Jokes"],
                "summary": "Reject a joke",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Joke rejected successfully", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Error rejecting joke", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/deliveries": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Operations"],
                "summary": "List delivery intents",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["pending_delivery", "delivered", "abandoned"]},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Delivery intents retrieved", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Invalid delivery status", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "Envelope": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {},
                "error": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "admin@admin.com"},
                "password": {"type": "string", "example": "admin123"}
            }
        },
        "UpdateJokeRequest": {
            "type": "object",
            "properties": {
                "setup": {"type": "string"},
                "punchline": {"type": "string"},
                "type": {"type": "string"},
                "author": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/moderate-jokes",
	Schemes:          []string{},
	Title:            "Moderate Jokes API",
	Description:      "Review, edit, approve and reject submitted jokes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
