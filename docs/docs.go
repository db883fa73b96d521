// Package docs registers the OpenAPI document served under /swagger.
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
        "Bearer": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/ping": {
            "get": {
                "tags": ["health"],
                "summary": "Ping",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/courses": {
            "get": {
                "tags": ["courses"],
                "summary": "List courses",
                "parameters": [
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "level", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "instructor", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["courses"],
                "summary": "Create course",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/courses/{courseId}": {
            "get": {"tags": ["courses"], "summary": "Get course", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"Bearer": []}], "tags": ["courses"], "summary": "Update course", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["courses"], "summary": "Delete course", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/courses/{courseId}/enroll": {
            "post": {"security": [{"Bearer": []}], "tags": ["enrollments"], "summary": "Enroll", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/api/v1/courses/{courseId}/lessons": {
            "get": {"tags": ["lessons"], "summary": "List lessons", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"Bearer": []}], "tags": ["lessons"], "summary": "Create lesson", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/courses/{courseId}/lessons/reorder": {
            "put": {"security": [{"Bearer": []}], "tags": ["lessons"], "summary": "Reorder lessons", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/v1/courses/{courseId}/stats": {
            "get": {"security": [{"Bearer": []}], "tags": ["courses"], "summary": "Course statistics", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/courses/{courseId}/progress": {
            "get": {"security": [{"Bearer": []}], "tags": ["progress"], "summary": "Get course progress", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/courses/{courseId}/reviews": {
            "post": {"security": [{"Bearer": []}], "tags": ["courses"], "summary": "Review course", "parameters": [{"type": "string", "name": "courseId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/lessons/{lessonId}": {
            "put": {"security": [{"Bearer": []}], "tags": ["lessons"], "summary": "Update lesson", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["lessons"], "summary": "Delete lesson", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/lessons/{lessonId}/progress": {
            "get": {"security": [{"Bearer": []}], "tags": ["progress"], "summary": "Get lesson progress", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"Bearer": []}], "tags": ["progress"], "summary": "Update lesson progress", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/v1/lessons/{lessonId}/quiz": {
            "post": {"security": [{"Bearer": []}], "tags": ["progress"], "summary": "Submit quiz", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/lessons/{lessonId}/assignment": {
            "post": {"security": [{"Bearer": []}], "tags": ["progress"], "summary": "Submit assignment", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/lessons/{lessonId}/assignment/upload-url": {
            "post": {"security": [{"Bearer": []}], "tags": ["progress"], "summary": "Request an assignment attachment upload URL", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/v1/lessons/{lessonId}/live/join": {
            "get": {"security": [{"Bearer": []}], "tags": ["lessons"], "summary": "Join live lesson", "parameters": [{"type": "string", "name": "lessonId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/v1/progress/{progressId}/assignment/grade": {
            "put": {"security": [{"Bearer": []}], "tags": ["progress"], "summary": "Grade assignment", "parameters": [{"type": "string", "name": "progressId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/enrollments/me": {
            "get": {"security": [{"Bearer": []}], "tags": ["enrollments"], "summary": "My enrollments", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/enrollments/{enrollmentId}/certificate": {
            "post": {"security": [{"Bearer": []}], "tags": ["enrollments"], "summary": "Issue certificate", "parameters": [{"type": "string", "name": "enrollmentId", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/api/v1/enrollments/{enrollmentId}/suspend": {
            "put": {"security": [{"Bearer": []}], "tags": ["admin"], "summary": "Suspend enrollment", "parameters": [{"type": "string", "name": "enrollmentId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/enrollments/{enrollmentId}/resume": {
            "put": {"security": [{"Bearer": []}], "tags": ["admin"], "summary": "Resume enrollment", "parameters": [{"type": "string", "name": "enrollmentId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Course API",
	Description:      "Course catalog, enrollment and learning progress API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
