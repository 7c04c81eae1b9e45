// Package swagger registers the OpenAPI description served at /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Authenticate and receive a token pair",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/grades": {
            "put": {
                "tags": ["grades"],
                "summary": "Record one score; repeated writes overwrite the pair",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}, "404": {"description": "Grade item not found"}, "409": {"description": "Concurrent submission"}}
            }
        },
        "/courses/{courseId}/grade-items/{itemId}/grades": {
            "post": {
                "tags": ["grades"],
                "summary": "Record a batch of scores for one grade item",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}
            }
        },
        "/courses/{courseId}/marks": {
            "post": {
                "tags": ["grades"],
                "summary": "Apply a course-wide marks matrix",
                "responses": {"200": {"description": "OK"}}
            },
            "get": {
                "tags": ["grades"],
                "summary": "Course gradebook: items, roster, score matrix",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/courses/{courseId}/summary": {
            "get": {
                "tags": ["grades"],
                "summary": "Weighted aggregate per enrolled student",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/courses/{courseId}/export": {
            "get": {
                "tags": ["grades"],
                "summary": "Download the gradebook as csv, pdf or xlsx",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/courses/{courseId}/risk": {
            "get": {
                "tags": ["risk"],
                "summary": "Dropout-risk assessment per enrolled student",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard/professor": {
            "get": {
                "tags": ["dashboard"],
                "summary": "Course overview for the calling professor",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Student Retention API",
	Description:      "Grades, attendance, risk and dashboards for student retention.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
