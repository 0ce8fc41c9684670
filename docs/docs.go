// Package docs holds the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/shifts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["shifts"],
                "summary": "List shifts",
                "parameters": [
                    {"type": "string", "name": "controller_id", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "priority_level", "in": "query"},
                    {"type": "string", "name": "requires_attention", "in": "query"},
                    {"type": "string", "name": "min_fatigue_score", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["shifts"],
                "summary": "Register a shift",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.success"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/shifts/ingest": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["transcriptions"],
                "summary": "Upload shift audio",
                "parameters": [
                    {"type": "file", "name": "audio", "in": "formData", "required": true},
                    {"type": "string", "name": "shift_id", "in": "formData", "required": true},
                    {"type": "string", "name": "controller_id", "in": "formData", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.success"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "413": {"description": "Payload Too Large", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/shifts/high-risk": {
            "get": {
                "produces": ["application/json"],
                "tags": ["shifts"],
                "summary": "High fatigue shifts",
                "parameters": [
                    {"type": "number", "name": "min_score", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}}}
            }
        },
        "/shifts/attention/required": {
            "get": {
                "produces": ["application/json"],
                "tags": ["shifts"],
                "summary": "Shifts flagged for review",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}}}
            }
        },
        "/shifts/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["shifts"],
                "summary": "Export supervisor report",
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        },
        "/shifts/{shift_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["shifts"],
                "summary": "Get a shift",
                "parameters": [{"type": "string", "name": "shift_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["shifts"],
                "summary": "Delete a shift",
                "parameters": [{"type": "string", "name": "shift_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["shifts"],
                "summary": "Correct shift metadata",
                "parameters": [{"type": "string", "name": "shift_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/shifts/{shift_id}/analyze": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Run shift analysis",
                "parameters": [{"type": "string", "name": "shift_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/transcriptions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["transcriptions"],
                "summary": "List transcriptions",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}}}
            }
        },
        "/transcriptions/{shift_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["transcriptions"],
                "summary": "Get a transcription",
                "parameters": [{"type": "string", "name": "shift_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/transcriptions/{shift_id}/retranscribe": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transcriptions"],
                "summary": "Transcribe a stored recording again",
                "parameters": [{"type": "string", "name": "shift_id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.success"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errs"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errs"}}
                }
            }
        },
        "/stats/shifts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Shift counts per status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}}}
            }
        },
        "/stats/transcriptions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Transcription counts per status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.success"}}}
            }
        }
    },
    "definitions": {
        "handler.success": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "handler.errs": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "info": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "ATC Shift Analyzer API",
	Description:      "Ingests air traffic control shift recordings, transcribes them and scores controller fatigue and safety.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
