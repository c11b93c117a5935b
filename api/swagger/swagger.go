package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LP Reset API",
        "description": "Learning-progress reset scheduling and execution service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedules", "description": "Reset schedule configuration and triggers"},
        {"name": "History", "description": "Execution log and exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List reset schedules",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a reset schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulePayload"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure"}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get one schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Schedules"],
                "summary": "Update a schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulePayload"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/schedules/{id}/run": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Trigger a manual reset run",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "Run completed"},
                    "409": {"description": "Run already in progress"},
                    "502": {"description": "Host collaborator failure"}
                }
            }
        },
        "/schedules/{id}/notify": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Trigger the advance notification pass",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Notification pass completed"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/schedules/{id}/objects": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Resolve display data for selected objects",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/history": {
            "get": {
                "tags": ["History"],
                "summary": "List execution history",
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "integer"},
                    {"name": "method", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/history/{id}": {
            "get": {
                "tags": ["History"],
                "summary": "Get one execution with affected users and objects",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/history/export": {
            "get": {
                "tags": ["History"],
                "summary": "Export execution history",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "schedule_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unknown format"}
                }
            }
        }
    },
    "definitions": {
        "SchedulePayload": {
            "type": "object",
            "required": ["name", "audience_mode", "frequency_kind"],
            "properties": {
                "name": {"type": "string"},
                "audience_mode": {"type": "integer", "enum": [1, 2, 3, 4]},
                "frequency_kind": {"type": "string"},
                "frequency_params": {
                    "type": "object",
                    "properties": {
                        "interval": {"type": "integer"},
                        "day": {"type": "integer"},
                        "month": {"type": "integer"}
                    }
                },
                "email_enabled": {"type": "boolean"},
                "days_in_advance": {"type": "integer"},
                "notification_subject": {"type": "string"},
                "notification_template": {"type": "string"},
                "after_run_subject": {"type": "string"},
                "after_run_template": {"type": "string"},
                "selected_objects": {"type": "array", "items": {"type": "integer"}},
                "audience_user_ids": {"type": "array", "items": {"type": "integer"}},
                "audience_role_ids": {"type": "array", "items": {"type": "integer"}},
                "excluded_user_ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
