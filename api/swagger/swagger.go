package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Invigilation API",
        "description": "Exam invigilation scheduling for schools",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Sign-in and token handling"},
        {"name": "Educators", "description": "Educator roster management"},
        {"name": "Rooms", "description": "Exam room management"},
        {"name": "Exams", "description": "Exam timetable management"},
        {"name": "Settings", "description": "Allocation rule configuration"},
        {"name": "Schedules", "description": "Schedule generation and management"},
        {"name": "Exports", "description": "Schedule document rendering"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/educators": {
            "get": {
                "tags": ["Educators"],
                "summary": "List educators",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Educators"],
                "summary": "Create educator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EducatorRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/educators/{id}": {
            "get": {
                "tags": ["Educators"],
                "summary": "Get educator detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Educators"],
                "summary": "Update educator",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EducatorRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Educators"],
                "summary": "Delete educator",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/educators/import": {
            "post": {
                "tags": ["Educators"],
                "summary": "Import educators from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}],
                "responses": {"200": {"description": "Import result"}}
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "available", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Create room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoomRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/rooms/{id}": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Get room detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Rooms"],
                "summary": "Update room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoomRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Rooms"],
                "summary": "Delete room",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/rooms/{id}/availability": {
            "patch": {
                "tags": ["Rooms"],
                "summary": "Toggle room availability",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"204": {"description": "Updated"}}
            }
        },
        "/rooms/import": {
            "post": {
                "tags": ["Rooms"],
                "summary": "Import rooms from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}],
                "responses": {"200": {"description": "Import result"}}
            }
        },
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List exams",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Create exam",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExamRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/exams/{id}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Get exam detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Exams"],
                "summary": "Update exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExamRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Exams"],
                "summary": "Delete exam",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get invigilation settings",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update invigilation settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Settings"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedules/generate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate invigilation schedule proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Proposal with sessions, conflicts and fairness"},
                    "404": {"description": "No exams in period"},
                    "422": {"description": "Insufficient room capacity"}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List saved schedules",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Save a generated proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Schedule persisted"},
                    "404": {"description": "Proposal not found or expired"}
                }
            }
        },
        "/schedules/validate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Validate a session list",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "Conflict report"}}
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a saved schedule",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a saved schedule",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/schedules/{id}/fairness": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Fairness report for a saved schedule",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/sessions/{sessionId}/substitute": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Reassign a session to another educator",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubstituteRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated session"},
                    "409": {"description": "Substitute unavailable or double-booked"}
                }
            }
        },
        "/exports/{id}": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a saved schedule to CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Signed download link"},
                    "422": {"description": "Unsupported format"}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered export file",
                "parameters": [{"name": "token", "in": "query", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "EducatorRequest": {
            "type": "object",
            "required": ["full_name"],
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "department": {"type": "string"},
                "max_sessions_per_day": {"type": "integer"},
                "preferred_times": {"type": "array", "items": {"type": "string"}},
                "unavailable_dates": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RoomRequest": {
            "type": "object",
            "required": ["name", "capacity", "kind"],
            "properties": {
                "name": {"type": "string"},
                "capacity": {"type": "integer"},
                "kind": {"type": "string", "enum": ["classroom", "laboratory", "hall"]},
                "building": {"type": "string"},
                "floor": {"type": "string"},
                "is_available": {"type": "boolean"},
                "sections": {"type": "array", "items": {"type": "string"}},
                "requires_multiple_invigilators": {"type": "boolean"},
                "invigilators_per_section": {"type": "integer"}
            }
        },
        "ExamRequest": {
            "type": "object",
            "required": ["paper_name", "date", "start_time", "end_time", "student_count"],
            "properties": {
                "paper_name": {"type": "string"},
                "paper_number": {"type": "string"},
                "class_name": {"type": "string"},
                "date": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "student_count": {"type": "integer"}
            }
        },
        "Settings": {
            "type": "object",
            "properties": {
                "session_duration": {"type": "integer"},
                "break_between_sessions": {"type": "integer"},
                "max_sessions_per_day": {"type": "integer"},
                "max_consecutive_sessions": {"type": "integer"},
                "require_break_after_consecutive": {"type": "boolean"},
                "hall_invigilator_ratio": {"type": "integer"},
                "classroom_invigilator_ratio": {"type": "integer"}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["name", "start_date", "end_date"],
            "properties": {
                "name": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "settings": {"$ref": "#/definitions/Settings"}
            }
        },
        "SaveScheduleRequest": {
            "type": "object",
            "required": ["proposal_id"],
            "properties": {
                "proposal_id": {"type": "string"}
            }
        },
        "SubstituteRequest": {
            "type": "object",
            "required": ["educator_id"],
            "properties": {
                "educator_id": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "group_by": {"type": "string", "enum": ["date", "educator"]}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
