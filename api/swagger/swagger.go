package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HostelDesk API",
        "description": "Hostel oversight backend: complaints, outing passes, and staff insights",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Signup, login, and session management"},
        {"name": "Complaints", "description": "Complaint intake and triage lifecycle"},
        {"name": "Outings", "description": "Gate pass requests and decisions"},
        {"name": "Insights", "description": "Per-category complaint summaries"},
        {"name": "Assist", "description": "Complaint drafting helper"},
        {"name": "Students", "description": "Student roster and profiles"},
        {"name": "Approvals", "description": "Staff review queues"},
        {"name": "Reports", "description": "Register exports"}
    ],
    "paths": {
        "/auth/signup/student": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentSignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/signup/staff": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a staff account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StaffSignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Account awaiting approval"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints": {
            "get": {
                "tags": ["Complaints"],
                "summary": "List complaints",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "severity", "in": "query", "type": "string"},
                    {"name": "gender", "in": "query", "type": "string"},
                    {"name": "window", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Complaints"],
                "summary": "Submit a complaint",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateComplaintRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/stats": {
            "get": {
                "tags": ["Complaints"],
                "summary": "Complaint statistics",
                "parameters": [
                    {"name": "gender", "in": "query", "type": "string"},
                    {"name": "window", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/batch-resolve": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Resolve multiple complaints",
                "responses": {
                    "200": {"description": "Per-complaint outcomes", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/{id}/acknowledge": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Acknowledge a complaint",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Complaint is closed or concurrently modified"}
                }
            }
        },
        "/complaints/{id}/resolve": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Resolve a complaint",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Complaint is closed or concurrently modified"}
                }
            }
        },
        "/outings": {
            "get": {
                "tags": ["Outings"],
                "summary": "List outing requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Outings"],
                "summary": "Submit an outing request",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "An open request already exists"}
                }
            }
        },
        "/outings/stats": {
            "get": {
                "tags": ["Outings"],
                "summary": "Outing statistics",
                "parameters": [
                    {"name": "gender", "in": "query", "type": "string"},
                    {"name": "window", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outings/active": {
            "get": {
                "tags": ["Outings"],
                "summary": "Students currently out",
                "parameters": [
                    {"name": "gender", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/outings/{id}/decision": {
            "post": {
                "tags": ["Outings"],
                "summary": "Approve or reject an outing request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Request already decided"}
                }
            }
        },
        "/outings/{id}/return": {
            "post": {
                "tags": ["Outings"],
                "summary": "Mark a student as returned",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/insights/generate": {
            "post": {
                "tags": ["Insights"],
                "summary": "Per-category complaint insights",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assist/rewrite": {
            "post": {
                "tags": ["Assist"],
                "summary": "Rewrite a complaint draft",
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Rewrite service unavailable"}
                }
            }
        },
        "/approvals": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Pending approvals",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Request a register export",
                "responses": {
                    "202": {"description": "Job queued"}
                }
            }
        }
    },
    "definitions": {
        "StudentSignupRequest": {
            "type": "object",
            "required": ["email", "password", "full_name", "roll_no", "gender"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "roll_no": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female"]},
                "phone": {"type": "string"},
                "parent_phone": {"type": "string"},
                "room_number": {"type": "string"},
                "course": {"type": "string"},
                "year": {"type": "string"}
            }
        },
        "StaffSignupRequest": {
            "type": "object",
            "required": ["email", "password", "full_name", "designation", "gender"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "designation": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password", "role"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["STUDENT", "STAFF"]}
            }
        },
        "CreateComplaintRequest": {
            "type": "object",
            "required": ["description"],
            "properties": {
                "category": {"type": "string"},
                "severity": {"type": "string", "enum": ["Low", "Medium", "Critical"]},
                "description": {"type": "string"}
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
