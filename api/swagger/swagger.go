package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HMS API",
        "description": "Hostel management: room allocation, occupancy reconciliation, fee challans",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, password management"},
        {"name": "Hostels", "description": "Hostel structure and occupancy rosters"},
        {"name": "Students", "description": "Resident registration and removal"},
        {"name": "Challans", "description": "Fee challans and settlement"},
        {"name": "Users", "description": "Application user management"},
        {"name": "Audit", "description": "Audit trail"},
        {"name": "Dashboard", "description": "Aggregated summary"},
        {"name": "Exports", "description": "CSV and PDF downloads"}
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
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by email or username",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hostels": {
            "get": {
                "tags": ["Hostels"],
                "summary": "List hostels",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Hostels"],
                "summary": "Create hostel",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHostelRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hostels/stats": {
            "get": {
                "tags": ["Hostels"],
                "summary": "List hostels with live occupancy",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hostels/{name}/roster": {
            "get": {
                "tags": ["Hostels"],
                "summary": "Room-by-room occupancy view",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hostels/{id}": {
            "put": {
                "tags": ["Hostels"],
                "summary": "Update hostel",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Hostels"],
                "summary": "Delete hostel with cascade",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cascade counts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "hostel", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student, auto-assigning a room when none is given",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Registration number already used"}
                }
            }
        },
        "/students/{id}": {
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student with cascade",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cascade counts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/batch": {
            "delete": {
                "tags": ["Students"],
                "summary": "Batch delete by department and batch",
                "responses": {
                    "200": {"description": "Cascade counts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/challans": {
            "get": {
                "tags": ["Challans"],
                "summary": "List challans",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Challans"],
                "summary": "Issue a challan",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/challans/{id}/pay": {
            "post": {
                "tags": ["Challans"],
                "summary": "Settle a challan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already settled"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "System-wide summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["login", "password"]
        },
        "CreateHostelRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "capacityPerRoom": {"type": "integer"},
                "numberOfRooms": {"type": "integer"},
                "numberOfBlocks": {"type": "integer"},
                "blocks": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Block"}
                }
            },
            "required": ["name"]
        },
        "Block": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "numRooms": {"type": "integer"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "fatherName": {"type": "string"},
                "registrationNumber": {"type": "string"},
                "department": {"type": "string"},
                "batch": {"type": "string"},
                "district": {"type": "string"},
                "phone": {"type": "string"},
                "hostelName": {"type": "string"},
                "roomNumber": {"type": "string"},
                "hostelFee": {"type": "number"}
            },
            "required": ["name", "registrationNumber", "department", "hostelName"]
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
