package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ABA Tracker API",
        "description": "Behavior, reinforcer and crisis-protocol tracking with analytics, backups and Gemini helpers.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Account registration and tokens"},
        {"name": "Behaviors", "description": "ABC behavior log"},
        {"name": "Reinforcers", "description": "Reinforcer catalogue and usage"},
        {"name": "Crisis Protocols", "description": "Crisis plans and printable PDFs"},
        {"name": "Profiles", "description": "Tracked person profiles"},
        {"name": "Backup", "description": "Full account export and import"},
        {"name": "Analytics", "description": "Summaries, weekly stats and milestones"},
        {"name": "AI", "description": "Gemini helpers using the caller's X-Gemini-API-Key"},
        {"name": "Reports", "description": "Asynchronous CSV and PDF behavior-log exports"}
    ],
    "paths": {
        "/health": {"get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/ready": {"get": {"summary": "Readiness probe", "responses": {"200": {"description": "Ready"}, "503": {"description": "Dependency unavailable"}}}},
        "/metrics": {"get": {"summary": "Prometheus metrics", "responses": {"200": {"description": "OK"}}}},
        "/metrics/summary": {"get": {"summary": "Metrics summary", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}},
        "/api/v1/auth/register": {"post": {"tags": ["Auth"], "summary": "Register an account", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "409": {"description": "Email taken"}}}},
        "/api/v1/auth/login": {"post": {"tags": ["Auth"], "summary": "Log in", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Invalid credentials"}}}},
        "/api/v1/auth/me": {"get": {"tags": ["Auth"], "summary": "Current account", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/auth/refresh": {"post": {"tags": ["Auth"], "summary": "Reissue access token", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/v1/auth/password": {"put": {"tags": ["Auth"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Changed"}, "400": {"description": "Validation failed"}, "401": {"description": "Current password is incorrect"}}}},
        "/api/v1/behaviors": {
            "get": {"tags": ["Behaviors"], "summary": "List behavior entries", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Behaviors"], "summary": "Log a behavior entry", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}}
        },
        "/api/v1/behaviors/{id}": {
            "get": {"tags": ["Behaviors"], "summary": "Get a behavior entry", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "delete": {"tags": ["Behaviors"], "summary": "Delete a behavior entry", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/v1/reinforcers": {
            "get": {"tags": ["Reinforcers"], "summary": "List reinforcers", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Reinforcers"], "summary": "Create a reinforcer", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/reinforcers/suggestions": {"get": {"tags": ["Reinforcers"], "summary": "Suggest available reinforcers", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/reinforcers/{id}": {
            "get": {"tags": ["Reinforcers"], "summary": "Get a reinforcer", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Reinforcers"], "summary": "Update a reinforcer", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Reinforcers"], "summary": "Delete a reinforcer", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/v1/reinforcers/{id}/use": {"post": {"tags": ["Reinforcers"], "summary": "Record reinforcer use", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/crisis-protocols": {
            "get": {"tags": ["Crisis Protocols"], "summary": "List crisis protocols", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Crisis Protocols"], "summary": "Create a crisis protocol", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/crisis-protocols/{id}": {
            "get": {"tags": ["Crisis Protocols"], "summary": "Get a crisis protocol", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Crisis Protocols"], "summary": "Update a crisis protocol", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Crisis Protocols"], "summary": "Delete a crisis protocol", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/v1/crisis-protocols/{id}/active": {"put": {"tags": ["Crisis Protocols"], "summary": "Toggle active flag", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/crisis-protocols/{id}/pdf": {"get": {"tags": ["Crisis Protocols"], "summary": "Printable crisis plan", "produces": ["application/pdf"], "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "PDF"}}}},
        "/api/v1/profiles": {
            "get": {"tags": ["Profiles"], "summary": "List profiles", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Profiles"], "summary": "Create a profile", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/profiles/active": {"get": {"tags": ["Profiles"], "summary": "Active profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/profiles/{id}": {
            "get": {"tags": ["Profiles"], "summary": "Get a profile", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Profiles"], "summary": "Update a profile", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Profiles"], "summary": "Delete a profile", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/v1/profiles/{id}/activate": {"post": {"tags": ["Profiles"], "summary": "Make a profile active", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/backup/export": {"get": {"tags": ["Backup"], "summary": "Download a version 2 backup", "produces": ["application/json"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Backup document"}}}},
        "/api/v1/backup/import": {"post": {"tags": ["Backup"], "summary": "Import a backup", "consumes": ["application/json", "multipart/form-data"], "security": [{"BearerAuth": []}], "parameters": [{"name": "mode", "in": "query", "type": "string", "enum": ["merge", "replace"]}], "responses": {"200": {"description": "Import counts"}, "400": {"description": "Invalid backup"}, "413": {"description": "Too large"}}}},
        "/api/v1/analytics/summary": {"get": {"tags": ["Analytics"], "summary": "Analytics summary", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/analytics/weekly": {"get": {"tags": ["Analytics"], "summary": "Weekly stats", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/analytics/milestones": {"get": {"tags": ["Analytics"], "summary": "Progress milestones", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/ai/extract": {"post": {"tags": ["AI"], "summary": "Extract behavior drafts from notes", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/GeminiKey"}], "responses": {"200": {"description": "OK"}, "502": {"description": "Model failure"}}}},
        "/api/v1/ai/voice": {"post": {"tags": ["AI"], "summary": "Analyze a voice note", "consumes": ["multipart/form-data"], "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/GeminiKey"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/ai/video": {"post": {"tags": ["AI"], "summary": "Analyze a video", "consumes": ["multipart/form-data"], "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/GeminiKey"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/ai/image": {"post": {"tags": ["AI"], "summary": "Analyze an image", "consumes": ["multipart/form-data"], "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/GeminiKey"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/ai/pdf-import": {"post": {"tags": ["AI"], "summary": "Import behaviors from PDFs", "consumes": ["multipart/form-data"], "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/GeminiKey"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/ai/chat": {"post": {"tags": ["AI"], "summary": "Chat with account context", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/GeminiKey"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/ai/insights": {"post": {"tags": ["AI"], "summary": "Narrative insights", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/GeminiKey"}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/reports": {"post": {"tags": ["Reports"], "summary": "Queue a behavior-log export", "security": [{"BearerAuth": []}], "responses": {"202": {"description": "Accepted"}}}},
        "/api/v1/reports/{id}": {"get": {"tags": ["Reports"], "summary": "Export status", "security": [{"BearerAuth": []}], "parameters": [{"$ref": "#/parameters/ID"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/api/v1/reports/download/{token}": {"get": {"tags": ["Reports"], "summary": "Download a finished export", "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired token"}}}}
    },
    "parameters": {
        "ID": {"name": "id", "in": "path", "required": true, "type": "string"},
        "GeminiKey": {"name": "X-Gemini-API-Key", "in": "header", "required": true, "type": "string"}
    },
    "definitions": {
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
