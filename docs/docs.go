// Package docs holds the OpenAPI description served at /swagger.
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
        "/healthz": {
            "get": {"summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/campuses": {
            "get": {
                "summary": "List campuses",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Campus"}}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/campuses/{id}/sports": {
            "get": {
                "summary": "List sports offered at a campus",
                "parameters": [{"type": "integer", "description": "Campus ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Sport"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/calendar": {
            "get": {
                "summary": "Bookable days of the week containing date",
                "parameters": [{"type": "string", "description": "YYYY-MM-DD, defaults to today", "name": "date", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.CalendarResponse"}}}
            }
        },
        "/sessions": {
            "post": {
                "summary": "Open a booking session",
                "parameters": [{"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateSessionRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}
            }
        },
        "/sessions/{id}": {
            "get": {
                "summary": "Session snapshot",
                "parameters": [{"type": "string", "description": "Session ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}
            },
            "delete": {
                "summary": "Close a session",
                "parameters": [{"type": "string", "description": "Session ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/sessions/{id}/campus": {"put": {"summary": "Choose a campus", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/sport": {"put": {"summary": "Choose a sport by id or by name", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/date": {"put": {"summary": "Choose a date and load its slots", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/week": {"post": {"summary": "Move the selected date one week", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/availability/refresh": {"post": {"summary": "Reload the slots of the current selection", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/slot": {"put": {"summary": "Choose a slot", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/review": {"post": {"summary": "Open the confirmation summary", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/dismiss": {"post": {"summary": "Close the confirmation summary", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}}}}},
        "/sessions/{id}/confirm": {
            "post": {
                "summary": "Submit the reviewed slot (idempotent)",
                "parameters": [
                    {"type": "string", "description": "Session ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "replays the booked response", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "conflict or failure, see booking.state", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}},
                    "201": {"description": "booked", "schema": {"$ref": "#/definitions/httpgin.SessionResponse"}},
                    "409": {"description": "submission in progress / not allowed", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/reservations": {
            "get": {
                "summary": "Upcoming reservations of the session owner",
                "parameters": [{"type": "string", "description": "campus, sport or day name", "name": "q", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.ReservationsResponse"}}}
            }
        },
        "/sessions/{id}/reservations/refresh": {"post": {"summary": "Reload the reservations of the session owner", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.ReservationsResponse"}}}}},
        "/sessions/{id}/reservations/{rid}/cancel": {"post": {"summary": "Cancel a reservation", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.CancelResponse"}}}}},
        "/owners/{owner_id}/journal": {
            "get": {
                "summary": "Recorded submission and cancellation outcomes of an owner",
                "parameters": [
                    {"type": "integer", "description": "Owner ID", "name": "owner_id", "in": "path", "required": true},
                    {"type": "integer", "description": "max entries", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.JournalResponse"}}}
            }
        }
    },
    "definitions": {
        "domain.Campus": {"type": "object", "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}},
        "domain.Sport": {"type": "object", "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}},
        "httpgin.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}}},
        "httpgin.CreateSessionRequest": {"type": "object", "required": ["owner_id"], "properties": {"owner_id": {"type": "integer"}}},
        "httpgin.SessionResponse": {"type": "object", "properties": {"id": {"type": "string"}, "owner_id": {"type": "integer"}, "booking": {"type": "object"}}},
        "httpgin.CalendarResponse": {"type": "object", "properties": {"date": {"type": "string"}, "previous": {"type": "string"}, "next": {"type": "string"}, "days": {"type": "array", "items": {"type": "object"}}}},
        "httpgin.ReservationsResponse": {"type": "object", "properties": {"owner_id": {"type": "integer"}, "query": {"type": "string"}, "items": {"type": "array", "items": {"type": "object"}}, "cancelling": {"type": "array", "items": {"type": "integer"}}}},
        "httpgin.CancelResponse": {"type": "object", "properties": {"reservation_id": {"type": "integer"}, "result": {"type": "object"}, "items": {"type": "array", "items": {"type": "object"}}}},
        "httpgin.JournalResponse": {"type": "object", "properties": {"owner_id": {"type": "integer"}, "entries": {"type": "array", "items": {"type": "object"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Courtbook API",
	Description:      "Campus sports-court reservation sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
