// Package docs registers the Swagger spec of the dashboard API.
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
            "get": {
                "description": "Liveness check including a ping of the load history database",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Healthy", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Database unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/dashboards": {
            "get": {
                "description": "Get the configured dashboards with their widgets and KPIs",
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "List dashboards",
                "responses": {
                    "200": {"description": "List of dashboards", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/dashboards/{id}": {
            "get": {
                "description": "Load, filter, aggregate and present one dashboard",
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Get dashboard",
                "parameters": [
                    {"type": "string", "description": "Dashboard ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Start date (YYYY-MM-DD)", "name": "start", "in": "query"},
                    {"type": "string", "description": "End date (YYYY-MM-DD)", "name": "end", "in": "query"},
                    {"type": "string", "description": "daily, weekly, monthly or yearly", "name": "period", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Dashboard result", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid selection", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Dashboard not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/dashboards/{id}/filters": {
            "get": {
                "description": "Distinct values of every filter column and the default date range",
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Get dashboard filters",
                "parameters": [
                    {"type": "string", "description": "Dashboard ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Filter options", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Dashboard not found", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Sheet could not be loaded", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/dashboards/{id}/rows": {
            "get": {
                "description": "Filtered rows restricted to the dashboard's display columns",
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Get dashboard rows",
                "parameters": [
                    {"type": "string", "description": "Dashboard ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Display table", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid selection", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Dashboard not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/dashboards/{id}/export": {
            "get": {
                "description": "Download the filtered display table",
                "produces": ["application/octet-stream"],
                "tags": ["dashboards"],
                "summary": "Export dashboard rows",
                "parameters": [
                    {"type": "string", "description": "Dashboard ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "csv (default) or xlsx", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Export file", "schema": {"type": "file"}},
                    "400": {"description": "Invalid selection or format", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Dashboard not found", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Sheet could not be loaded", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/dashboards/{id}/reload": {
            "post": {
                "description": "Invalidate the dashboard's cached sheet and fetch it again",
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Reload dashboard data",
                "parameters": [
                    {"type": "string", "description": "Dashboard ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Reloaded", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Dashboard not found", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Sheet could not be loaded", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/dashboards/{id}/history": {
            "get": {
                "description": "Recent sheet loads (cache misses and reloads), newest first",
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Get load history",
                "parameters": [
                    {"type": "string", "description": "Dashboard ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum entries (default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Load history", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Dashboard not found", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/cache/clear": {
            "post": {
                "description": "Drop all cached sheets; the next request of every dashboard fetches again",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Clear cache",
                "responses": {
                    "200": {"description": "Cache cleared", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Production Dashboard API",
	Description:      "Production tracking dashboards built from spreadsheet exports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
