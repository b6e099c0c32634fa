package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API description:
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Tuma API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Every collection under /api/{clients,opportunities,quotes,missions,invoices,documents,planning/*}
// shares the list/create/get/patch/delete shape, described once per path below.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "Tuma API", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "parameters": {
      "id": { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } },
      "token": { "name": "token", "in": "path", "required": true, "schema": { "type": "string" } },
      "status": { "name": "status", "in": "query", "schema": { "type": "string" } },
      "search": { "name": "search", "in": "query", "schema": { "type": "string" } },
      "page": { "name": "page", "in": "query", "schema": { "type": "integer", "minimum": 1 } },
      "limit": { "name": "limit", "in": "query", "schema": { "type": "integer", "maximum": 100 } }
    },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": { "type": "string" }, "code": { "type": "string" }, "details": { "type": "object" } } },
      "Page": { "type": "object", "properties": { "items": { "type": "array", "items": { "type": "object" } }, "total": { "type": "integer" }, "page": { "type": "integer" }, "limit": { "type": "integer" }, "stats": { "type": "object" } } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/api/auth/register": { "post": { "summary": "Create an account and open a session", "security": [], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "email": { "type": "string" }, "password": { "type": "string" }, "name": { "type": "string" }, "company": { "type": "string" } } } } } }, "responses": { "201": { "description": "tokens returned" }, "400": { "description": "invalid input" }, "409": { "description": "email taken" }, "429": { "description": "rate limited" } } } },
    "/api/auth/login": { "post": { "summary": "Log in with email and password", "security": [], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "email": { "type": "string" }, "password": { "type": "string" } } } } } }, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } } } },
    "/api/auth/sso": { "post": { "summary": "Exchange an OIDC ID token", "security": [], "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid id token" }, "503": { "description": "SSO not configured" } } } },
    "/api/auth/refresh": { "post": { "summary": "Refresh the access token", "security": [], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refreshToken": { "type": "string" } } } } } }, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } } },
    "/api/auth/logout": { "post": { "summary": "Revoke the access token and refresh session", "responses": { "200": { "description": "logged out" } } } },
    "/api/auth/me": { "get": { "summary": "Current user", "responses": { "200": { "description": "user" }, "401": { "description": "unauthorized" } } } },
    "/api/auth/sessions": { "get": { "summary": "Devices with an open session", "responses": { "200": { "description": "sessions" } } } },
    "/api/auth/sessions/{id}": { "delete": { "summary": "Revoke a device", "parameters": [ { "$ref": "#/components/parameters/id" } ], "responses": { "204": { "description": "revoked" }, "404": { "description": "unknown session" } } } },
    "/api/clients": { "get": { "summary": "List clients with rollups", "parameters": [ { "$ref": "#/components/parameters/status" }, { "$ref": "#/components/parameters/search" }, { "$ref": "#/components/parameters/page" }, { "$ref": "#/components/parameters/limit" } ], "responses": { "200": { "description": "page", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Page" } } } } } }, "post": { "summary": "Create a client", "responses": { "201": { "description": "created" }, "400": { "description": "invalid input" } } } },
    "/api/clients/{id}": { "get": { "summary": "Get a client", "parameters": [ { "$ref": "#/components/parameters/id" } ], "responses": { "200": { "description": "client" }, "404": { "description": "not found" } } }, "patch": { "summary": "Update a client", "parameters": [ { "$ref": "#/components/parameters/id" } ], "responses": { "200": { "description": "client" }, "409": { "description": "version conflict" } } }, "delete": { "summary": "Delete a client", "parameters": [ { "$ref": "#/components/parameters/id" } ], "responses": { "204": { "description": "deleted" } } } },
    "/api/opportunities": { "get": { "summary": "List opportunities with pipeline value", "responses": { "200": { "description": "page" } } }, "post": { "summary": "Create an opportunity", "responses": { "201": { "description": "created" } } } },
    "/api/opportunities/{id}": { "get": { "summary": "Get an opportunity", "responses": { "200": { "description": "opportunity" } } }, "patch": { "summary": "Update an opportunity", "responses": { "200": { "description": "opportunity" } } }, "delete": { "summary": "Delete an opportunity", "responses": { "204": { "description": "deleted" } } } },
    "/api/quotes": { "get": { "summary": "List quotes with amounts", "responses": { "200": { "description": "page" } } }, "post": { "summary": "Create a quote (numbered DEV-YYYY-NNN)", "responses": { "201": { "description": "created" } } } },
    "/api/quotes/{id}": { "get": { "summary": "Get a quote", "responses": { "200": { "description": "quote" } } }, "patch": { "summary": "Update a quote; accepting it creates the mission", "responses": { "200": { "description": "quote" }, "400": { "description": "invalid status" } } }, "delete": { "summary": "Delete a quote", "responses": { "204": { "description": "deleted" } } } },
    "/api/quotes/{id}/share": { "post": { "summary": "Create or return the share token", "responses": { "200": { "description": "share token" } } }, "delete": { "summary": "Revoke the share token", "responses": { "200": { "description": "quote" } } } },
    "/api/quotes/{id}/invoice": { "post": { "summary": "Convert to a draft invoice", "responses": { "201": { "description": "invoice created" }, "200": { "description": "invoice already exists" } } } },
    "/api/public/quotes/{token}": { "get": { "summary": "Shared quote", "security": [], "parameters": [ { "$ref": "#/components/parameters/token" } ], "responses": { "200": { "description": "quote" }, "404": { "description": "unknown token" } } } },
    "/api/public/quotes/{token}/suggestions": { "post": { "summary": "Leave a suggestion", "security": [], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "author": { "type": "string" }, "message": { "type": "string" } } } } } }, "responses": { "201": { "description": "quote" } } } },
    "/api/public/quotes/{token}/accept": { "post": { "summary": "Accept the quote", "security": [], "responses": { "200": { "description": "quote" }, "409": { "description": "already decided or expired" } } } },
    "/api/public/quotes/{token}/refuse": { "post": { "summary": "Refuse the quote", "security": [], "responses": { "200": { "description": "quote" }, "409": { "description": "already decided or expired" } } } },
    "/api/missions": { "get": { "summary": "List missions", "responses": { "200": { "description": "page" } } }, "post": { "summary": "Create a mission", "responses": { "201": { "description": "created" } } } },
    "/api/missions/{id}": { "get": { "summary": "Get a mission", "responses": { "200": { "description": "mission" } } }, "patch": { "summary": "Update a mission; requestVerification checks the proof", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "requestVerification": { "type": "boolean" } } } } } }, "responses": { "200": { "description": "mission" }, "400": { "description": "completion without verification" } } }, "delete": { "summary": "Delete a mission", "responses": { "204": { "description": "deleted" } } } },
    "/api/invoices": { "get": { "summary": "List invoices with outstanding amounts", "responses": { "200": { "description": "page" } } }, "post": { "summary": "Create an invoice (numbered FAC-YYYY-NNN)", "responses": { "201": { "description": "created" } } } },
    "/api/invoices/{id}": { "get": { "summary": "Get an invoice", "responses": { "200": { "description": "invoice" } } }, "patch": { "summary": "Update an invoice", "responses": { "200": { "description": "invoice" } } }, "delete": { "summary": "Delete an invoice", "responses": { "204": { "description": "deleted" } } } },
    "/api/planning/events": { "get": { "summary": "List events", "parameters": [ { "name": "from", "in": "query", "schema": { "type": "string" } }, { "name": "to", "in": "query", "schema": { "type": "string" } } ], "responses": { "200": { "description": "page" } } }, "post": { "summary": "Create an event", "responses": { "201": { "description": "created" } } } },
    "/api/planning/events/{id}": { "get": { "summary": "Get an event", "responses": { "200": { "description": "event" } } }, "patch": { "summary": "Update an event", "responses": { "200": { "description": "event" } } }, "delete": { "summary": "Delete an event", "responses": { "204": { "description": "deleted" } } } },
    "/api/planning/tasks": { "get": { "summary": "List tasks", "responses": { "200": { "description": "page" } } }, "post": { "summary": "Create a task", "responses": { "201": { "description": "created" } } } },
    "/api/planning/tasks/{id}": { "get": { "summary": "Get a task", "responses": { "200": { "description": "task" } } }, "patch": { "summary": "Update a task", "responses": { "200": { "description": "task" } } }, "delete": { "summary": "Delete a task", "responses": { "204": { "description": "deleted" } } } },
    "/api/planning/time-entries": { "get": { "summary": "List time entries", "responses": { "200": { "description": "page" } } }, "post": { "summary": "Log time", "responses": { "201": { "description": "created" } } } },
    "/api/planning/time-entries/{id}": { "get": { "summary": "Get a time entry", "responses": { "200": { "description": "time entry" } } }, "patch": { "summary": "Update a time entry", "responses": { "200": { "description": "time entry" } } }, "delete": { "summary": "Delete a time entry", "responses": { "204": { "description": "deleted" } } } },
    "/api/documents": { "get": { "summary": "List project documents", "responses": { "200": { "description": "page" } } }, "post": { "summary": "Create a document", "responses": { "201": { "description": "created" } } } },
    "/api/documents/{id}": { "get": { "summary": "Get a document", "responses": { "200": { "description": "document" } } }, "patch": { "summary": "Update a document", "responses": { "200": { "description": "document" } } }, "delete": { "summary": "Delete a document and its file", "responses": { "204": { "description": "deleted" } } } },
    "/api/documents/{id}/file": { "post": { "summary": "Upload the document file (multipart field: file)", "responses": { "200": { "description": "document" }, "503": { "description": "storage not configured" } } }, "get": { "summary": "Presigned download URL, valid 15 minutes", "responses": { "200": { "description": "url" }, "404": { "description": "no file" }, "503": { "description": "storage not configured" } } } },
    "/api/dashboard": { "get": { "summary": "Headline figures and activity feed", "responses": { "200": { "description": "overview" } } } },
    "/api/reports/revenue": { "get": { "summary": "Monthly invoiced and paid totals", "parameters": [ { "name": "year", "in": "query", "schema": { "type": "integer" } } ], "responses": { "200": { "description": "report" } } } }
  }
}`
