// Package docs holds the OpenAPI description served under /swagger.
//
// Regenerate from the handler annotations with:
//
//	swag init -g internal/http/router.go -o internal/docs --parseInternal
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search paragraphs",
                "operationId": "search",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query", "required": true},
                    {"type": "string", "default": "EXACT_WORDS", "name": "mode", "in": "query", "enum": ["EXACT_PHRASE", "EXACT_WORDS", "DIVERSE"]},
                    {"maximum": 50, "minimum": 1, "type": "integer", "default": 20, "name": "limit", "in": "query"},
                    {"minimum": 0, "type": "integer", "default": 0, "name": "offset", "in": "query"},
                    {"type": "boolean", "name": "synonyms", "in": "query"},
                    {"type": "string", "default": "both", "name": "filter", "in": "query", "enum": ["both", "original", "synonyms"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SearchResponse"}, "headers": {"X-Search-Backend": {"type": "string", "description": "indexed, fallback or none"}}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "List documents",
                "operationId": "listDocuments",
                "parameters": [
                    {"type": "string", "name": "If-None-Match", "in": "header"},
                    {"type": "string", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListDocumentsResponse"}, "headers": {"ETag": {"type": "string"}}},
                    "304": {"description": "Not Modified"},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/import": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Import documents",
                "operationId": "importDocuments",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.ImportSummary"}, "headers": {"Idempotency-Replayed": {"type": "string"}}},
                    "400": {"description": "Invalid payload or document", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Get a document",
                "operationId": "getDocument",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DocumentResponse"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}/words": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Get the word stream",
                "operationId": "getDocumentWords",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WordsResponse"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}/locate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Relocate a citation",
                "operationId": "locateCitation",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "text", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.LocateResult"}},
                    "400": {"description": "Empty text", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Document or citation not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}/highlights": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Highlights"],
                "summary": "List highlights",
                "operationId": "listHighlights",
                "parameters": [
                    {"type": "string", "name": "If-None-Match", "in": "header"},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListHighlightsResponse"}, "headers": {"ETag": {"type": "string"}}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Highlights"],
                "summary": "Create a highlight",
                "operationId": "createHighlight",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateHighlightRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Highlight"}},
                    "400": {"description": "Bad request or invalid range", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/highlights/{hid}": {
            "delete": {
                "tags": ["Highlights"],
                "summary": "Delete a highlight",
                "operationId": "deleteHighlight",
                "parameters": [{"type": "string", "format": "uuid", "name": "hid", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Highlight not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Document": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "date": {"type": "string"},
                "city": {"type": "string"},
                "version": {"type": "string"},
                "time": {"type": "string"},
                "audio_url": {"type": "string"},
                "content_hash": {"type": "string"},
                "imported_at": {"type": "string"}
            }
        },
        "domain.ImportDocument": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "date": {"type": "string"},
                "city": {"type": "string"},
                "version": {"type": "string"},
                "time": {"type": "string"},
                "audio_url": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "domain.Paragraph": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "document_id": {"type": "string"},
                "paragraph_index": {"type": "integer"},
                "content": {"type": "string"}
            }
        },
        "domain.Highlight": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "document_id": {"type": "string"},
                "start": {"type": "integer"},
                "end": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "domain.SearchResult": {
            "type": "object",
            "properties": {
                "paragraph_id": {"type": "integer"},
                "sermon_id": {"type": "string"},
                "paragraph_index": {"type": "integer"},
                "title": {"type": "string"},
                "date": {"type": "string"},
                "city": {"type": "string"},
                "snippet": {"type": "string"}
            }
        },
        "segment.Token": {
            "type": "object",
            "properties": {
                "i": {"type": "integer"},
                "t": {"type": "string"},
                "k": {"type": "string", "enum": ["word", "space", "break"]}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "resource not found"}
            }
        },
        "handlers.ImportRequest": {
            "type": "object",
            "properties": {
                "documents": {"type": "array", "items": {"$ref": "#/definitions/domain.ImportDocument"}}
            }
        },
        "handlers.ListDocumentsResponse": {
            "type": "object",
            "properties": {
                "documents": {"type": "array", "items": {"$ref": "#/definitions/domain.Document"}},
                "total": {"type": "integer"}
            }
        },
        "handlers.DocumentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "date": {"type": "string"},
                "city": {"type": "string"},
                "content_hash": {"type": "string"},
                "imported_at": {"type": "string"},
                "text": {"type": "string"},
                "paragraphs": {"type": "array", "items": {"$ref": "#/definitions/domain.Paragraph"}}
            }
        },
        "handlers.WordsResponse": {
            "type": "object",
            "properties": {
                "document_id": {"type": "string"},
                "last_index": {"type": "integer", "example": 4021},
                "tokens": {"type": "array", "items": {"$ref": "#/definitions/segment.Token"}}
            }
        },
        "handlers.CreateHighlightRequest": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "start": {"type": "integer", "example": 14},
                "end": {"type": "integer", "example": 20}
            }
        },
        "handlers.ListHighlightsResponse": {
            "type": "object",
            "properties": {
                "document_id": {"type": "string"},
                "highlights": {"type": "array", "items": {"$ref": "#/definitions/domain.Highlight"}}
            }
        },
        "services.ImportSummary": {
            "type": "object",
            "properties": {
                "documents": {"type": "integer"},
                "paragraphs": {"type": "integer"},
                "created": {"type": "integer"},
                "changed": {"type": "integer"},
                "unchanged": {"type": "integer"},
                "took_ns": {"type": "integer"}
            }
        },
        "services.LocateResult": {
            "type": "object",
            "properties": {
                "start": {"type": "integer"},
                "end": {"type": "integer"},
                "text": {"type": "string"}
            }
        },
        "services.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "mode": {"type": "string"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/domain.SearchResult"}},
                "synonyms": {"type": "array", "items": {"type": "string"}},
                "backend": {"type": "string", "enum": ["indexed", "fallback", "none"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Sermon Search API",
	Description:      "Full-text search, reading and highlighting over a sermon library.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
