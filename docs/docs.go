// Package docs registers the OpenAPI document served under /swagger.
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
        "/health": {
            "get": {
                "description": "Collaborator health, request metrics, host stats and the active transcription backend.",
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object"}}
                }
            }
        },
        "/ready": {
            "get": {
                "description": "503 while no transcription backend is usable or the grammar checker's breaker is open.",
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Readiness",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object"}}
                }
            }
        },
        "/video/score": {
            "post": {
                "description": "Runs the coverage validator and the posture, gesture and expression scorers over perception output.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["video"],
                "summary": "Score extracted video landmarks",
                "parameters": [
                    {"description": "Per-frame landmarks and video metadata", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/video/analyze": {
            "post": {
                "description": "Sends the video to the perception extractor, then scores the landmarks.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["video"],
                "summary": "Score an uploaded video",
                "parameters": [
                    {"type": "file", "description": "Video file", "name": "video", "in": "formData", "required": true},
                    {"type": "integer", "description": "Process every Nth frame", "name": "frame_skip", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/speech/score": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Score a transcribed recording",
                "parameters": [
                    {"description": "Transcription, audio chunk features and prompt match ratio", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/speech/analyze": {
            "post": {
                "description": "Extracts audio features and a transcript from the upload, then runs every speech scorer.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Score an uploaded recording",
                "parameters": [
                    {"type": "file", "description": "Audio file", "name": "audio", "in": "formData", "required": true},
                    {"type": "number", "description": "Share of the prompt covered, 0 to 1", "name": "prompt_match_ratio", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/speech/evaluate-feature": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Pass or fail one speech feature",
                "parameters": [
                    {"type": "file", "description": "Audio file", "name": "audio", "in": "formData", "required": true},
                    {"type": "string", "description": "Pronunciation, Fluency, Tone or Pitch", "name": "feature", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/speech/tone-practice": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Check a tone practice attempt",
                "parameters": [
                    {"description": "Context and the emotion delivered", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.tonePracticeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/text/analyze": {
            "post": {
                "description": "Grammar, readability, structure and coherence, combined into a 0-10 overall score.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["text"],
                "summary": "Score written text",
                "parameters": [
                    {"description": "Text to analyze", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/security.TextRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "errors.AppError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "category": {"type": "string"},
                "http_status": {"type": "integer"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "main.tonePracticeRequest": {
            "type": "object",
            "required": ["context", "emotion"],
            "properties": {
                "context": {"type": "string"},
                "emotion": {"type": "string"}
            }
        },
        "security.TextRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Expressly Scorer API",
	Description:      "Rule-based scoring of recorded video, speech and written text.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
