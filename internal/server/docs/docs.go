// Package docs holds the Swagger document served at /swagger. It is
// maintained by hand in the layout swag emits and must follow the
// annotations in internal/server.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "formfetch maintainers",
            "url": "https://github.com/raysh454/formfetch"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/dispatch/{method}": {
            "post": {
                "description": "Sends METHOD to url with data as the JSON body when the variant carries one, and returns the text the response field would show. Upstream failures are reported in error and text, not as HTTP errors.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "dispatch"
                ],
                "summary": "Send one request",
                "parameters": [
                    {
                        "type": "string",
                        "description": "HTTP method",
                        "name": "method",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Dispatch input",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/server.DispatchRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/server.DispatchResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/server.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/history": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "history"
                ],
                "summary": "List finished dispatches",
                "parameters": [
                    {
                        "type": "integer",
                        "default": 50,
                        "description": "Maximum records, newest first",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/history.Record"
                            }
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/server.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/history/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "history"
                ],
                "summary": "Get one finished dispatch",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Task ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/history.Record"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/server.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/history/{id}/diff": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "history"
                ],
                "summary": "Diff two rendered outputs",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Head task ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Base task ID",
                        "name": "against",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/history.Diff"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/server.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/server.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/ws/dispatch/{method}": {
            "get": {
                "description": "Each {url, data} message starts a dispatch of METHOD. All dispatches of a session write one shared field, so a result overtaken by a newer dispatch arrives with stale set.",
                "tags": [
                    "dispatch"
                ],
                "summary": "Stream dispatches over a websocket",
                "parameters": [
                    {
                        "type": "string",
                        "description": "HTTP method",
                        "name": "method",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "json or text",
                        "name": "variant",
                        "in": "query"
                    }
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "history.Chunk": {
            "type": "object",
            "properties": {
                "content": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                }
            }
        },
        "history.Diff": {
            "type": "object",
            "properties": {
                "base_id": {
                    "type": "string"
                },
                "chunks": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/history.Chunk"
                    }
                },
                "equal": {
                    "type": "boolean"
                },
                "head_id": {
                    "type": "string"
                },
                "patch": {
                    "type": "string"
                }
            }
        },
        "history.Record": {
            "type": "object",
            "properties": {
                "ended_at": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "method": {
                    "type": "string"
                },
                "request_body": {
                    "type": "string"
                },
                "stale": {
                    "type": "boolean"
                },
                "started_at": {
                    "type": "string"
                },
                "status_code": {
                    "type": "integer"
                },
                "target": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                },
                "written": {
                    "type": "boolean"
                }
            }
        },
        "server.DispatchRequest": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "string",
                    "example": "{\"name\": \"formfetch\"}"
                },
                "url": {
                    "type": "string",
                    "example": "http://localhost:8080/echo"
                },
                "variant": {
                    "type": "string",
                    "example": "json"
                }
            }
        },
        "server.DispatchResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": ""
                },
                "method": {
                    "type": "string",
                    "example": "POST"
                },
                "stale": {
                    "type": "boolean",
                    "example": false
                },
                "status_code": {
                    "type": "integer",
                    "example": 200
                },
                "target": {
                    "type": "string",
                    "example": "postResponse"
                },
                "task_id": {
                    "type": "string",
                    "example": "5b0e8c1e-7d3a-4c1e-9a57-0c4b8b1f2d9a"
                },
                "text": {
                    "type": "string",
                    "example": "{\n \"ok\": true\n}"
                },
                "written": {
                    "type": "boolean",
                    "example": true
                }
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "not found"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "formfetch API",
	Description:      "Send single HTTP requests through bound field triples and inspect their history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
