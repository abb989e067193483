// Package openapi builds the OpenAPI 3.1 document describing the Tinsel API.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// GenerateSpec builds the OpenAPI document for the API. The surface is fixed,
// so the document is assembled once at startup and served as-is.
func GenerateSpec(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Tinsel API",
			Description: "Holiday email dispatch and batch logging API.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["apiKey"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "header",
			Name: "X-API-Key",
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	registerSchemas(doc)

	doc.Paths = openapi3.NewPaths()
	addLoginPath(doc)
	addBatchPaths(doc)
	addSendPath(doc)

	return doc
}

func registerSchemas(doc *openapi3.T) {
	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"ok":    boolSchema(),
				"error": stringSchema(""),
				"code": stringSchema("Machine-readable error code, e.g. " +
					"VALIDATION_ERROR, INVALID_TOKEN, RATE_LIMIT_EXCEEDED."),
			},
		},
	}

	doc.Components.Schemas["EmailBatch"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":             stringSchema("Batch UUID."),
				"holidayName":    stringSchema(""),
				"tone":           stringSchema(""),
				"audienceType":   stringSchema(""),
				"language":       stringSchema(""),
				"senderName":     stringSchema(""),
				"status":         enumSchema("queued", "sent", "error"),
				"errorMessage":   stringSchema(""),
				"createdAt":      {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
				"recipientCount": intSchema(),
				"recipients": {Value: &openapi3.Schema{
					Type:  &openapi3.Types{"array"},
					Items: stringSchema(""),
				}},
			},
		},
	}
}

func addLoginPath(doc *openapi3.T) {
	op := &openapi3.Operation{
		OperationID: "login",
		Summary:     "Exchange the access password for a session token",
		Description: "Rate limited to 5 attempts per window per client IP.",
		Tags:        []string{"auth"},
		RequestBody: jsonRequestBody(&openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"password"},
			Properties: openapi3.Schemas{
				"password": stringSchema(""),
			},
		}),
		Responses: openapi3.NewResponses(),
	}
	op.Responses.Set("200", jsonResponse("Session token issued", &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"ok":        boolSchema(),
			"token":     stringSchema("Signed JWT, valid for 8 hours."),
			"expiresIn": intSchema(),
		},
	}))
	op.Responses.Set("401", errorResponse("Invalid credentials"))
	op.Responses.Set("429", errorResponse("Too many login attempts"))

	doc.Paths.Set("/auth/login", &openapi3.PathItem{Post: op})
}

func addBatchPaths(doc *openapi3.T) {
	batchRef := openapi3.NewSchemaRef("#/components/schemas/EmailBatch", nil)

	logOp := &openapi3.Operation{
		OperationID: "logEmailBatch",
		Summary:     "Record one email batch in the log",
		Tags:        []string{"logs"},
		Security:    protected(),
		RequestBody: jsonRequestBody(&openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"holidayName", "senderName", "recipients", "status"},
			Properties: openapi3.Schemas{
				"holidayName":  stringSchema(""),
				"tone":         stringSchema(""),
				"audienceType": stringSchema(""),
				"language":     stringSchema(""),
				"senderName":   stringSchema(""),
				"recipients": {Value: &openapi3.Schema{
					Type:  &openapi3.Types{"array"},
					Items: stringSchema(""),
				}},
				"status":       enumSchema("queued", "sent", "error"),
				"errorMessage": stringSchema(""),
			},
		}),
		Responses: openapi3.NewResponses(),
	}
	logOp.Responses.Set("201", jsonResponse("Batch recorded", &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"ok":             boolSchema(),
			"batchId":        stringSchema(""),
			"recipientCount": intSchema(),
		},
	}))
	logOp.Responses.Set("400", errorResponse("Validation failed"))
	doc.Paths.Set("/api/log-email-batch", &openapi3.PathItem{Post: logOp})

	listOp := &openapi3.Operation{
		OperationID: "listEmailLogs",
		Summary:     "List logged batches, newest first",
		Tags:        []string{"logs"},
		Security:    protected(),
		Parameters: openapi3.Parameters{
			queryParam("limit", "Page size, 1-100. Defaults to 20."),
			queryParam("offset", "Number of batches to skip."),
			queryParam("status", "Filter by status: queued, sent, or error."),
		},
		Responses: openapi3.NewResponses(),
	}
	listOp.Responses.Set("200", jsonResponse("One page of the log", &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"ok": boolSchema(),
			"logs": {Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: batchRef,
			}},
			"total":  intSchema(),
			"limit":  intSchema(),
			"offset": intSchema(),
		},
	}))
	doc.Paths.Set("/api/email-logs", &openapi3.PathItem{Get: listOp})

	getOp := &openapi3.Operation{
		OperationID: "getEmailLog",
		Summary:     "Fetch one batch with its recipient list",
		Tags:        []string{"logs"},
		Security:    protected(),
		Parameters: openapi3.Parameters{
			{Value: &openapi3.Parameter{
				Name:     "batchId",
				In:       "path",
				Required: true,
				Schema:   stringSchema(""),
			}},
		},
		Responses: openapi3.NewResponses(),
	}
	getOp.Responses.Set("200", jsonResponse("The batch", &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"ok":    boolSchema(),
			"batch": batchRef,
		},
	}))
	getOp.Responses.Set("404", errorResponse("Batch not found"))
	doc.Paths.Set("/api/email-logs/{batchId}", &openapi3.PathItem{Get: getOp})
}

func addSendPath(doc *openapi3.T) {
	op := &openapi3.Operation{
		OperationID: "sendHolidayEmails",
		Summary:     "Submit a holiday email batch to the workflow engine",
		Tags:        []string{"send"},
		Security:    protected(),
		RequestBody: jsonRequestBody(&openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"holidayName", "senderName", "recipients"},
			Properties: openapi3.Schemas{
				"holidayName":  stringSchema(""),
				"tone":         stringSchema("Defaults to \"warm\"."),
				"audienceType": stringSchema(""),
				"language":     stringSchema(""),
				"senderName":   stringSchema(""),
				"recipients":   stringSchema("Comma or newline separated email addresses."),
			},
		}),
		Responses: openapi3.NewResponses(),
	}
	op.Responses.Set("200", jsonResponse("Submitted to the workflow engine", &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"ok":             boolSchema(),
			"status":         stringSchema(""),
			"recipientCount": intSchema(),
		},
	}))
	op.Responses.Set("400", errorResponse("Validation failed"))
	op.Responses.Set("502", errorResponse("Workflow engine rejected the submission"))

	doc.Paths.Set("/api/send-holiday-emails", &openapi3.PathItem{Post: op})
}

// --- helpers ---

func protected() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{
		{"apiKey": {}, "bearerAuth": {}},
	}
}

func stringSchema(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func boolSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}
}

func intSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}
}

func enumSchema(values ...string) *openapi3.SchemaRef {
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: enum}}
}

func queryParam(name, desc string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name:        name,
		In:          "query",
		Description: desc,
		Schema:      stringSchema(""),
	}}
}

func jsonRequestBody(schema *openapi3.Schema) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchema(schema),
		},
	}
}

func jsonResponse(desc string, schema *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchema(schema),
		},
	}
}

func errorResponse(desc string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.NewContentWithJSONSchemaRef(
				openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)),
		},
	}
}
