package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/entity"
)

// Lifecycle event types mirrored into the provider_users table.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the identity-provider lifecycle envelope.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	CreatedAt      int64          `json:"created_at"` // epoch milliseconds
	UpdatedAt      int64          `json:"updated_at"`
}

type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// buildEventJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map, validated locally before the payload is trusted.
func buildEventJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"type", "data"},
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []any{EventUserCreated, EventUserUpdated, EventUserDeleted},
			},
			"data": map[string]any{
				"type":     "object",
				"required": []any{"id"},
				"properties": map[string]any{
					"id":         map[string]any{"type": "string", "minLength": 1},
					"first_name": map[string]any{"type": []any{"string", "null"}},
					"last_name":  map[string]any{"type": []any{"string", "null"}},
					"email_addresses": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []any{"email_address"},
							"properties": map[string]any{
								"email_address": map[string]any{"type": "string"},
							},
						},
					},
					"created_at": map[string]any{"type": "number"},
					"updated_at": map[string]any{"type": "number"},
				},
			},
		},
	}
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ParseEvent validates the payload against the event schema and decodes it.
func ParseEvent(payload []byte) (*Event, error) {
	if err := validateAgainstSchema(buildEventJSONSchema(), payload); err != nil {
		return nil, common.ValidationErrorf("webhook payload: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, common.ValidationErrorf("webhook payload: %v", err)
	}
	return &evt, nil
}

// ProviderUser maps the event data onto the mirror row. The primary email is
// the first listed address, when any.
func (e *Event) ProviderUser() *entity.ProviderUser {
	email := ""
	if len(e.Data.EmailAddresses) > 0 {
		email = e.Data.EmailAddresses[0].EmailAddress
	}
	return &entity.ProviderUser{
		UserID:    e.Data.ID,
		FirstName: e.Data.FirstName,
		LastName:  e.Data.LastName,
		Email:     email,
		CreatedAt: time.UnixMilli(e.Data.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(e.Data.UpdatedAt).UTC(),
	}
}
