package outbox

import "github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/events"

const userCreatedSchema = `{
  "type": "object",
  "title": "UserCreated",
  "properties": {
    "user_id": {"type": "string"},
    "user_name": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "user_name", "created_at"],
  "additionalProperties": false
}`

const exerciseLoggedSchema = `{
  "type": "object",
  "title": "ExerciseLogged",
  "properties": {
    "exercise_id": {"type": "string"},
    "user_id": {"type": "string"},
    "description": {"type": "string"},
    "duration": {"type": "number", "exclusiveMinimum": 0},
    "date": {"type": "string", "format": "date"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["exercise_id", "user_id", "description", "duration", "date", "created_at"],
  "additionalProperties": false
}`

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeUserCreated: {
		Schema: userCreatedSchema,
	},
	events.TypeExerciseLogged: {
		Schema: exerciseLoggedSchema,
	},
}
