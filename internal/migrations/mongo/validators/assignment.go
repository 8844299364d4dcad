package validators

import "go.mongodb.org/mongo-driver/bson"

var AssignmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"project_id",
			"engineer_id",
			"booking_status",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":         objectID(),
			"project_id":  hexID(),
			"engineer_id": text(1, 100),
			"booking_status": bson.M{
				"bsonType": "string",
				"enum":     bookingStatuses,
			},
			"created_at": timestamp(),
			"updated_at": timestamp(),
		},
	},
}

var AssignmentDayValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"assignment_id",
			"engineer_id",
			"project_id",
			"date",
			"start_time",
			"end_time",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":           objectID(),
			"assignment_id": hexID(),
			"engineer_id":   text(1, 100),
			"project_id":    hexID(),
			"date":          date(),
			"start_time":    clock(),
			"end_time":      clock(),
			"created_at":    timestamp(),
		},
	},
}

var StatusHistoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"assignment_id",
			"new_status",
			"changed_by",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":           objectID(),
			"assignment_id": hexID(),
			"old_status": bson.M{
				"bsonType": []string{"string", "null"},
				"enum":     append([]any{nil}, toAny(bookingStatuses)...),
			},
			"new_status": bson.M{
				"bsonType": "string",
				"enum":     bookingStatuses,
			},
			"changed_by": text(1, 320),
			"created_at": timestamp(),
		},
	},
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
