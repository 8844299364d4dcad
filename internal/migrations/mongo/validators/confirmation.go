package validators

import "go.mongodb.org/mongo-driver/bson"

var ConfirmationRequestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"project_id",
			"token",
			"recipient_email",
			"recipient_name",
			"sent_at",
			"expires_at",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":             objectID(),
			"project_id":      hexID(),
			"token":           text(64, 64),
			"recipient_email": text(3, 320),
			"recipient_name":  text(1, 200),
			"sent_at":         timestamp(),
			"expires_at":      timestamp(),
			"status": bson.M{
				"bsonType": "string",
				"enum":     confirmationStatuses,
			},
			"responded_at":   timestamp(),
			"decline_reason": text(1, 1000),
			"created_at":     timestamp(),
		},
	},
}

var ConfirmationLinkValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"request_id",
			"assignment_id",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":           objectID(),
			"request_id":    hexID(),
			"assignment_id": hexID(),
		},
	},
}
