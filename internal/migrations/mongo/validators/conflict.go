package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingConflictValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"engineer_id",
			"assignment_id",
			"conflicting_assignment_id",
			"date",
			"is_resolved",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":                       objectID(),
			"engineer_id":               text(1, 100),
			"assignment_id":             hexID(),
			"conflicting_assignment_id": hexID(),
			"date":                      date(),
			"is_resolved":               bson.M{"bsonType": "bool"},
			"override_reason":           text(1, 1000),
			"resolved_at":               timestamp(),
			"created_at":                timestamp(),
		},
	},
}
