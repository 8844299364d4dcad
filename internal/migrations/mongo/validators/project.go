package validators

import "go.mongodb.org/mongo-driver/bson"

var ProjectValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"client_name",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":         objectID(),
			"name":        text(2, 200),
			"client_name": text(2, 200),
			"start_date":  date(),
			"end_date":    date(),
			"schedule_status": bson.M{
				"bsonType": "string",
				"enum":     bookingStatuses,
			},
			"created_at": timestamp(),
			"updated_at": timestamp(),
		},
	},
}
