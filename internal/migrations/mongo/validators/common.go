package validators

import "go.mongodb.org/mongo-driver/bson"

var (
	bookingStatuses      = []string{"draft", "tentative", "pending_confirm", "confirmed", "complete"}
	confirmationStatuses = []string{"pending", "confirmed", "declined", "expired"}
)

func objectID() bson.M {
	return bson.M{"bsonType": "objectId"}
}

// hexID is a reference to another document's _id, stored as its hex string.
func hexID() bson.M {
	return bson.M{
		"bsonType":  "string",
		"minLength": 24,
		"maxLength": 24,
	}
}

func date() bson.M {
	return bson.M{
		"bsonType": "string",
		"pattern":  `^\d{4}-\d{2}-\d{2}$`,
	}
}

func clock() bson.M {
	return bson.M{
		"bsonType": "string",
		"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
	}
}

func text(minLength, maxLength int) bson.M {
	return bson.M{
		"bsonType":  "string",
		"minLength": minLength,
		"maxLength": maxLength,
	}
}

func timestamp() bson.M {
	return bson.M{"bsonType": "date"}
}
