package validators

import "go.mongodb.org/mongo-driver/bson"

var NotificationJobValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"recipient",
			"channel",
			"payload",
			"trigger_type",
			"priority",
			"attempt",
			"max_attempts",
			"status",
			"next_attempt_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"tenant_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"recipient": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"channel": bson.M{
				"bsonType": "string",
				"enum":     []string{"sms"},
			},

			"payload": bson.M{
				"bsonType": "string",
			},

			"trigger_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmation",
					"reminder",
				},
			},

			"priority": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"attempt": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"max_attempts": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"queued",
					"processing",
					"delivered",
					"failed",
					"dead_letter",
				},
			},

			"next_attempt_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var DeliveryAttemptValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"job_id",
			"attempt",
			"outcome",
			"attempted_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"job_id": bson.M{
				"bsonType": "string",
			},

			"attempt": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"outcome": bson.M{
				"bsonType": "string",
				"enum": []string{
					"delivered",
					"failed",
				},
			},

			"error": bson.M{
				"bsonType": "string",
			},

			"provider_ref": bson.M{
				"bsonType": "string",
			},

			"attempted_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
