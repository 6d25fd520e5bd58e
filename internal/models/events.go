package models

import (
	"encoding/json"
	"fmt"
)

// StorageObject identifies one uploaded object named by an object-changed
// notification. NotificationID is carried through to the batch result so the
// queueing layer can redeliver exactly the notifications that failed.
type StorageObject struct {
	Bucket         string `json:"bucket"`
	Name           string `json:"name"`
	NotificationID string `json:"notificationId,omitempty"`
}

// NotificationBatch is the payload published to the trigger topic: one or
// more storage notifications to be processed independently.
type NotificationBatch struct {
	Records []StorageObject `json:"records"`
}

// PubSubMessage mirrors the Pub/Sub push/event message shape. Data is
// base64-decoded by encoding/json.
type PubSubMessage struct {
	Data      []byte `json:"data"`
	MessageID string `json:"messageId"`
}

// PubSubEnvelope is the CloudEvent data for a
// google.cloud.pubsub.topic.v1.messagePublished event.
type PubSubEnvelope struct {
	Message PubSubMessage `json:"message"`
}

// ParseNotifications extracts the storage notifications from a raw event
// payload. It accepts either a NotificationBatch or a bare single-object
// storage event (the shape GCS emits for object finalization).
func ParseNotifications(data []byte) ([]StorageObject, error) {
	var batch NotificationBatch
	if err := json.Unmarshal(data, &batch); err == nil && len(batch.Records) > 0 {
		return batch.Records, nil
	}

	var single StorageObject
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}
	if single.Bucket == "" || single.Name == "" {
		return nil, fmt.Errorf("notification payload names no storage object")
	}
	return []StorageObject{single}, nil
}
