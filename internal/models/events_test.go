package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotifications_Batch(t *testing.T) {
	payload := []byte(`{"records":[
		{"bucket":"uploads","name":"a.docx","notificationId":"n-1"},
		{"bucket":"uploads","name":"b.pdf"}
	]}`)

	records, err := ParseNotifications(payload)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, StorageObject{Bucket: "uploads", Name: "a.docx", NotificationID: "n-1"}, records[0])
	assert.Equal(t, "b.pdf", records[1].Name)
}

func TestParseNotifications_SingleStorageEvent(t *testing.T) {
	payload := []byte(`{"bucket":"uploads","name":"judgment.pdf","generation":"123"}`)

	records, err := ParseNotifications(payload)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "uploads", records[0].Bucket)
	assert.Equal(t, "judgment.pdf", records[0].Name)
}

func TestParseNotifications_Malformed(t *testing.T) {
	_, err := ParseNotifications([]byte("not json"))
	assert.Error(t, err)
}

func TestParseNotifications_NamesNoObject(t *testing.T) {
	_, err := ParseNotifications([]byte(`{"bucket":"uploads"}`))
	assert.Error(t, err)
}

func TestPubSubEnvelope_DecodesBase64Data(t *testing.T) {
	// encoding/json handles the base64 transparently for []byte fields.
	raw := []byte(`{"message":{"data":"eyJidWNrZXQiOiJ1cGxvYWRzIiwibmFtZSI6ImEucGRmIn0=","messageId":"m-42"}}`)

	var envelope PubSubEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, "m-42", envelope.Message.MessageID)

	records, err := ParseNotifications(envelope.Message.Data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.pdf", records[0].Name)
}

func TestBatchResult_JSONShape(t *testing.T) {
	var result BatchResult
	result.AddFailure(StorageObject{Bucket: "uploads", Name: "a.pdf", NotificationID: "n-1"})
	result.AddFailure(StorageObject{Bucket: "uploads", Name: "b.pdf"})

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"batchItemFailures":[{"itemIdentifier":"n-1"},{"itemIdentifier":"b.pdf"}]}`, string(out))
	assert.False(t, result.AllSucceeded())
}

func TestBatchResult_Empty(t *testing.T) {
	var result BatchResult
	assert.True(t, result.AllSucceeded())
}
