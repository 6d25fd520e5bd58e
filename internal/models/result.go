package models

// ItemFailure names one notification that could not be processed. The JSON
// shape matches the partial-batch-failure response understood by the queueing
// service, which redelivers only the identified items.
type ItemFailure struct {
	ItemIdentifier string `json:"itemIdentifier"`
}

// BatchResult reports the outcome of one trigger invocation.
type BatchResult struct {
	BatchItemFailures []ItemFailure `json:"batchItemFailures"`
}

// AddFailure records a failed item, identified by its notification ID when
// present, otherwise by the object name.
func (r *BatchResult) AddFailure(obj StorageObject) {
	id := obj.NotificationID
	if id == "" {
		id = obj.Name
	}
	r.BatchItemFailures = append(r.BatchItemFailures, ItemFailure{ItemIdentifier: id})
}

// AllSucceeded reports whether every item in the batch was processed.
func (r *BatchResult) AllSucceeded() bool {
	return len(r.BatchItemFailures) == 0
}
