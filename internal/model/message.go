package model

import "time"

// DefaultSubject is stored when a contact form submission has no subject.
const DefaultSubject = "No Subject"

// Message represents a message submitted via the contact form.
// Read only ever transitions from false to true.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// SubmitInput carries the fields of a contact form submission.
type SubmitInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
