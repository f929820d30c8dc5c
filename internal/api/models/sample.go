package models

// Sample is the wire form of a stored sample record.
type Sample struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt Timestamp `json:"created_at"`
}

// SampleCreateRequest is the body for POST /v1/samples.
type SampleCreateRequest struct {
	Name   string  `json:"name"`
	Status *string `json:"status,omitempty"`
}

// PagedSamples represents a paginated list of samples, newest first.
type PagedSamples struct {
	Items []Sample          `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
