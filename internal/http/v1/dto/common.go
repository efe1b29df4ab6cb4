// Package dto defines request/response shapes for the v1 API.
package dto

// MutationResponse is the envelope for successful create/update/delete.
type MutationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success builds the standard mutation envelope.
func Success(message string, data any) MutationResponse {
	return MutationResponse{Status: "success", Message: message, Data: data}
}

// ListingShell describes one entity type's listing page.
type ListingShell struct {
	Entity    string   `json:"entity"`
	Title     string   `json:"title"`
	Module    string   `json:"module"`
	Columns   []string `json:"columns"`
	CanCreate bool     `json:"can_create"`
	DataURL   string   `json:"data_url"`
	CreateURL string   `json:"create_url,omitempty"`
}

// FormResponse carries form metadata plus the record being edited
// (or the empty shape for create forms).
type FormResponse struct {
	Entity string `json:"entity"`
	Title  string `json:"title"`
	Fields any    `json:"fields"`
	Record any    `json:"record"`
}
