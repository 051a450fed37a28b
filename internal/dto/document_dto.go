package dto

// Document view states. Error keeps the original reference so the caller can
// offer a manual open-externally fallback.
const (
	DocumentStatusLoaded = "loaded"
	DocumentStatusError  = "error"
)

// DocumentViewResponse is the resolved view description for one document
// reference.
type DocumentViewResponse struct {
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	ViewerURL string `json:"viewer_url,omitempty"`
	Reference string `json:"reference"`
	Message   string `json:"message,omitempty"`
}
