package indexing

// ProcessRequest is the body for POST /documents/:documentId/process.
type ProcessRequest struct {
	FilePath         string `json:"filePath" binding:"required"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"originalFilename"`
	DocumentType     string `json:"documentType" binding:"required"`
	Description      string `json:"description"`
	FileSize         int64  `json:"fileSize"`
	MimeType         string `json:"mimeType"`
}

// ReprocessRequest is the body for POST /documents/:documentId/reprocess.
type ReprocessRequest struct {
	FilePath string `json:"filePath" binding:"required"`
}

// ProcessResponse wraps a processing outcome. Failures are reported with
// Success=false and an error code so the caller's upload flow can continue.
type ProcessResponse struct {
	Success bool    `json:"success"`
	Result  *Result `json:"result,omitempty"`
	Code    string  `json:"code,omitempty"`
	Message string  `json:"message,omitempty"`
}

// DeleteResponse reports the outcome of a delete request.
type DeleteResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId"`
	Message    string `json:"message,omitempty"`
}
