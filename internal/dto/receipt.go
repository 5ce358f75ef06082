package dto

type ReceiptUploadResult struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}
