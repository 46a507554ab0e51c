package model

type Attachment struct {
	ID           int     `json:"id"`
	FileURL      string  `json:"fileURL"`
	FileName     *string `json:"fileName,omitempty"`
	TaskID       int     `json:"taskId"`
	UploadedByID int     `json:"uploadedById"`
}
