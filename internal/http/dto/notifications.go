package dto

type CreateNotificationRequest struct {
	RecipientID string `json:"recipientId"`
	SenderID    string `json:"senderId"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	Link        string `json:"link"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
