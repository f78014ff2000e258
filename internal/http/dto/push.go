package dto

// PushSubscribeRequest mirrors what PushManager.subscribe() hands the
// browser, wrapped with the user it belongs to.
type PushSubscribeRequest struct {
	UserID       string `json:"userId"`
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription"`
}

type VAPIDPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}
