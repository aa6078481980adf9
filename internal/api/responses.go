package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// TransferResponse is returned by every balance-mutating endpoint: the
// caller gets back the journal entry id it can use for auditing.
type TransferResponse struct {
	Message string `json:"message" example:"top-up successful"`
	TxID    string `json:"tx_id" example:"6b1f6c7e-7e7a-4d0a-9a35-1d6a3d2a9f10"`
}
