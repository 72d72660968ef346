package http

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// APIResponse400Err represents 400 error response.
type APIResponse400Err struct {
	Status  int               `json:"status" example:"400"`
	Message string            `json:"message" example:"Bad Request"`
	Data    []ValidationError `json:"data,omitempty"`
}

// APIResponse500Err represents 500 error response.
type APIResponse500Err struct {
	Status  int    `json:"status" example:"500"`
	Message string `json:"message" example:"Internal Server Error"`
	Data    string `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"horizon"`
	Message string                 `json:"message,omitempty" example:"Horizon is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse represents list response with a total count.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
