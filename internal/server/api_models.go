package server

// DispatchRequest is the payload of POST /dispatch/{method}.
type DispatchRequest struct {
	URL     string `json:"url" example:"http://localhost:8080/echo"`
	Data    string `json:"data" example:"{\"name\": \"formfetch\"}"`
	Variant string `json:"variant" example:"json"`
}

// DispatchResponse reports one finished dispatch. Text is what the response
// field received: the rendered body, or "Error: ..." when Error is set.
type DispatchResponse struct {
	TaskID     string `json:"task_id" example:"5b0e8c1e-7d3a-4c1e-9a57-0c4b8b1f2d9a"`
	Method     string `json:"method" example:"POST"`
	Target     string `json:"target" example:"postResponse"`
	Text       string `json:"text" example:"{\n \"ok\": true\n}"`
	StatusCode int    `json:"status_code" example:"200"`
	Error      string `json:"error,omitempty" example:""`
	Written    bool   `json:"written" example:"true"`
	Stale      bool   `json:"stale" example:"false"`
}

// WSDispatchMessage is sent by websocket clients to start a dispatch.
type WSDispatchMessage struct {
	URL  string `json:"url"`
	Data string `json:"data"`
}

// WSEvent is pushed to websocket clients. Type is "started", "result" or
// "error".
type WSEvent struct {
	Type   string            `json:"type"`
	TaskID string            `json:"task_id,omitempty"`
	Result *DispatchResponse `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
