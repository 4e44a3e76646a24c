package handler

// envelope is the uniform success response shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(data any) envelope {
	return envelope{Success: true, Data: data}
}

func okMessage(data any, message string) envelope {
	return envelope{Success: true, Data: data, Message: message}
}
