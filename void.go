package flowcore

// Void is used in place of an input or output type for handlers that
// take no meaningful payload. It marshals to the empty JSON object {}.
type Void struct{}
