package grpc

import (
	"encoding/json"
)

// Codec carries messages as JSON. Ticks already have a stable JSON envelope, so the service
// needs no generated protobuf types.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return "json"
}
