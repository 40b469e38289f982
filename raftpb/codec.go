package raftpb

import "google.golang.org/grpc/encoding"

// CodecName is registered with grpc's encoding package and selected per
// call via grpc.CallContentSubtype(CodecName).
const CodecName = "raftwire"

// wireCodec adapts this package's hand-written protobuf-wire-format
// messages to grpc-go's encoding.Codec interface. Registered once via
// encoding.RegisterCodec in this package's init.
type wireCodec struct{}

func (wireCodec) Name() string { return CodecName }

func (wireCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, errUnsupportedMessage(v)
	}
	return m.Marshal()
}

func (wireCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(wireMessage)
	if !ok {
		return errUnsupportedMessage(v)
	}
	return m.Unmarshal(data)
}

func init() {
	encoding.RegisterCodec(wireCodec{})
}
