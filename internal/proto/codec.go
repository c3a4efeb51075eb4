// Package proto defines the agent wire protocol: request/response messages,
// the gRPC service description and a CBOR codec for them.
//
// Messages are plain Go structs with cbor tags. They travel over gRPC with
// content-subtype "cbor" (application/grpc+cbor); the codec is registered
// with grpc on import.
package proto

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the codec.
const CodecName = "cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Core Deterministic Encoding: identical messages produce identical bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("proto: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("proto: CBOR decoder initialization failed: " + err.Error())
	}

	encoding.RegisterCodec(Codec{})
}

// Codec implements encoding.Codec with CBOR.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal %T: %w", v, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor unmarshal %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string { return CodecName }
