package vdmsconn

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The server frames every request and reply as a protobuf queryMessage:
//
//	message queryMessage {
//	  string json   = 1;
//	  repeated bytes blobs = 2;
//	}
//
// preceded by a 4-byte little-endian length. The message is small and fixed,
// so it is encoded directly with protowire instead of generated code.
const (
	fieldJSON  = 1
	fieldBlobs = 2
)

func encodeQueryMessage(jsonData []byte, blobs [][]byte) []byte {
	size := protowire.SizeTag(fieldJSON) + protowire.SizeBytes(len(jsonData))
	for _, b := range blobs {
		size += protowire.SizeTag(fieldBlobs) + protowire.SizeBytes(len(b))
	}
	buf := make([]byte, 0, size)
	buf = protowire.AppendTag(buf, fieldJSON, protowire.BytesType)
	buf = protowire.AppendBytes(buf, jsonData)
	for _, b := range blobs {
		buf = protowire.AppendTag(buf, fieldBlobs, protowire.BytesType)
		buf = protowire.AppendBytes(buf, b)
	}
	return buf
}

func decodeQueryMessage(data []byte) (jsonData []byte, blobs [][]byte, err error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, nil, fmt.Errorf("decode query message: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldJSON && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, nil, fmt.Errorf("decode json field: %w", protowire.ParseError(n))
			}
			jsonData = append([]byte(nil), v...)
			data = data[n:]
		case num == fieldBlobs && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, nil, fmt.Errorf("decode blob field: %w", protowire.ParseError(n))
			}
			blobs = append(blobs, append([]byte(nil), v...))
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, nil, fmt.Errorf("skip field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return jsonData, blobs, nil
}
