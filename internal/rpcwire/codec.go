// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpcwire

import "fmt"

// wireMessage is implemented by Command, PartialResponse, and Ack. It
// intentionally does not match google.golang.org/protobuf/proto.Message:
// these types are not generated from a .proto file, so the usual
// proto.Marshal path is unavailable to them.
type wireMessage interface {
	Marshal() []byte
	Unmarshal([]byte) error
}

// Codec implements encoding.Codec (via grpc.ForceCodec/ForceServerCodec)
// for the envelope types in this package, letting the DataSetService ride
// on gRPC's transport and flow control without a protoc-generated codec.
type Codec struct{}

// Name identifies the codec for gRPC's content-subtype negotiation.
func (Codec) Name() string { return "dataset-envelope" }

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("rpcwire: Codec cannot marshal %T", v)
	}
	return m.Marshal(), nil
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("rpcwire: Codec cannot unmarshal into %T", v)
	}
	return m.Unmarshal(data)
}
