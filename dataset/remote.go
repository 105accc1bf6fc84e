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

package dataset

import (
	"context"
	"io"
	"time"

	"google.golang.org/grpc"

	"hillview.dev/dataset/coders"
	"hillview.dev/dataset/internal/dserrors"
	"hillview.dev/dataset/internal/dsopts"
	"hillview.dev/dataset/internal/opreg"
	"hillview.dev/dataset/internal/registry"
	"hillview.dev/dataset/internal/rpcwire"
	"hillview.dev/dataset/internal/transport"
	"hillview.dev/dataset/stream"
)

// unsubscribeTimeout bounds the best-effort CallUnsubscribe a disposed
// subscription issues once its own ctx has already been cancelled, so
// the cleanup call needs a context of its own rather than the one that
// just expired.
const unsubscribeTimeout = 5 * time.Second

// unsubscribeRemote tells the server to cancel the pending call for
// (highID, lowID), per spec.md section 4.4: "disposing the local
// subscription MUST invoke the unsubscribe RPC with the pending call
// id." Errors are ignored: this runs on the way out of an already
// failing or cancelled stream. If the unsubscribe never arrives, the
// server still cancels the call once its gRPC stream context ends.
func unsubscribeRemote(cc grpc.ClientConnInterface, highID, lowID int64) {
	uctx, cancel := context.WithTimeout(context.Background(), unsubscribeTimeout)
	defer cancel()
	_, _ = rpcwire.CallUnsubscribe(uctx, cc, &rpcwire.Command{HighID: highID, LowID: lowID})
}

// encodeOp packs an operation's opreg.Wrap into the opaque SerializedOp
// bytes a Command carries. encodeHandleResult/decodeHandleResult do the
// same for the (highId, lowId) pair a map/flatMap/zip response encodes in
// its payload (spec.md section 4.4: "the returned handle ... is a fresh
// RemoteDataSet whose object-id is encoded in the payload").
func encodeOp(w opreg.Wrap) []byte {
	enc := coders.NewEncoder()
	enc.String(w.TypeName)
	enc.Bytes(w.Config)
	return enc.Data()
}

func encodeHandleResult(delta float64, id registry.ID) []byte {
	enc := coders.NewEncoder()
	enc.Float64(delta)
	enc.Int64(id.High)
	enc.Int64(id.Low)
	return enc.Data()
}

func decodeHandleResult(b []byte) (delta float64, id registry.ID) {
	dec := coders.NewDecoder(b)
	delta = dec.Float64()
	id.High = dec.Int64()
	id.Low = dec.Int64()
	return delta, id
}

func decodeSketchResult[R any](b []byte) (delta float64, r R) {
	dec := coders.NewDecoder(b)
	delta = dec.Float64()
	r = coders.MakeCoder[R]().Decode(dec)
	return delta, r
}

// remoteCaller is the shape shared by rpcwire.CallMap/CallFlatMap/CallZip.
type remoteCaller func(ctx context.Context, cc grpc.ClientConnInterface, in *rpcwire.Command) (*rpcwire.StreamClient, error)

// remoteHandleStream runs a streaming RPC whose responses each encode a
// fresh (delta, objectID) pair, yielding a Remote dataset proxy per item.
func remoteHandleStream[S any](server string, highID, lowID int64, idsIndex int32, opWrap opreg.Wrap, call remoteCaller, opts *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	return func(ctx context.Context, emit func(PartialResult[DataSet[S]]) error) error {
		if opts.RPCDeadlineSet {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.RPCDeadline)
			defer cancel()
		}
		cc, err := transport.Dial(server)
		if err != nil {
			return dserrors.TransportError(err)
		}
		cmd := &rpcwire.Command{IdsIndex: idsIndex, HighID: highID, LowID: lowID, SerializedOp: encodeOp(opWrap)}
		sc, err := call(ctx, cc, cmd)
		if err != nil {
			return dserrors.TransportError(err)
		}
		for {
			resp, err := sc.Recv()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				unsubscribeRemote(cc, highID, lowID)
				return dserrors.TransportError(err)
			}
			delta, id := decodeHandleResult(resp.SerializedOp)
			if err := emit(Result(delta, Remote[S](server, id))); err != nil {
				unsubscribeRemote(cc, highID, lowID)
				return err
			}
		}
	}
}

// remoteSketchStream runs the Sketch RPC, whose responses each encode a
// (delta, R payload) pair decoded with R's reflective coder.
func remoteSketchStream[R any](server string, highID, lowID int64, opWrap opreg.Wrap, opts *dsopts.Struct) stream.Source[PartialResult[R]] {
	return func(ctx context.Context, emit func(PartialResult[R]) error) error {
		if opts.RPCDeadlineSet {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.RPCDeadline)
			defer cancel()
		}
		cc, err := transport.Dial(server)
		if err != nil {
			return dserrors.TransportError(err)
		}
		cmd := &rpcwire.Command{HighID: highID, LowID: lowID, SerializedOp: encodeOp(opWrap)}
		sc, err := rpcwire.CallSketch(ctx, cc, cmd)
		if err != nil {
			return dserrors.TransportError(err)
		}
		for {
			resp, err := sc.Recv()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				unsubscribeRemote(cc, highID, lowID)
				return dserrors.TransportError(err)
			}
			delta, r := decodeSketchResult[R](resp.SerializedOp)
			if err := emit(Result(delta, r)); err != nil {
				unsubscribeRemote(cc, highID, lowID)
				return err
			}
		}
	}
}

func mapRemote[T, S any](d DataSet[T], m Map_[T, S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	server, id := d.Remote()
	w, err := opreg.Marshal(m)
	if err != nil {
		return errSource[PartialResult[DataSet[S]]](err)
	}
	return remoteHandleStream[S](server, id.High, id.Low, 0, w, rpcwire.CallMap, opts)
}

func flatMapRemote[T, S any](d DataSet[T], m FlatMap_[T, S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	server, id := d.Remote()
	w, err := opreg.Marshal(m)
	if err != nil {
		return errSource[PartialResult[DataSet[S]]](err)
	}
	return remoteHandleStream[S](server, id.High, id.Low, 0, w, rpcwire.CallFlatMap, opts)
}

func zipRemote[T, S any](d DataSet[T], other DataSet[S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[Pair[T, S]]]] {
	server, id := d.Remote()
	if other.Kind() != KindRemote {
		return errSource[PartialResult[DataSet[Pair[T, S]]]](
			dserrors.TypeMismatch("zip: Remote dataset requires a Remote peer, got %s", other.Kind()))
	}
	oServer, oID := other.Remote()
	if oServer != server {
		return errSource[PartialResult[DataSet[Pair[T, S]]]](
			dserrors.TypeMismatch("zip: Remote peers on different servers (%s vs %s) are not supported", server, oServer))
	}
	peer := encodeHandleResult(0, oID)
	w := opreg.Wrap{TypeName: "zip-peer", Config: peer}
	return remoteHandleStream[Pair[T, S]](server, id.High, id.Low, 1, w, rpcwire.CallZip, opts)
}

func sketchRemote[T, R any](d DataSet[T], sk Sketch_[T, R], opts *dsopts.Struct) stream.Source[PartialResult[R]] {
	server, id := d.Remote()
	w, err := opreg.Marshal(sk)
	if err != nil {
		return errSource[PartialResult[R]](err)
	}
	return remoteSketchStream[R](server, id.High, id.Low, w, opts)
}

// Release prunes d's server-side handle, decrementing its reference
// count (spec.md section 4.4: "when a remote dataset handle becomes
// unreachable, prune is called"). It is a no-op for Local and Parallel
// datasets, which have nothing server-side to release. Go has no
// finalizer-driven GC hook comparable to Hillview's object lifecycle, so
// callers must invoke Release explicitly once a RemoteDataSet handle is
// no longer needed, the same way an io.Closer must be closed explicitly.
func Release[T any](ctx context.Context, d DataSet[T]) error {
	if d.Kind() != KindRemote {
		return nil
	}
	server, id := d.Remote()
	cc, err := transport.Dial(server)
	if err != nil {
		return dserrors.TransportError(err)
	}
	cmd := &rpcwire.Command{HighID: id.High, LowID: id.Low}
	sc, err := rpcwire.CallPrune(ctx, cc, cmd)
	if err != nil {
		return dserrors.TransportError(err)
	}
	for {
		if _, err := sc.Recv(); err != nil {
			if err == io.EOF {
				return nil
			}
			return dserrors.TransportError(err)
		}
	}
}
