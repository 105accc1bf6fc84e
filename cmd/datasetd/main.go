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

// datasetd launches the dataset RPC daemon: a gRPC listener serving the
// server-to-server wire protocol (spec.md section 6) and a WebSocket
// listener serving the client-facing /rpc endpoint (spec.md section
// 4.6), both fronting the same in-process object table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"hillview.dev/dataset/internal/obslog"
	"hillview.dev/dataset/internal/registry"
	"hillview.dev/dataset/internal/rpcwire"
	"hillview.dev/dataset/rpcserver"
	"hillview.dev/dataset/webrpc"

	_ "hillview.dev/dataset/sketchkit"
)

// Config handles configuring the daemon.
type Config struct {
	GRPCAddr string
	HTTPAddr string
}

func initFlags() *Config {
	var cfg Config
	flag.StringVar(&cfg.GRPCAddr, "grpc-addr", ":9091", "address the server-to-server gRPC listener binds")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", ":9092", "address the client-facing /rpc WebSocket listener binds")
	return &cfg
}

func main() {
	cfg := initFlags()
	flag.Parse()

	logger := slog.New(obslog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	objects := registry.NewObjectManager()
	rpc := rpcserver.New(objects, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen failed", "error", err)
		os.Exit(1)
	}
	gs := grpc.NewServer(grpc.ForceServerCodec(rpcwire.Codec{}))
	rpcwire.RegisterServer(gs, rpc)
	go func() {
		logger.Info("grpc listener started", "addr", cfg.GRPCAddr)
		if err := gs.Serve(lis); err != nil {
			logger.Error("grpc serve failed", "error", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: webrpc.New(rpc, logger),
	}
	go func() {
		logger.Info("websocket listener started", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http serve failed", "error", err)
		}
	}()

	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "shutting down")
	gs.GracefulStop()
	_ = httpSrv.Shutdown(context.Background())
}
