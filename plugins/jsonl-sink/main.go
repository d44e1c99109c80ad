// Command jsonl-sink is the reference session sink: it appends every
// delivered session to a JSON Lines file.
//
// The file is $PAGETRACK_JSONL_PATH, or sessions.jsonl next to the binary.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-plugin"

	sinkrpc "pagetrack/internal/modules/sink/adapter/out/rpc"
)

const (
	name    = "jsonl"
	version = "1.0.0"
)

type server struct {
	mu   sync.Mutex
	path string
}

func (s *server) GetMetadata(_ context.Context, _ *sinkrpc.Empty) (*sinkrpc.Metadata, error) {
	return &sinkrpc.Metadata{Name: name, Version: version}, nil
}

func (s *server) Deliver(_ context.Context, in *sinkrpc.DeliverRequest) (*sinkrpc.DeliverResponse, error) {
	if in.Session.ID == "" {
		return &sinkrpc.DeliverResponse{Accepted: false, Message: "session id is required"}, nil
	}
	line, err := json.Marshal(in.Session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("append session: %w", err)
	}
	return &sinkrpc.DeliverResponse{Accepted: true}, nil
}

func outputPath() string {
	if p := os.Getenv("PAGETRACK_JSONL_PATH"); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return "sessions.jsonl"
	}
	return filepath.Join(filepath.Dir(exe), "sessions.jsonl")
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: sinkrpc.HandshakeConfig,
		Plugins:         sinkrpc.PluginMap(&server{path: outputPath()}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
