// cmd/mcp-server/main.go: standalone HTTP MCP server for gosymdiff
//
// Exposes the gosymdiff tools as an HTTP endpoint for agent frameworks.
// Configuration comes from the GOSYMDIFF_* environment variables.
//
// Usage:
//
//	go run ./cmd/mcp-server -port 8080
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/njchilds90/gosymdiff"
	"github.com/njchilds90/gosymdiff/internal/config"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func newMux(cfg gosymdiff.Config) *http.ServeMux {
	logger := cfg.Logger
	mux := http.NewServeMux()

	// POST /tool: handle a tool call
	mux.HandleFunc("/tool", func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic in /tool", slog.Any("panic", rec), slog.String("stack", string(debug.Stack())))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req gosymdiff.ToolRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Ensure there's no trailing junk.
		if dec.More() {
			writeError(w, http.StatusBadRequest, "invalid JSON: trailing data")
			return
		}

		start := time.Now()
		resp := gosymdiff.HandleToolCallWith(cfg, req)
		logger.Info("tool call",
			slog.String("tool", req.Tool),
			slog.Duration("elapsed", time.Since(start)),
			slog.Bool("ok", resp.Error == ""),
		)
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(resp); err != nil {
			logger.Error("encode response", slog.String("tool", req.Tool), slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "cannot encode result: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buf.Bytes())
	})

	// GET /schema: return tool schema for agent registration
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, gosymdiff.MCPToolSpec())
	})

	// GET /health: liveness check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	return mux
}

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	flag.Parse()

	cfg := config.FromEnv()
	logger := cfg.Logger

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("gosymdiff MCP server listening",
		slog.String("addr", addr),
		slog.Int("node_limit", cfg.NodeLimit),
		slog.Int("max_depth", cfg.MaxDepth),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
