// Package rl serves an environment to an external agent over TCP. Each
// connection owns one environment; requests and responses are single
// JSON objects, one per line.
package rl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/san-kum/tempctrl/internal/gym"
)

const (
	OpReset  = "reset"
	OpStep   = "step"
	OpSeed   = "seed"
	OpSpaces = "spaces"
)

// Request is one agent command, e.g. {"op":"step","action":17}.
type Request struct {
	Op     string  `json:"op"`
	Action float64 `json:"action,omitempty"`
	Seed   int64   `json:"seed,omitempty"`
}

type Response struct {
	Observation []float64 `json:"observation,omitempty"`
	Reward      float64   `json:"reward"`
	Done        bool      `json:"done"`
	Info        gym.Info  `json:"info,omitempty"`
	Seeds       []int64   `json:"seeds,omitempty"`
	ActionSpace string    `json:"action_space,omitempty"`
	ObsSpace    string    `json:"observation_space,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Factory builds the environment for a new connection.
type Factory func() (gym.Env, error)

type Server struct {
	factory Factory
	log     *slog.Logger

	wg sync.WaitGroup
}

func NewServer(factory Factory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{factory: factory, log: logger}
}

// ListenAndServe listens on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then closes ln
// and waits for open connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("listening", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return err
			}
			s.log.Warn("accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.HandleConn(ctx, conn)
		}()
	}
}

// HandleConn serves one agent until it disconnects or ctx is canceled.
func (s *Server) HandleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	remote := conn.RemoteAddr().String()
	log := s.log.With("remote", remote)
	log.Info("client connected")

	env, err := s.factory()
	if err != nil {
		log.Warn("environment setup failed", "err", err)
		_ = json.NewEncoder(conn).Encode(Response{Error: err.Error()})
		return
	}

	writer := bufio.NewWriter(conn)
	encoder := json.NewEncoder(writer)
	scanner := bufio.NewScanner(conn)

	steps := 0
	for scanner.Scan() {
		var req Request
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			log.Warn("bad request", "err", err)
			resp.Error = fmt.Sprintf("bad request: %v", err)
		} else {
			resp = s.handle(ctx, env, req)
			if req.Op == OpStep && resp.Error == "" {
				steps++
			}
		}

		if err := encoder.Encode(&resp); err != nil {
			log.Warn("encode failed", "err", err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Warn("flush failed", "err", err)
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Warn("read failed", "err", err)
	}
	log.Info("client disconnected", "steps", steps)
}

func (s *Server) handle(ctx context.Context, env gym.Env, req Request) Response {
	switch req.Op {
	case OpReset:
		obs, err := env.Reset(ctx)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{Observation: obs}
	case OpStep:
		tr, err := env.Step(ctx, req.Action)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{Observation: tr.Observation, Reward: tr.Reward, Done: tr.Done, Info: tr.Info}
	case OpSeed:
		return Response{Seeds: env.Seed(req.Seed)}
	case OpSpaces:
		return Response{
			ActionSpace: fmt.Sprint(env.ActionSpace()),
			ObsSpace:    fmt.Sprint(env.ObservationSpace()),
		}
	default:
		return Response{Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}
