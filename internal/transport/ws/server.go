package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kballard/go-shellquote"
	"github.com/untillpro/goutils/logger"

	"github.com/Akashdeep-Patra/gitsync/internal/git"
)

// Server runs the git commands received over websocket connections.
type Server struct {
	runner   git.Runner
	upgrader websocket.Upgrader
}

// NewServer returns a handler that executes requests through runner.
func NewServer(runner git.Runner) *Server {
	return &Server{
		runner: runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws: upgrade:", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("ws: read:", err)
			}
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.handle(ctx, req)
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(resp); err != nil {
				logger.Verbose("ws: write:", err)
			}
		}()
	}
	cancel()
	wg.Wait()
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	resp := Response{RequestID: req.RequestID}
	if req.Action != ActionExec {
		resp.Stderr = "unsupported action: " + req.Action
		return resp
	}
	argv, err := shellquote.Split(req.Command)
	if err != nil {
		resp.Stderr = "malformed command: " + err.Error()
		return resp
	}
	if len(argv) == 0 || argv[0] != "git" {
		resp.Stderr = "only git commands are accepted"
		return resp
	}

	out, err := s.runner.Execute(ctx, req.ID, req.Path, argv[1:])
	if err != nil {
		resp.Stderr = err.Error()
		var ce *git.CommandError
		if errors.As(err, &ce) && ce.Stderr == "" {
			resp.Stderr = "git " + shellquote.Join(argv[1:]...) + ": " + err.Error()
		}
		return resp
	}
	resp.Stdout = out
	return resp
}
