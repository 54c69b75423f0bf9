package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/vboard/internal/board"
	"github.com/tinytelemetry/vboard/internal/bridge"
)

// DefaultAddr keeps the control API on loopback unless configured otherwise.
const DefaultAddr = "127.0.0.1:8084"

// Controller is the narrow bridge contract required by the HTTP API.
type Controller interface {
	Snapshot() bridge.Snapshot
	Connect(ctx context.Context) bool
	Disconnect() error
	ToggleSwitch(id string) error
	PressButton(id string) error
	ReleaseButton(id string) error
	LoadFile(path string) error
}

// Server provides a local HTTP API for scripting the virtual board.
type Server struct {
	addr      string
	ctrl      Controller
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, ctrl Controller) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		ctrl:   ctrl,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Handler builds the API router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/board", s.handleBoard)
	api.POST("/board/load", s.handleLoad)
	api.POST("/connect", s.handleConnect)
	api.POST("/disconnect", s.handleDisconnect)
	api.POST("/switches/:id/toggle", s.handleInput(s.ctrl.ToggleSwitch))
	api.POST("/buttons/:id/press", s.handleInput(s.ctrl.PressButton))
	api.POST("/buttons/:id/release", s.handleInput(s.ctrl.ReleaseButton))
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type pinView struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Status bool   `json:"status"`
}

type digitView struct {
	Index    int             `json:"index"`
	Segments map[string]bool `json:"segments"`
}

type boardView struct {
	Name      string         `json:"name"`
	Path      string         `json:"path,omitempty"`
	State     string         `json:"state"`
	LEDs      []pinView      `json:"leds"`
	Switches  []pinView      `json:"switches"`
	Buttons   []pinView      `json:"buttons"`
	OtherPins []pinView      `json:"other_pins"`
	Digits    []digitView    `json:"digits"`
	Activity  map[string]int `json:"activity"`
}

func pinViews(pins []board.Pin) []pinView {
	out := make([]pinView, 0, len(pins))
	for _, p := range pins {
		out = append(out, pinView{Name: p.Name, ID: p.ID, Status: p.Status})
	}
	return out
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.ctrl.Snapshot()
	loaded := snap.Board != nil

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"uptime":       time.Since(s.startTime).String(),
		"connection":   snap.State.String(),
		"board_loaded": loaded,
	})
}

func (s *Server) handleBoard(c *gin.Context) {
	snap := s.ctrl.Snapshot()
	if snap.Board == nil {
		c.JSON(http.StatusConflict, gin.H{"error": bridge.ErrNoBoard.Error()})
		return
	}

	view := boardView{
		Name:      snap.Board.Name,
		Path:      snap.Path,
		State:     snap.State.String(),
		LEDs:      pinViews(snap.Board.LEDs),
		Switches:  pinViews(snap.Board.Switches),
		Buttons:   pinViews(snap.Board.Buttons),
		OtherPins: pinViews(snap.Board.OtherPins),
		Digits:    make([]digitView, 0, len(snap.Segments)),
		Activity:  snap.Activity,
	}
	for i, segs := range snap.Segments {
		d := digitView{Index: i, Segments: make(map[string]bool, len(segs))}
		for j, on := range segs {
			d.Segments[string(board.SegmentNames[j])] = on
		}
		view.Digits = append(view.Digits, d)
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleLoad(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing path field"})
		return
	}
	path := board.FirstPath(req.Path)
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is empty"})
		return
	}

	if err := s.ctrl.LoadFile(path); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	snap := s.ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"name": snap.Board.Name,
		"path": snap.Path,
		"pins": snap.Board.PinCount(),
	})
}

func (s *Server) handleConnect(c *gin.Context) {
	started := s.ctrl.Connect(s.ctx)
	c.JSON(http.StatusAccepted, gin.H{
		"started": started,
		"state":   s.ctrl.Snapshot().State.String(),
	})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	if err := s.ctrl.Disconnect(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.ctrl.Snapshot().State.String()})
}

// handleInput adapts a pin operation into a handler reporting the new status.
func (s *Server) handleInput(op func(id string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		if err := op(id); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		snap := s.ctrl.Snapshot()
		p, err := snap.Board.PinValue(id)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, pinView{Name: p.Name, ID: p.ID, Status: p.Status})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, bridge.ErrNoBoard):
		return http.StatusConflict
	case board.IsPinNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
