package puzzled

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/puzzled/hwmon"
	"github.com/mdouchement/puzzled/thermal"
	"github.com/mdouchement/puzzled/wt61p803"
)

// A Server exposes the hwmon attributes and cooling devices of one Puzzle
// over a unix socket, plus an SSE monitor stream of periodic snapshots.
type Server struct {
	puzzle   *Puzzle
	events   chan event
	listener net.Listener
	ticker   *time.Ticker
}

func NewServer(cfg Config, p *Puzzle) (*Server, error) {
	s := &Server{
		puzzle: p,
		events: make(chan event, 10),
		ticker: time.NewTicker(cfg.MonitorInterval.Duration),
	}

	err := os.MkdirAll(filepath.Dir(cfg.Socket), 0o755)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if _, err := os.Stat(cfg.Socket); err == nil {
		fmt.Printf("Removing existing %s\n", cfg.Socket)
		os.Remove(cfg.Socket)
	}
	s.listener, err = net.Listen("unix", cfg.Socket)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	return s, nil
}

func (s *Server) Launch(ctx context.Context) {
	log := logger.LogWith(ctx)

	go s.eventLoop(ctx)

	go func() {
		for {
			log.Info("Starting HTTP server on ", s.listener.Addr().String())
			err := http.Serve(s.listener, s.Handler(log))
			if err != nil {
				log.WithError(err).Error("Could not serve HTTP")
			}
			time.Sleep(2 * time.Second)
		}
	}()

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.events <- event{name: eventSnapshot, snapshot: newSnapshot(s.puzzle)}
			case <-ctx.Done():
				s.ticker.Stop()
				if err := s.listener.Close(); err != nil {
					log.WithError(err).Error("Could not close socket listener")
				}
				if err := os.Remove(s.listener.Addr().String()); err != nil && err != os.ErrNotExist {
					// listener.Close() should close the socket but ceinture et bretelles!
					log.WithError(err).Errorf("Could not remove socket %s", s.listener.Addr().String())
				}

				close(s.events)
				return
			}
		}
	}()
}

// Handler builds the HTTP surface. It is split from Launch so tests can
// drive it without a socket.
func (s *Server) Handler(log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /hwmon", s.hwmonIndex)
	mux.HandleFunc("GET /hwmon/{attr}", s.hwmonRead)
	mux.HandleFunc("PUT /hwmon/{attr}", s.hwmonWrite)
	mux.HandleFunc("GET /thermal", s.thermalIndex)
	mux.HandleFunc("GET /thermal/{name}/{file}", s.thermalRead)
	mux.HandleFunc("PUT /thermal/{name}/cur_state", s.thermalWrite)
	mux.HandleFunc("GET /monitor", s.monitor(log))
	return mux
}

func (s *Server) hwmonIndex(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		Name string `json:"name"`
		Mode string `json:"mode"`
	}

	attrs := s.puzzle.chip.Attributes()
	entries := make([]entry, 0, len(attrs))
	for _, ai := range attrs {
		entries = append(entries, entry{Name: ai.Name, Mode: fmt.Sprintf("%#o", uint32(ai.Mode))})
	}

	writeJSON(w, entries)
}

func (s *Server) hwmonRead(w http.ResponseWriter, r *http.Request) {
	v, err := s.puzzle.chip.ReadAttr(r.PathValue("attr"))
	if err != nil {
		httpError(w, err)
		return
	}

	fmt.Fprintf(w, "%d\n", v)
}

func (s *Server) hwmonWrite(w http.ResponseWriter, r *http.Request) {
	v, ok := readValue(w, r)
	if !ok {
		return
	}

	if err := s.puzzle.chip.WriteAttr(r.PathValue("attr"), v); err != nil {
		httpError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) thermalIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.puzzle.thermal.Names())
}

func (s *Server) thermalRead(w http.ResponseWriter, r *http.Request) {
	cdev, err := s.puzzle.thermal.Get(r.PathValue("name"))
	if err != nil {
		httpError(w, err)
		return
	}

	switch r.PathValue("file") {
	case "max_state":
		v, err := cdev.MaxState()
		if err != nil {
			httpError(w, err)
			return
		}
		fmt.Fprintf(w, "%d\n", v)
	case "cur_state":
		v, err := cdev.CurState()
		if err != nil {
			httpError(w, err)
			return
		}
		fmt.Fprintf(w, "%d\n", v)
	case "cooling_levels":
		fcd, ok := cdev.(interface{ Levels() []byte })
		if !ok {
			http.Error(w, "no cooling levels", http.StatusNotFound)
			return
		}

		levels := make([]string, 0, len(fcd.Levels()))
		for _, level := range fcd.Levels() {
			levels = append(levels, strconv.Itoa(int(level)))
		}
		fmt.Fprintln(w, strings.Join(levels, " "))
	default:
		http.Error(w, "unknown file", http.StatusNotFound)
	}
}

func (s *Server) thermalWrite(w http.ResponseWriter, r *http.Request) {
	cdev, err := s.puzzle.thermal.Get(r.PathValue("name"))
	if err != nil {
		httpError(w, err)
		return
	}

	v, ok := readValue(w, r)
	if !ok {
		return
	}

	if err := cdev.SetCurState(int(v)); err != nil {
		httpError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) eventLoop(ctx context.Context) {
	log := logger.LogWith(ctx)
	watchers := map[int64]chan<- []byte{}
	var latest []byte

	for e := range s.events {
		switch e.name {
		case eventSnapshot:
			payload, err := json.Marshal(e.snapshot)
			if err != nil {
				log.WithError(err).Error("Could not serialize snapshot") // Should never happen
				continue
			}

			latest = payload
			s.events <- event{name: eventRefreshWatchers}
		case eventRefreshWatchers:
			if latest == nil {
				continue
			}

			for _, watcher := range watchers {
				watcher <- latest
			}
		case eventWatch:
			watchers[e.monitorID] = e.monitor
			s.events <- event{name: eventRefreshWatchers}
		case eventUnwatch:
			close(watchers[e.monitorID])
			delete(watchers, e.monitorID)
		}
	}
}

func (s *Server) monitor(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Client connected")

		// Set http headers required for SSE.
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		disconnected := r.Context().Done()

		id := genID()
		ch := make(chan []byte, 20)
		s.events <- event{name: eventWatch, monitorID: id, monitor: ch}

		rc := http.NewResponseController(w)
		for {
			select {
			case <-disconnected:
				log.Info("Client disconnected")
				s.events <- event{name: eventUnwatch, monitorID: id}
				return
			case payload := <-ch:
				_, err := w.Write(append(payload, '\n', '\n'))
				if err != nil {
					log.WithError(err).Error("Could not write monitor SSE payload")
					return
				}

				err = rc.Flush()
				if err != nil {
					log.WithError(err).Error("Could not flush monitor SSE payload")
					return
				}
			}
		}
	}
}

func readValue(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 32))
	if err != nil {
		http.Error(w, "invalid value", http.StatusBadRequest)
		return 0, false
	}

	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		http.Error(w, "invalid value", http.StatusBadRequest)
		return 0, false
	}

	return v, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hwmon.ErrUnknownAttribute), errors.Is(err, thermal.ErrUnknownDevice):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, hwmon.ErrReadOnly):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, wt61p803.ErrInvalidPWM), errors.Is(err, wt61p803.ErrInvalidChannel),
		errors.Is(err, hwmon.ErrInvalidSensor):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}
