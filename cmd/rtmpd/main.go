package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"

	rtmp "github.com/riverstage/rtmp-go"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML server config; defaults are used when omitted")
	logLevel := flag.Int("log-level", rtmp.LogWarn|rtmp.LogError, "bitmask of rtmp.LogDebug|LogInfo|LogWarn|LogError")
	flag.Parse()

	rtmp.LogLevel(*logLevel)

	cfg := &rtmp.ServerConfig{}
	if *configPath != "" {
		loaded, err := rtmp.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	} else {
		pingInterval := 5000
		cfg.ListenAddr = ":1935"
		cfg.Connection.PingIntervalMs = &pingInterval
	}

	listener, err := rtmp.Listen(cfg.ListenAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", cfg.ListenAddr, err)
	}

	srv := rtmp.NewServer(listener, &rtmp.DefaultHandler{Resolver: &memoryScopes{apps: make(map[string]*memoryScope)}}, cfg.Connection)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("rtmp server listening on %s", cfg.ListenAddr)
	if err := srv.Serve(ctx); err != nil {
		log.Printf("server stopped: %v", err)
	}
	_ = srv.Close()
}

// memoryScopes resolves every distinct app name to its own in-process
// scope, created on first use. It exists to make cmd/rtmpd runnable
// end-to-end without pulling in an actual media relay, which is out of
// scope for this module.
type memoryScopes struct {
	mu   sync.Mutex
	apps map[string]*memoryScope
}

func (r *memoryScopes) Resolve(host, path string) (rtmp.Scope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.apps[host]; ok {
		return s, nil
	}
	s := &memoryScope{name: host}
	r.apps[host] = s
	return s, nil
}

type memoryScope struct {
	name string
}

func (s *memoryScope) Name() string { return s.name }

func (s *memoryScope) GetBean(name string) (rtmp.ClientStream, error) {
	return &memoryStream{}, nil
}

func (s *memoryScope) GetStreamService() (rtmp.StreamService, error) {
	return &memoryStreamService{}, nil
}

type memoryStreamService struct{}

func (memoryStreamService) DeleteStream(conn *rtmp.Connection, streamID int) {}

// memoryStream is the minimal rtmp.ClientStream a demo publish/play flow
// needs; it does not relay any media.
type memoryStream struct {
	id     int
	name   string
	conn   *rtmp.Connection
	scope  rtmp.Scope
	buffer int
}

func (s *memoryStream) StreamID() int                       { return s.id }
func (s *memoryStream) SetStreamID(id int)                  { s.id = id }
func (s *memoryStream) SetConnection(conn *rtmp.Connection) { s.conn = conn }
func (s *memoryStream) SetScope(scope rtmp.Scope)           { s.scope = scope }
func (s *memoryStream) SetName(name string)                 { s.name = name }
func (s *memoryStream) SetClientBufferDuration(ms int)      { s.buffer = ms }
