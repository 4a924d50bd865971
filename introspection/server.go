package introspection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/tue-robotics/executive-smach/common"
	"github.com/tue-robotics/executive-smach/msgs"
	"github.com/tue-robotics/executive-smach/smach"
)

// DefaultHeartbeat is the period at which a server republishes structure
// and status so late joiners on transports without retention catch up.
const DefaultHeartbeat = 2 * time.Second

const (
	infoStartup      = "startup"
	infoTransition   = "transition"
	infoHeartbeat    = "heartbeat"
	infoInitialState = "initial state set"
)

type ServerOption func(*Server)

func WithHeartbeat(d time.Duration) ServerOption {
	return func(s *Server) { s.heartbeat = d }
}

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// Server announces one container tree over a transport. It publishes the
// structure of every nested container once at start (retained where the
// transport supports it), a status snapshot on every transition and on a
// heartbeat tick, and applies initial status commands addressed to one of
// its container paths.
//
// All containers of a tree share one structure topic, so a retaining
// broker keeps only the last container's structure. The heartbeat
// republishes every container's structure, which is what late joiners
// rely on for nested trees.
type Server struct {
	name      string
	transport Transport
	logger    zerolog.Logger
	heartbeat time.Duration

	proxies []*containerProxy
	byPath  map[string]*containerProxy

	ticker common.Ticker
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server named name reporting for the container tree
// rooted at root. path is the root container path, e.g. "/root".
func NewServer(name string, root smach.Container, path string, transport Transport, opts ...ServerOption) *Server {
	s := &Server{
		name:      name,
		transport: transport,
		logger:    zerolog.Nop(),
		heartbeat: DefaultHeartbeat,
		proxies:   buildProxies(path, root),
		byPath:    make(map[string]*containerProxy),
	}
	for _, p := range s.proxies {
		s.byPath[p.path] = p
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start seals the container structures, publishes them together with an
// initial status snapshot, subscribes to the init topic and begins the
// heartbeat. It returns once the initial announcements are out.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	initChannel, err := s.transport.Subscribe(s.ctx, msgs.Topic(s.name, msgs.InitTopic))
	if err != nil {
		s.cancel()
		return err
	}
	go s.watchInitCommands(initChannel)

	for _, proxy := range s.proxies {
		if sealer, ok := proxy.container.(interface{ Seal() }); ok {
			sealer.Seal()
		}

		p := proxy
		p.container.RegisterTransitionCallback(func(_ *smach.UserData, _ []string) {
			s.publishStatus(p, infoTransition)
		})

		s.publishStructure(p)
		s.publishStatus(p, infoStartup)
	}

	s.ticker.Start(s.heartbeat, s.heartbeatTick)

	s.logger.Info().Str("server", s.name).Int("containers", len(s.proxies)).Msg("introspection server started")
	return nil
}

// Stop ends the heartbeat and the init command subscription.
func (s *Server) Stop() {
	s.ticker.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) heartbeatTick() {
	for _, p := range s.proxies {
		s.publishStructure(p)
		s.publishStatus(p, infoHeartbeat)
	}
}

func (s *Server) watchInitCommands(ch <-chan Message) {
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}
			s.handleInitCommand(m)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleInitCommand(m Message) {
	var cmd msgs.SmachContainerInitialStatusCmd
	if err := json.Unmarshal(m.Payload, &cmd); err != nil {
		s.logger.Warn().Err(err).Str("topic", m.Topic).Msg("could not unmarshal initial status command")
		return
	}

	proxy, ok := s.byPath[cmd.Path]
	if !ok {
		s.logger.Debug().Str("path", cmd.Path).Msg("initial status command for unknown container path")
		return
	}

	localData, err := smach.DecodeUserData(cmd.LocalData)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", cmd.Path).Msg("could not decode local data of initial status command")
		return
	}

	if err := proxy.container.SetInitialState(cmd.InitialStates, localData.Snapshot()); err != nil {
		s.logger.Warn().Err(err).Str("path", cmd.Path).Msg("could not apply initial status command")
		return
	}

	initCommandsReceived.Inc()
	s.publishStatus(proxy, infoInitialState)
}

func (s *Server) publishStructure(p *containerProxy) {
	payload, err := json.Marshal(p.structure())
	if err != nil {
		s.logger.Error().Err(err).Str("path", p.path).Msg("could not marshal structure")
		return
	}

	if err := s.transport.Publish(s.ctx, msgs.Topic(s.name, msgs.StructureTopic), payload, true); err != nil {
		s.logger.Warn().Err(err).Str("path", p.path).Msg("could not publish structure")
		return
	}
	structuresPublished.Inc()
}

func (s *Server) publishStatus(p *containerProxy, info string) {
	status, err := p.status(info)
	if err != nil {
		s.logger.Error().Err(err).Str("path", p.path).Msg("could not build status")
		return
	}

	payload, err := json.Marshal(status)
	if err != nil {
		s.logger.Error().Err(err).Str("path", p.path).Msg("could not marshal status")
		return
	}

	if err := s.transport.Publish(s.ctx, msgs.Topic(s.name, msgs.StatusTopic), payload, false); err != nil {
		s.logger.Warn().Err(err).Str("path", p.path).Msg("could not publish status")
		return
	}
	statusesPublished.WithLabelValues(s.name).Inc()
}
