// Package session runs the single authoritative game session. One goroutine
// owns the engine state, the connection/role registry and the phase timers;
// everything reaches it through the inbox channel, so no two mutations ever
// race.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/binaryblitz/binaryblitz-backend/internal/engine"
	"github.com/binaryblitz/binaryblitz-backend/pkg/types"
)

type Msg interface{ isSessionMsg() }

// Connect registers a live connection and its outbox.
type Connect struct {
	ConnID string
	Outbox chan types.ServerMessage
}

func (Connect) isSessionMsg() {}

type Disconnect struct{ ConnID string }

func (Disconnect) isSessionMsg() {}

// FromClient carries one decoded wire frame from a connection.
type FromClient struct {
	ConnID string
	Msg    types.ClientMessage
}

func (FromClient) isSessionMsg() {}

// GetView reflects internal state without data races. Test-only.
type GetView struct{ Reply chan View }

func (GetView) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// timerFired resumes a scheduled phase advance. Gen must still match the
// session's current timer generation or the fire is stale and dropped.
type timerFired struct {
	gen uint64
	cmd engine.Command
}

func (timerFired) isSessionMsg() {}

type View struct {
	Status     engine.Status
	Round      int
	Players    []engine.Player
	NumClients int
	NumAdmins  int
}

// ScoreSaver persists final scores. Calls must be best-effort: the session
// fires them on their own goroutine and never waits.
type ScoreSaver interface {
	SaveScores(players []engine.Player)
}

type client struct {
	outbox chan types.ServerMessage
	admin  bool
}

type Params struct {
	Rules       engine.Rules
	AdminSecret string // empty means open admin mode
	Saver       ScoreSaver
	Logger      *zap.Logger
}

type Session struct {
	inbox    chan Msg
	state    engine.State
	clients  map[string]*client
	timerGen uint64
	secret   string
	saver    ScoreSaver
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, p Params) *Session {
	ctx, cancel := context.WithCancel(parent)

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		inbox:   make(chan Msg, 64),
		state:   engine.NewState(p.Rules),
		clients: make(map[string]*client),
		secret:  p.AdminSecret,
		saver:   p.Saver,
		log:     logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	go s.loop()
	return s
}

// Inbox exposes the message channel to the transport layer and tests.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done closes once the session has shut down. Transports select on it so
// their inbox sends cannot block after the loop stops draining.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Connect:
				s.clients[msg.ConnID] = &client{outbox: msg.Outbox}
				s.sendTo(msg.ConnID, types.ServerMessage{Type: types.EvtServerAwake})

			case Disconnect:
				delete(s.clients, msg.ConnID)
				s.apply(engine.Command{Type: engine.CmdLeave, ConnID: msg.ConnID})

			case FromClient:
				s.handleClient(msg.ConnID, msg.Msg)

			case timerFired:
				if msg.gen != s.timerGen {
					s.log.Debug("stale timer dropped",
						zap.Uint64("gen", msg.gen),
						zap.Uint64("current", s.timerGen))
					break
				}
				s.apply(msg.cmd)

			case GetView:
				msg.Reply <- View{
					Status:     s.state.Status,
					Round:      s.state.Round,
					Players:    engine.RosterSnapshot(s.state),
					NumClients: len(s.clients),
					NumAdmins:  s.countAdmins(),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleClient(connID string, m types.ClientMessage) {
	switch m.Type {
	case types.EvtJoinGame:
		s.apply(engine.Command{Type: engine.CmdJoin, ConnID: connID, Name: m.Name})

	case types.EvtAdminJoin:
		s.authorizeAdmin(connID, m.Secret)

	case types.EvtSubmitScore:
		// The payload carries a name for display symmetry; the roster entry
		// is owned by the connection, so only the score is trusted.
		s.apply(engine.Command{Type: engine.CmdSubmitScore, ConnID: connID, Score: m.Score})

	case types.EvtAdminStartGame:
		s.applyAdmin(connID, engine.Command{Type: engine.CmdStartRound, ConnID: connID})

	case types.EvtAdminNextRound:
		s.applyAdmin(connID, engine.Command{Type: engine.CmdNextRound, ConnID: connID})

	case types.EvtAdminShowGraph:
		s.applyAdmin(connID, engine.Command{Type: engine.CmdShowGraphs, ConnID: connID})

	case types.EvtAdminRestart:
		s.applyAdmin(connID, engine.Command{Type: engine.CmdRestart, ConnID: connID})

	default:
		s.log.Debug("unknown client event", zap.String("type", m.Type), zap.String("conn", connID))
	}
}

// authorizeAdmin tags the connection admin and pushes it the current admin
// view. With no secret configured the door is open (local/dev mode). Tags
// survive until disconnect; re-auth after a reconnect is idempotent.
func (s *Session) authorizeAdmin(connID, supplied string) {
	c, ok := s.clients[connID]
	if !ok {
		return
	}

	if s.secret != "" && supplied != s.secret {
		s.sendTo(connID, types.ServerMessage{Type: types.EvtAdminAuthFailed})
		s.log.Info("admin auth failed", zap.String("conn", connID))
		return
	}

	c.admin = true
	s.sendTo(connID, s.adminView())
}

// applyAdmin silently ignores phase-control commands from untagged
// connections. No error goes back on the wire.
func (s *Session) applyAdmin(connID string, cmd engine.Command) {
	c, ok := s.clients[connID]
	if !ok || !c.admin {
		s.log.Debug("unauthorized admin command dropped",
			zap.String("cmd", string(cmd.Type)), zap.String("conn", connID))
		return
	}
	s.apply(cmd)
}

func (s *Session) apply(cmd engine.Command) {
	events, newState, err := engine.Apply(s.state, cmd)
	if err != nil {
		s.sendTo(cmd.ConnID, types.ServerMessage{
			Type:    types.EvtGameError,
			Message: s.errorText(err),
		})
		return
	}
	s.state = newState
	s.dispatch(events)
}

func (s *Session) dispatch(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtPlayerJoined:
			s.sendTo(ev.ConnID, types.ServerMessage{Type: types.EvtJoinedSuccess, Round: ev.Round})
			s.log.Info("player joined",
				zap.String("conn", ev.ConnID),
				zap.Int("round", ev.Round),
				zap.Int("roster", len(s.state.Players)))

		case engine.EvtStatusChanged:
			s.broadcast(types.ServerMessage{Type: types.EvtGameStateChange, Status: string(ev.Status)})
			s.armTimer(ev.Status)
			s.log.Info("status changed", zap.String("status", string(ev.Status)))

		case engine.EvtRoundChanged:
			s.broadcast(types.ServerMessage{Type: types.EvtRoundChange, Round: ev.Round})

		case engine.EvtGameReset:
			// Invalidate any pending phase timer even if the status did not
			// move (restart while already WAITING).
			s.timerGen++
			s.broadcast(types.ServerMessage{Type: types.EvtResetGame})
			s.log.Info("session reset")

		case engine.EvtAdminChanged:
			s.broadcastAdmins(s.adminView())

		case engine.EvtRoundCompleted:
			s.persistScores()
		}
	}
}

// armTimer schedules the deferred phase advance for statuses that have one.
// Every status change bumps the generation, so anything already in flight
// becomes a no-op at fire time.
func (s *Session) armTimer(status engine.Status) {
	s.timerGen++

	var cmd engine.Command
	var delay time.Duration
	switch status {
	case engine.StatusCountdown:
		cmd = engine.Command{Type: engine.CmdCountdownDone}
		delay = time.Duration(s.state.Rules.CountdownSec) * time.Second
	case engine.StatusPlaying:
		cmd = engine.Command{Type: engine.CmdRoundTimeUp}
		delay = time.Duration(s.state.Rules.RoundDurationSec) * time.Second
	default:
		return
	}

	gen := s.timerGen
	time.AfterFunc(delay, func() {
		select {
		case s.inbox <- timerFired{gen: gen, cmd: cmd}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) persistScores() {
	if s.saver == nil {
		return
	}
	// Fire-and-forget on a snapshot: a slow or down database must never
	// delay the ROUND_OVER broadcast.
	roster := engine.RosterSnapshot(s.state)
	go s.saver.SaveScores(roster)
}

func (s *Session) adminView() types.ServerMessage {
	roster := engine.RosterSnapshot(s.state)
	players := make([]types.PlayerView, 0, len(roster))
	for _, p := range roster {
		players = append(players, types.PlayerView{Name: p.Name, ScoreR1: p.ScoreR1, ScoreR2: p.ScoreR2})
	}
	return types.ServerMessage{
		Type:    types.EvtUpdateAdmin,
		Status:  string(s.state.Status),
		Round:   s.state.Round,
		Players: players,
	}
}

func (s *Session) errorText(err error) string {
	switch err {
	case engine.ErrGameInProgress:
		return "Game already started"
	case engine.ErrGameFinished:
		return "Game finished"
	case engine.ErrGameFull:
		return fmt.Sprintf("Game is full (%d players)", s.state.Rules.Capacity)
	case engine.ErrNameRequired:
		return "Name required"
	case engine.ErrNameTaken:
		return "Name taken"
	default:
		return err.Error()
	}
}

func (s *Session) sendTo(connID string, msg types.ServerMessage) {
	c, ok := s.clients[connID]
	if !ok {
		return
	}
	s.deliver(connID, c, msg)
}

func (s *Session) broadcast(msg types.ServerMessage) {
	for id, c := range s.clients {
		s.deliver(id, c, msg)
	}
}

func (s *Session) broadcastAdmins(msg types.ServerMessage) {
	for id, c := range s.clients {
		if c.admin {
			s.deliver(id, c, msg)
		}
	}
}

func (s *Session) deliver(connID string, c *client, msg types.ServerMessage) {
	select {
	case c.outbox <- msg:
	default:
		// Slow or wedged client: drop it. The transport notices the closed
		// outbox, tears the socket down and sends Disconnect, which cleans
		// up any roster entry.
		close(c.outbox)
		delete(s.clients, connID)
		s.log.Warn("dropping slow client", zap.String("conn", connID))
	}
}

func (s *Session) countAdmins() int {
	n := 0
	for _, c := range s.clients {
		if c.admin {
			n++
		}
	}
	return n
}

func (s *Session) shutdown() {
	for id, c := range s.clients {
		close(c.outbox)
		delete(s.clients, id)
	}
	s.cancel()
}
