package discovery

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/muurk/smartip/internal/logging"
	"github.com/muurk/smartip/internal/protocol"
	"github.com/muurk/smartip/internal/transport"
)

const (
	// maxDatagramSize is the receive buffer size (RFC 6762 §17 allows up to
	// 9000 bytes on jumbo-frame links)
	maxDatagramSize = 9000

	// datagramQueueSize bounds how far the reader may run ahead of the loop
	datagramQueueSize = 64

	// readRetryMin and readRetryMax bound the pause after a failed read; the
	// pause doubles on each consecutive failure
	readRetryMin = 5 * time.Millisecond
	readRetryMax = time.Second
)

// ErrAlreadyStarted is returned by Start on a session that was started before
var ErrAlreadyStarted = errors.New("session already started")

// State is the lifecycle position of a Session
type State int32

const (
	// StateIdle means no socket exists yet
	StateIdle State = iota
	// StateBound means the socket is bound but the group is not joined
	StateBound
	// StateListening means the query was sent and responses are collected
	StateListening
	// StateClosed is terminal; the result is available
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBound:
		return "bound"
	case StateListening:
		return "listening"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats counts what a session saw on the wire
type Stats struct {
	Datagrams int // Datagrams received
	Dropped   int // Datagrams that failed to decode
	Records   int // Records fed to the correlator
}

// Option configures a Session
type Option func(*Session)

// WithTransport replaces the UDP socket layer
func WithTransport(b transport.Binder) Option {
	return func(s *Session) { s.binder = b }
}

// WithClock replaces the clock driving the deadline
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger replaces the session logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// OnFound subscribes fn to device updates. fn is called from the session
// loop each time a message changes an in-domain device, with a copy of it.
func OnFound(fn func(Device)) Option {
	return func(s *Session) {
		if fn != nil {
			s.onFound = append(s.onFound, fn)
		}
	}
}

// OnComplete subscribes fn to the final result. fn is called exactly once,
// after the socket is closed.
func OnComplete(fn func([]Device)) Option {
	return func(s *Session) {
		if fn != nil {
			s.onComplete = append(s.onComplete, fn)
		}
	}
}

type datagram struct {
	data []byte
	src  net.Addr
}

// Session is one discovery run. It owns the socket, the deadline and the
// correlator, and moves Idle → Bound → Listening → Closed exactly once.
type Session struct {
	cfg        Config
	query      []byte
	binder     transport.Binder
	clock      clock.Clock
	log        *zap.Logger
	onFound    []func(Device)
	onComplete []func([]Device)

	state      atomic.Int32
	started    atomic.Bool
	correlator *Correlator

	stop      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}

	mu       sync.Mutex
	result   []Device
	stats    Stats
	deadline time.Time
}

// NewSession validates cfg and prepares a session. No socket is opened until
// Start.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	query, err := protocol.EncodeQuery(cfg.ServiceName)
	if err != nil {
		return nil, newInvalidConfigError("failed to encode query", err)
	}

	s := &Session{
		cfg:        cfg,
		query:      query,
		binder:     transport.UDPv4Binder{},
		clock:      clock.New(),
		log:        logging.Named("discovery"),
		correlator: NewCorrelator(cfg.FullServiceName()),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Config returns the effective configuration, defaults applied
func (s *Session) Config() Config {
	return s.cfg
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	s.log.Debug("Session state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", st),
	)
}

// Start binds the socket, joins the group, sends the query and begins
// collecting responses until the deadline, ctx cancellation or Stop.
//
// Bind and join failures are returned as *SearchError; the session is then
// closed without a result and no OnComplete subscriber is called. A failed
// query transmission is only logged.
func (s *Session) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	local := net.ParseIP(s.cfg.LocalInterfaceAddress)
	group := s.cfg.GroupAddr()

	conn, err := s.binder.Bind(ctx, local, s.cfg.Port)
	if err != nil {
		s.abort()
		return newBindError("failed to bind "+s.cfg.LocalInterfaceAddress, err)
	}
	s.setState(StateBound)

	if err := conn.JoinGroup(group.IP); err != nil {
		if cerr := conn.Close(); cerr != nil {
			s.log.Warn("Failed to close socket after join failure", zap.Error(newTeardownError(cerr)))
		}
		s.abort()
		return newJoinError("failed to join "+group.IP.String(), err)
	}

	s.setState(StateListening)

	if _, err := conn.WriteTo(s.query, group); err != nil {
		s.log.Warn("Query not sent", zap.Error(newSendError(err)))
	} else {
		logging.LogDatagram(s.log, "out", group.String(), s.query)
		s.log.Info("Query sent",
			zap.String("service", s.cfg.FullServiceName()),
			zap.String("group", group.String()),
			zap.String("interface", s.cfg.LocalInterfaceAddress),
		)
	}

	timer := s.clock.Timer(s.cfg.Timeout)
	s.mu.Lock()
	s.deadline = s.clock.Now().Add(s.cfg.Timeout)
	s.mu.Unlock()

	packets := make(chan datagram, datagramQueueSize)
	quit := make(chan struct{})
	readerDone := make(chan struct{})

	go s.readLoop(conn, packets, quit, readerDone)
	go s.run(ctx, conn, timer, packets, quit, readerDone)

	return nil
}

// abort closes a session that never reached Listening
func (s *Session) abort() {
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		close(s.done)
	})
}

// readLoop copies every datagram off the socket until quit is closed or the
// socket fails
func (s *Session) readLoop(conn transport.Conn, out chan<- datagram, quit <-chan struct{}, readerDone chan<- struct{}) {
	defer close(readerDone)

	buf := make([]byte, maxDatagramSize)
	var retry time.Duration
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-quit:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}

			if retry == 0 {
				retry = readRetryMin
			} else if retry < readRetryMax {
				retry = min(2*retry, readRetryMax)
			}
			s.log.Debug("Read failed", zap.Error(err), zap.Duration("retry_in", retry))

			pause := time.NewTimer(retry)
			select {
			case <-pause.C:
			case <-quit:
				pause.Stop()
				return
			}
			continue
		}
		retry = 0

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case out <- datagram{data: data, src: src}:
		case <-quit:
			return
		}
	}
}

// run is the single consumer of datagrams and the only place the correlator
// is touched
func (s *Session) run(ctx context.Context, conn transport.Conn, timer *clock.Timer, packets <-chan datagram, quit chan struct{}, readerDone <-chan struct{}) {
	defer timer.Stop()

	reason := "deadline"
loop:
	for {
		select {
		case <-timer.C:
			break loop
		case <-ctx.Done():
			reason = "cancelled"
			break loop
		case <-s.stop:
			reason = "stopped"
			break loop
		case p := <-packets:
			s.handleDatagram(p)
		}
	}

	s.finish(conn, reason, quit, readerDone)
}

func (s *Session) handleDatagram(p datagram) {
	src := ""
	if p.src != nil {
		src = p.src.String()
	}
	logging.LogDatagram(s.log, "in", src, p.data)

	msg, err := protocol.DecodeMessage(p.data)

	s.mu.Lock()
	s.stats.Datagrams++
	if err != nil {
		s.stats.Dropped++
	} else {
		s.stats.Records += len(msg.Records)
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("Dropped malformed datagram", zap.String("src", src), zap.Error(newDecodeError(err)))
		logging.LogRawBytes(s.log, "Malformed datagram", p.data)
		return
	}

	for _, key := range s.correlator.ApplyMessage(msg) {
		d, ok := s.correlator.Lookup(key)
		if !ok {
			continue
		}
		s.log.Debug("Device updated", zap.String("name", d.Name), zap.Strings("addresses", d.Addresses))
		for _, fn := range s.onFound {
			fn(d.Clone())
		}
	}
}

// finish performs Listening → Closed once
func (s *Session) finish(conn transport.Conn, reason string, quit chan struct{}, readerDone <-chan struct{}) {
	s.closeOnce.Do(func() {
		close(quit)
		if err := conn.Close(); err != nil {
			s.log.Warn("Socket teardown failed", zap.Error(newTeardownError(err)))
		}
		<-readerDone

		result := s.correlator.Snapshot()

		s.mu.Lock()
		s.result = result
		stats := s.stats
		s.mu.Unlock()

		s.setState(StateClosed)
		s.log.Info("Search complete",
			zap.String("reason", reason),
			zap.Int("devices", len(result)),
			zap.Int("datagrams", stats.Datagrams),
			zap.Int("dropped", stats.Dropped),
		)
		close(s.done)

		for _, fn := range s.onComplete {
			fn(cloneDevices(result))
		}
	})
}

// Stop ends collection early. The result holds whatever arrived so far.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed when the session reaches StateClosed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session is closed and returns the devices found
func (s *Session) Wait() []Device {
	<-s.done
	return s.Result()
}

// Result returns the devices found, or nil while the session is still open
// or when it failed to start
func (s *Session) Result() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDevices(s.result)
}

// Stats returns the datagram counters
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Deadline returns when collection ends; zero before Start
func (s *Session) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}
