// Package engine assembles the components of a node and runs its main loop.
//
// The loop is strictly lock-step: it reads one line, handles it, and writes
// every resulting message before reading the next line. Lines that cannot be
// parsed are logged and skipped. Errors returned by the node are answered
// when they carry a reply, and logged. Only transport failures stop the loop,
// and the end of the input stops it cleanly.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mosaicnetworks/floodnode/src/agent"
	"github.com/mosaicnetworks/floodnode/src/config"
	"github.com/mosaicnetworks/floodnode/src/net"
	"github.com/mosaicnetworks/floodnode/src/node"
	"github.com/mosaicnetworks/floodnode/src/protocol"
	"github.com/mosaicnetworks/floodnode/src/service"
	"github.com/mosaicnetworks/floodnode/src/telemetry"
	"github.com/mosaicnetworks/floodnode/src/version"
	"github.com/sirupsen/logrus"
)

// Engine is the top-level object of a node process. Transport may be set
// before Init to replace stdin and stdout.
type Engine struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Metrics   *telemetry.Metrics
	Service   *service.Service

	logger *logrus.Entry
}

// NewEngine is a factory method that returns an Engine which needs to be
// initialized with Init.
func NewEngine(config *config.Config) *Engine {
	engine := &Engine{
		Config: config,
	}

	return engine
}

func (e *Engine) initTransport() error {
	if e.Transport == nil {
		e.Transport = net.NewStreamTransport(
			os.Stdin,
			os.Stdout,
			e.logger.WithField("component", "transport"),
		)
	}
	return nil
}

func (e *Engine) initMetrics() error {
	e.Metrics = telemetry.NewMetrics()
	e.Metrics.SetBuildInfo(version.Version, e.Config.Agent)
	return nil
}

func (e *Engine) initNode() error {
	a, err := agent.New(e.Config.Agent)
	if err != nil {
		return err
	}

	e.Node = node.NewNode(a, e.logger.WithField("component", "node"))

	return nil
}

func (e *Engine) initService() error {
	if e.Config.ServiceAddr != "" {
		e.Service = service.NewService(
			e.Config.ServiceAddr,
			e.Node,
			e.Metrics.Handler(),
			e.logger.WithField("component", "service"),
		)
	}
	return nil
}

// Init initializes all the components of the engine.
func (e *Engine) Init() error {
	e.logger = e.Config.Logger()

	if err := e.initTransport(); err != nil {
		return err
	}

	if err := e.initMetrics(); err != nil {
		return err
	}

	if err := e.initNode(); err != nil {
		return err
	}

	if err := e.initService(); err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"agent":   e.Config.Agent,
		"service": e.Config.ServiceAddr,
		"version": version.Version,
	}).Debug("Engine initialized")

	return nil
}

// Run starts the optional service and pumps messages until the end of the
// input. It returns nil at EOF and an error when the transport fails,
// including when closing the transport fails after a clean EOF.
func (e *Engine) Run() (err error) {
	if e.Service != nil {
		go e.Service.Serve()
		defer e.Service.Close()
	}
	defer func() {
		if cerr := e.Transport.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing transport: %w", cerr)
		}
	}()

	for {
		line, err := e.Transport.ReadLine()
		if err == io.EOF {
			e.logger.Debug("End of input")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if err := e.process(line); err != nil {
			return err
		}
	}
}

// process handles one line. Only transport errors are returned.
func (e *Engine) process(line []byte) error {
	if len(bytes.TrimSpace(line)) == 0 {
		e.logger.Debug("Skipping blank line")
		return nil
	}

	msg, err := protocol.Parse(line)
	if err != nil {
		e.Metrics.ParseFailures.Inc()
		e.logger.WithError(err).Error("Parsing message")
		return nil
	}

	e.Metrics.Received(msg.Type())
	e.logger.WithField("msg", msg).Debug("Received")

	start := time.Now()
	out, herr := e.Node.Handle(msg)
	e.Metrics.ObserveHandle(start)

	for _, m := range out {
		if err := e.send(m); err != nil {
			return err
		}
	}

	if herr != nil {
		return e.handleError(msg, herr)
	}

	return nil
}

func (e *Engine) handleError(msg protocol.Message, err error) error {
	var nerr *node.Error
	if !errors.As(err, &nerr) {
		e.Metrics.NodeError(-1)
		e.logger.WithError(err).WithField("type", msg.Type()).Error("Handling message")
		return nil
	}

	code := -1
	if c, ok := nerr.Code(); ok {
		code = int(c)
	}
	e.Metrics.NodeError(code)
	e.logger.WithField("code", code).Warn(nerr.Detail)

	if nerr.Reply != nil {
		return e.send(*nerr.Reply)
	}
	return nil
}

func (e *Engine) send(msg protocol.Message) error {
	if err := e.Transport.Send(msg); err != nil {
		return fmt.Errorf("writing %s to %s: %w", msg.Type(), msg.Dest, err)
	}
	e.Metrics.Sent(msg.Type())
	return nil
}
