package net

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/mosaicnetworks/floodnode/src/protocol"
	"github.com/sirupsen/logrus"
)

// StreamTransport implements the Transport interface over a pair of byte
// streams.
type StreamTransport struct {
	logger *logrus.Entry

	scanner *bufio.Scanner
	w       *bufio.Writer
	closer  io.Closer

	shutdown     bool
	shutdownLock sync.Mutex
}

// NewStreamTransport creates a StreamTransport reading from r and writing to
// w. If w also implements io.Closer, Close closes it.
func NewStreamTransport(r io.Reader, w io.Writer, logger *logrus.Entry) *StreamTransport {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, bufSize), maxLineSize)

	trans := &StreamTransport{
		logger:  logger,
		scanner: scanner,
		w:       bufio.NewWriterSize(w, bufSize),
	}

	if c, ok := w.(io.Closer); ok {
		trans.closer = c
	}

	return trans
}

// ReadLine implements the Transport interface.
func (s *StreamTransport) ReadLine() ([]byte, error) {
	if s.IsShutdown() {
		return nil, ErrTransportShutdown
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	return bytes.TrimSuffix(s.scanner.Bytes(), []byte{'\r'}), nil
}

// Send implements the Transport interface.
func (s *StreamTransport) Send(msg protocol.Message) error {
	s.shutdownLock.Lock()
	defer s.shutdownLock.Unlock()

	if s.shutdown {
		return ErrTransportShutdown
	}

	line, err := protocol.Serialize(msg)
	if err != nil {
		return err
	}

	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	s.logger.WithField("msg", string(line)).Debug("Sent")

	return nil
}

// IsShutdown is used to check if the transport is shutdown.
func (s *StreamTransport) IsShutdown() bool {
	s.shutdownLock.Lock()
	defer s.shutdownLock.Unlock()
	return s.shutdown
}

// Close implements the Transport interface.
func (s *StreamTransport) Close() error {
	s.shutdownLock.Lock()
	defer s.shutdownLock.Unlock()

	if s.shutdown {
		return nil
	}
	s.shutdown = true

	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
