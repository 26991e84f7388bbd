package bridge

import (
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/trifaze/tetriskart/internal/sample"
	"github.com/trifaze/tetriskart/internal/wire"
)

// SerialSource reads device records from a serial port. A reader goroutine
// pumps bytes through the wire splitter into a bounded channel; a writer
// goroutine drains outgoing records, so callers never block on the port.
type SerialSource struct {
	port io.ReadWriteCloser
	rx   chan sample.SensorSample
	tx   chan []byte
	done chan struct{}

	droppedRx int // oldest samples displaced by newer ones
	droppedTx int // outgoing records the writer could not keep up with
}

// OpenSerial opens the device link and starts its I/O pumps.
func OpenSerial(portName string, baud uint) (*SerialSource, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: open serial port %s: %w", portName, err)
	}
	log.Printf("bridge: serial port opened on %s at %d baud", portName, baud)

	s := &SerialSource{
		port: port,
		rx:   make(chan sample.SensorSample, 64),
		tx:   make(chan []byte, 32),
		done: make(chan struct{}),
	}
	go s.readLoop()
	go s.writeLoop()
	return s, nil
}

func (s *SerialSource) readLoop() {
	var split wire.Splitter
	buf := make([]byte, 512)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			log.Printf("bridge: serial read error: %v", err)
			return
		}
		for _, line := range split.Feed(buf[:n]) {
			rec, err := wire.DecodeSample(line)
			if err != nil {
				// Framing error: that record is gone, the stream is fine.
				continue
			}
			select {
			case s.rx <- rec:
			default:
				// Consumer is behind; newest data wins.
				select {
				case <-s.rx:
					s.droppedRx++
				default:
				}
				select {
				case s.rx <- rec:
				default:
				}
			}
		}
	}
}

func (s *SerialSource) writeLoop() {
	for {
		select {
		case line := <-s.tx:
			if _, err := s.port.Write(line); err != nil {
				log.Printf("bridge: serial write error: %v", err)
			}
		case <-s.done:
			return
		}
	}
}

// Next returns the oldest buffered sample, if any.
func (s *SerialSource) Next() (sample.SensorSample, bool) {
	select {
	case rec := <-s.rx:
		return rec, true
	default:
		return sample.SensorSample{}, false
	}
}

// Send queues one record for transmission; a full queue drops it.
func (s *SerialSource) Send(line []byte) {
	select {
	case s.tx <- line:
	default:
		s.droppedTx++
	}
}

// Name identifies the source in logs.
func (s *SerialSource) Name() string { return "serial" }

// Close stops the pumps and releases the port.
func (s *SerialSource) Close() error {
	close(s.done)
	return s.port.Close()
}
