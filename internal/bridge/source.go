package bridge

import "github.com/trifaze/tetriskart/internal/sample"

// Source is one provider of device samples: the live serial link or the
// synthetic fallback. Next never blocks; it reports ok=false when no sample
// is currently available.
type Source interface {
	Next() (sample.SensorSample, bool)
	// Send transmits one encoded record toward the device. It must not
	// block; a send that cannot be buffered is dropped.
	Send(line []byte)
	Name() string
	Close() error
}
