// Package wire implements the line-delimited JSON codec shared by the
// device and the host. One record per line; a malformed record costs exactly
// that record and the stream resynchronizes on the next terminator.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/trifaze/tetriskart/internal/sample"
)

// MaxRecordSize bounds how many bytes may accumulate without a terminator
// before the buffer is declared garbage and discarded. Real records are well
// under 200 bytes.
const MaxRecordSize = 4096

// Splitter reassembles terminator-delimited records from arbitrarily chunked
// reads. Partial records wait in the buffer; several records arriving in one
// read are all returned, in order.
type Splitter struct {
	buf      bytes.Buffer
	overflow bool

	// Discarded counts records dropped for overflow. Decode-level drops are
	// counted by the caller.
	Discarded int
}

// Feed appends p and returns every complete record now available, without
// terminators, in arrival order.
func (s *Splitter) Feed(p []byte) [][]byte {
	s.buf.Write(p)

	var lines [][]byte
	for {
		raw := s.buf.Bytes()
		i := bytes.IndexByte(raw, '\n')
		if i < 0 {
			if s.buf.Len() > MaxRecordSize {
				// No terminator in sight; whatever this is, it is not a
				// record. Drop it and resync on the next terminator.
				s.buf.Reset()
				s.overflow = true
				s.Discarded++
			}
			return lines
		}
		line := make([]byte, i)
		copy(line, raw[:i])
		s.buf.Next(i + 1)

		if s.overflow {
			// Tail of an oversized record; the terminator only marks where
			// the garbage ends.
			s.overflow = false
			continue
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}
}

// Reset drops any buffered partial record.
func (s *Splitter) Reset() {
	s.buf.Reset()
	s.overflow = false
}

// maxRecoveryScans bounds how many candidate record starts are tried inside
// one corrupt line before giving up on it.
const maxRecoveryScans = 32

// recoverCandidates yields successive suffixes of line starting at each '{'
// after the first byte. Garbage from a truncated write has no terminator of its own, so
// the record following it arrives glued to the same line; scanning forward
// for the next object start recovers it instead of losing it.
func recoverCandidates(line []byte) [][]byte {
	var out [][]byte
	off := 1
	for len(out) < maxRecoveryScans {
		i := bytes.IndexByte(line[off:], '{')
		if i < 0 {
			return out
		}
		off += i
		out = append(out, line[off:])
		off++
	}
	return out
}

func checkVersion(v int) error {
	if v == 0 {
		return nil // pre-versioning firmware, treated as version 1
	}
	if v > sample.Version {
		return fmt.Errorf("wire: unsupported record version %d", v)
	}
	return nil
}

// DecodeSample parses one device record. The timestamp field is required;
// a JSON object of some other shape is a framing error, not a zero sample.
// If the line starts with garbage from a truncated write, the scan resumes
// at the next object start so the trailing record is not lost.
func DecodeSample(line []byte) (sample.SensorSample, error) {
	rec, err := decodeSampleStrict(line)
	if err == nil {
		return rec, nil
	}
	for _, cand := range recoverCandidates(line) {
		if rec, rerr := decodeSampleStrict(cand); rerr == nil {
			return rec, nil
		}
	}
	return sample.SensorSample{}, err
}

func decodeSampleStrict(line []byte) (sample.SensorSample, error) {
	var probe struct {
		Version   int            `json:"v"`
		Timestamp *int64         `json:"ts"`
		Tilt      *sample.Tilt   `json:"tilt"`
		Buttons   sample.Buttons `json:"buttons"`
		Encoder   sample.Encoder `json:"encoder"`
		Pot       int            `json:"pot"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return sample.SensorSample{}, fmt.Errorf("wire: sample parse: %w", err)
	}
	if err := checkVersion(probe.Version); err != nil {
		return sample.SensorSample{}, err
	}
	if probe.Timestamp == nil || probe.Tilt == nil {
		return sample.SensorSample{}, fmt.Errorf("wire: record is not a sensor sample")
	}
	return sample.SensorSample{
		Version:   sample.Version,
		Timestamp: *probe.Timestamp,
		Tilt:      *probe.Tilt,
		Buttons:   probe.Buttons,
		Encoder:   probe.Encoder,
		Pot:       probe.Pot,
	}, nil
}

// DecodeFeedback parses one host record: either game feedback or a bare
// command. Every field is optional on the wire, as in the original protocol;
// a record carrying neither a command nor a score field is rejected.
// Garbage prefixes are skipped the same way DecodeSample does.
func DecodeFeedback(line []byte) (sample.Feedback, error) {
	fb, err := decodeFeedbackStrict(line)
	if err == nil {
		return fb, nil
	}
	for _, cand := range recoverCandidates(line) {
		if fb, rerr := decodeFeedbackStrict(cand); rerr == nil {
			return fb, nil
		}
	}
	return sample.Feedback{}, err
}

func decodeFeedbackStrict(line []byte) (sample.Feedback, error) {
	var probe struct {
		Version int      `json:"v"`
		Score   *int     `json:"score"`
		Level   int      `json:"level"`
		Lines   int      `json:"lines"`
		Events  []string `json:"events"`
		Command string   `json:"command"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return sample.Feedback{}, fmt.Errorf("wire: feedback parse: %w", err)
	}
	if err := checkVersion(probe.Version); err != nil {
		return sample.Feedback{}, err
	}
	if probe.Score == nil && probe.Command == "" {
		return sample.Feedback{}, fmt.Errorf("wire: record is neither feedback nor command")
	}
	fb := sample.Feedback{
		Version: sample.Version,
		Level:   probe.Level,
		Lines:   probe.Lines,
		Events:  probe.Events,
		Command: probe.Command,
	}
	if probe.Score != nil {
		fb.Score = *probe.Score
	} else {
		fb.Score = -1 // command-only record; keep the displayed score
	}
	return fb, nil
}

func encode(v interface{}) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal: %w", err)
	}
	return append(payload, '\n'), nil
}

// EncodeSample serializes one device record, terminator included.
func EncodeSample(s sample.SensorSample) ([]byte, error) {
	s.Version = sample.Version
	return encode(s)
}

// EncodeFeedback serializes one feedback record, terminator included.
func EncodeFeedback(f sample.Feedback) ([]byte, error) {
	f.Version = sample.Version
	return encode(f)
}

// EncodeCommand serializes a bare command record, terminator included.
func EncodeCommand(tag string) ([]byte, error) {
	return encode(struct {
		Version int    `json:"v"`
		Command string `json:"command"`
	}{sample.Version, tag})
}
