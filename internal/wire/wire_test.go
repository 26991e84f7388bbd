package wire

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/trifaze/tetriskart/internal/sample"
)

func testSample() sample.SensorSample {
	return sample.SensorSample{
		Timestamp: 12345,
		Tilt:      sample.Tilt{X: -7.25, Y: 2.5},
		Buttons:   sample.Buttons{A: 1, B: 0},
		Encoder:   sample.Encoder{Delta: -2, Position: 17},
		Pot:       40000,
	}
}

func TestSampleRoundTrip(t *testing.T) {
	in := testSample()
	line, err := EncodeSample(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasSuffix(line, []byte("\n")) {
		t.Error("encoded record is not newline-terminated")
	}
	out, err := DecodeSample(bytes.TrimSuffix(line, []byte("\n")))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	in.Version = sample.Version
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	in := sample.Feedback{
		Score:  120,
		Level:  3,
		Lines:  9,
		Events: []string{sample.EventLineCleared, sample.EventLevelUp},
	}
	line, err := EncodeFeedback(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeFeedback(bytes.TrimSpace(line))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	in.Version = sample.Version
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestCommandRecord(t *testing.T) {
	line, err := EncodeCommand(sample.CmdCalibrate)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	fb, err := DecodeFeedback(bytes.TrimSpace(line))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fb.Command != sample.CmdCalibrate {
		t.Errorf("command = %q, want %q", fb.Command, sample.CmdCalibrate)
	}
	if fb.Score != -1 {
		t.Errorf("command-only record score = %d, want -1 (keep displayed score)", fb.Score)
	}
}

func TestSplitterPartialThenComplete(t *testing.T) {
	var s Splitter
	if got := s.Feed([]byte(`{"ts":1`)); len(got) != 0 {
		t.Fatalf("partial record produced %d lines", len(got))
	}
	got := s.Feed([]byte(",\"tilt\":{\"x\":0,\"y\":0}}\n"))
	if len(got) != 1 {
		t.Fatalf("completed record produced %d lines, want 1", len(got))
	}
	if _, err := DecodeSample(got[0]); err != nil {
		t.Errorf("decode reassembled record: %v", err)
	}
}

func TestSplitterMultipleRecordsOneRead(t *testing.T) {
	var s Splitter
	got := s.Feed([]byte("{\"a\":1}\n{\"b\":2}\n{\"c\":3}\n"))
	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3", len(got))
	}
	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`}
	for i, w := range want {
		if string(got[i]) != w {
			t.Errorf("line %d = %q, want %q (order must match arrival)", i, got[i], w)
		}
	}
}

func TestResyncAfterCorruptRecord(t *testing.T) {
	var s Splitter
	stream := "{\"ts\":1,\"tilt\":{\"x\":0,\"y\":0}}\n" +
		"{\"ts\":garbage+++" + // malformed, never terminated...
		"{\"ts\":2,\"tilt\":{\"x\":0,\"y\":0}}\n" // ...until the next valid record's terminator

	var decoded []sample.SensorSample
	for _, line := range s.Feed([]byte(stream)) {
		rec, err := DecodeSample(line)
		if err != nil {
			continue
		}
		decoded = append(decoded, rec)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d records, want 2", len(decoded))
	}
	if decoded[0].Timestamp != 1 || decoded[1].Timestamp != 2 {
		t.Errorf("timestamps = %d, %d; want 1, 2", decoded[0].Timestamp, decoded[1].Timestamp)
	}
}

func TestCorruptThenValidYieldsExactlyOne(t *testing.T) {
	var s Splitter
	stream := "{{{{not json\n{\"ts\":7,\"tilt\":{\"x\":1,\"y\":2}}\n"
	var decoded int
	for _, line := range s.Feed([]byte(stream)) {
		if _, err := DecodeSample(line); err == nil {
			decoded++
		}
	}
	if decoded != 1 {
		t.Errorf("decoded %d records, want exactly 1", decoded)
	}
}

func TestOversizedGarbageIsBounded(t *testing.T) {
	var s Splitter
	junk := strings.Repeat("x", MaxRecordSize+100)
	if got := s.Feed([]byte(junk)); len(got) != 0 {
		t.Fatalf("oversized garbage produced %d lines", len(got))
	}
	if s.Discarded != 1 {
		t.Errorf("Discarded = %d, want 1", s.Discarded)
	}
	// The eventual terminator closes the garbage, then a valid record follows.
	got := s.Feed([]byte("tail\n{\"ts\":9,\"tilt\":{\"x\":0,\"y\":0}}\n"))
	if len(got) != 1 {
		t.Fatalf("got %d lines after resync, want 1", len(got))
	}
	if rec, err := DecodeSample(got[0]); err != nil || rec.Timestamp != 9 {
		t.Errorf("post-overflow record = %+v, %v", rec, err)
	}
}

func TestRejectsWrongShapeAndFutureVersion(t *testing.T) {
	if _, err := DecodeSample([]byte(`{"score":10,"level":1}`)); err == nil {
		t.Error("feedback-shaped record decoded as a sample")
	}
	if _, err := DecodeSample([]byte(`{"v":99,"ts":1,"tilt":{"x":0,"y":0}}`)); err == nil {
		t.Error("future-version record was not rejected")
	}
	if _, err := DecodeFeedback([]byte(`{"ts":1}`)); err == nil {
		t.Error("sample-shaped record decoded as feedback")
	}
}

func TestVersionlessRecordAccepted(t *testing.T) {
	// Records from the original firmware carry no version field.
	rec, err := DecodeSample([]byte(`{"ts":42,"tilt":{"x":3,"y":0},"buttons":{"a":0,"b":1},"encoder":{"delta":1,"position":5},"pot":100}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Timestamp != 42 || rec.Buttons.B != 1 || rec.Encoder.Position != 5 {
		t.Errorf("unexpected record: %+v", rec)
	}
}
