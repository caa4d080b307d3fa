package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

// buildWAV assembles a minimal RIFF/WAVE container around pcm, with an
// optional extra chunk before the data chunk.
func buildWAV(pcm []byte, extraChunk bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // size unused by the parser
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 16))

	if extraChunk {
		buf.WriteString("LIST")
		binary.Write(&buf, binary.LittleEndian, uint32(5))
		buf.Write([]byte("hello"))
		buf.WriteByte(0) // padding to word alignment
	}

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func TestStripWAVHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	got := stripWAVHeader(buildWAV(pcm, false))
	if !bytes.Equal(got, pcm) {
		t.Errorf("stripped = %v, want %v", got, pcm)
	}
}

func TestStripWAVHeaderSkipsExtraChunks(t *testing.T) {
	pcm := []byte{9, 8, 7, 6}

	got := stripWAVHeader(buildWAV(pcm, true))
	if !bytes.Equal(got, pcm) {
		t.Errorf("stripped = %v, want %v", got, pcm)
	}
}

func TestStripWAVHeaderPassesThroughRawPCM(t *testing.T) {
	raw := []byte{0, 1, 0, 2, 0, 3, 0, 4, 0, 5, 0, 6}

	got := stripWAVHeader(raw)
	if !bytes.Equal(got, raw) {
		t.Errorf("raw data modified: %v", got)
	}
}

func TestStripWAVHeaderTruncatedDataChunk(t *testing.T) {
	full := buildWAV([]byte{1, 2, 3, 4, 5, 6, 7, 8}, false)
	truncated := full[:len(full)-4]

	got := stripWAVHeader(truncated)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("stripped = %v, want the bytes that survived", got)
	}
}

func TestStripWAVHeaderNoDataChunk(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 16))

	if got := stripWAVHeader(buf.Bytes()); got != nil {
		t.Errorf("headerless container yielded %v, want nil", got)
	}
}

func TestPCMDuration(t *testing.T) {
	cases := []struct {
		name       string
		byteLen    int
		sampleRate int
		channels   int
		want       time.Duration
	}{
		{"one second mono 44.1k", 44100 * 2, 44100, 1, time.Second},
		{"one second stereo 48k", 48000 * 4, 48000, 2, time.Second},
		{"half second mono", 44100, 44100, 1, 500 * time.Millisecond},
		{"empty", 0, 44100, 1, 0},
		{"zero rate", 1000, 0, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pcmDuration(tc.byteLen, tc.sampleRate, tc.channels); got != tc.want {
				t.Errorf("pcmDuration(%d, %d, %d) = %v, want %v", tc.byteLen, tc.sampleRate, tc.channels, got, tc.want)
			}
		})
	}
}

func TestBackendConfigValidation(t *testing.T) {
	bad := []BackendConfig{
		{SampleRate: 22050, Channels: 1},
		{SampleRate: 44100, Channels: 3},
		{SampleRate: 0, Channels: 1},
	}
	for _, cfg := range bad {
		if _, err := NewBackend(cfg); err == nil {
			t.Errorf("NewBackend(%+v) accepted an invalid config", cfg)
		}
	}
}
