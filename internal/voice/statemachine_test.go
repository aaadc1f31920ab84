package voice

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/protocol"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

type alwaysSpeechVAD struct{}

func (alwaysSpeechVAD) IsSpeech(frame []float32) bool { return true }
func (alwaysSpeechVAD) Reset()                        {}
func (alwaysSpeechVAD) Clone() VoiceActivityDetector  { return alwaysSpeechVAD{} }

type fixedTranscriber struct{ text string }

func (f fixedTranscriber) Transcribe(ctx context.Context, pcm []float32) ([]Segment, error) {
	return []Segment{{Text: f.text}}, nil
}
func (f fixedTranscriber) Name() string { return "fixed" }

type silentSynth struct{}

func (silentSynth) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	return make([]float32, 160), 16000, nil
}
func (silentSynth) Name() string { return "silent" }

// echoConversation writes the user turn back as the assistant's only
// sentence, then finishes the turn — enough to exercise drainAndSpeak
// without depending on promptx/tools/a real ModelClient.
type echoConversation struct{}

func (echoConversation) Process(ctx context.Context, sess *session.Session, text string, isVoice bool) {
	sess.Responses <- text + ". "
	sess.Responses <- session.ResponseSentinel
	sess.Finished.Set()
}

func readFrame(t *testing.T, r net.Conn) protocol.Frame {
	t.Helper()
	r.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := protocol.Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return frame
}

func TestConnectionOpenSendsGreetingAndRDY0(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := session.New("s1")
	conn := NewConnection(server, sess, alwaysSpeechVAD{}, fixedTranscriber{}, silentSynth{}, echoConversation{}, "", 0, nil, nil)

	go conn.Run(context.Background())

	if err := protocol.Encode(client, protocol.TagOpen, nil); err != nil {
		t.Fatalf("Encode OPEN: %v", err)
	}

	greetingFrame := readFrame(t, client)
	if greetingFrame.Tag != protocol.TagTts0 {
		t.Fatalf("expected TTS0 greeting frame, got %q", greetingFrame.Tag)
	}

	rdy := readFrame(t, client)
	if rdy.Tag != protocol.TagRdy0 {
		t.Fatalf("expected RDY0, got %q", rdy.Tag)
	}
}

func TestConnectionSilenceTimeoutTriggersResponse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := session.New("s1")
	conn := NewConnection(server, sess, &scriptedVAD{speech: []bool{true, false}}, fixedTranscriber{text: "hello"}, silentSynth{}, echoConversation{}, "", 0, nil, nil)

	go conn.Run(context.Background())

	protocol.Encode(client, protocol.TagOpen, nil)
	readFrame(t, client) // greeting
	readFrame(t, client) // RDY0

	payload := protocol.PCMToInt16LE(make([]float32, 160))
	protocol.Encode(client, protocol.TagAud0, payload)

	conn.ingest.mu.Lock()
	conn.ingest.lastVoiceTS = time.Now().Add(-DefaultVADTimeout - time.Millisecond)
	conn.ingest.mu.Unlock()

	protocol.Encode(client, protocol.TagAud0, protocol.PCMToInt16LE(make([]float32, 160)))

	ttsFrame := readFrame(t, client)
	if ttsFrame.Tag != protocol.TagTts0 {
		t.Fatalf("expected TTS0 response frame, got %q", ttsFrame.Tag)
	}

	rdy := readFrame(t, client)
	if rdy.Tag != protocol.TagRdy0 {
		t.Fatalf("expected RDY0 after turn completes, got %q", rdy.Tag)
	}
}

func TestConnectionCloseVoicePhraseEmitsBeepsAndClos(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := session.New("s1")
	conn := NewConnection(server, sess, &scriptedVAD{speech: []bool{true, false}}, fixedTranscriber{text: "finish conversation please"}, silentSynth{}, echoConversation{}, "finish conversation", 0, nil, nil)

	go conn.Run(context.Background())

	protocol.Encode(client, protocol.TagOpen, nil)
	readFrame(t, client) // greeting
	readFrame(t, client) // RDY0

	protocol.Encode(client, protocol.TagAud0, protocol.PCMToInt16LE(make([]float32, 160)))
	conn.ingest.mu.Lock()
	conn.ingest.lastVoiceTS = time.Now().Add(-DefaultVADTimeout - time.Millisecond)
	conn.ingest.mu.Unlock()
	protocol.Encode(client, protocol.TagAud0, protocol.PCMToInt16LE(make([]float32, 160)))

	for i := 0; i < 3; i++ {
		f := readFrame(t, client)
		if f.Tag != protocol.TagBeep {
			t.Fatalf("beep %d: tag = %q", i, f.Tag)
		}
	}
	clos := readFrame(t, client)
	if clos.Tag != protocol.TagClos {
		t.Fatalf("expected CLOS, got %q", clos.Tag)
	}
}
