package voice

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/apperrors"
	"github.com/aurelio-voice/aurelio-server/internal/logging"
	"github.com/aurelio-voice/aurelio-server/internal/metrics"
	"github.com/aurelio-voice/aurelio-server/internal/protocol"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// connState is the Voice Protocol State Machine's current state.
type connState int32

const (
	stateIdle connState = iota
	stateOpen
	stateListening
	stateResponding
	stateClosing
)

const greeting = "I'm here"

// beepFrequency is the normal close_voice_channel beep tone. descendingBeeps
// are used instead when the channel is forced closed after an unrecoverable
// protocol error.
const beepFrequency = 300.0

var descendingBeeps = [3]float64{500, 400, 300}

// Conversation is the subset of convloop.Loop's behavior Connection depends
// on, kept as an interface so statemachine tests can substitute a stub
// without wiring a real Assembler/Dispatcher/ModelClient.
type Conversation interface {
	Process(ctx context.Context, sess *session.Session, text string, isVoice bool)
}

// Connection ties the frame codec, audio ingest pipeline, TTS egress
// pipeline, and conversation loop together behind the voice protocol state
// machine. One Connection serves one satellite TCP connection.
type Connection struct {
	rw          io.ReadWriter
	sess        *session.Session
	store       *session.Store
	ingest      *Ingest
	egress      *Egress
	conv        Conversation
	closePhrase string
	log         logging.Logger

	state connState

	mu         sync.Mutex
	turnCancel context.CancelFunc
}

// NewConnection builds a Connection. vad should be a fresh Clone() for this
// connection so detector state isn't shared across satellites. store, if
// non-nil, has sess registered into it for the duration of the connection
// and the entry removed on teardown; it may be nil in tests that don't
// exercise the shared session registry.
func NewConnection(rw io.ReadWriter, sess *session.Session, vad VoiceActivityDetector, transcriber Transcriber, synth Synthesizer, conv Conversation, closePhrase string, vadTimeout time.Duration, store *session.Store, log logging.Logger) *Connection {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	c := &Connection{
		rw:          rw,
		sess:        sess,
		store:       store,
		egress:      NewEgress(synth),
		conv:        conv,
		closePhrase: closePhrase,
		log:         log,
	}
	if store != nil {
		store.Put(sess)
	}
	c.ingest = NewIngest(vad, transcriber, closePhrase, vadTimeout, log)
	c.ingest.OnFirstSpeechAfterBargeIn(func() { sess.Cancel.Clear() })
	return c
}

// Run reads frames until disconnect or an unrecoverable protocol error,
// driving the state machine. It returns nil on a clean disconnect.
func (c *Connection) Run(ctx context.Context) error {
	metrics.CallsActive.Inc()
	metrics.CallsTotal.Inc()
	defer metrics.CallsActive.Dec()
	defer c.teardown()

	for {
		frame, err := protocol.Decode(c.rw)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, apperrors.ErrProtocol) {
				c.forceClose(ctx)
				return err
			}
			return err
		}

		switch frame.Tag {
		case protocol.TagOpen, protocol.TagWake:
			c.handleOpen(ctx)
		case protocol.TagAud0:
			c.handleAudio(ctx, frame.Payload)
		case protocol.TagInt0:
			c.handleBargeIn()
		case protocol.TagStop:
			c.handleStop(ctx)
		default:
			c.log.Debug("ignoring unknown frame tag", "tag", frame.Tag)
		}
	}
}

func (c *Connection) handleOpen(ctx context.Context) {
	if atomic.LoadInt32((*int32)(&c.state)) != int32(stateIdle) {
		return
	}
	c.speakTone(ctx, greeting)
	protocol.Encode(c.rw, protocol.TagRdy0, nil)
	c.ingest.SetRXGate(true)
	atomic.StoreInt32((*int32)(&c.state), int32(stateOpen))
}

func (c *Connection) handleAudio(ctx context.Context, payload []byte) {
	state := connState(atomic.LoadInt32((*int32)(&c.state)))
	if state != stateOpen && state != stateListening {
		return
	}
	atomic.StoreInt32((*int32)(&c.state), int32(stateListening))
	c.ingest.Write(ctx, payload, func(turnCtx context.Context, text string, isCloseChannelPhrase bool) {
		c.beginTurn(ctx, text, isCloseChannelPhrase)
	})
}

func (c *Connection) handleStop(ctx context.Context) {
	state := connState(atomic.LoadInt32((*int32)(&c.state)))
	if state != stateListening {
		return
	}
	c.ingest.Flush(ctx, func(turnCtx context.Context, text string, isCloseChannelPhrase bool) {
		c.beginTurn(ctx, text, isCloseChannelPhrase)
	})
}

func (c *Connection) handleBargeIn() {
	state := connState(atomic.LoadInt32((*int32)(&c.state)))
	if state != stateResponding {
		return
	}
	c.sess.Cancel.Set()

	c.mu.Lock()
	cancel := c.turnCancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	c.ingest.SetRXGate(true)
	metrics.BargeInTotal.Inc()
	atomic.StoreInt32((*int32)(&c.state), int32(stateListening))
}

// beginTurn closes the RX gate and runs the Conversation Loop plus TTS
// Egress for one utterance, synchronously from the frame-reading goroutine's
// perspective for AUD0/STOP, matching the state table's half-duplex gating
// (LISTENING -> RESPONDING closes the RX gate until the turn settles).
func (c *Connection) beginTurn(ctx context.Context, text string, isCloseChannelPhrase bool) {
	atomic.StoreInt32((*int32)(&c.state), int32(stateResponding))
	c.ingest.SetRXGate(false)

	if isCloseChannelPhrase {
		c.closeChannel(ctx)
		return
	}

	turnCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.turnCancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.turnCancel = nil
		c.mu.Unlock()
		cancel()
	}()

	go c.conv.Process(turnCtx, c.sess, text, true)
	c.drainAndSpeak(turnCtx)

	if c.sess.CloseVoice.IsSet() {
		c.closeChannel(ctx)
		return
	}

	protocol.Encode(c.rw, protocol.TagRdy0, nil)
	c.ingest.SetRXGate(true)
	atomic.StoreInt32((*int32)(&c.state), int32(stateOpen))
}

// drainAndSpeak reads response chunks until the terminal sentinel, splitting
// them into sentences and speaking each via TTS Egress. Once cancel is set
// it stops speaking but keeps consuming the channel until the sentinel
// arrives, since the Conversation Loop goroutine that produced this turn is
// guaranteed to push exactly one sentinel before it exits (even when its
// context was canceled) — draining it here is what keeps the queue clean
// for the next turn's drainAndSpeak, which starts reading the same channel
// from scratch.
func (c *Connection) drainAndSpeak(ctx context.Context) {
	splitter := &SentenceSplitter{}
	for chunk := range c.sess.Responses {
		if chunk == session.ResponseSentinel {
			break
		}
		if c.sess.Cancel.IsSet() {
			continue
		}
		for _, sentence := range splitter.Feed(chunk) {
			c.speakSentence(ctx, sentence)
		}
	}
	if rest := splitter.Flush(); rest != "" && !c.sess.Cancel.IsSet() {
		c.speakSentence(ctx, rest)
	}
}

func (c *Connection) speakSentence(ctx context.Context, text string) {
	if text == "" {
		return
	}
	err := c.egress.Speak(ctx, c.sess, text, func(ctx context.Context, payload []byte) error {
		return protocol.Encode(c.rw, protocol.TagTts0, payload)
	})
	if err != nil {
		c.log.Warn("synthesis error", "err", err)
	}
}

// speakTone is used for the greeting, whose text comes from this package
// rather than the model.
func (c *Connection) speakTone(ctx context.Context, text string) {
	c.speakSentence(ctx, text)
}

// closeChannel emits three 300 Hz beeps, sends CLOS, and transitions to
// CLOSING.
func (c *Connection) closeChannel(ctx context.Context) {
	atomic.StoreInt32((*int32)(&c.state), int32(stateClosing))
	c.writeBeeps(beepFrequency, beepFrequency, beepFrequency)
	protocol.Encode(c.rw, protocol.TagClos, nil)
}

// forceClose is used when the protocol itself breaks (a fatal framing
// error); it plays three descending beeps instead of three identical ones,
// distinguishing "the assistant said goodbye" from "the channel broke".
func (c *Connection) forceClose(ctx context.Context) {
	atomic.StoreInt32((*int32)(&c.state), int32(stateClosing))
	c.writeBeeps(descendingBeeps[0], descendingBeeps[1], descendingBeeps[2])
	protocol.Encode(c.rw, protocol.TagClos, nil)
}

const (
	beepSampleRate = 16000
	beepDuration   = 200 // milliseconds
)

func (c *Connection) writeBeeps(freqs ...float64) {
	for _, f := range freqs {
		tone := generateTone(f, beepSampleRate, beepDuration)
		protocol.Encode(c.rw, protocol.TagBeep, protocol.PCMToInt16LE(tone))
	}
}

// generateTone returns a sine wave at freq Hz, sampleRate samples/sec,
// lasting durationMS milliseconds.
func generateTone(freq float64, sampleRate, durationMS int) []float32 {
	n := sampleRate * durationMS / 1000
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = float32(0.3 * math.Sin(2*math.Pi*freq*t))
	}
	return out
}

func (c *Connection) teardown() {
	atomic.StoreInt32((*int32)(&c.state), int32(stateIdle))
	if c.store != nil {
		c.store.Delete(c.sess.ID)
	}
}
