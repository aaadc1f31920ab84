// Command satsim is a development satellite: it captures the local
// microphone, speaks frames over the TCP wire protocol to a running
// cmd/server, and plays back whatever audio comes back, the same duplex
// device wiring cmd/agent used to drive the in-process orchestrator
// directly, now driving internal/protocol frames over a socket instead.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/audio"
	"github.com/aurelio-voice/aurelio-server/internal/protocol"
	"github.com/gen2brain/malgo"
)

const (
	sampleRate = 16000
	channels   = 1

	// silenceHold is how long RMS must stay below threshold before satsim
	// sends STOP, ending the user's turn.
	silenceHold = 700 * time.Millisecond
)

func main() {
	addr := flag.String("addr", "127.0.0.1:10400", "cmd/server TCP address")
	threshold := flag.Float64("threshold", 0.02, "RMS level above which mic audio counts as speech")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}
	defer conn.Close()

	if err := protocol.Encode(conn, protocol.TagOpen, nil); err != nil {
		log.Fatalf("send OPEN: %v", err)
	}
	fmt.Println("satsim connected. Speak, then pause to send STOP. Ctrl+C to exit.")

	var playbackMu sync.Mutex
	var playbackBytes []byte

	echo := audio.NewEchoSuppressor()

	var silenceSince time.Time
	var inTurn bool

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		if pInput != nil {
			if echo.IsEcho(pInput) {
				return
			}

			rms := rmsOf(pInput)

			playbackMu.Lock()
			speaking := len(playbackBytes) > 0
			playbackMu.Unlock()

			if speaking {
				if rms > *threshold {
					protocol.Encode(conn, protocol.TagInt0, nil)
					echo.Clear()
				}
				return
			}

			if rms > *threshold {
				silenceSince = time.Time{}
				inTurn = true
				protocol.Encode(conn, protocol.TagAud0, pInput)
			} else if inTurn {
				if silenceSince.IsZero() {
					silenceSince = time.Now()
				} else if time.Since(silenceSince) > silenceHold {
					protocol.Encode(conn, protocol.TagStop, nil)
					inTurn = false
					silenceSince = time.Time{}
				} else {
					protocol.Encode(conn, protocol.TagAud0, pInput)
				}
			}
		}
		if pOutput != nil {
			playbackMu.Lock()
			n := copy(pOutput, playbackBytes)
			playbackBytes = playbackBytes[n:]
			if n < len(pOutput) {
				for i := n; i < len(pOutput); i++ {
					pOutput[i] = 0
				}
			}
			playbackMu.Unlock()
			if n > 0 {
				echo.RecordPlayed(pOutput[:n])
			}
		}
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer mctx.Uninit()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = channels
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = sampleRate

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		log.Fatal(err)
	}

	go readFrames(conn, &playbackMu, &playbackBytes)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("\nsatsim shutting down")
}

// readFrames decodes server frames until the connection closes or the
// server sends CLOS, queuing TTS0/BEEP payloads for playback.
func readFrames(conn net.Conn, playbackMu *sync.Mutex, playbackBytes *[]byte) {
	for {
		frame, err := protocol.Decode(conn)
		if err != nil {
			fmt.Printf("connection ended: %v\n", err)
			return
		}
		switch frame.Tag {
		case protocol.TagTts0, protocol.TagBeep:
			playbackMu.Lock()
			*playbackBytes = append(*playbackBytes, frame.Payload...)
			playbackMu.Unlock()
		case protocol.TagRdy0:
			fmt.Println("[ready]")
		case protocol.TagClos:
			fmt.Println("[server closed the channel]")
			return
		default:
			fmt.Printf("[unhandled frame %s, %d bytes]\n", frame.Tag, len(frame.Payload))
		}
	}
}

// rmsOf computes the root-mean-square level of a little-endian int16 PCM
// buffer, normalized to [0, 1].
func rmsOf(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	var sum float64
	n := len(pcm) / 2
	for i := 0; i < n; i++ {
		sample := int16(pcm[i*2]) | (int16(pcm[i*2+1]) << 8)
		f := float64(sample) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(n))
}
