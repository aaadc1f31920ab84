// Command server runs the voice assistant's TCP frame listener alongside its
// HTTP chat and admin surfaces, following cmd/agent's provider-selection
// switch but wired for many concurrent connections instead of one local mic.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/config"
	"github.com/aurelio-voice/aurelio-server/internal/convloop"
	"github.com/aurelio-voice/aurelio-server/internal/httpapi"
	"github.com/aurelio-voice/aurelio-server/internal/knowledge"
	"github.com/aurelio-voice/aurelio-server/internal/logging"
	"github.com/aurelio-voice/aurelio-server/internal/promptx"
	"github.com/aurelio-voice/aurelio-server/internal/providers/homeassistant"
	"github.com/aurelio-voice/aurelio-server/internal/providers/llm"
	"github.com/aurelio-voice/aurelio-server/internal/providers/search"
	"github.com/aurelio-voice/aurelio-server/internal/providers/stt"
	"github.com/aurelio-voice/aurelio-server/internal/providers/tts"
	"github.com/aurelio-voice/aurelio-server/internal/providers/vad"
	"github.com/aurelio-voice/aurelio-server/internal/providers/weather"
	"github.com/aurelio-voice/aurelio-server/internal/session"
	"github.com/aurelio-voice/aurelio-server/internal/tools"
	"github.com/aurelio-voice/aurelio-server/internal/voice"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.NewZerologLogger("server", os.Getenv("LOG_PRETTY") == "1")

	transcriber := buildTranscriber(cfg)
	model := buildModel(cfg)
	synth := tts.NewLokutorSynthesizer(cfg.LokutorAPIKey, cfg.LokutorVoice, cfg.LokutorLanguage)

	know := knowledge.NewTextFile(cfg.KnowledgePath)
	behavior := knowledge.NewBehaviorStore(cfg.BehaviorPath)
	baseInstructions := knowledge.NewTextFile("base_instructions.txt")
	voiceSub := knowledge.NewTextFile("voice_instructions.txt")

	var haDigester promptx.HomeAutomationDigester
	var haClient *homeassistant.Client
	if cfg.HomeAssistantToken != "" {
		haClient = homeassistant.New(os.Getenv("HOME_ASSISTANT_URL"), cfg.HomeAssistantToken)
		haDigester = haClient
	}

	reg := tools.NewRegistry()
	reg.Register(tools.NewUpdateBehaviourSpec(behavior))
	reg.Register(tools.NewRemoveBehaviourSpec(behavior))
	reg.Register(tools.NewListBehaviourSpec(behavior))
	reg.Register(tools.NewPerformMathOperationSpec())
	reg.Register(tools.NewGetCurrentTimeSpec())
	reg.Register(tools.NewOpenWebsiteSpec(http.DefaultClient))
	reg.Register(tools.NewPerformSearchSpec(search.New()))
	reg.Register(tools.NewCheckWeatherSpec(weather.New(cfg.OpenWeatherMapKey), cfg.DefaultWeatherCity))
	if haClient != nil {
		reg.Register(tools.NewHomeAutomationActionSpec(haClient))
	}

	// voiceReg carries everything reg does, plus close_voice_channel, which
	// is only ever meaningful on a voice connection.
	voiceReg := tools.NewRegistry()
	for _, spec := range reg.Specs() {
		voiceReg.Register(spec)
	}
	voiceReg.Register(tools.NewCloseVoiceChannelSpec())

	assembler := promptx.NewAssembler(baseInstructions, voiceSub, know, behavior, haDigester, cfg.HADigestTTL, reg, voiceReg)
	dispatcher := tools.NewDispatcher(voiceReg)
	loop := convloop.New(model, assembler, dispatcher, logger)

	sessions := session.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.ListenAddr, err)
	}
	logger.Info("voice listener started", "addr", cfg.ListenAddr)

	go acceptLoop(ctx, listener, vad.NewRMSVAD(cfg.VADThreshold), transcriber, synth, loop, cfg, sessions, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/chat", httpapi.NewChatHandler(sessions, loop, logger))
	httpapi.NewAdminHandler(know, sessions, cfg.AdminBearerToken).Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("http server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	awaitShutdown(cancel, listener, httpServer, logger)
}

func acceptLoop(ctx context.Context, listener net.Listener, sharedVAD *vad.RMSVAD, transcriber voice.Transcriber, synth voice.Synthesizer, conv voice.Conversation, cfg config.Config, sessions *session.Store, logger logging.Logger) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Error("accept failed", "error", err.Error())
				continue
			}
		}
		go func(c net.Conn) {
			defer c.Close()

			sess := session.New(sessionIDFromAddr(c.RemoteAddr()))
			connVAD := sharedVAD.Clone()
			voiceConn := voice.NewConnection(c, sess, connVAD, transcriber, synth, conv, cfg.CloseChannelPhrase, cfg.VADTimeout, sessions, logger)
			if err := voiceConn.Run(ctx); err != nil {
				logger.Error("connection closed with error", "error", err.Error())
			}
		}(conn)
	}
}

func sessionIDFromAddr(addr net.Addr) string {
	if addr == nil {
		return uuid.NewString()
	}
	return addr.String()
}

func awaitShutdown(cancel context.CancelFunc, listener net.Listener, httpServer *http.Server, logger logging.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()
	listener.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err.Error())
	}
}

func buildTranscriber(cfg config.Config) voice.Transcriber {
	switch cfg.STTProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY must be set for openai STT")
		}
		return stt.NewOpenAITranscriber(cfg.OpenAIAPIKey, cfg.OpenAISTTModel)
	case "deepgram":
		if cfg.DeepgramAPIKey == "" {
			log.Fatal("DEEPGRAM_API_KEY must be set for deepgram STT")
		}
		return stt.NewDeepgramTranscriber(cfg.DeepgramAPIKey)
	case "assemblyai":
		if cfg.AssemblyAIAPIKey == "" {
			log.Fatal("ASSEMBLYAI_API_KEY must be set for assemblyai STT")
		}
		return stt.NewAssemblyAITranscriber(cfg.AssemblyAIAPIKey)
	case "groq":
		fallthrough
	default:
		if cfg.GroqAPIKey == "" {
			log.Fatal("GROQ_API_KEY must be set for groq STT")
		}
		return stt.NewGroqTranscriber(cfg.GroqAPIKey, cfg.GroqSTTModel)
	}
}

func buildModel(cfg config.Config) voice.ModelClient {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY must be set for openai LLM")
		}
		return llm.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAILLMModel)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatal("ANTHROPIC_API_KEY must be set for anthropic LLM")
		}
		return llm.NewAnthropicModel(cfg.AnthropicAPIKey, cfg.AnthropicLLMModel)
	case "google":
		if cfg.GoogleAPIKey == "" {
			log.Fatal("GOOGLE_API_KEY must be set for google LLM")
		}
		return llm.NewGoogleModel(cfg.GoogleAPIKey, cfg.GoogleLLMModel)
	case "groq":
		fallthrough
	default:
		if cfg.GroqAPIKey == "" {
			log.Fatal("GROQ_API_KEY must be set for groq LLM")
		}
		return llm.NewGroqModel(cfg.GroqAPIKey, "llama-3.3-70b-versatile")
	}
}
