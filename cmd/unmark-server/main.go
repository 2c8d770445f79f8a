package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	watermark "github.com/jonatw/pdf-watermark-remove"
	"github.com/jonatw/pdf-watermark-remove/logger"
	"github.com/jonatw/pdf-watermark-remove/pdfdoc"
	"github.com/jonatw/pdf-watermark-remove/server"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	hostPtr := flag.String("host", "", "Listen address (overrides PDF_WATERMARK_SERVER_HOST)")
	portPtr := flag.Int("port", 0, "Listen port (overrides PDF_WATERMARK_SERVER_PORT)")
	configPtr := flag.String("config", "", "Path to YAML configuration file")
	verbosePtr := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbosePtr {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	logger.SetLogger(engineLog(zl))

	engineCfg, err := watermark.LoadConfig(*configPtr)
	if err != nil {
		zl.Fatal().Err(err).Msg("failed to load configuration")
	}
	engineCfg.Logger = engineLog(zl)

	srvCfg := server.NewDefaultConfig()
	if v := os.Getenv("PDF_WATERMARK_SERVER_HOST"); v != "" {
		srvCfg.Host = v
	}
	if v := os.Getenv("PDF_WATERMARK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			srvCfg.Port = port
		} else {
			zl.Error().Str("value", v).Msg("ignoring invalid PDF_WATERMARK_SERVER_PORT")
		}
	}
	if v := os.Getenv("PDF_WATERMARK_TEMP_DIR"); v != "" {
		srvCfg.TempDir = v
	}
	if *hostPtr != "" {
		srvCfg.Host = *hostPtr
	}
	if *portPtr != 0 {
		srvCfg.Port = *portPtr
	}

	remover := watermark.NewRemover(engineCfg)
	srv := server.New(srvCfg, remover, pdfdoc.NewOpener())

	if !*verbosePtr {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	stop := make(chan struct{})
	defer close(stop)
	srv.SetupRoutes(router, stop)

	addr := fmt.Sprintf("%s:%d", srvCfg.Host, srvCfg.Port)
	zl.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		zl.Fatal().Err(err).Msg("server stopped")
	}
}

// engineLog adapts a zerolog logger to the engine's LogFunc.
func engineLog(zl zerolog.Logger) logger.LogFunc {
	return func(level logger.LogLevel, msg string, keyvals ...interface{}) {
		var ev *zerolog.Event
		switch level {
		case logger.DebugLevel:
			ev = zl.Debug()
		case logger.ErrorLevel:
			ev = zl.Error()
		default:
			ev = zl.Info()
		}
		for i := 0; i+1 < len(keyvals); i += 2 {
			key, ok := keyvals[i].(string)
			if !ok {
				continue
			}
			ev = ev.Interface(key, keyvals[i+1])
		}
		ev.Msg(msg)
	}
}
