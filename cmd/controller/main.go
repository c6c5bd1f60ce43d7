package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/bh1750"
	grpcAdapter "github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/grpc"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/influx"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/memory"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/mock"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/mqtt"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/neopixel"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/relay"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/sensors"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/sqlite"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/telemetry"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/config"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/control"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/metrics"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/ports"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/sun"
	"github.com/quentinrf/plant-monitor/services/grow-light/pkg/tlsconfig"
)

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	env := loadConfig()
	zerolog.SetGlobalLevel(env.LogLevel)

	log.Info().Msg("starting grow-light controller")

	settings, err := config.LoadSettings(env.SettingsFile)
	if err != nil {
		log.Fatal().Err(err).Str("settings_file", env.SettingsFile).Msg("failed to load settings")
	}
	plant, err := config.LoadPlant(env.PlantConfigFile, settings.PlantType)
	if err != nil {
		log.Fatal().Err(err).Str("plant_config_file", env.PlantConfigFile).Msg("failed to load plant")
	}
	log.Info().
		Str("plant", plant.Name()).
		Float64("required_lux_hours", plant.RequiredDose()).
		Dur("max_sunlight", plant.MaxSunlightLength()).
		Dur("rest", plant.RestTime()).
		Msg("loaded plant")

	loc, _ := settings.Location()
	schedule, err := sun.New(*settings.Latitude, *settings.Longitude, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid location")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Closed last: telemetry outlives everything that publishes to it.
	sink := openSinks(env, plant.Name())
	if sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close telemetry")
			}
		}()
	}

	// Initialize repository
	var repo domain.ReadingRepository
	switch env.RepoType {
	case "sqlite":
		r, err := sqlite.NewReadingRepository(env.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("db_path", env.DBPath).Msg("failed to open SQLite database")
		}
		defer r.Close()
		repo = r
		log.Info().Str("db_path", env.DBPath).Msg("initialized SQLite repository")
	default:
		r := memory.NewReadingRepository()
		defer r.Close()
		repo = r
		log.Info().Msg("initialized in-memory repository")
	}

	// Initialize devices
	if !env.Simulate {
		if _, err := host.Init(); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize periph host drivers")
		}
	}

	sensor, err := openSensor(env, settings)
	if err != nil {
		log.Fatal().Err(err).Str("kind", string(domain.Classify(err))).Msg("failed to create light sensor")
	}
	defer sensor.Close()
	if err := sensor.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Str("kind", string(domain.Classify(err))).Msg("failed to initialize light sensor")
	}
	defer func() {
		// The root context is gone by now.
		if err := sensor.PowerOff(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to power off light sensor")
		}
	}()

	led, releaseLED, err := openLED(env, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open grow light")
	}
	defer func() {
		if err := releaseLED(); err != nil {
			log.Warn().Err(err).Msg("failed to release grow light")
		}
	}()

	collector := metrics.New()
	recorder := ports.NewRecorder(repo, sink, env.Retention)
	loop := control.New(sensor, led, plant, schedule, recorder, control.Config{
		Interval: time.Duration(settings.PollInterval),
		Window:   time.Duration(settings.Window),
		Mode:     settings.Mode(),
		Fade:     settings.Fade(),
	}, control.WithMetrics(collector))

	if env.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              env.MetricsAddr,
			Handler:           collector.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", env.MetricsAddr).Msg("metrics server listening")
	}

	if env.GRPCPort != "" {
		grpcServer := newGRPCServer(env)
		grpcAdapter.RegisterStatusServer(grpcServer, grpcAdapter.NewStatusHandler(repo, loop))

		listener, err := net.Listen("tcp", fmt.Sprintf(":%s", env.GRPCPort))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to listen")
		}
		log.Info().Str("port", env.GRPCPort).Msg("gRPC server listening")

		go func() {
			if err := grpcServer.Serve(listener); err != nil {
				log.Error().Err(err).Msg("gRPC server failed")
			}
		}()
		defer grpcServer.GracefulStop()
	}

	// Blocks until SIGINT/SIGTERM; the light is off when it returns.
	loop.Run(ctx)

	log.Info().Msg("shutting down")
}

func newGRPCServer(env Config) *grpc.Server {
	var serverOpts []grpc.ServerOption
	if env.TLSCert != "" {
		tlsCfg, err := tlsconfig.LoadServerTLS(env.TLSCert, env.TLSKey, env.TLSCA)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load TLS config")
		}
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsCfg)))
		log.Info().Msg("mTLS enabled")
	} else {
		log.Warn().Msg("TLS_CERT not set, status API runs without TLS")
	}
	return grpc.NewServer(serverOpts...)
}

func openSensor(env Config, s *config.Settings) (ports.LightSensor, error) {
	if env.Simulate {
		log.Warn().Msg("SIMULATE set, using fake light sensor")
		return mock.NewFakeSensor(500.0, 100.0), nil // 500±100 lux (indoor lighting)
	}
	return sensors.Create(s.SensorType, sensors.Options{
		Bus: bh1750.RegistryOpener(s.I2CBus),
		BH1750: &bh1750.Opts{
			Addr:            s.I2CAddress,
			Calibration:     s.Calibration,
			MeasurementTime: s.MeasurementTime,
		},
		Addr: s.I2CAddress,
	})
}

// openLED returns the configured grow light and a func that halts it and
// releases its port.
func openLED(env Config, s *config.Settings) (ports.LEDController, func() error, error) {
	if env.Simulate {
		l := relay.New(&gpiotest.Pin{N: "SIM", Num: 18}, s.LEDActiveLow)
		return l, l.Halt, nil
	}

	switch s.LEDDriver {
	case config.DriverNeoPixel:
		port, err := spireg.Open(s.SPIPort)
		if err != nil {
			return nil, nil, &domain.TransportError{Op: "open_spi", Err: err}
		}
		strip, err := neopixel.NewSPI(port, s.LEDCount)
		if err != nil {
			port.Close()
			return nil, nil, err
		}
		log.Info().Str("port", port.String()).Int("pixels", s.LEDCount).Msg("opened LED strip")
		return strip, func() error {
			return errors.Join(strip.Halt(), port.Close())
		}, nil

	default:
		l, err := relay.Open(s.LEDPin, s.LEDActiveLow)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("pin", s.LEDPin).Msg("opened relay")
		return l, l.Halt, nil
	}
}

// openSinks connects the configured telemetry sinks, each behind its own
// breaker. It returns nil when none are configured.
func openSinks(env Config, plant string) ports.TelemetrySink {
	var sinks telemetry.Fanout

	if env.MQTT.Broker != "" {
		s, err := mqtt.Connect(env.MQTT, plant)
		if err != nil {
			log.Error().Err(err).Msg("mqtt telemetry disabled")
		} else {
			sinks = append(sinks, telemetry.NewBreaker("mqtt", s, telemetry.BreakerSettings{}))
		}
	}

	if env.Influx.URL != "" {
		s, err := influx.New(env.Influx, plant)
		if err != nil {
			log.Error().Err(err).Msg("influx telemetry disabled")
		} else {
			sinks = append(sinks, telemetry.NewBreaker("influx", s, telemetry.BreakerSettings{}))
			log.Info().Str("url", env.Influx.URL).Str("bucket", env.Influx.Bucket).Msg("writing telemetry to influx")
		}
	}

	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

// Config holds process configuration from the environment. Controller
// behaviour lives in the settings and plant files.
type Config struct {
	SettingsFile    string
	PlantConfigFile string
	LogLevel        zerolog.Level
	RepoType        string // "memory" | "sqlite"
	DBPath          string // SQLite database file path (used when RepoType=sqlite)
	Retention       time.Duration
	GRPCPort        string // empty disables the status API
	TLSCert         string // path to this service's certificate
	TLSKey          string // path to this service's private key
	TLSCA           string // path to the CA certificate
	MetricsAddr     string // empty disables metrics
	Simulate        bool   // fake sensor and pin, no hardware
	MQTT            mqtt.Config
	Influx          influx.Config
}

// loadConfig reads configuration from environment variables
func loadConfig() Config {
	settingsFile := os.Getenv("SETTINGS_FILE")
	if settingsFile == "" {
		settingsFile = "config/settings.json"
	}

	plantFile := os.Getenv("PLANT_CONFIG_FILE")
	if plantFile == "" {
		plantFile = "plants/plant_config.json"
	}

	level := zerolog.InfoLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}

	repoType := os.Getenv("REPO_TYPE")
	if repoType == "" {
		repoType = "memory"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./growlight.db"
	}

	retention := ports.DefaultRetention
	if s := os.Getenv("RETENTION"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			retention = d
		}
	}

	// Unset selects the default port; set but empty disables the API.
	grpcPort, ok := os.LookupEnv("GRPC_PORT")
	if !ok {
		grpcPort = "50051"
	}

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" {
		clientID = "grow-light"
	}

	return Config{
		SettingsFile:    settingsFile,
		PlantConfigFile: plantFile,
		LogLevel:        level,
		RepoType:        repoType,
		DBPath:          dbPath,
		Retention:       retention,
		GRPCPort:        grpcPort,
		TLSCert:         os.Getenv("TLS_CERT"),
		TLSKey:          os.Getenv("TLS_KEY"),
		TLSCA:           os.Getenv("TLS_CA"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		Simulate:        os.Getenv("SIMULATE") == "true",
		MQTT: mqtt.Config{
			Broker:      os.Getenv("MQTT_BROKER"),
			ClientID:    clientID,
			TopicPrefix: os.Getenv("MQTT_TOPIC_PREFIX"),
			User:        os.Getenv("MQTT_USER"),
			Password:    os.Getenv("MQTT_PASSWORD"),
		},
		Influx: influx.Config{
			URL:    os.Getenv("INFLUX_URL"),
			Token:  os.Getenv("INFLUX_TOKEN"),
			Org:    os.Getenv("INFLUX_ORG"),
			Bucket: os.Getenv("INFLUX_BUCKET"),
		},
	}
}
