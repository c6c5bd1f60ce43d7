// Command status prints the grow-light controller's state from its status API.
//
//	GRPC_ADDR=pi.local:50051 status            # controller snapshot
//	GRPC_ADDR=pi.local:50051 status current    # latest reading
//	GRPC_ADDR=pi.local:50051 status history 6h # readings of the last 6 hours
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	grpcAdapter "github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/grpc"
	"github.com/quentinrf/plant-monitor/services/grow-light/pkg/tlsconfig"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := os.Getenv("GRPC_ADDR")
	if addr == "" {
		addr = "localhost:50051"
	}

	creds := insecure.NewCredentials()
	if cert := os.Getenv("TLS_CERT"); cert != "" {
		tlsCfg, err := tlsconfig.LoadClientTLS(cert, os.Getenv("TLS_KEY"), os.Getenv("TLS_CA"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load TLS config")
		}
		creds = credentials.NewTLS(tlsCfg)
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("failed to dial")
	}
	defer conn.Close()

	client := grpcAdapter.NewStatusClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := "status"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var resp *structpb.Struct
	switch cmd {
	case "status":
		resp, err = client.GetStatus(ctx)
	case "current":
		resp, err = client.GetCurrentLight(ctx)
	case "history":
		window := 24 * time.Hour
		if len(os.Args) > 2 {
			if window, err = time.ParseDuration(os.Args[2]); err != nil {
				log.Fatal().Err(err).Msg("invalid history window")
			}
		}
		end := time.Now()
		resp, err = client.GetHistory(ctx, end.Add(-window), end)
	default:
		log.Fatal().Str("command", cmd).Msg("unknown command, want status, current or history")
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("request failed")
	}

	out, err := protojson.MarshalOptions{Multiline: true}.Marshal(resp)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode response")
	}
	os.Stdout.Write(append(out, '\n'))
}
