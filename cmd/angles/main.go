package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/banshee-data/angle.report/internal/alert"
	"github.com/banshee-data/angle.report/internal/angles"
	"github.com/banshee-data/angle.report/internal/api"
	"github.com/banshee-data/angle.report/internal/chart"
	"github.com/banshee-data/angle.report/internal/config"
	"github.com/banshee-data/angle.report/internal/db"
	"github.com/banshee-data/angle.report/internal/mailbox"
	"github.com/banshee-data/angle.report/internal/pose"
	"github.com/banshee-data/angle.report/internal/posefeed"
	"github.com/banshee-data/angle.report/internal/session"
	"github.com/banshee-data/angle.report/internal/stream"
	"github.com/banshee-data/angle.report/internal/timeutil"
	"github.com/banshee-data/angle.report/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "HTTP listen address")
	grpcListen  = flag.String("grpc-listen", ":50051", "gRPC listen address for the angle stream (empty disables)")
	port        = flag.String("port", "/dev/ttyUSB0", "Serial port of the pose estimator (ignored in dev or pcap mode)")
	baud        = flag.Int("baud", posefeed.DefaultBaudRate, "Serial baud rate")
	devMode     = flag.Bool("dev", false, "Replay pose batches from the fixtures file instead of a serial port")
	fixtures    = flag.String("fixtures", "fixtures.txt", "Fixtures file used in dev mode")
	pcapFile    = flag.String("pcap", "", "Replay pose batches from UDP datagrams in a pcap capture")
	pcapPort    = flag.Uint("pcap-port", 5005, "UDP destination port to replay from the capture (0 for any)")
	pcapSpeed   = flag.Float64("pcap-speed", 1.0, "Replay speed multiplier for -pcap (2 replays twice as fast)")
	dbPath      = flag.String("db", "angles.db", "Path to the sqlite database")
	disableDB   = flag.Bool("disable-db", false, "Do not persist samples")
	configPath  = flag.String("config", "", "Tuning config JSON (empty uses built-in defaults, see "+config.DefaultConfigPath+")")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func thresholds(tuning *config.TuningConfig) angles.Thresholds {
	return angles.Thresholds{
		MinPoseScore: tuning.GetMinPoseScore(),
		MinPartScore: tuning.GetMinPartScore(),
	}
}

// openFeed picks the batch source: fixtures replay, pcap replay (no live
// link) or the serial estimator.
func openFeed(tuning *config.TuningConfig) (posefeed.Feed, error) {
	switch {
	case *devMode:
		lines, err := posefeed.LoadFixtures(*fixtures)
		if err != nil {
			return nil, err
		}
		return posefeed.NewReplayMux(lines, timeutil.RealClock{}, tuning.GetReplayInterval()), nil
	case *pcapFile != "":
		return posefeed.NewDisabled(), nil
	default:
		return posefeed.NewSerialMux(*port, posefeed.PortOptions{BaudRate: *baud})
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("angles %s (%s) built %s\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *pcapPort > 65535 {
		log.Fatalf("invalid pcap port %d", *pcapPort)
	}
	if *pcapSpeed <= 0 {
		log.Fatalf("pcap speed must be positive, got %v", *pcapSpeed)
	}

	tuning, err := loadTuning(*configPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	feed, err := openFeed(tuning)
	if err != nil {
		log.Fatalf("failed to open pose feed: %v", err)
	}
	defer feed.Close()

	if err := feed.Initialize(tuning.GetEstimator()); err != nil {
		log.Fatalf("failed to initialize estimator: %v", err)
	}

	warnings := alert.NewBroadcaster()
	defer warnings.Close()

	series := chart.NewSeries("Left Elbow", "green")
	handler := session.NewHandler()
	handler.Thresholds = thresholds(tuning)
	handler.Chart = series
	handler.Notifier = alert.NewDebounced(
		alert.Multi{alert.LogNotifier{}, warnings},
		timeutil.RealClock{},
		tuning.GetWarningDebounce(),
	)

	var store *db.DB
	if !*disableDB {
		store, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()

		id, err := store.StartSession(context.Background(), handler.Thresholds)
		if err != nil {
			log.Fatalf("failed to start session: %v", err)
		}
		log.Printf("recording session %s to %s", id, *dbPath)
		handler.Store = store
	}

	slot := mailbox.New[[]pose.Detection]()
	decoder := posefeed.NewDecoder(feed, slot)

	// Create a wait group for the HTTP server, gRPC server, feed and pipeline routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the estimator link
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := feed.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor pose feed: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// decode estimator lines into the latest-batch mailbox
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := decoder.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("decoder stopped: %v", err)
		}
		log.Print("decoder routine terminated")
	}()

	if *pcapFile != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := posefeed.ReplayPcapFile(ctx, *pcapFile, posefeed.ReplayOptions{
				UDPPort:         uint16(*pcapPort),
				Clock:           timeutil.RealClock{},
				SpeedMultiplier: *pcapSpeed,
			}, decoder)
			if err != nil && err != context.Canceled {
				log.Printf("pcap replay failed after %d datagrams: %v", n, err)
				return
			}
			log.Printf("replayed %d datagrams from %s", n, *pcapFile)
		}()
	}

	// consume the mailbox; the handler is the only writer of session state
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := handler.Run(ctx, slot); err != nil && err != context.Canceled {
			log.Printf("session handler stopped: %v", err)
		}
		log.Print("session routine terminated")
	}()

	if *grpcListen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()

			lis, err := net.Listen("tcp", *grpcListen)
			if err != nil {
				log.Printf("[gRPC] failed to listen on %s: %v", *grpcListen, err)
				return
			}
			srv := grpc.NewServer()
			stream.RegisterAngleStreamServer(srv, stream.NewServer(handler.State))

			go func() {
				log.Printf("[gRPC] serving %s on %s", stream.ServiceName, lis.Addr())
				if err := srv.Serve(lis); err != nil {
					log.Printf("[gRPC] server error: %v", err)
				}
			}()

			<-ctx.Done()
			log.Println("[gRPC] shutting down...")

			done := make(chan struct{})
			go func() {
				srv.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(1 * time.Second):
				// watchers hold streams open until their context ends
				srv.Stop()
			}
			log.Printf("gRPC server routine stopped")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		opts := api.Options{
			Handler:  handler,
			Series:   series,
			Warnings: warnings,
			Mailbox:  slot,
			Feed:     decoder,
			Tuning:   tuning,
		}
		if store != nil {
			opts.Store = store
		}
		mux := api.NewServer(opts).ServeMux()

		// admin debugging routes (accessible only locally or over Tailscale)
		feed.AttachAdminRoutes(mux)
		if store != nil {
			store.AttachAdminRoutes(mux)
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.AccessLog(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// ends open warning streams
		warnings.Close()

		// Create a shutdown context with a shorter timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	slot.Close()
	log.Printf("Graceful shutdown complete")
}
