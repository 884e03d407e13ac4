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

	"github.com/IBM/sarama"
	lfgv1 "github.com/vogiaan1904/realm-lfg/api/lfg/v1"
	"github.com/vogiaan1904/realm-lfg/config"
	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	grpcSvc "github.com/vogiaan1904/realm-lfg/internal/delivery/grpc"
	httpSvc "github.com/vogiaan1904/realm-lfg/internal/delivery/http"
	"github.com/vogiaan1904/realm-lfg/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/realm-lfg/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/realm-lfg/internal/events"
	"github.com/vogiaan1904/realm-lfg/internal/infra/instance"
	"github.com/vogiaan1904/realm-lfg/internal/infra/redis"
	"github.com/vogiaan1904/realm-lfg/internal/lfg"
	repo "github.com/vogiaan1904/realm-lfg/internal/repository/redis"
	"github.com/vogiaan1904/realm-lfg/internal/service"
	"github.com/vogiaan1904/realm-lfg/pkg/clock"
	pkgGrpc "github.com/vogiaan1904/realm-lfg/pkg/grpc"
	pkgKafka "github.com/vogiaan1904/realm-lfg/pkg/kafka"
	pkgLog "github.com/vogiaan1904/realm-lfg/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})
	defer l.Sync()

	cat, err := catalog.Load(cfg.Lfg.CatalogPath)
	if err != nil {
		l.Fatalf(ctx, "Failed to load dungeon catalog: %v", err)
	}
	l.Infof(ctx, "Loaded %d dungeons", cat.Len())

	// Update fan-out. The dispatcher outlives the engine so the last
	// updates still reach every subscriber.
	dispatcher := events.NewDispatcher(l, cfg.Lfg.EventBuffer)
	hub := events.NewHub(cfg.Lfg.StreamBuffer)
	dispatcher.Subscribe("streams", hub.Handle)

	var mirror repo.TicketRepository
	if cfg.Redis.Enabled {
		redisCli, err := redis.Connect(ctx, cfg.Redis, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
		}
		defer redis.Disconnect(context.WithoutCancel(ctx), redisCli, l)

		mirror = repo.NewRedisTicketRepository(redisCli, cfg.Redis.TicketTTL, l)
		dispatcher.Subscribe("redis-mirror", mirror.Apply)
	}

	var kafkaConsGr sarama.ConsumerGroup
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(ctx, pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ConsumerGroupID,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		}, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod := producer.NewProducer(kafkaSyncProd, l)
		defer prod.Close()
		dispatcher.Subscribe("kafka", prod.HandleUpdate)

		kafkaConsGr, err = pkgKafka.NewConsumer(ctx, pkgKafka.ConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.ConsumerGroupID,
			ClientID: cfg.Kafka.ConsumerGroupID,
		}, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
	}

	// Instance binder client
	binderConn, binderClose, err := pkgGrpc.NewClient(cfg.Microservice.InstanceBinder)
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize instance binder client: %v", err)
	}
	defer binderClose()
	binder := instance.NewBinderClient(binderConn, l)

	clk := clock.Real()
	tokens := service.NewTokenService(cfg.JWT, clk, l)

	engine := lfg.New(lfg.Config{
		RoleCheckTimeout: cfg.Lfg.RoleCheckTimeout,
		ProposalTimeout:  cfg.Lfg.ProposalTimeout,
		BindTimeout:      cfg.Lfg.BindTimeout,
		BindRetryDelay:   cfg.Lfg.BindRetryDelay,
		ScanInterval:     cfg.Lfg.ScanInterval,
		MaxQueueTime:     cfg.Lfg.MaxQueueTime,
		MaxScanSteps:     cfg.Lfg.MaxScanSteps,
		MaxPartySize:     cfg.Lfg.MaxPartySize,
		ShutdownTimeout:  cfg.Lfg.ShutdownTimeout,
	}, cat, dispatcher, binder, tokens, l, lfg.WithClock(clk))

	lfgSvc := service.NewLfgService(engine, hub, tokens, mirror, clk, l)

	var kafkaCons *consumer.Consumer
	if kafkaConsGr != nil {
		kafkaCons = consumer.NewConsumer(kafkaConsGr, lfgSvc, l)
		defer kafkaCons.Close()
	}

	// gRPC server
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}
	gRpcSrv := grpc.NewServer()
	lfgv1.RegisterLfgServiceServer(gRpcSrv, grpcSvc.NewGrpcService(lfgSvc, l, cfg.Lfg.StreamBuffer))

	// HTTP server
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpSvc.NewRouter(httpSvc.NewHTTPHandler(lfgSvc, cat, l)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	dispatchDone := make(chan error, 1)
	go func() { dispatchDone <- dispatcher.Run(dispatchCtx) }()

	if err := engine.Start(ctx); err != nil {
		l.Fatalf(ctx, "Failed to start lfg engine: %v", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(gCtx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		return gRpcSrv.Serve(lnr)
	})

	g.Go(func() error {
		l.Infof(gCtx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if kafkaCons != nil {
		g.Go(func() error {
			return kafkaCons.Run(gCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		l.Info(gCtx, "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), cfg.Lfg.ShutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			l.Errorf(shutdownCtx, "Failed to shut down HTTP server: %v", err)
		}
		if err := engine.Stop(); err != nil {
			l.Errorf(shutdownCtx, "Failed to stop lfg engine: %v", err)
		}

		// Open update streams end only when their clients leave.
		stopped := make(chan struct{})
		go func() {
			gRpcSrv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			l.Warn(shutdownCtx, "gRPC graceful stop timed out, closing open streams")
			gRpcSrv.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server stopped with error: %v", err)
	}

	stopDispatch()
	if err := <-dispatchDone; err != nil {
		l.Errorf(context.Background(), "Dispatcher stopped with error: %v", err)
	}
	if n := dispatcher.Dropped(); n > 0 {
		l.Warnf(context.Background(), "%d updates were dropped", n)
	}

	l.Info(context.Background(), "Server exited")
}
