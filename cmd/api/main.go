package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shop-backend/internal/blob"
	"shop-backend/internal/catalog"
	"shop-backend/internal/config"
	"shop-backend/internal/httpx"
	kafkax "shop-backend/internal/kafka"
	"shop-backend/internal/mailer"
	"shop-backend/internal/orders"
	"shop-backend/internal/postgres"
	"shop-backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Blob storage
	blobs, err := blob.NewS3(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.S3PublicURL)
	if err != nil {
		log.Fatalf("blob storage: %v", err)
	}

	// Mail relay
	mail := mailer.NewSMTP(mailer.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		Sender:   cfg.SMTPSender,
		SSL:      cfg.SMTPSSL,
	})

	// Services & handlers
	catalogSvc := &catalog.Service{
		Store: &catalog.Repo{DB: db},
		Blobs: blobs,
		Redis: rdb,
	}
	orderSvc := &orders.Service{
		Store:       &orders.Repo{DB: db},
		Mail:        mail,
		Producer:    prod,
		Redis:       rdb,
		AdminEmail:  cfg.AdminEmail,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter()
	(&httpx.ProductsHandler{Svc: catalogSvc}).Register(router)
	httpx.NewOrdersHandler(orderSvc).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	prod.WaitClosed()
}
