package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/queue"
)

var (
	driver    = flag.String("driver", "nats", "Queue driver (nats or rabbitmq)")
	queueURL  = flag.String("queue", "nats://localhost:4222", "Message queue URL")
	subject   = flag.String("subject", "telemetry.readings", "Subject to publish readings to")
	rate      = flag.Float64("rate", 10.0, "Records per second")
	batchSize = flag.Int("batch-size", 10, "Batch size")
	duration  = flag.Duration("duration", 0, "Run duration (unlimited if zero)")
	seed      = flag.Int64("seed", 0, "Random seed (current time if zero)")
	testMode  = flag.Bool("test", false, "Generate sample data without sending")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	if *testMode {
		sim := NewSimulator(nil, *subject, nil, rngSeed, logger)
		fmt.Println("Sample sensor data:")
		for _, reading := range sim.GenerateBatch(5) {
			data, _ := json.MarshalIndent(reading, "", "  ")
			fmt.Println(string(data))
		}
		return
	}

	// Connect to the message queue
	mq, err := queue.New(*driver, *queueURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer mq.Close()

	sim := NewSimulator(mq, *subject, nil, rngSeed, logger)

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		cancel()
	}()

	fmt.Println("CloudPulse Data Generator started")
	fmt.Printf("  Queue: %s (%s)\n", *queueURL, *driver)
	fmt.Printf("  Subject: %s\n", *subject)
	fmt.Printf("  Rate: %.1f records/second\n", *rate)
	fmt.Println("\nPress Ctrl+C to stop")

	sim.Run(ctx, *rate, *batchSize, *duration)
	sim.PrintStats()
}
