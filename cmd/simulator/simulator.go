package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/queue"
)

// SensorProfile describes one simulated sensor.
type SensorProfile struct {
	SensorID           string  `json:"sensor_id"`
	Location           string  `json:"location"`
	BaseTemperature    float64 `json:"base_temperature"`
	BaseHumidity       float64 `json:"base_humidity"`
	TempVariance       float64 `json:"temp_variance"`
	HumidityVariance   float64 `json:"humidity_variance"`
	AnomalyProbability float64 `json:"anomaly_probability"`
}

// defaultFleet mirrors a small mixed deployment: offices, warehouses and two
// climate-controlled rooms that should rarely go anomalous.
func defaultFleet() []SensorProfile {
	return []SensorProfile{
		{SensorID: "temp_001", Location: "Building_A_Floor_1", BaseTemperature: 22.0, BaseHumidity: 45.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.02},
		{SensorID: "temp_002", Location: "Building_A_Floor_2", BaseTemperature: 21.0, BaseHumidity: 48.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.02},
		{SensorID: "temp_003", Location: "Building_B_Floor_1", BaseTemperature: 23.0, BaseHumidity: 42.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.02},
		{SensorID: "temp_004", Location: "Building_B_Floor_2", BaseTemperature: 20.0, BaseHumidity: 50.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.02},
		{SensorID: "temp_005", Location: "Warehouse_North", BaseTemperature: 18.0, BaseHumidity: 55.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.02},
		{SensorID: "temp_006", Location: "Warehouse_South", BaseTemperature: 19.0, BaseHumidity: 52.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.02},
		{SensorID: "temp_007", Location: "Data_Center", BaseTemperature: 16.0, BaseHumidity: 30.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.01},
		{SensorID: "temp_008", Location: "Server_Room", BaseTemperature: 15.0, BaseHumidity: 25.0, TempVariance: 5.0, HumidityVariance: 15.0, AnomalyProbability: 0.01},
	}
}

// Reading is the wire format published to the telemetry subject.
type Reading struct {
	SensorID    string  `json:"sensor_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Location    string  `json:"location"`
	Timestamp   string  `json:"timestamp"`
}

// Simulator publishes synthetic sensor readings at a fixed rate.
type Simulator struct {
	queue   queue.MessageQueue
	subject string
	sensors []SensorProfile
	rng     *rand.Rand
	log     *zap.Logger

	// now is swapped out in tests to pin the diurnal adjustment.
	now func() time.Time

	mu          sync.Mutex
	totalSent   int
	totalFailed int
	startedAt   time.Time
}

func NewSimulator(q queue.MessageQueue, subject string, sensors []SensorProfile, seed int64, log *zap.Logger) *Simulator {
	if len(sensors) == 0 {
		sensors = defaultFleet()
	}
	return &Simulator{
		queue:   q,
		subject: subject,
		sensors: sensors,
		rng:     rand.New(rand.NewSource(seed)),
		log:     log,
		now:     time.Now,
	}
}

// GenerateReading produces one reading for the given sensor: Gaussian noise
// around the baseline, a diurnal temperature swing peaking at 14:00, and an
// occasional injected anomaly.
func (s *Simulator) GenerateReading(sensor SensorProfile) Reading {
	now := s.now()

	temperature := sensor.BaseTemperature + s.rng.NormFloat64()*sensor.TempVariance
	humidity := sensor.BaseHumidity + s.rng.NormFloat64()*sensor.HumidityVariance
	humidity = math.Max(0, math.Min(100, humidity))

	hour := float64(now.Hour())
	temperature += 3 * math.Sin((hour-14)*math.Pi/12)

	if s.rng.Float64() < sensor.AnomalyProbability {
		if s.rng.Intn(2) == 0 {
			temperature += 15 + s.rng.Float64()*10
		} else {
			temperature -= 10 + s.rng.Float64()*10
		}
		s.log.Debug("Injected anomaly",
			zap.String("sensor_id", sensor.SensorID),
			zap.Float64("temperature", temperature),
		)
	}

	return Reading{
		SensorID:    sensor.SensorID,
		Temperature: math.Round(temperature*100) / 100,
		Humidity:    math.Round(humidity*100) / 100,
		Location:    sensor.Location,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
}

// GenerateBatch produces batchSize readings from randomly chosen sensors.
func (s *Simulator) GenerateBatch(batchSize int) []Reading {
	batch := make([]Reading, batchSize)
	for i := range batch {
		sensor := s.sensors[s.rng.Intn(len(s.sensors))]
		batch[i] = s.GenerateReading(sensor)
	}
	return batch
}

// Run publishes batches until ctx is cancelled or the duration elapses. A
// zero duration runs until cancellation.
func (s *Simulator) Run(ctx context.Context, rate float64, batchSize int, duration time.Duration) {
	if rate <= 0 {
		rate = 10
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	interval := time.Duration(float64(batchSize) / rate * float64(time.Second))

	s.mu.Lock()
	s.startedAt = s.now()
	s.mu.Unlock()

	s.log.Info("Starting data generation",
		zap.Float64("rate", rate),
		zap.Int("batch_size", batchSize),
		zap.Duration("interval", interval),
	)

	var deadline <-chan time.Time
	if duration > 0 {
		deadline = time.After(duration)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.publishBatch(s.GenerateBatch(batchSize))

		select {
		case <-ctx.Done():
			s.log.Info("Data generation stopped")
			return
		case <-deadline:
			s.log.Info("Duration limit reached, stopping")
			return
		case <-ticker.C:
		}
	}
}

func (s *Simulator) publishBatch(batch []Reading) {
	sent, failed := 0, 0
	for _, reading := range batch {
		data, err := json.Marshal(reading)
		if err != nil {
			failed++
			continue
		}
		if err := s.queue.Publish(s.subject, data); err != nil {
			failed++
			s.log.Error("Failed to publish reading",
				zap.String("sensor_id", reading.SensorID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	s.mu.Lock()
	s.totalSent += sent
	s.totalFailed += failed
	s.mu.Unlock()
}

// PrintStats writes a summary of the run to stdout.
func (s *Simulator) PrintStats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.now().Sub(s.startedAt).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}
	total := s.totalSent + s.totalFailed
	successRate := 100.0
	if total > 0 {
		successRate = float64(s.totalSent) / float64(total) * 100
	}

	fmt.Println("=== CloudPulse Data Generator Stats ===")
	fmt.Printf("Running time: %.1f seconds\n", elapsed)
	fmt.Printf("Records sent: %d\n", s.totalSent)
	fmt.Printf("Errors: %d\n", s.totalFailed)
	fmt.Printf("Success rate: %.1f%%\n", successRate)
	fmt.Printf("Average rate: %.2f records/second\n", float64(s.totalSent)/elapsed)
}
