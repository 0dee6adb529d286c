package metrics

import (
	"sync"

	"github.com/petalworks/flowershop-backend/pkg/telemetry"
)

var (
	// Inventory counters
	ProductsSold   *telemetry.Counter
	StockAdjusted  *telemetry.Counter
	StockConflicts *telemetry.Counter

	// Auth counters
	LoginsSucceeded *telemetry.Counter
	LoginsFailed    *telemetry.Counter
	SessionsIssued  *telemetry.Counter

	initOnce sync.Once
	initErr  error
)

// Init initializes all application metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	ProductsSold, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "products_sold_total",
		Description: "Total number of units sold through the buy flow",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	StockAdjusted, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stock_adjustments_total",
		Description: "Total number of stock add/subtract operations",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	StockConflicts, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stock_conflicts_total",
		Description: "Total number of mutations rejected for insufficient stock",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	LoginsSucceeded, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "logins_succeeded_total",
		Description: "Total number of successful logins",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	LoginsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "logins_failed_total",
		Description: "Total number of failed logins",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SessionsIssued, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "sessions_issued_total",
		Description: "Total number of sessions issued",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}
