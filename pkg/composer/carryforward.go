package composer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/apiclient"
	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

// CalibrationLookup fetches the last completed calibration of a sensor.
type CalibrationLookup interface {
	LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error)
}

// CarryForwardResult is the outcome of one lookup. Last is nil when the
// sensor has no completed report.
type CarryForwardResult struct {
	SensorID int64
	Last     *models.LastCalibration
	Err      error
}

// CarryForward runs the last-calibration lookup for the selected sensor in
// the background. At most one lookup is live: starting another, or calling
// Cancel, abandons the previous one and its result is never delivered.
type CarryForward struct {
	lookup CalibrationLookup
	logger *zap.Logger

	mu       sync.Mutex
	gen      uint64
	sensorID int64
	cancel   context.CancelFunc
}

// NewCarryForward creates a CarryForward backed by lookup.
func NewCarryForward(lookup CalibrationLookup, logger *zap.Logger) *CarryForward {
	return &CarryForward{
		lookup: lookup,
		logger: logger.Named("carry-forward"),
	}
}

// Start abandons any lookup in flight and begins one for sensorID. The
// returned channel yields at most one result and is then closed. A lookup
// that was superseded, cancelled, or whose ctx ended closes the channel
// without a result.
func (c *CarryForward) Start(ctx context.Context, sensorID int64) <-chan CarryForwardResult {
	lookupCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.sensorID = sensorID
	c.cancel = cancel
	c.mu.Unlock()

	out := make(chan CarryForwardResult, 1)
	go func() {
		defer close(out)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Last-calibration lookup panicked",
					zap.Int64("sensor_id", sensorID),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
		}()

		last, err := c.lookup.LastCalibration(lookupCtx, sensorID)

		if !c.finish(gen) || lookupCtx.Err() != nil {
			c.logger.Debug("Discarding stale last-calibration lookup", zap.Int64("sensor_id", sensorID))
			return
		}

		if err != nil {
			if isNotFound(err) {
				err = nil
			} else {
				c.logger.Warn("Last-calibration lookup failed",
					zap.Int64("sensor_id", sensorID),
					zap.Error(err))
			}
			last = nil
		}
		out <- CarryForwardResult{SensorID: sensorID, Last: last, Err: err}
	}()
	return out
}

// Cancel abandons the lookup in flight, if any.
func (c *CarryForward) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sensorID = 0
	c.gen++
}

// Pending returns the sensor whose lookup is in flight.
func (c *CarryForward) Pending() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sensorID, c.cancel != nil
}

// finish clears the in-flight slot if gen still owns it.
func (c *CarryForward) finish(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.cancel = nil
	c.sensorID = 0
	return true
}

func isNotFound(err error) bool {
	return apiclient.IsNotFound(err) || errors.Is(err, apperrors.ErrNotFound)
}
