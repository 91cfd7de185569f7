package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// JanitorService evicts idle sessions on a cron schedule. It owns one
// background loop; sweeps run in their own goroutines and Stop waits for any
// in flight before returning.
type JanitorService struct {
	sessions *SessionService
	schedule cron.Schedule
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	stopped  bool // Prevents double-close of stopChan
}

// NewJanitorService parses the cron schedule up front so a bad expression
// fails at boot, not at the first tick. An empty schedule takes the default.
func NewJanitorService(sessions *SessionService, schedule string) (*JanitorService, error) {
	if schedule == "" {
		schedule = constants.JanitorSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	parsed, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return &JanitorService{
		sessions: sessions,
		schedule: parsed,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins the janitor background loop
func (j *JanitorService) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	log.Println("⏰ Session janitor starting...")

	timer := time.NewTimer(j.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			j.wg.Add(1)
			go func() {
				defer j.wg.Done()
				j.sweep()
			}()
			timer.Reset(j.untilNext())
		case <-j.stopChan:
			log.Println("⏰ Session janitor stopping...")
			j.wg.Wait() // Wait for a sweep in flight
			log.Println("⏰ Session janitor stopped")
			return
		}
	}
}

// Stop gracefully stops the janitor
func (j *JanitorService) Stop() {
	j.mu.Lock()
	if !j.running || j.stopped {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.stopped = true
	j.mu.Unlock()

	close(j.stopChan)
}

// untilNext computes the wait until the schedule's next firing. A
// non-positive result (clock skew) retries in a minute instead of spinning.
func (j *JanitorService) untilNext() time.Duration {
	now := time.Now()
	d := j.schedule.Next(now).Sub(now)
	if d <= 0 {
		d = time.Minute
	}
	return d
}

// sweep runs one eviction pass with panic isolation so a bad push callback
// cannot kill the loop.
func (j *JanitorService) sweep() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Panic in janitor sweep: %v", r)
		}
	}()

	start := time.Now()
	evicted := j.sessions.SweepIdle()
	if evicted > 0 {
		log.Printf("🧹 Janitor: swept %d idle session(s) in %v, %d live", evicted, time.Since(start), j.sessions.Count())
	}
}
