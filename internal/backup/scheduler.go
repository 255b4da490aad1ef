package backup

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"flashdesk/internal/logger"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a cron expression such as "*/30 * * * *" or
// "@every 30m".
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	return nil
}

// Scheduler backs up one collection periodically while a profile is open.
type Scheduler struct {
	src    Source
	folder string
	keep   int
	logger logger.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	mu      sync.Mutex
	running bool
	last    string
}

func NewScheduler(src Source, folder string, keep int, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		src:    src,
		folder: folder,
		keep:   keep,
		logger: log,
		cron:   cron.New(cron.WithParser(parser)),
	}
}

// Start schedules backups. An empty schedule leaves the scheduler idle.
func (s *Scheduler) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || schedule == "" || s.keep <= 0 {
		return nil
	}
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	id, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.RunNow(); err != nil {
			s.logger.Error("backup", err, map[string]interface{}{"folder": s.folder})
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule backups: %w", err)
	}
	s.entryID = id
	s.cron.Start()
	s.running = true

	s.logger.Info("backup", "scheduler started", map[string]interface{}{
		"schedule": schedule,
		"keep":     s.keep,
	})
	return nil
}

// Stop waits for a running backup and stops scheduling new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Debug("backup", "scheduler stopped", nil)
}

// Shutdown stops the scheduler for the shutdown manager.
func (s *Scheduler) Shutdown() error {
	s.Stop()
	return nil
}

// RunNow takes a backup immediately.
func (s *Scheduler) RunNow() (string, error) {
	path, err := Backup(s.src, s.folder, s.keep, time.Now())
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.last = path
	s.mu.Unlock()
	s.logger.Debug("backup", "backup written", map[string]interface{}{"path": path})
	return path, nil
}

// Last is the path of the latest backup taken by this scheduler.
func (s *Scheduler) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Next returns when the next scheduled backup runs, or nil when idle.
func (s *Scheduler) Next() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}
