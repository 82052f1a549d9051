package traders

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"blackmarket-trader/internal/models"
)

// Scheduler runs the trader resupply and any other periodic host jobs.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewScheduler(db *gorm.DB, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		db:   db,
		log:  log,
		now:  time.Now,
	}
}

// ScheduleResupply advances the trader's next resupply every interval seconds.
func (s *Scheduler) ScheduleResupply(traderID string, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("resupply interval must be positive, got %d", seconds)
	}
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), func() {
		if err := s.Resupply(traderID, seconds); err != nil {
			s.log.WithError(err).Warnf("Resupply of %s failed", traderID)
		}
	})
	return err
}

// Resupply sets the trader's next resupply time one interval from now.
func (s *Scheduler) Resupply(traderID string, seconds int) error {
	next := s.now().Add(time.Duration(seconds) * time.Second).Unix()
	res := s.db.Model(&models.Trader{}).Where("id = ?", traderID).Update("next_resupply", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("trader %s is not registered", traderID)
	}
	s.log.Debugf("Trader %s resupplied, next at %d", traderID, next)
	return nil
}

// AddFunc schedules an arbitrary job on the same cron.
func (s *Scheduler) AddFunc(spec string, job func()) error {
	_, err := s.cron.AddFunc(spec, job)
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
