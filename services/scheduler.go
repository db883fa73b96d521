package services

import (
	"os"

	"github.com/alphabatem/common/context"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const defaultSweepSchedule = "@every 1h"

// SchedulerService runs periodic maintenance. Currently a single job that
// expires enrollments whose access window has closed.
type SchedulerService struct {
	context.DefaultService

	enrollmentSvc *EnrollmentService

	schedule string
	cron     *cron.Cron
}

const SCHEDULER_SVC = "scheduler_svc"

func (svc SchedulerService) Id() string {
	return SCHEDULER_SVC
}

func (svc *SchedulerService) Configure(ctx *context.Context) error {
	svc.schedule = os.Getenv("ENROLLMENT_SWEEP_SCHEDULE")
	if svc.schedule == "" {
		svc.schedule = defaultSweepSchedule
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *SchedulerService) Start() error {
	svc.enrollmentSvc = svc.Service(ENROLLMENT_SVC).(*EnrollmentService)

	svc.cron = cron.New()
	if _, err := svc.cron.AddFunc(svc.schedule, svc.SweepExpired); err != nil {
		return err
	}
	svc.cron.Start()

	log.Info().Str("schedule", svc.schedule).Msg("Enrollment expiry sweep scheduled")
	return nil
}

func (svc *SchedulerService) Shutdown() {
	if svc.cron != nil {
		<-svc.cron.Stop().Done()
	}
}

func (svc *SchedulerService) SweepExpired() {
	expired, err := svc.enrollmentSvc.ExpireOverdue()
	if err != nil {
		log.Error().Err(err).Msg("Enrollment expiry sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Msg("Enrollment expiry sweep finished")
	}
}
