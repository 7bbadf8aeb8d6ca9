package services

import (
	"github.com/stayops/stayops-api/internal/cache"
	"github.com/stayops/stayops-api/internal/jobs"
	"github.com/stayops/stayops-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Transition  *TransitionService
	Audit       *AuditService
	Approval    *ApprovalService
	Scheduler   *SchedulerService
	DayBoundary *DayBoundaryService
	Settings    *SettingsService
	Job         *JobService
}

// NewServices creates all service instances. reservationCache may be
// nil when redis is not configured; payments and notifier may be nil
// when the respective collaborators are not wired in this deployment.
func NewServices(repos *repository.Repositories, worker *jobs.Worker, reservationCache *cache.ReservationCache, payments PaymentCollaborator, notifier Notifier) *Services {
	transitionSvc := NewTransitionService(repos.Reservation, repos.History, reservationCache, notifier, worker)
	auditSvc := NewAuditService(repos.Audit, repos.Reservation, repos.Settings)

	return &Services{
		Transition:  transitionSvc,
		Audit:       auditSvc,
		Approval:    NewApprovalService(repos.Approval, repos.Reservation, transitionSvc),
		Scheduler:   NewSchedulerService(repos.Reservation, repos.Property, repos.Settings, transitionSvc, auditSvc, StandardLateFeeCalculator{}, payments, worker),
		DayBoundary: NewDayBoundaryService(repos.Reservation, repos.Property, repos.Settings, repos.History),
		Settings:    NewSettingsService(repos.Settings, repos.Property),
		Job:         NewJobService(worker),
	}
}
