// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_api_requests_total",
			Help: "Onboarding API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboarding_api_request_duration_seconds",
			Help:    "Onboarding API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	VerificationCodesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_verification_codes_sent_total",
			Help: "Verification codes delivered by SMS",
		},
	)

	VerificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_verification_attempts_total",
			Help: "Verification code checks by outcome",
		},
		[]string{"outcome"},
	)

	OnboardingCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_completed_total",
			Help: "Accounts that finished onboarding, by role",
		},
		[]string{"role"},
	)
)
