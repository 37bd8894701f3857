package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visa_cms_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	SlugCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visa_cms_slug_collisions_total",
		Help: "Generated slugs that needed a numeric suffix",
	})

	MainAnnouncementLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visa_cms_main_announcement_lookups_total",
		Help: "Main announcement lookups by source (cache, store) and outcome",
	}, []string{"source", "outcome"})

	ScheduledPublications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visa_cms_scheduled_publications_total",
		Help: "Announcements that became visible when their schedule passed",
	})

	TestimonialSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visa_cms_testimonial_submissions_total",
		Help: "Testimonials submitted through the public form",
	})

	ImagesPendingDeletion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "visa_cms_images_pending_deletion",
		Help: "Images marked for deletion and awaiting manual cleanup",
	})
)

func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncSlugCollision() {
	SlugCollisions.Inc()
}

func IncMainLookup(source, outcome string) {
	MainAnnouncementLookups.WithLabelValues(source, outcome).Inc()
}

func AddScheduledPublications(n int) {
	if n <= 0 {
		return
	}
	ScheduledPublications.Add(float64(n))
}

func IncTestimonialSubmission() {
	TestimonialSubmissions.Inc()
}

func SetImagesPendingDeletion(count int) {
	if count < 0 {
		count = 0
	}
	ImagesPendingDeletion.Set(float64(count))
}
