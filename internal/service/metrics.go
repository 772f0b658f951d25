package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reportsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_portal_reports_created_total",
		Help: "Reports stored, by origin (json or upload).",
	}, []string{"origin"})

	imagesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_portal_images_uploaded_total",
		Help: "Images successfully written to object storage.",
	})
)
