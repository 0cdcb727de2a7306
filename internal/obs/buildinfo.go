package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clubhire_build_info",
			Help: "Build information of the running clubhire binary.",
		},
		[]string{"component", "version"},
	)
)

// InitBuildInfo registers clubhire_build_info once and sets it to 1 for the given labels.
func InitBuildInfo(component, version string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
	buildInfo.WithLabelValues(component, version).Set(1)
}
