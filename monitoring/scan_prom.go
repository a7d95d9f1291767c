// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "vulnwatch_scan_duration_seconds",
	Help:    "Duration of full manifest scans.",
	Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
})

var DependenciesProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vulnwatch_scan_dependencies_processed_total",
	Help: "Dependencies that completed the lookup and persist pipeline.",
})

var DependenciesDegraded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vulnwatch_scan_dependencies_degraded_total",
	Help: "Dependencies that failed during a scan and produced a degraded result entry.",
})

var NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vulnwatch_notifications_created_total",
	Help: "Persisted notifications by type.",
}, []string{"type"})

var RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "vulnwatch_realtime_connections",
	Help: "Currently registered realtime push connections.",
})
