package relay

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	framesRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_frames_relayed_total",
			Help: "Frames fanned out to subscribers",
		},
		[]string{"room"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_frames_dropped_total",
			Help: "Frames dropped because a subscriber queue was full",
		},
		[]string{"room"},
	)
	roomsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_rooms_open",
			Help: "Rooms currently tracked by the hub",
		},
	)
	roomSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_subscribers",
			Help: "Websocket subscribers currently connected",
		},
	)
)

func init() {
	prometheus.MustRegister(framesRelayed, framesDropped, roomsOpen, roomSubscribers)
}
