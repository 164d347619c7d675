//go:build linux

// Package stats exposes the enumerated interfaces as prometheus
// metrics. The collector is scrape-driven: every gather runs a fresh
// enumeration, so the counters always reflect the kernel's current
// view and vanished interfaces drop out on their own.
package stats

import (
	"log/slog"
	"strconv"

	"github.com/fatih/structs"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/kelpdock/nsnet/ifaddrs"
)

var logger *slog.Logger

// Metric labels (note these are **always** strings):
//
//	iface: the interface name
//	ifindex: the interface index within its namespace
var baseLabels = []string{"iface", "ifindex"}

type Collector struct {
	Config

	// counters maps each rtnl_link_stats64 field tag to its metric
	// descriptor; the set is derived from the struct tags so the two
	// can't drift apart.
	counters map[string]*prometheus.Desc

	up  *prometheus.Desc
	mtu *prometheus.Desc

	scrapeErrors prometheus.Counter
}

func NewCollector(c *Config) *Collector {
	if c.Log {
		logger = slog.Default().With("t", "stats")
	} else {
		logger = slog.New(slog.DiscardHandler)
	}

	col := &Collector{
		Config:   *c,
		counters: map[string]*prometheus.Desc{},
		up: prometheus.NewDesc("iface_up",
			"Whether the interface has IFF_UP set", baseLabels, nil),
		mtu: prometheus.NewDesc("iface_mtu_bytes",
			"Configured MTU", baseLabels, nil),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iface_scrape_errors_total",
			Help: "Enumerations that failed at scrape time",
		}),
	}

	for _, f := range structs.Fields(ifaddrs.LinkStats64{}) {
		tag := f.Tag("structs")
		col.counters[tag] = prometheus.NewDesc("iface_"+tag+"_total",
			"rtnl_link_stats64 "+tag+" counter", baseLabels, nil)
	}

	return col
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.mtu
	ch <- c.scrapeErrors.Desc()
	for _, d := range c.counters {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	defer func() { ch <- c.scrapeErrors }()

	ifaces, _, err := ifaddrs.Enumerate(unix.AF_UNSPEC, unix.AF_UNSPEC, c.NetnsID)
	if err != nil {
		logger.Error("enumeration failed at scrape time", "err", err)
		c.scrapeErrors.Inc()
		return
	}

	for _, iface := range ifaces {
		labels := []string{iface.Name, strconv.FormatInt(int64(iface.Index), 10)}

		up := 0.0
		if iface.Flags&unix.IFF_UP != 0 {
			up = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, labels...)
		ch <- prometheus.MustNewConstMetric(c.mtu, prometheus.GaugeValue, float64(iface.MTU), labels...)

		if iface.Stats == nil {
			continue
		}
		for tag, v := range structs.Map(iface.Stats) {
			val, ok := v.(uint64)
			if !ok {
				continue
			}
			ch <- prometheus.MustNewConstMetric(c.counters[tag],
				prometheus.CounterValue, float64(val), labels...)
		}
	}
}
