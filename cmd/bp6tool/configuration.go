package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/dtn7-bp6/bpv6"
	"github.com/dtn7/dtn7-bp6/crc"
)

// tomlConfig describes bp6tool's configuration file, the same shape as
// the teacher's cmd/dtnd/configuration.go: one struct per TOML table,
// decoded in one toml.DecodeFile call.
type tomlConfig struct {
	Channel channelConf
	Logging logConf
}

// channelConf describes a single channel's Route and Attributes.
type channelConf struct {
	Local              string
	Destination        string
	ReportTo           string `toml:"report-to"`
	Lifetime           uint64
	RequestCustody     bool   `toml:"request-custody"`
	IntegrityCheck     bool   `toml:"integrity-check"`
	AllowFragmentation bool   `toml:"allow-fragmentation"`
	ClassOfService     string `toml:"class-of-service"`
	CipherSuite        string `toml:"cipher-suite"`
	MaxBundleLength    uint64 `toml:"max-bundle-length"`
	CustodyWindow      int    `toml:"custody-window"`
}

// logConf describes the Logging-configuration block.
type logConf struct {
	Level  string
	Format string
}

func parseClassOfService(s string) (bpv6.ClassOfService, error) {
	switch s {
	case "", "normal":
		return bpv6.ClassNormal, nil
	case "expedited":
		return bpv6.ClassExpedited, nil
	case "extended":
		return bpv6.ClassExtended, nil
	default:
		return 0, fmt.Errorf("unknown class-of-service %q", s)
	}
}

func parseCipherSuite(s string) (crc.Suite, error) {
	switch s {
	case "", "crc16-x25":
		return crc.CRC16X25, nil
	case "crc32-castagnoli":
		return crc.CRC32Castagnoli, nil
	default:
		return 0, fmt.Errorf("unknown cipher-suite %q", s)
	}
}

// channelSettings is what main needs out of a parsed channel: its Route,
// Attributes, and the custody window size (only meaningful if
// RequestCustody is set).
type channelSettings struct {
	Route        bpv6.Route
	Attributes   bpv6.Attributes
	CustodyWindow int
}

func parseConfiguration(filename string) (cs channelSettings, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	if conf.Logging.Level != "" {
		if lvl, lvlErr := log.ParseLevel(conf.Logging.Level); lvlErr != nil {
			log.WithFields(log.Fields{
				"level": conf.Logging.Level,
				"error": lvlErr,
			}).Warn("Failed to set log level, leaving default")
		} else {
			log.SetLevel(lvl)
		}
	}

	switch conf.Logging.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	case "json":
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		log.Warn("Unknown logging format, leaving default")
	}

	if conf.Channel.Local == "" || conf.Channel.Destination == "" {
		err = fmt.Errorf("channel.local and channel.destination are required")
		return
	}

	local, err := bpv6.ParseEndpointID(conf.Channel.Local)
	if err != nil {
		return
	}
	destination, err := bpv6.ParseEndpointID(conf.Channel.Destination)
	if err != nil {
		return
	}

	reportTo := local
	if conf.Channel.ReportTo != "" {
		if reportTo, err = bpv6.ParseEndpointID(conf.Channel.ReportTo); err != nil {
			return
		}
	}

	cos, err := parseClassOfService(conf.Channel.ClassOfService)
	if err != nil {
		return
	}
	suite, err := parseCipherSuite(conf.Channel.CipherSuite)
	if err != nil {
		return
	}

	lifetime := conf.Channel.Lifetime
	if lifetime == 0 {
		lifetime = 3600
	}
	maxLen := conf.Channel.MaxBundleLength
	if maxLen == 0 {
		maxLen = 4096
	}
	window := conf.Channel.CustodyWindow
	if window == 0 {
		window = 64
	}

	cs = channelSettings{
		Route: bpv6.Route{Local: local, Destination: destination, ReportTo: reportTo},
		Attributes: bpv6.Attributes{
			Lifetime:           lifetime,
			RequestCustody:     conf.Channel.RequestCustody,
			IntegrityCheck:     conf.Channel.IntegrityCheck,
			AllowFragmentation: conf.Channel.AllowFragmentation,
			ClassOfService:     cos,
			CipherSuite:        suite,
			MaxBundleLength:    maxLen,
		},
		CustodyWindow: window,
	}
	return
}
