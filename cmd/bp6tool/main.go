// Command bp6tool is a small demonstrator CLI wired against the RAM
// storage adapter and the custody engine: it builds one bundle from a
// TOML-configured channel, sends it (fragmenting if the payload doesn't
// fit and the channel allows fragmentation), feeds every resulting frame
// back through Receive, and reports
// the dispatch disposition for each, the way cmd/dtnd reports convergence
// status per received bundle.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/dtn7/dtn7-bp6/bpv6"
	"github.com/dtn7/dtn7-bp6/crc"
	"github.com/dtn7/dtn7-bp6/custody"
	"github.com/dtn7/dtn7-bp6/osapi"
	"github.com/dtn7/dtn7-bp6/storage"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to a bp6tool TOML configuration file")
	payload := flag.StringP("payload", "p", "hello bp6tool", "payload to build and send")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: bp6tool -c <config.toml> [-p <payload>]")
		os.Exit(2)
	}

	if err := run(*configPath, []byte(*payload)); err != nil {
		log.WithField("error", err).Fatal("bp6tool failed")
	}
}

func run(configPath string, payload []byte) error {
	cs, err := parseConfiguration(configPath)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	log.WithFields(log.Fields{
		"local":       cs.Route.Local,
		"destination": cs.Route.Destination,
		"custody":     cs.Attributes.RequestCustody,
		"integrity":   cs.Attributes.IntegrityCheck,
		"fragment":    cs.Attributes.AllowFragmentation,
	}).Info("Channel configured")

	store := storage.NewRAMStore()
	crcEngine := crc.NewEngine()
	clock := osapi.NewSyncOSAPI(0)

	var custodyEngine *custody.Engine
	if cs.Attributes.RequestCustody {
		custodyEngine = custody.NewEngine(cs.CustodyWindow)
	}

	bundle := bpv6.Create(cs.Route, cs.Attributes)
	if _, err := bundle.Build(nil, nil); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	sid, err := store.Create(nil, false, payload, -1)
	if err != nil {
		return fmt.Errorf("storage create: %w", err)
	}
	if err := store.Enqueue(sid); err != nil {
		return fmt.Errorf("storage enqueue: %w", err)
	}
	log.WithField("storage-id", sid).Info("Payload queued")

	now, clockUnreliable := clock.Now()
	if clockUnreliable {
		log.Warn("System clock reported unreliable; bundle will carry an unknown creation time and best-effort lifetime")
	}
	ts := bpv6.CreationTimestamp{Seconds: bpv6.DTNTimeFromTime(now), Sequence: 0}
	frames, flags, err := bundle.Send(crcEngine, ts, 1, payload, clockUnreliable)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if flags != 0 {
		log.WithField("flags", flags).Warn("Send reported anomaly flags")
	}
	log.WithField("frames", len(frames)).Info("Bundle sent")

	for i, frame := range frames {
		if custodyEngine != nil {
			dup, trackErr := custodyEngine.Track(custody.ActiveBundle{
				StorageID: uint64(sid.CustodyKey()),
				CustodyID: uint64(i + 1),
			})
			if trackErr != nil {
				log.WithField("error", trackErr).Warn("Custody tracking failed")
			} else if dup {
				log.WithField("fragment", i).Warn("Duplicate custody id tracked")
			}
		}

		received, outcome := bpv6.Receive(frame, cs.Route.Local, crcEngine, bpv6.DTNTimeNow())
		if outcome.Err != nil {
			log.WithFields(log.Fields{"fragment": i, "error": outcome.Err}).Error("Receive failed")
			continue
		}

		log.WithFields(log.Fields{
			"fragment":    i,
			"disposition": outcome.Disposition,
			"flags":       outcome.Flags,
		}).Info("Bundle received")

		if received != nil && outcome.Disposition == bpv6.DispositionUserPayloadLocal {
			log.WithField("bytes", len(received.Payload.Data)).Info("Payload delivered to application")
		}
	}

	if err := store.Relinquish(sid); err != nil {
		return fmt.Errorf("storage relinquish: %w", err)
	}
	return nil
}
