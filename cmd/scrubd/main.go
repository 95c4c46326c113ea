// Command scrubd runs scheduled scrub-and-defrag jobs from a YAML job list,
// so a source database can be periodically scrubbed without a human
// re-typing a command line.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/nanazhai/sqlitescrub/internal/scrubengine"
)

func main() {
	configPath := flag.String("config", "scrubd.yaml", "path to the job-list config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("scrubd: %v", err)
	}

	c := cron.New()
	for _, job := range cfg.Jobs {
		job := job
		_, err := c.AddFunc(job.Schedule, func() { runJob(job) })
		if err != nil {
			log.Fatalf("scrubd: job %q: invalid schedule %q: %v", job.Name, job.Schedule, err)
		}
		log.Printf("scrubd: scheduled job %q (%s -> %s) on %q", job.Name, job.Source, job.Dest, job.Schedule)
	}

	c.Start()
	defer c.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("scrubd: shutting down")
}

func runJob(job Job) {
	log.Printf("scrubd: running job %q", job.Name)
	d := scrubengine.New(job.Verbose)
	result := d.Run(job.Source, job.Dest)
	if !result.Ok() {
		log.Printf("scrubd: job %q failed: %v", job.Name, result.Err)
		return
	}
	log.Printf(
		"scrubd: job %q complete: %d source pages, %d destination pages",
		job.Name, result.SourcePages, result.DestPages,
	)
}
