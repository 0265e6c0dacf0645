package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alistairewj/oasis/api"
	"github.com/alistairewj/oasis/logger"
	"github.com/alistairewj/oasis/metrics"
	"github.com/alistairewj/oasis/pipeline"
	"github.com/alistairewj/oasis/types"
	"github.com/alistairewj/oasis/worker"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ConfigPath    string `envconfig:"OASIS_CONFIG_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"OASIS_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"OASIS_REST_API_PORT" default:"10000"`
	MetricsActive bool   `envconfig:"OASIS_METRICS_ACTIVE" default:"false"`
	MetricsPort   string `envconfig:"OASIS_METRICS_PORT" default:"9090"`
}

const pipelineStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	oasisLogger := logger.NewLogger("Main")
	fatalErrLogger := oasisLogger.Fatal().Caller()
	wrap := flag.Bool("wrap", false, "re-exec the service with panic-capturing log wrapper")
	flag.Parse()

	// wrap mode: run a child copy of the service and capture its panics
	if *wrap {
		logger.WrapProcess(os.Args[0], flag.Args()...)
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	//Load Pipeline
	pipelineChannel := make(chan pipeline.Pipeline)
	go func() {
		for retry := 0; retry < pipelineStartMaxRetries; retry++ {
			cfgs, err := types.LoadConfigurations(config.ConfigPath)
			if err != nil {
				oasisLogger.Err(err).Msg("Failed to load configurations. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			oasisLogger.Info().Msgf("Loaded %d configurations", len(cfgs))
			oasisLogger.Info().Msg("Starting pipelines loading")

			ppln, err := pipeline.Severity(pipeline.SeverityParams{Configurations: cfgs})
			if err != nil {
				oasisLogger.Err(err).Msg("Failed to start severity pipeline. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
			oasisLogger.Info().Msg("Pipelines loaded")
			pipelineChannel <- ppln
			return
		}
		fatalErrLogger.Msg("Could not start pipelines after 5 retries, exiting")
		os.Exit(1)
	}()

	// block until pipeline loads
	ppln := <-pipelineChannel

	var taskCounters *metrics.TaskCounters
	var requestCounters *metrics.RequestCounters
	if config.MetricsActive {
		provider, handler, err := metrics.Init()
		if err != nil {
			fatalErrLogger.Err(err).Msg("Failed to initialize metrics")
			os.Exit(1)
		}
		taskCounters, err = metrics.NewTaskCounters(provider)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Failed to create task counters")
			os.Exit(1)
		}
		requestCounters, err = metrics.NewRequestCounters(provider)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Failed to create request counters")
			os.Exit(1)
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", handler)
			host := fmt.Sprintf(":%s", config.MetricsPort)
			oasisLogger.Info().Msgf("Metrics on %s", host)
			err := http.ListenAndServe(host, mux)
			fatalErrLogger.Err(err).Msg("Metrics endpoint stopped with error")
		}()
	}

	if config.RestAPIActive {
		go func() {
			oasisLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{
				Pipeline: ppln,
				Counters: requestCounters,
			}
			http.HandleFunc("/", apiRequest.ProcessData)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			oasisLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	oasisLogger.Info().Msg("Start OASIS Worker")
	for {
		rmqWorker, err := worker.New(ppln, taskCounters)
		if err != nil {
			oasisLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.StartWorker()
		if err != nil {
			oasisLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}
