package types

import (
	"errors"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/alistairewj/oasis/logger"
	"gopkg.in/yaml.v3"
)

const (
	// pipeline type
	SeverityPipeline = "severity"

	// score
	OasisScore = "oasis"

	// output features
	SubscoresFeature = "subscores"
	MortalityFeature = "mortality"
)

// Configuration selects the output features of one scoring response entry.
// Scoring semantics themselves are never configuration-driven.
type Configuration struct {
	Name     string   `json:"name"`
	FilePath string   `json:"file_path"`
	Pipeline string   `yaml:"pipeline" json:"pipeline"`
	Score    string   `yaml:"score" json:"score"`
	Features []string `yaml:"features" json:"features"`
}

func (cfg Configuration) CheckFeature(featureName string) bool {
	for _, feat := range cfg.Features {
		if feat == featureName {
			return true
		}
	}

	return false
}

func LoadConfigurations(dirPath string) ([]Configuration, error) {
	cfgLogger := logger.NewLogger("LoadConfigurations")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.DirEntry) {
			defer wg.Done()
			cfg := Configuration{
				Name:     strings.Split(file.Name(), ".yaml")[0],
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := os.ReadFile(cfg.FilePath)
			if err != nil {
				cfgLogger.Err(err)
				return
			}
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				cfgLogger.Err(err)
				return
			}

			// check pipeline and score types
			if cfg.Pipeline != SeverityPipeline {
				cfgLogger.Err(errors.New("wrong pipeline type"))
				return
			}
			if cfg.Score != OasisScore {
				cfgLogger.Err(errors.New("wrong score type"))
				return
			}

			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	return configs, nil
}
