package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/prism/pkg/errors"
)

// Load reads a YAML file into config, substituting ${VAR} references
// from the environment first. Unset variables substitute as empty.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrorTypeNotFound, "config file %s", filePath)
		}
		return errors.Wrapf(err, errors.ErrorTypeIO, "cannot read config file %s", filePath)
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeConfig, "cannot parse %s", filePath)
	}

	return nil
}

// LoadJob loads and validates a job file.
func LoadJob(filePath string) (*Job, error) {
	var j Job
	if err := Load(filePath, &j); err != nil {
		return nil, err
	}
	if err := j.Validate(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "invalid job %s", filePath)
	}
	return &j, nil
}

// Save writes a configuration to a YAML file.
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "cannot marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return errors.Wrapf(err, errors.ErrorTypeIO, "cannot write config file %s", filePath)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
