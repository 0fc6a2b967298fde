// Package config loads the ingestion gateway's configuration via viper,
// using SetDefault + AutomaticEnv (dots mapped to underscores) + Validate.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the fully resolved gateway configuration, per spec §6.
type Config struct {
	TCP struct {
		Host string
		Port int
	}
	Kafka struct {
		BootstrapServers []string
	}
	HL7 struct {
		ParserVersion string
	}
	HealthcareOrganization struct {
		Code string
		Name string
	}
	Topics struct {
		RequestIn                string
		InboundFHIRTransactions  string
		InboundFHIRTransactionsExceptions string
	}
}

// Load builds a viper instance bound to environment variables and an
// optional config file, applies defaults, and returns the resolved
// Config. path may be empty, in which case only defaults and env vars
// apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("tcp.host", "0.0.0.0")
	v.SetDefault("tcp.port", 2575)
	v.SetDefault("kafka.bootstrapservers", "localhost:9092")
	v.SetDefault("hl7.parser.version", "2.5")
	v.SetDefault("healthcareorganization.code", "SONHO")
	v.SetDefault("healthcareorganization.name", "")
	v.SetDefault("hl7v2message.requestin.topic", "hl7v2.requestIn")
	v.SetDefault("hl7v2message.inboundfhirtransactions.topic", "hl7v2.inboundFhirTransactions")
	v.SetDefault("hl7v2message.inboundfhirtransactions.exceptions.topic", "hl7v2.inboundFhirTransactions.exceptions")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	cfg.TCP.Host = v.GetString("tcp.host")
	cfg.TCP.Port = v.GetInt("tcp.port")
	cfg.Kafka.BootstrapServers = strings.Split(v.GetString("kafka.bootstrapservers"), ",")
	cfg.HL7.ParserVersion = v.GetString("hl7.parser.version")
	cfg.HealthcareOrganization.Code = v.GetString("healthcareorganization.code")
	cfg.HealthcareOrganization.Name = v.GetString("healthcareorganization.name")
	cfg.Topics.RequestIn = v.GetString("hl7v2message.requestin.topic")
	cfg.Topics.InboundFHIRTransactions = v.GetString("hl7v2message.inboundfhirtransactions.topic")
	cfg.Topics.InboundFHIRTransactionsExceptions = v.GetString("hl7v2message.inboundfhirtransactions.exceptions.topic")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the gateway needs before it can bind
// and start publishing.
func (c *Config) Validate() error {
	if c.TCP.Port <= 0 || c.TCP.Port > 65535 {
		return fmt.Errorf("config: invalid tcp.port %d", c.TCP.Port)
	}
	if len(c.Kafka.BootstrapServers) == 0 || c.Kafka.BootstrapServers[0] == "" {
		return fmt.Errorf("config: kafka.bootstrapservers must not be empty")
	}
	if c.HealthcareOrganization.Code == "" {
		return fmt.Errorf("config: healthcareOrganization.code must not be empty")
	}
	return nil
}
