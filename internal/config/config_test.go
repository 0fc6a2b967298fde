package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.TCP.Host)
	require.Equal(t, 2575, cfg.TCP.Port)
	require.Equal(t, "SONHO", cfg.HealthcareOrganization.Code)
	require.NotEmpty(t, cfg.Topics.RequestIn)
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("TCP_PORT", "9999")
	os.Setenv("HEALTHCAREORGANIZATION_CODE", "TESTORG")
	defer os.Unsetenv("TCP_PORT")
	defer os.Unsetenv("HEALTHCAREORGANIZATION_CODE")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.TCP.Port)
	require.Equal(t, "TESTORG", cfg.HealthcareOrganization.Code)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{}
	cfg.TCP.Port = 0
	cfg.Kafka.BootstrapServers = []string{"localhost:9092"}
	cfg.HealthcareOrganization.Code = "SONHO"
	require.Error(t, cfg.Validate())
}
