package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AnalyzeConfig holds configuration for the analyze command.
type AnalyzeConfig struct {
	RPCURL        string
	ChainID       uint64
	Vault         string
	Depositor     string
	EnvioURL      string
	EnvioPassword string
	StableFees    bool
	FeeChecks     int
	Out           string
	PgDSN         string
	MaxPoints     int
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
}

// LoadAnalyze merges config file, environment variables, and flags.
func LoadAnalyze(cfgFile string, flags *pflag.FlagSet) (AnalyzeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return AnalyzeConfig{}, err
	}

	v.SetDefault("chain", uint64(1))
	v.SetDefault("envio-url", "https://indexer.hyperindex.xyz/3fec0a4/v1/graphql")
	v.SetDefault("envio-password", "testing")
	v.SetDefault("fee-checks", 5)
	v.SetDefault("max-points", 300)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	cfg := AnalyzeConfig{
		RPCURL:        v.GetString("rpc"),
		ChainID:       v.GetUint64("chain"),
		Vault:         v.GetString("vault"),
		Depositor:     v.GetString("depositor"),
		EnvioURL:      v.GetString("envio-url"),
		EnvioPassword: v.GetString("envio-password"),
		StableFees:    v.GetBool("stable-fees"),
		FeeChecks:     v.GetInt("fee-checks"),
		Out:           v.GetString("out"),
		PgDSN:         v.GetString("pg-dsn"),
		MaxPoints:     v.GetInt("max-points"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// VerifyConfig holds configuration for the verify-fees command.
type VerifyConfig struct {
	RPCURL       string
	ChainID      uint64
	Vault        string
	FromBlock    uint64
	ToBlock      uint64
	ReferenceBps uint64
	FeeChecks    int
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadVerify merges config file, environment variables, and flags.
func LoadVerify(cfgFile string, flags *pflag.FlagSet) (VerifyConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return VerifyConfig{}, err
	}

	v.SetDefault("chain", uint64(1))
	v.SetDefault("fee-checks", 5)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	cfg := VerifyConfig{
		RPCURL:       v.GetString("rpc"),
		ChainID:      v.GetUint64("chain"),
		Vault:        v.GetString("vault"),
		FromBlock:    v.GetUint64("from"),
		ToBlock:      v.GetUint64("to"),
		ReferenceBps: v.GetUint64("reference-bps"),
		FeeChecks:    v.GetInt("fee-checks"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("VAULTSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
