package main

import (
	"fmt"
	"strings"
	"time"

	"monad_community_portal/internal/api"
	"monad_community_portal/internal/cache"
	"monad_community_portal/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Redis    cache.Config      `yaml:"redis"`
	Server   ServerConfig      `yaml:"server"`
	Chain    ChainConfig       `yaml:"chain"`
	Twitter  api.TwitterConfig `yaml:"twitter"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	FrontendURL string `yaml:"frontendUrl"`
}

type ChainConfig struct {
	RPCURL      string `yaml:"rpcUrl"`
	ChainID     int64  `yaml:"chainId"`
	Name        string `yaml:"name"`
	ExplorerURL string `yaml:"explorerUrl"`

	OperatorKey string `yaml:"operatorKey"`
	AdminWallet string `yaml:"adminWallet"`

	GameContract   string `yaml:"gameContract"`
	VotingContract string `yaml:"votingContract"`
	BadgeContract  string `yaml:"badgeContract"`
	CheckInAddress string `yaml:"checkInAddress"`

	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	ReceiptTimeout time.Duration `yaml:"receiptTimeout"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
