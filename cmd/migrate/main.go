package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"monad_community_portal/internal/repository"

	"github.com/spf13/viper"
)

func main() {
	var (
		direction directionFlag = "up"
		path                   = flag.String("path", "./migrations", "migrations directory")
	)
	flag.Var(&direction, "direction", "up, down or version")
	flag.Parse()

	cfg, err := loadDatabaseConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	url := cfg.GetDatabaseURL()

	switch direction {
	case "up":
		if err := repository.RunMigrations(url, *path); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := repository.RollbackMigrations(url, *path); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		fmt.Println("last migration rolled back")
	case "version":
		version, dirty, err := repository.MigrationVersion(url, *path)
		if err != nil {
			log.Fatalf("Version check failed: %v", err)
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
	}
}

type directionFlag string

func (f *directionFlag) String() string { return string(*f) }

func (f *directionFlag) Set(v string) error {
	switch v {
	case "up", "down", "version":
		*f = directionFlag(v)
		return nil
	}
	return fmt.Errorf("unknown direction %q", v)
}

func loadDatabaseConfig() (*repository.Config, error) {
	viper.SetConfigName("config")
	viper.AddConfigPath("./")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg struct {
		Database repository.Config `yaml:"database"`
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg.Database, nil
}
