package config

import (
	"fmt"
	"time"

	"deal-workers/internal/engine/cashflow"
	"deal-workers/internal/engine/gate"
	"deal-workers/internal/engine/scoring"
	"deal-workers/internal/engine/strategy"
	"deal-workers/internal/logistics"
)

type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Server    ServerConfig            `mapstructure:"server"`
	Ledger    LedgerConfig            `mapstructure:"ledger"`
	Engine    EngineConfig            `mapstructure:"engine"`
	Logistics LogisticsConfig         `mapstructure:"logistics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ElasticsearchConfig is optional; without addresses decisions are not audited.
type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	AuditIndex string   `mapstructure:"audit_index"`
}

func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

// RedisConfig is optional; without an address quotes are not cached.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
)

type LedgerConfig struct {
	Backend string `mapstructure:"backend"`
}

type EngineConfig struct {
	Scoring  scoring.Weights     `mapstructure:"scoring"`
	Risk     cashflow.Thresholds `mapstructure:"risk"`
	Strategy strategy.Thresholds `mapstructure:"strategy"`
	Gate     gate.Limits         `mapstructure:"gate"`
}

type HTTPCarrierConfig struct {
	Name     string `mapstructure:"name"`
	Endpoint string `mapstructure:"endpoint"`
}

type LogisticsConfig struct {
	ProviderTimeout    int                         `mapstructure:"provider_timeout"` // milliseconds
	Retries            int                         `mapstructure:"retries"`
	BackoffMs          int                         `mapstructure:"backoff"`
	QuoteCacheTTL      int                         `mapstructure:"quote_cache_ttl"` // seconds
	Weights            logistics.Weights           `mapstructure:"weights"`
	Carriers           []logistics.RateCard        `mapstructure:"carriers"`
	HTTPCarriers       []HTTPCarrierConfig         `mapstructure:"http_carriers"`
	Tariffs            map[string]logistics.Tariff `mapstructure:"tariffs"`
	DefaultTariff      logistics.Tariff            `mapstructure:"default_tariff"`
	Distances          map[string]float64          `mapstructure:"distances"`
	DomesticMultiplier float64                     `mapstructure:"domestic_multiplier"`
	DefaultMultiplier  float64                     `mapstructure:"default_multiplier"`
}

// Defaults is the configuration every loaded file is overlaid on.
func Defaults() Config {
	return Config{
		App: AppConfig{Name: "deal-workers", Version: "1.0.0", Environment: "development"},
		Camunda: CamundaConfig{
			MaxJobsActive:  10,
			Timeout:        30000,
			RequestTimeout: 30000,
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Port:           5432,
				MaxConnections: 25,
				MaxIdle:        5,
				SSLMode:        "disable",
			},
			Elasticsearch: ElasticsearchConfig{AuditIndex: "deal-decisions"},
		},
		Workers: map[string]WorkerConfig{},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Server:  ServerConfig{Address: ":8080"},
		Ledger:  LedgerConfig{Backend: LedgerMemory},
		Engine: EngineConfig{
			Scoring:  scoring.DefaultWeights(),
			Risk:     cashflow.DefaultThresholds(),
			Strategy: strategy.DefaultThresholds(),
			Gate:     gate.DefaultLimits(),
		},
		Logistics: LogisticsConfig{
			ProviderTimeout:    3000,
			Retries:            2,
			BackoffMs:          200,
			QuoteCacheTTL:      600,
			Weights:            logistics.DefaultWeights(),
			DefaultTariff:      logistics.UnknownDestinationTariff,
			DomesticMultiplier: 0.5,
			DefaultMultiplier:  1.5,
		},
	}
}

// BuildGate wires the decision core from the engine section.
func (e EngineConfig) BuildGate() *gate.Gate {
	return gate.New(
		scoring.NewEngine(e.Scoring),
		cashflow.NewValidator(e.Risk),
		strategy.NewMachine(e.Strategy),
		e.Gate,
	)
}

func (l LogisticsConfig) TariffTable() *logistics.TariffTable {
	if len(l.Tariffs) == 0 {
		return logistics.DefaultTariffTable()
	}
	return logistics.NewTariffTable(l.Tariffs, l.DefaultTariff)
}

func (l LogisticsConfig) DistanceTable() *logistics.Distances {
	if len(l.Distances) == 0 {
		return logistics.DefaultDistances()
	}
	return logistics.NewDistances(l.Distances, l.DomesticMultiplier, l.DefaultMultiplier)
}

func (l LogisticsConfig) RateCards() []logistics.RateCard {
	if len(l.Carriers) == 0 {
		return logistics.DefaultRateCards()
	}
	return l.Carriers
}

func (l LogisticsConfig) Timeout() time.Duration {
	return GetDuration(l.ProviderTimeout)
}

// AttemptTimeout splits the provider budget across the first try and every
// retry so a hung carrier cannot use it up in one attempt.
func (l LogisticsConfig) AttemptTimeout() time.Duration {
	attempts := l.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	return l.Timeout() / time.Duration(attempts)
}

func (l LogisticsConfig) CacheTTL() time.Duration {
	return time.Duration(l.QuoteCacheTTL) * time.Second
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
