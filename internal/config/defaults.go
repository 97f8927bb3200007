package config

import (
	"time"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/intelligence/rules"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "lotproc"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"
	DefaultCacheTTL  = 24 * time.Hour

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "lotproc-workers"
	DefaultKafkaRequestTopic = "lots.process.request"
	DefaultKafkaResultTopic  = "lots.process.result"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "lotproc-results"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 8
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  An empty rules
// section is replaced with the built-in French/English rule-set.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultCacheTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "lotproc"
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = DefaultKafkaRequestTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultKafkaResultTopic
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Rules ─────────────────────────────────────────────────────────────────
	def := rules.Default()
	if len(cfg.Rules.NumberWords) == 0 {
		cfg.Rules.NumberWords = def.NumberWords
	}
	if len(cfg.Rules.TwoDMaterials) == 0 {
		cfg.Rules.TwoDMaterials = def.TwoDMaterials
	}
	if len(cfg.Rules.AssemblageKeywords) == 0 {
		cfg.Rules.AssemblageKeywords = def.AssemblageKeywords
	}
	if len(cfg.Rules.Force3DKeywords) == 0 {
		cfg.Rules.Force3DKeywords = def.Force3DKeywords
	}
	if len(cfg.Rules.PanelKeywords) == 0 {
		cfg.Rules.PanelKeywords = def.PanelKeywords
	}
	if len(cfg.Rules.MixedTechniqueKeywords) == 0 {
		cfg.Rules.MixedTechniqueKeywords = def.MixedTechniqueKeywords
	}
	if len(cfg.Rules.FashionKeywords) == 0 {
		cfg.Rules.FashionKeywords = def.FashionKeywords
	}
	if len(cfg.Rules.ComplexKeywords) == 0 {
		cfg.Rules.ComplexKeywords = def.ComplexKeywords
	}
	if len(cfg.Rules.RugKeywords) == 0 {
		cfg.Rules.RugKeywords = def.RugKeywords
	}
	if len(cfg.Rules.CurtainKeywords) == 0 {
		cfg.Rules.CurtainKeywords = def.CurtainKeywords
	}
	if len(cfg.Rules.BookKeywords) == 0 {
		cfg.Rules.BookKeywords = def.BookKeywords
	}
	if len(cfg.Rules.MaterialNames) == 0 {
		cfg.Rules.MaterialNames = def.MaterialNames
	}
	if cfg.Rules.DefaultDepth2D == 0 {
		cfg.Rules.DefaultDepth2D = def.DefaultDepth2D
	}
	if cfg.Rules.HighCountThreshold == 0 {
		cfg.Rules.HighCountThreshold = def.HighCountThreshold
	}
	cfg.Rules = cfg.Rules.Normalize()
}
