package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Bootstrap BootstrapConfig `yaml:"bootstrap" mapstructure:"bootstrap"`
	EventLog  EventLogConfig  `yaml:"event_log" mapstructure:"event_log"`
	Aliases   AliasConfig     `yaml:"aliases" mapstructure:"aliases"`
	Tracker   TrackerConfig   `yaml:"tracker" mapstructure:"tracker"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// BootstrapConfig locates the bulk historical export.
type BootstrapConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"` // XLSX sheet name, empty = first sheet
}

// EventLogConfig locates the append-only live-event log.
type EventLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AliasConfig holds the raw alias lists mapping report columns and webhook
// keys onto semantic fields. Each value is a single separator-delimited
// string, matching the environment contract of the upstream form exports:
// pipe-separated when any alias itself contains a comma, comma-separated
// otherwise.
type AliasConfig struct {
	PrefixKeys string `yaml:"prefix_keys" mapstructure:"prefix_keys"`
	RefKeys    string `yaml:"ref_keys" mapstructure:"ref_keys"`
	OrderKeys  string `yaml:"order_keys" mapstructure:"order_keys"`
	StageKeys  string `yaml:"stage_keys" mapstructure:"stage_keys"`
	ActorKeys  string `yaml:"actor_keys" mapstructure:"actor_keys"`
	TimeKeys   string `yaml:"time_keys" mapstructure:"time_keys"`
}

// AliasSets is the split, priority-ordered form of AliasConfig. It is also
// the schema of the optional standalone alias override file.
type AliasSets struct {
	Prefix []string `yaml:"prefix"`
	Ref    []string `yaml:"ref"`
	Order  []string `yaml:"order"`
	Stage  []string `yaml:"stage"`
	Actor  []string `yaml:"actor"`
	Time   []string `yaml:"time"`
}

// Sets splits each alias list on its separator.
func (a AliasConfig) Sets() AliasSets {
	return AliasSets{
		Prefix: SplitKeys(a.PrefixKeys),
		Ref:    SplitKeys(a.RefKeys),
		Order:  SplitKeys(a.OrderKeys),
		Stage:  SplitKeys(a.StageKeys),
		Actor:  SplitKeys(a.ActorKeys),
		Time:   SplitKeys(a.TimeKeys),
	}
}

// SplitKeys splits a raw alias list. Pipe wins over comma so aliases that
// contain commas ("ORDER, PICK OR PO. NUMBER") stay intact.
func SplitKeys(raw string) []string {
	sep := ","
	if strings.Contains(raw, "|") {
		sep = "|"
	}
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadAliasFile reads a standalone YAML alias map and overlays its non-empty
// lists onto base.
func LoadAliasFile(path string, base AliasSets) (AliasSets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AliasSets{}, eris.Wrapf(err, "config: read alias file %s", path)
	}

	var file AliasSets
	if err := yaml.Unmarshal(data, &file); err != nil {
		return AliasSets{}, eris.Wrapf(err, "config: parse alias file %s", path)
	}

	merged := base
	if len(file.Prefix) > 0 {
		merged.Prefix = file.Prefix
	}
	if len(file.Ref) > 0 {
		merged.Ref = file.Ref
	}
	if len(file.Order) > 0 {
		merged.Order = file.Order
	}
	if len(file.Stage) > 0 {
		merged.Stage = file.Stage
	}
	if len(file.Actor) > 0 {
		merged.Actor = file.Actor
	}
	if len(file.Time) > 0 {
		merged.Time = file.Time
	}
	return merged, nil
}

// TrackerConfig selects between the deployment variants of the
// reconciliation engine.
type TrackerConfig struct {
	// KeyMode is "composite" (prefix + ref number) or "single" (one
	// order-value field).
	KeyMode string `yaml:"key_mode" mapstructure:"key_mode"`
	// View is the default aggregate view: "classified" drops orders with
	// neither completion flag, "all" keeps every order.
	View string `yaml:"view" mapstructure:"view"`
	// CarryForward is "paired" (actor+stage inherit together, only when
	// both are blank) or "per_field" (each field has independent last-seen
	// memory).
	CarryForward string `yaml:"carry_forward" mapstructure:"carry_forward"`
}

// ServerConfig configures the HTTP layer.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	StaticDir      string   `yaml:"static_dir" mapstructure:"static_dir"`
	WebhookSecret  string   `yaml:"webhook_secret" mapstructure:"webhook_secret"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	WebhookRPS     float64  `yaml:"webhook_rps" mapstructure:"webhook_rps"`
	WebhookBurst   int      `yaml:"webhook_burst" mapstructure:"webhook_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ORDERTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("bootstrap.path", "data/tracker_report.csv")
	v.SetDefault("event_log.path", "data/live_events.jsonl")
	v.SetDefault("aliases.prefix_keys", "Prefix,prefix")
	v.SetDefault("aliases.ref_keys", "Ref Number,Reference Number,Ref_Number,ref_number")
	v.SetDefault("aliases.order_keys", "ORDER, PICK OR PO. NUMBER|Order|Pick|PO Number|INFORMATION|Information")
	v.SetDefault("aliases.stage_keys", "Stage,stage,Status,status")
	v.SetDefault("aliases.actor_keys", "USER,User,user,Dropped off by:,Dropped off by,Dropped By")
	v.SetDefault("aliases.time_keys", "Added Time,added_time,Submitted Time,Submission Time")
	v.SetDefault("tracker.key_mode", "composite")
	v.SetDefault("tracker.view", "classified")
	v.SetDefault("tracker.carry_forward", "paired")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.webhook_rps", 5.0)
	v.SetDefault("server.webhook_burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger, named so log lines are
// attributable when aggregated alongside the other dashboard services.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger.Named("ordertrack"))

	return nil
}
