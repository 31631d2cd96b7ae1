package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func envFileFlag(v *viper.Viper) string {
	return v.GetString("env_file")
}

func addEnvFileFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("env-file", "", "Optional .env file to load before reading the configuration")
	_ = v.BindPFlag("env_file", flags.Lookup("env-file"))
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper, value string) {
	flags.String("address", value, "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "RECORDSTORE_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/recordstore", "Base path to export the webserver on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "RECORDSTORE_BASE_PATH")
}

func defaultAreaFlag(v *viper.Viper) string {
	return v.GetString("default_area")
}

func addDefaultAreaFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("default-area", "", "Area kind used when a request names none (local, sync, session)")
	_ = v.BindPFlag("default_area", flags.Lookup("default-area"))
}

func localPathFlag(v *viper.Viper) string {
	return v.GetString("local.path")
}

func addLocalPathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("local-path", "recordstore.db", "SQLite database file of the local area, :memory: keeps it in memory")
	_ = v.BindPFlag("local.path", flags.Lookup("local-path"))
	_ = v.BindEnv("local.path", "RECORDSTORE_LOCAL_PATH")
}

func syncBucketFlag(v *viper.Viper) string {
	return v.GetString("sync.bucket")
}

func addSyncBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("sync-bucket", "mem://", "Bucket URL of the sync area (gs://, s3://, azblob://, file://, mem://)")
	_ = v.BindPFlag("sync.bucket", flags.Lookup("sync-bucket"))
	_ = v.BindEnv("sync.bucket", "RECORDSTORE_SYNC_BUCKET")
}

func syncPrefixFlag(v *viper.Viper) string {
	return v.GetString("sync.prefix")
}

func addSyncPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("sync-prefix", "", "Key prefix inside the sync bucket")
	_ = v.BindPFlag("sync.prefix", flags.Lookup("sync-prefix"))
	_ = v.BindEnv("sync.prefix", "RECORDSTORE_SYNC_PREFIX")
}

func maxConnectionsFlag(v *viper.Viper) int {
	return v.GetInt("max_connections")
}

func addMaxConnectionsFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("max-connections", 256, "Maximum number of simultaneous socket connections")
	_ = v.BindPFlag("max_connections", flags.Lookup("max-connections"))
	_ = v.BindEnv("max_connections", "RECORDSTORE_MAX_CONNECTIONS")
}

func serverFlag(v *viper.Viper) string {
	return v.GetString("server")
}

func addServerFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("server", "http://localhost:8080/recordstore", "Server to talk to, a URL for http or host:port for socket")
	_ = v.BindPFlag("server", flags.Lookup("server"))
	_ = v.BindEnv("server", "RECORDSTORE_SERVER")
}

func transportFlag(v *viper.Viper) string {
	return v.GetString("transport")
}

func addTransportFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("transport", "http", "Client transport (http, socket)")
	_ = v.BindPFlag("transport", flags.Lookup("transport"))
}

func timeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("timeout")
}

func addTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("timeout", 10*time.Second, "Request timeout")
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func servicePProfEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.pprof.enabled")
}

func addServicePProfEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-pprof-enabled", false, "Enable pprof service")
	_ = v.BindPFlag("service.pprof.enabled", flags.Lookup("service-pprof-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}
