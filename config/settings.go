package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/ytrelay/ytrelay/client"
	"github.com/ytrelay/ytrelay/key"
	"github.com/ytrelay/ytrelay/policy"
	"github.com/ytrelay/ytrelay/ratelimit"
	"github.com/ytrelay/ytrelay/server"
	"github.com/ytrelay/ytrelay/where"
)

// The builders below snapshot viper into the immutable structs each component is constructed with.
// Components never read viper themselves.

// Policy returns the download policy.
func Policy() policy.Policy {
	return policy.Policy{MaxDurationSeconds: viper.GetInt(key.PolicyMaxDuration)}
}

// AllowedHosts returns the hostnames accepted by the URL validator.
func AllowedHosts() []string {
	return viper.GetStringSlice(key.PolicyAllowedHosts)
}

// Server returns the HTTP server options.
func Server() server.Options {
	return server.Options{
		Address:         viper.GetString(key.ServerAddress),
		Mode:            viper.GetString(key.ServerMode),
		ShutdownTimeout: time.Duration(viper.GetInt(key.ServerShutdownTimeout)) * time.Second,
		CorsOrigins:     viper.GetStringSlice(key.CorsOrigins),
	}
}

// RateLimit returns the per-client throttling configuration.
func RateLimit() ratelimit.Config {
	return ratelimit.Config{
		Enabled: viper.GetBool(key.RateLimitEnable),
		Max:     viper.GetInt(key.RateLimitMax),
		Window:  time.Duration(viper.GetInt(key.RateLimitWindow)) * time.Second,
	}
}

// Redis returns the location of the shared rate limit store.
func Redis() ratelimit.RedisOptions {
	return ratelimit.RedisOptions{
		Address:  viper.GetString(key.RedisAddress),
		Password: viper.GetString(key.RedisPassword),
		DB:       viper.GetInt(key.RedisDB),
	}
}

// ChromeTLS reports whether provider connections present a Chrome TLS fingerprint.
func ChromeTLS() bool {
	return viper.GetBool(key.ResolverChromeTLS)
}

// Client returns the download client options. The download directory is resolved eagerly.
func Client() client.Options {
	return client.Options{
		Server:     viper.GetString(key.ClientServer),
		MaxRetries: viper.GetInt(key.ClientMaxRetries),
		RetryDelay: time.Duration(viper.GetInt(key.ClientRetryDelay)) * time.Millisecond,
		Timeout:    time.Duration(viper.GetInt(key.ClientTimeout)) * time.Second,
		Hosts:      AllowedHosts(),
		Dir:        where.Downloads(),
		TempDir:    where.Temp(),
	}
}
