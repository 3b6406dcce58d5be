// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/ytrelay/ytrelay/color"
	"github.com/ytrelay/ytrelay/constant"
	"github.com/ytrelay/ytrelay/key"
	"github.com/ytrelay/ytrelay/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerAddress, ":5000", "Address the relay listens on")
	register(key.ServerMode, constant.ModeProduction, "Server mode.\nAvailable options are: production, development\nDevelopment mode adds error details to failed download responses")
	register(key.ServerShutdownTimeout, 10, "Seconds to wait for in-flight downloads on shutdown")
	register(key.PolicyAllowedHosts, []string{"youtube.com", "www.youtube.com", "youtu.be"}, "Hostnames accepted in download URLs")
	register(key.PolicyMaxDuration, 3600, "Longest video accepted, in seconds")
	register(key.CorsOrigins, []string{"http://localhost:5173"}, "Origins allowed to call the relay from a browser.\nUse \"*\" to allow any origin")
	register(key.RateLimitEnable, true, "Throttle requests per client address")
	register(key.RateLimitMax, 100, "Requests allowed per client within a window")
	register(key.RateLimitWindow, 900, "Rate limit window, in seconds")
	register(key.RedisAddress, "", "Redis address (host:port) for shared rate limiting.\nLeave empty to keep limits in process")
	register(key.RedisPassword, "", "Redis password")
	register(key.RedisDB, 0, "Redis database index")
	register(key.ResolverChromeTLS, false, "Present a Chrome TLS fingerprint to the video host")
	register(key.ClientServer, "http://localhost:5000", "Relay base URL used by the download client")
	register(key.ClientMaxRetries, 3, "Retries after a failed download attempt")
	register(key.ClientRetryDelay, 1000, "Base retry delay in milliseconds.\nRetry n waits n times this value")
	register(key.ClientTimeout, 300, "Timeout of a single download attempt, in seconds")
	register(key.DownloadsPath, "", "Directory downloads are saved to.\nDefaults to the user's Downloads folder")
	register(key.LogsWrite, false, "Write logs to a file")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.LogsStderr, false, "Write logs to stderr when file logging is disabled")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, squares, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			return style.Fg(color.Toggle(value))(strconv.FormatBool(value))
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
