package services

import (
	"fmt"
	"time"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// Shared utilities for extracting configuration values from generic
// map[string]interface{} maps, common in block props and action configs.

// GetConfigString safely extracts a string value from a config map.
// It returns an empty string if the key does not exist or the value is not a string.
func GetConfigString(config map[string]interface{}, key string) string {
	if val, ok := config[key].(string); ok {
		return val
	}
	return ""
}

// GetConfigStringRequired extracts a string value and returns an error if missing or empty.
func GetConfigStringRequired(config map[string]interface{}, key string) (string, error) {
	val := GetConfigString(config, key)
	if val == "" {
		return "", fmt.Errorf("missing required config key: %s", key)
	}
	return val, nil
}

// GetConfigMap extracts a nested map[string]interface{} from a config map.
func GetConfigMap(config map[string]interface{}, key string) (map[string]interface{}, bool) {
	if val, ok := config[key].(map[string]interface{}); ok {
		return val, true
	}
	return nil, false
}

// GetConfigBool extracts a bool value, tolerating string and numeric forms.
func GetConfigBool(config map[string]interface{}, key string) bool {
	val, ok := config[key]
	if !ok {
		return false
	}
	return utils.ToBool(val)
}

// GetConfigInt extracts an integer value; JSON numbers arrive as float64.
func GetConfigInt(config map[string]interface{}, key string, fallback int) int {
	if f, ok := utils.ToFloat(config[key]); ok {
		return int(f)
	}
	return fallback
}

// GetConfigSlice extracts a list value from a config map.
func GetConfigSlice(config map[string]interface{}, key string) []interface{} {
	if list, ok := utils.ToSlice(config[key]); ok {
		return list
	}
	return nil
}

// GenerateID creates a new UUID string
func GenerateID() string {
	return utils.GenerateID()
}

// NowTimestamp returns the current time in database-friendly format
func NowTimestamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
