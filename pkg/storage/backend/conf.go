package backend

// Persisted config_data values arrive through JSON decoding, so numbers may
// be float64 and booleans may have been stored as 0/1. These accessors
// normalize the shapes a variant Config can meet.

func MapString(cf map[string]any, key string) string {
	if v, ok := cf[key].(string); ok {
		return v
	}
	return ""
}

func MapStringDefault(cf map[string]any, key, def string) string {
	if v := MapString(cf, key); v != "" {
		return v
	}
	return def
}

func MapInt(cf map[string]any, key string, def int) int {
	switch t := cf[key].(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return def
}

func MapBool(cf map[string]any, key string) bool {
	switch t := cf[key].(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return false
}
