package logic

import "fmt"

// Settings arrive from YAML as map[string]any, so numbers may be int or float64.

func floatValue(m map[string]any, key string, cur float64) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return cur, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return cur, fmt.Errorf("%s: expected a number, got %T", key, v)
	}
}

func boolValue(m map[string]any, key string, cur bool) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return cur, nil
	}
	b, ok := v.(bool)
	if !ok {
		return cur, fmt.Errorf("%s: expected a bool, got %T", key, v)
	}
	return b, nil
}

func checkRange(key string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s: %v out of range [%v, %v]", key, v, lo, hi)
	}
	return nil
}
