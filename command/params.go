package command

import "github.com/rotoshake/imagecanvas-sub005/errors"

// params is a lightweight typed accessor over a command's raw parameter map,
// grounded on the same "read loosely-typed JSON params, fail validate()
// rather than panic" style the pipeline expects from every command.
type params map[string]interface{}

func (p params) str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func (p params) strSlice(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (p params) f64(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func (p params) pos(key string) ([2]float64, bool) {
	switch v := p[key].(type) {
	case [2]float64:
		return v, true
	case []float64:
		if len(v) == 2 {
			return [2]float64{v[0], v[1]}, true
		}
	case []interface{}:
		if len(v) == 2 {
			x, xok := toFloat(v[0])
			y, yok := toFloat(v[1])
			if xok && yok {
				return [2]float64{x, y}, true
			}
		}
	}
	return [2]float64{}, false
}

func (p params) posSlice(key string) [][2]float64 {
	raw, ok := p[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([][2]float64, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case []interface{}:
			if len(v) == 2 {
				x, xok := toFloat(v[0])
				y, yok := toFloat(v[1])
				if xok && yok {
					out = append(out, [2]float64{x, y})
				}
			}
		case [2]float64:
			out = append(out, v)
		}
	}
	return out
}

func (p params) boolVal(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

func (p params) boolMap(key string) map[string]bool {
	raw, ok := p[key].(map[string]interface{})
	if !ok {
		if m, ok2 := p[key].(map[string]bool); ok2 {
			return m
		}
		return nil
	}
	out := make(map[string]bool, len(raw))
	for k, v := range raw {
		if b, ok := v.(bool); ok {
			out[k] = b
		}
	}
	return out
}

func (p params) anyMap(key string) map[string]interface{} {
	if m, ok := p[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func requireNodeIDs(p params) ([]string, error) {
	if ids := p.strSlice("nodeIds"); len(ids) > 0 {
		return ids, nil
	}
	if id := p.str("nodeId"); id != "" {
		return []string{id}, nil
	}
	return nil, errors.Mark(errors.New("missing nodeId(s)"), errors.ErrValidation)
}
