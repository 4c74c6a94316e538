package router

// Parameter storage limits. Routes with more parameters still match; the
// extra parameters are not captured.
const (
	MaxParams        = 8
	MaxParamNameLen  = 31
	MaxParamValueLen = 127
)

// Param is a single named path parameter.
type Param struct {
	Name  string
	Value string
}

// Params holds the parameters captured for one request, in pattern order.
type Params []Param

// Get returns the value of the first parameter named name.
func (ps Params) Get(name string) string {
	for _, p := range ps {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

func (ps *Params) add(name, value string) {
	if len(*ps) >= MaxParams {
		return
	}
	if len(name) > MaxParamNameLen {
		name = name[:MaxParamNameLen]
	}
	if len(value) > MaxParamValueLen {
		value = value[:MaxParamValueLen]
	}
	*ps = append(*ps, Param{Name: name, Value: value})
}

// matchPattern walks pattern and path in lock-step. A ":name" segment
// consumes the path up to the next '/' or the end; every other byte must
// match exactly. Both strings must be exhausted together.
func matchPattern(pattern, path string, ps *Params) bool {
	i, j := 0, 0
	for i < len(pattern) && j < len(path) {
		if pattern[i] == ':' {
			start := i + 1
			for i < len(pattern) && pattern[i] != '/' {
				i++
			}
			name := pattern[start:i]

			vstart := j
			for j < len(path) && path[j] != '/' {
				j++
			}
			ps.add(name, path[vstart:j])
			continue
		}

		if pattern[i] != path[j] {
			return false
		}
		i++
		j++
	}
	return i == len(pattern) && j == len(path)
}
