package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// requiredRoute is an operation extension clients call and expect a given
// status from, whatever the previous spec said.
type requiredRoute struct {
	Method string
	Path   string
	Status string
}

var requiredRoutes = []requiredRoute{
	{"get", "/text-story/{id}", "200"},
	{"get", "/gif-story/{id}", "200"},
	{"get", "/text-stories/hot/{cursor}", "200"},
	{"get", "/gif-stories/hot/{cursor}", "200"},
	{"post", "/new-text-story", "429"},
	{"post", "/new-gif-story", "429"},
	{"post", "/like-text-story/{id}", "400"},
	{"post", "/like-gif-story/{id}", "400"},
	{"post", "/unlike-text-story/{id}", "200"},
	{"post", "/unlike-gif-story/{id}", "200"},
	{"post", "/delete-text-story/{id}", "200"},
	{"post", "/delete-gif-story/{id}", "200"},
	{"post", "/update-flair", "200"},
	// Old extension versions must keep getting the upgrade notice.
	{"get", "/story/likes/{id}", "400"},
	{"get", "/stories/hot/{cursor}", "400"},
	{"post", "/like-story/{id}/{username}", "400"},
	{"post", "/new-story", "400"},
}

type operation struct {
	Responses map[string]struct{}
}

type parsedSpec struct {
	Paths map[string]map[string]operation
}

// parseSpec reads a swagger document. JSON input is accepted since it is valid YAML.
func parseSpec(raw []byte) (parsedSpec, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}
	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{Paths: make(map[string]map[string]operation)}
	for pathKey, pathEntry := range pathsMap {
		pathOpsRaw, ok := toMap(pathEntry)
		if !ok {
			continue
		}

		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOpsRaw {
			method := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[method]; !supported {
				continue
			}
			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}
			ops[method] = operation{Responses: responseCodes(methodMap)}
		}

		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}
	return spec, nil
}

func responseCodes(op map[string]interface{}) map[string]struct{} {
	codes := make(map[string]struct{})
	responses, ok := toMap(op["responses"])
	if !ok {
		return codes
	}
	for code := range responses {
		if normalized := strings.ToLower(strings.TrimSpace(code)); normalized != "" {
			codes[normalized] = struct{}{}
		}
	}
	return codes
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// compare lists paths, operations and response codes present in base but
// missing from revision.
func compare(base, revision parsedSpec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}
			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(code),
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

func checkRequiredRoutes(revision parsedSpec) []string {
	var issues []string
	for _, r := range requiredRoutes {
		op, ok := revision.Paths[r.Path][r.Method]
		if !ok {
			issues = append(issues, fmt.Sprintf("missing client route: %s %s", strings.ToUpper(r.Method), r.Path))
			continue
		}
		if _, ok := op.Responses[r.Status]; !ok {
			issues = append(issues, fmt.Sprintf("client route %s %s no longer documents %s", strings.ToUpper(r.Method), r.Path, r.Status))
		}
	}
	return issues
}
