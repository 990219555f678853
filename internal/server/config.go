package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// builtinConfigs provides default config values that are returned when no
// user-defined config exists for a key. The namespace index groups them by
// prefix so listConfigsWithBuiltins can merge them in.
var builtinConfigs = map[string]*model.Config{
	"grid:collapsed": {
		Key:   "grid:collapsed",
		Value: json.RawMessage(`{"expanded":[]}`),
	},
}

var builtinConfigsByNamespace = func() map[string][]*model.Config {
	m := map[string][]*model.Config{}
	for key, cfg := range builtinConfigs {
		if i := strings.Index(key, ":"); i > 0 {
			ns := key[:i]
			m[ns] = append(m[ns], cfg)
		}
	}
	return m
}()

// getConfig looks up a config in the store, falling back to builtin defaults.
func (s *GridServer) getConfig(ctx context.Context, key string) (*model.Config, error) {
	config, err := s.store.GetConfig(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		if builtin, ok := builtinConfigs[key]; ok {
			return builtin, nil
		}
	}
	return config, err
}

// setConfig validates and stores a config. Values must be JSON, and values
// under the grid namespace must decode as a GridView.
func (s *GridServer) setConfig(ctx context.Context, key string, value json.RawMessage) (*model.Config, error) {
	if key == "" {
		return nil, inputError("key is required")
	}
	if !strings.Contains(key, ":") {
		return nil, inputError("key must have the form namespace:name")
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, inputError("value must be valid JSON")
	}
	if strings.HasPrefix(key, model.GridViewKey("")) {
		var view model.GridView
		if err := json.Unmarshal(value, &view); err != nil {
			return nil, inputError(fmt.Sprintf("invalid grid view: %v", err))
		}
	}

	config := &model.Config{Key: key, Value: value}
	if err := s.store.SetConfig(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to set config: %w", err)
	}
	return config, nil
}

// listConfigsWithBuiltins fetches configs from the store and merges in builtin
// defaults that haven't been overridden.
func (s *GridServer) listConfigsWithBuiltins(ctx context.Context, namespace string) ([]*model.Config, error) {
	configs, err := s.store.ListConfigs(ctx, namespace)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]struct{}, len(configs))
	for _, c := range configs {
		stored[c.Key] = struct{}{}
	}
	for _, b := range builtinConfigsByNamespace[namespace] {
		if _, ok := stored[b.Key]; !ok {
			configs = append(configs, b)
		}
	}

	return configs, nil
}
