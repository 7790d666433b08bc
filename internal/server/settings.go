package server

import (
	"context"
	"os"
	"strconv"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/juev/sedit-lsp/internal/history"
)

const (
	settingsSection = "sedit"

	EnvUserID = "SEDIT_USER_ID"
)

type completionSettings struct {
	Enabled bool
}

type serverSettings struct {
	UserID       string
	Conversation string
	Completion   completionSettings
	Limits       history.Limits
}

func defaultServerSettings() serverSettings {
	return serverSettings{
		Completion: completionSettings{
			Enabled: true,
		},
		Limits: history.DefaultLimits(),
	}
}

func normalizeServerSettings(settings serverSettings) serverSettings {
	defaults := defaultServerSettings()
	settings.UserID = strings.TrimSpace(settings.UserID)
	settings.Conversation = strings.TrimSpace(settings.Conversation)
	if settings.Limits.MaxFileSizeBytes <= 0 {
		settings.Limits.MaxFileSizeBytes = defaults.Limits.MaxFileSizeBytes
	}
	return settings
}

func (s *Server) setSettings(settings serverSettings) {
	settings = normalizeServerSettings(settings)
	s.settingsMu.Lock()
	previous := s.settings.Limits
	s.settings = settings
	s.settingsMu.Unlock()
	if s.loader == nil || previous == settings.Limits {
		return
	}
	s.loader.SetLimits(settings.Limits)
	s.loader.ClearCache()
	s.reloadTranscript()
}

// reloadTranscript rereads the current transcript, preferring an open
// buffer over the file on disk.
func (s *Server) reloadTranscript() {
	if s.workspace == nil {
		return
	}
	path := s.workspace.TranscriptPath()
	if path == "" {
		return
	}
	if content, ok := s.GetDocument(protocol.DocumentURI(uri.File(path))); ok {
		s.workspace.UpdateFile(path, content)
		return
	}
	s.workspace.Reload(path)
}

func (s *Server) getSettings() serverSettings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// currentUserID falls back to the environment when the client did not
// configure a user.
func (s *Server) currentUserID() string {
	if id := s.getSettings().UserID; id != "" {
		return id
	}
	return strings.TrimSpace(os.Getenv(EnvUserID))
}

func (s *Server) refreshConfiguration(ctx context.Context) {
	if s.client == nil || !s.supportsConfiguration {
		return
	}
	result, err := s.client.Configuration(ctx, &protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{
			{Section: settingsSection},
		},
	})
	if err != nil || len(result) == 0 {
		return
	}
	settings := parseSettingsFromRaw(s.getSettings(), result[0])
	s.setSettings(settings)
	s.workspace.SetTranscriptPath(settings.Conversation)
}

func (s *Server) DidChangeConfiguration(_ context.Context, params *protocol.DidChangeConfigurationParams) error {
	if params != nil && params.Settings != nil {
		settings := parseSettingsFromRaw(s.getSettings(), params.Settings)
		s.setSettings(settings)
		s.workspace.SetTranscriptPath(settings.Conversation)
	}
	go s.refreshConfiguration(context.Background())
	return nil
}

func parseSettingsFromRaw(base serverSettings, raw interface{}) serverSettings {
	settings := base
	rawMap, ok := raw.(map[string]interface{})
	if !ok {
		return normalizeServerSettings(settings)
	}
	if nested, ok := rawMap[settingsSection]; ok {
		return parseSettingsFromRaw(settings, nested)
	}
	settings = applySettingsMap(settings, rawMap)
	return normalizeServerSettings(settings)
}

func applySettingsMap(settings serverSettings, raw map[string]interface{}) serverSettings {
	if value, ok := raw["userId"].(string); ok {
		settings.UserID = value
	}
	if value, ok := raw["conversation"].(string); ok {
		settings.Conversation = value
	}

	if completionRaw, ok := raw["completion"].(map[string]interface{}); ok {
		if value, ok := toBool(completionRaw["enabled"]); ok {
			settings.Completion.Enabled = value
		}
	}
	if value, ok := toBool(raw["completion.enabled"]); ok {
		settings.Completion.Enabled = value
	}

	if limitsRaw, ok := raw["limits"].(map[string]interface{}); ok {
		if value, ok := toInt64(limitsRaw["maxFileSizeBytes"]); ok {
			settings.Limits.MaxFileSizeBytes = value
		}
	}
	if value, ok := toInt64(raw["limits.maxFileSizeBytes"]); ok {
		settings.Limits.MaxFileSizeBytes = value
	}

	return settings
}

func toBool(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, false
		}
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
