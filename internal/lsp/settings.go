package lsp

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// configSection is the settings namespace clients use for this server.
const configSection = "chakraLanguageServer"

// DocumentSettings is the per-resource slice of client configuration the
// validator consumes.
type DocumentSettings struct {
	MaxNumberOfProblems int `json:"maxNumberOfProblems"`
}

// settingsCache resolves validation settings per document. When the
// client supports scoped workspace/configuration requests, settings are
// fetched lazily per URI and cached until the next configuration change
// or document close. Otherwise a single global value is used.
type settingsCache struct {
	mu       sync.Mutex
	byURI    map[string]DocumentSettings
	global   DocumentSettings
	scoped   bool
	defaults DocumentSettings
}

func newSettingsCache(defaults DocumentSettings) *settingsCache {
	return &settingsCache{
		byURI:    make(map[string]DocumentSettings),
		global:   defaults,
		defaults: defaults,
	}
}

func (c *settingsCache) enableScoped() {
	c.mu.Lock()
	c.scoped = true
	c.mu.Unlock()
}

// forResource returns the settings for one document, fetching them from
// the client when scoped configuration is supported. The fetch blocks on
// a round trip to the client, which is why validation re-reads document
// text after calling this.
func (c *settingsCache) forResource(ctx *glsp.Context, uri string) DocumentSettings {
	c.mu.Lock()
	if !c.scoped {
		settings := c.global
		c.mu.Unlock()
		return settings
	}
	if cached, ok := c.byURI[uri]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	settings := c.fetch(ctx, uri)

	c.mu.Lock()
	c.byURI[uri] = settings
	c.mu.Unlock()
	return settings
}

func (c *settingsCache) fetch(ctx *glsp.Context, uri string) DocumentSettings {
	scope := uri
	section := configSection
	params := protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{{ScopeURI: &scope, Section: &section}},
	}

	var result []json.RawMessage
	ctx.Call(protocol.ServerWorkspaceConfiguration, params, &result)

	settings := c.defaults
	if len(result) == 0 {
		return settings
	}
	if err := json.Unmarshal(result[0], &settings); err != nil {
		slog.Warn("malformed configuration from client", "uri", uri, "error", err)
		return c.defaults
	}
	if settings.MaxNumberOfProblems <= 0 {
		settings.MaxNumberOfProblems = c.defaults.MaxNumberOfProblems
	}
	return settings
}

func (c *settingsCache) drop(uri string) {
	c.mu.Lock()
	delete(c.byURI, uri)
	c.mu.Unlock()
}

// clear drops every cached per-document entry so the next validation
// fetches fresh values from the client.
func (c *settingsCache) clear() {
	c.mu.Lock()
	c.byURI = make(map[string]DocumentSettings)
	c.mu.Unlock()
}

// setGlobal adopts pushed settings for clients without scoped
// configuration support. The payload is the raw didChangeConfiguration
// settings value, with our section nested under its name.
func (c *settingsCache) setGlobal(raw any) {
	settings := c.defaults

	if raw != nil {
		data, err := json.Marshal(raw)
		if err == nil {
			var wrapper map[string]json.RawMessage
			if err := json.Unmarshal(data, &wrapper); err == nil {
				if section, ok := wrapper[configSection]; ok {
					if err := json.Unmarshal(section, &settings); err != nil {
						settings = c.defaults
					}
				}
			}
		}
	}

	if settings.MaxNumberOfProblems <= 0 {
		settings.MaxNumberOfProblems = c.defaults.MaxNumberOfProblems
	}

	c.mu.Lock()
	c.global = settings
	c.mu.Unlock()
}

func (c *settingsCache) globalSettings() DocumentSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global
}
