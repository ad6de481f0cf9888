package config

import (
	"fmt"
	"sort"
)

// ValidLogLevels contains the accepted log levels.
var ValidLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}

	if !ValidLogLevels[c.Log.Level] {
		return fmt.Errorf("log.level %q is invalid (must be debug, info, warn or error)", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q is invalid (must be text or json)", c.Log.Format)
	}

	for i, m := range c.Container.Mounts {
		if m.Source == "" || m.Target == "" {
			return fmt.Errorf("container.mounts[%d]: source and target are required", i)
		}
	}

	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port %d is out of range", c.SSH.Port)
	}
	if c.SSH.Retries < 0 {
		return fmt.Errorf("ssh.retries must not be negative")
	}

	if err := c.validateHosts(); err != nil {
		return fmt.Errorf("hosts validation failed: %w", err)
	}

	if cm := c.Templates.ConfigMap; cm.Enabled() && cm.Namespace == "" {
		return fmt.Errorf("templates.configmap.namespace is required when a configmap is named")
	}

	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when archiving is enabled")
	}

	return nil
}

func (c *Config) validateHosts() error {
	names := make([]string, 0, len(c.Hosts))
	for name := range c.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		h := c.Hosts[name]
		switch {
		case h.Address == "" && h.Server == "":
			return fmt.Errorf("host %q: address or hcloud server is required", name)
		case h.Address != "" && h.Server != "":
			return fmt.Errorf("host %q: address and hcloud server are mutually exclusive", name)
		case h.Port < 0 || h.Port > 65535:
			return fmt.Errorf("host %q: port %d is out of range", name, h.Port)
		}
	}
	return nil
}
