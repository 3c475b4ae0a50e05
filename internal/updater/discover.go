// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// maxDescriptorSize bounds plugin.yml and fabric.mod.json reads.
const maxDescriptorSize = 1 << 20

// errNoDescriptor marks jars without a plugin or mod descriptor.
var errNoDescriptor = errors.New("no descriptor found")

// InstalledPlugin is a plugin jar found in the plugins directory.
type InstalledPlugin struct {
	Path    string
	Name    string
	Version string
	Author  string
}

type pluginDescriptor struct {
	Name    string    `yaml:"name"`
	Version yaml.Node `yaml:"version"`
	Author  string    `yaml:"author"`
	Authors []string  `yaml:"authors"`
}

// DiscoverPlugins reads plugin.yml (or paper-plugin.yml) from every jar in
// dir. Jars that cannot be read are reported in errs and skipped.
func DiscoverPlugins(dir string) (plugins []InstalledPlugin, errs []error) {
	jars, err := listJars(dir)
	if err != nil {
		return nil, []error{err}
	}
	for _, jar := range jars {
		data, err := readZipEntry(jar, "plugin.yml", "paper-plugin.yml")
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(jar), err))
			continue
		}
		var d pluginDescriptor
		if err := yaml.Unmarshal(data, &d); err != nil {
			errs = append(errs, fmt.Errorf("%s: parse plugin.yml: %w", filepath.Base(jar), err))
			continue
		}
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("%s: plugin.yml has no name", filepath.Base(jar)))
			continue
		}
		author := d.Author
		if author == "" && len(d.Authors) > 0 {
			author = d.Authors[0]
		}
		plugins = append(plugins, InstalledPlugin{
			Path:    jar,
			Name:    d.Name,
			Version: d.Version.Value,
			Author:  author,
		})
	}
	return plugins, errs
}

// InstalledMod is a Fabric mod jar found in the mods directory.
type InstalledMod struct {
	Path    string
	ID      string
	Name    string
	Version string
}

type fabricDescriptor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DiscoverMods reads fabric.mod.json from every jar in dir.
func DiscoverMods(dir string) (mods []InstalledMod, errs []error) {
	jars, err := listJars(dir)
	if err != nil {
		return nil, []error{err}
	}
	for _, jar := range jars {
		data, err := readZipEntry(jar, "fabric.mod.json")
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(jar), err))
			continue
		}
		var d fabricDescriptor
		if err := json.Unmarshal(data, &d); err != nil {
			errs = append(errs, fmt.Errorf("%s: parse fabric.mod.json: %w", filepath.Base(jar), err))
			continue
		}
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("%s: fabric.mod.json has no id", filepath.Base(jar)))
			continue
		}
		name := d.Name
		if name == "" {
			name = d.ID
		}
		mods = append(mods, InstalledMod{Path: jar, ID: d.ID, Name: name, Version: d.Version})
	}
	return mods, errs
}

// listJars returns the sorted *.jar files directly inside dir. A missing
// directory has no jars.
func listJars(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var jars []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
			continue
		}
		jars = append(jars, filepath.Join(dir, e.Name()))
	}
	sort.Strings(jars)
	return jars, nil
}

// readZipEntry returns the first of names found at the root of the archive.
func readZipEntry(path string, names ...string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close() //nolint:errcheck // read-only

	for _, name := range names {
		for _, f := range zr.File {
			if f.Name != name {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(io.LimitReader(rc, maxDescriptorSize))
			_ = rc.Close() //nolint:errcheck // read-only
			return data, err
		}
	}
	return nil, errNoDescriptor
}
