package deps

import (
	"encoding/json"

	"chakrals/internal/core/errors"
)

// packageManifest is the subset of package.json the tracker cares about.
type packageManifest struct {
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// manifestDeclares reports whether the manifest declares any of the
// tracked packages in its dependency sections.
func manifestDeclares(data []byte, packages []string) (bool, error) {
	var m packageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return false, errors.Wrap(err, errors.CodeParseError, "decode manifest")
	}

	for _, pkg := range packages {
		if _, ok := m.Dependencies[pkg]; ok {
			return true, nil
		}
		if _, ok := m.DevDependencies[pkg]; ok {
			return true, nil
		}
		if _, ok := m.PeerDependencies[pkg]; ok {
			return true, nil
		}
	}
	return false, nil
}
